package models

import (
	"time"

	"github.com/anime-shed/skin-advisor-go/internal/recommender"
	"github.com/anime-shed/skin-advisor-go/pkg/validation"
)

// AnalysisResult is the outcome of one face photo analysis.
type AnalysisResult struct {
	ID                string    `json:"id"`
	Source            string    `json:"source"`
	Timestamp         time.Time `json:"timestamp"`
	ProcessingTimeSec float64   `json:"processing_time_sec"`

	Image      ImageMetadata `json:"image"`
	Face       FaceBox       `json:"face"`
	Attributes Attributes    `json:"attributes"`
	Quality    QualityReport `json:"quality"`
	Model      ModelInfo     `json:"model"`

	Recommendations Recommendations `json:"recommendations"`

	Detail []AttributeDetail `json:"detail,omitempty"`

	// Advisory messages; they never block classification.
	Warnings []string `json:"warnings,omitempty"`
}

// FaceBox is the located face in source image coordinates.
type FaceBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Attributes holds the decoded label and its confidence per dimension.
type Attributes struct {
	SkinTone    string `json:"skin_tone"`
	SkinType    string `json:"skin_type"`
	SkinConcern string `json:"skin_concern"`
	SkinTexture string `json:"skin_texture"`
	Undertone   string `json:"undertone"`

	Confidence map[string]float64 `json:"confidence"`

	// Set when the model has four heads and undertone was synthesized.
	LegacyUndertone bool `json:"legacy_undertone,omitempty"`
}

// ModelInfo identifies the model snapshot that produced a prediction.
type ModelInfo struct {
	Backbone   string `json:"backbone"`
	Origin     string `json:"origin"`
	Generation uint64 `json:"generation"`
}

// QualityReport is the advisory assessment of a face crop.
type QualityReport struct {
	Quality Quality                   `json:"flags"`
	Metrics ImageMetrics              `json:"metrics"`
	Issues  []validation.QualityIssue `json:"issues,omitempty"`
}

// Quality represents face crop quality flags.
type Quality struct {
	Overexposed     bool `json:"overexposed"`
	Oversaturated   bool `json:"oversaturated"`
	IncorrectWB     bool `json:"incorrect_white_balance"`
	Blurry          bool `json:"blurry"`
	IsLowResolution bool `json:"is_low_resolution,omitempty"`
	IsTooDark       bool `json:"is_too_dark,omitempty"`
	IsTooBright     bool `json:"is_too_bright,omitempty"`
	IsValid         bool `json:"is_valid"`
}

// ImageMetrics represents measurements over the face crop.
type ImageMetrics struct {
	LaplacianVar   float64    `json:"laplacian_variance"`
	AvgLuminance   float64    `json:"average_luminance"`
	AvgSaturation  float64    `json:"average_saturation"`
	ChannelBalance [3]float64 `json:"channel_balance"`
	Resolution     string     `json:"resolution,omitempty"`
	Brightness     float64    `json:"brightness"`
}

// Recommendations carries the matched products for the requested mode.
// Exactly one of the item lists is populated.
type Recommendations struct {
	Mode     string                     `json:"mode"`
	General  []recommender.GeneralItem  `json:"general,omitempty"`
	Skincare []recommender.SkincareItem `json:"skincare,omitempty"`
	Makeup   []recommender.Group        `json:"makeup,omitempty"`
	Catalog  CatalogStatus              `json:"catalog"`
}

// CatalogStatus mirrors a degraded catalog lookup.
type CatalogStatus struct {
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
	NoMatch  bool   `json:"no_match,omitempty"`
}

// ImageMetadata describes a decoded source image.
type ImageMetadata struct {
	ContentType string `json:"content_type,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format"`
}
