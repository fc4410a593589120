package models

import (
	"github.com/anime-shed/skin-advisor-go/internal/catalog"
	"github.com/anime-shed/skin-advisor-go/internal/recommender"
)

// AnalyzeRequest is the JSON body of POST /analyze. Exactly one of Path and URL is set.
type AnalyzeRequest struct {
	Path       string `json:"path,omitempty"`
	URL        string `json:"url,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Category   string `json:"category,omitempty"`
	Undertone  string `json:"undertone,omitempty"`
	RefreshKey string `json:"refresh_key,omitempty"`
	Detail     bool   `json:"detail,omitempty"`
	FastMode   bool   `json:"fast_mode,omitempty"`
}

// RecommendRequest asks for products matching caller-supplied attributes.
type RecommendRequest struct {
	SkinTone    string `json:"skin_tone" binding:"required"`
	SkinType    string `json:"skin_type" binding:"required"`
	SkinConcern string `json:"skin_concern" binding:"required"`
	SkinTexture string `json:"skin_texture" binding:"required"`
	Undertone   string `json:"undertone,omitempty"`
	Category    string `json:"category,omitempty"`
	Mode        string `json:"mode,omitempty"`
}

// ReloadRequest is the body of POST /model/reload.
type ReloadRequest struct {
	RefreshKey string `json:"refresh_key"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// ProductResponse is the detail view of GET /view_product.
type ProductResponse struct {
	Product     *catalog.Product `json:"product,omitempty"`
	Found       bool             `json:"found"`
	Suggestions []string         `json:"suggestions,omitempty"`
	Catalog     CatalogStatus    `json:"catalog"`
}

// GalleryResponse lists products that have an image.
type GalleryResponse struct {
	Items   []recommender.GalleryItem `json:"items"`
	Catalog CatalogStatus             `json:"catalog"`
}

// ModelStatus reports the classifier handle.
type ModelStatus struct {
	State      string `json:"state"`
	Backbone   string `json:"backbone,omitempty"`
	Origin     string `json:"origin,omitempty"`
	Generation uint64 `json:"generation"`
	RefreshKey string `json:"refresh_key,omitempty"`
	LoadedAt   string `json:"loaded_at,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string      `json:"status"`
	Model   ModelStatus `json:"model"`
	Catalog string      `json:"catalog"`
}
