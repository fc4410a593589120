package validation

import (
	"math"
)

// Issue severities. An "error" means the attribute prediction is likely unreliable.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// QualityThresholds defines configurable thresholds for face crop validation
type QualityThresholds struct {
	// Sharpness thresholds
	MinLaplacianVariance float64
	MaxLaplacianVariance float64

	// Brightness thresholds, gray level in [0,255]
	MinBrightness float64
	MaxBrightness float64

	// Luminance thresholds, HSV value in [0,1]
	MinLuminance float64
	MaxLuminance float64

	MinSaturation float64

	// Skin is naturally red-dominant, so the allowed spread is wide.
	MaxChannelImbalance float64

	// Shortest acceptable side of the face crop, in pixels.
	MinFaceSide int
}

// DefaultQualityThresholds returns the default quality thresholds
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinLaplacianVariance: 60.0,
		MaxLaplacianVariance: 2500.0,
		MinBrightness:        60.0,
		MaxBrightness:        220.0,
		MinLuminance:         0.2,
		MaxLuminance:         0.92,
		MinSaturation:        0.05,
		MaxChannelImbalance:  0.3,
		MinFaceSide:          100,
	}
}

// QualityValidator turns face crop metrics into user-actionable issues.
type QualityValidator struct {
	thresholds QualityThresholds
}

// NewQualityValidator creates a new quality validator with default thresholds
func NewQualityValidator() *QualityValidator {
	return &QualityValidator{
		thresholds: DefaultQualityThresholds(),
	}
}

// NewQualityValidatorWithThresholds creates a quality validator with custom thresholds
func NewQualityValidatorWithThresholds(thresholds QualityThresholds) *QualityValidator {
	return &QualityValidator{
		thresholds: thresholds,
	}
}

// Thresholds returns the thresholds in use.
func (qv *QualityValidator) Thresholds() QualityThresholds { return qv.thresholds }

// QualityIssue represents a quality validation issue
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"`
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// ImageQualityMetrics represents the metrics needed for quality validation
type ImageQualityMetrics struct {
	Width          int
	Height         int
	LaplacianVar   float64
	Brightness     float64
	AvgLuminance   float64
	AvgSaturation  float64
	ChannelBalance [3]float64

	// Flags computed by the analyzer against its own thresholds.
	Overexposed   bool
	Oversaturated bool
	IncorrectWB   bool
}

// IsBlurry reports whether the crop is too soft to read skin texture.
// A very flat crop is blurry regardless of lighting. A moderately flat one is
// accepted when exposure and color look healthy, since clear skin has little detail.
func (qv *QualityValidator) IsBlurry(m ImageQualityMetrics) bool {
	if m.LaplacianVar > qv.thresholds.MinLaplacianVariance {
		return false
	}
	if m.LaplacianVar < 1.0 {
		return true
	}
	luminanceOK := m.AvgLuminance >= 0.3 && m.AvgLuminance <= 0.85
	return !(luminanceOK && qv.isChannelBalanced(m.ChannelBalance) && !m.Overexposed && !m.Oversaturated)
}

func (qv *QualityValidator) isChannelBalanced(channels [3]float64) bool {
	hi := math.Max(channels[0], math.Max(channels[1], channels[2]))
	lo := math.Min(channels[0], math.Min(channels[1], channels[2]))
	return hi-lo <= qv.thresholds.MaxChannelImbalance
}

// IsTooDark reports a gray level below MinBrightness.
func (qv *QualityValidator) IsTooDark(m ImageQualityMetrics) bool {
	return m.Brightness < qv.thresholds.MinBrightness
}

// IsTooBright reports a gray level above MaxBrightness.
func (qv *QualityValidator) IsTooBright(m ImageQualityMetrics) bool {
	return m.Brightness > qv.thresholds.MaxBrightness
}

// IsLowResolution reports a crop smaller than MinFaceSide on either side.
func (qv *QualityValidator) IsLowResolution(m ImageQualityMetrics) bool {
	return m.Width < qv.thresholds.MinFaceSide || m.Height < qv.thresholds.MinFaceSide
}

// ValidateFaceQuality checks a face crop. The result is advisory.
func (qv *QualityValidator) ValidateFaceQuality(m ImageQualityMetrics) []QualityIssue {
	var issues []QualityIssue

	if qv.IsLowResolution(m) {
		issues = append(issues, QualityIssue{
			Type:        "low_resolution",
			Message:     "Your face is too small in the photo. Move closer to the camera and retake the photo.",
			Severity:    SeverityError,
			ActualValue: float64(min(m.Width, m.Height)),
			Threshold:   float64(qv.thresholds.MinFaceSide),
		})
	}

	if qv.IsBlurry(m) {
		issues = append(issues, QualityIssue{
			Type:        "blurriness",
			Message:     "Photo is blurry. Hold the camera steady and retake the photo.",
			Severity:    SeverityError,
			ActualValue: m.LaplacianVar,
			Threshold:   qv.thresholds.MinLaplacianVariance,
		})
	} else if m.LaplacianVar >= qv.thresholds.MaxLaplacianVariance {
		issues = append(issues, QualityIssue{
			Type:        "over_sharpening",
			Message:     "Photo looks noisy or filtered. Turn off beauty filters and use natural light.",
			Severity:    SeverityWarning,
			ActualValue: m.LaplacianVar,
			Threshold:   qv.thresholds.MaxLaplacianVariance,
		})
	}

	switch {
	case qv.IsTooDark(m):
		issues = append(issues, QualityIssue{
			Type:        "too_dark",
			Message:     "Photo is too dark. Retake the photo with better lighting.",
			Severity:    SeverityError,
			ActualValue: m.Brightness,
			Threshold:   qv.thresholds.MinBrightness,
		})
	case qv.IsTooBright(m):
		issues = append(issues, QualityIssue{
			Type:        "too_bright",
			Message:     "Photo is too bright. Avoid direct sunlight or flash.",
			Severity:    SeverityError,
			ActualValue: m.Brightness,
			Threshold:   qv.thresholds.MaxBrightness,
		})
	}

	if m.Overexposed {
		issues = append(issues, QualityIssue{
			Type:     "overexposure",
			Message:  "Parts of your face are washed out by light. Move away from the light source.",
			Severity: SeverityError,
		})
	}
	if m.Oversaturated {
		issues = append(issues, QualityIssue{
			Type:     "oversaturation",
			Message:  "Colors are too strong. Turn off filters and use neutral light.",
			Severity: SeverityWarning,
		})
	}

	if m.AvgLuminance <= qv.thresholds.MinLuminance {
		issues = append(issues, QualityIssue{
			Type:        "low_luminance",
			Message:     "Photo is very dull. Use more light.",
			Severity:    SeverityWarning,
			ActualValue: m.AvgLuminance,
			Threshold:   qv.thresholds.MinLuminance,
		})
	} else if m.AvgLuminance >= qv.thresholds.MaxLuminance {
		issues = append(issues, QualityIssue{
			Type:        "high_luminance",
			Message:     "Photo is too bright. Take it in normal light.",
			Severity:    SeverityWarning,
			ActualValue: m.AvgLuminance,
			Threshold:   qv.thresholds.MaxLuminance,
		})
	}

	if m.AvgSaturation <= qv.thresholds.MinSaturation {
		issues = append(issues, QualityIssue{
			Type:        "low_saturation",
			Message:     "Photo looks faded or black and white. Use a color photo in daylight.",
			Severity:    SeverityWarning,
			ActualValue: m.AvgSaturation,
			Threshold:   qv.thresholds.MinSaturation,
		})
	}

	if m.IncorrectWB || !qv.isChannelBalanced(m.ChannelBalance) {
		issues = append(issues, QualityIssue{
			Type:      "white_balance",
			Message:   "Skin colors don't look natural. Avoid colored lights and retake the photo.",
			Severity:  SeverityWarning,
			Threshold: qv.thresholds.MaxChannelImbalance,
		})
	}

	return issues
}

// ConvertIssuesToMessages returns the user-facing message of each issue.
func (qv *QualityValidator) ConvertIssuesToMessages(issues []QualityIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (qv *QualityValidator) HasCriticalIssues(issues []QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
