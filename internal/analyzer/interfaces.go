package analyzer

import "image"

// FaceQualityAnalyzer measures whether a face crop is fit for attribute classification.
// Assessment is advisory; callers classify regardless of the outcome.
type FaceQualityAnalyzer interface {
	Assess(img image.Image, opts Options) Report
	Close() error
}

// MetricsCalculator handles image metrics computation
type MetricsCalculator interface {
	CalculateBasicMetrics(img image.Image) metrics
	CalculateLaplacianVariance(gray *image.Gray) float64
	CalculateBrightness(gray *image.Gray) float64
}
