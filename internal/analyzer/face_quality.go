package analyzer

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/anime-shed/skin-advisor-go/pkg/models"
	"github.com/anime-shed/skin-advisor-go/pkg/validation"
)

// maxChannelSpread flags white balance problems independent of the validator thresholds.
const maxChannelSpread = 0.35

type faceQualityAnalyzer struct {
	validator *validation.QualityValidator
}

// NewFaceQualityAnalyzer creates an analyzer with default validator thresholds.
func NewFaceQualityAnalyzer() FaceQualityAnalyzer {
	return NewFaceQualityAnalyzerWithValidator(validation.NewQualityValidator())
}

// NewFaceQualityAnalyzerWithValidator creates an analyzer using v for issue reporting.
func NewFaceQualityAnalyzerWithValidator(v *validation.QualityValidator) FaceQualityAnalyzer {
	if v == nil {
		v = validation.NewQualityValidator()
	}
	return &faceQualityAnalyzer{validator: v}
}

// Assess measures a face crop. It is safe for concurrent use.
func (a *faceQualityAnalyzer) Assess(img image.Image, opts Options) Report {
	bounds := img.Bounds()
	if bounds.Empty() {
		return Report{Issues: []validation.QualityIssue{{
			Type:     "empty_image",
			Message:  "No image content to assess. Please retake the photo.",
			Severity: validation.SeverityError,
		}}}
	}

	// Resolution is judged on the original crop, everything else may use a thumbnail.
	measured := img
	if opts.FastMode {
		measured = downscale(img, opts.FastMaxSide)
	}

	calc := NewMetricsCalculator(opts.MaxWorkers)
	basic := calc.CalculateBasicMetrics(measured)
	gray := toGray(measured)
	laplacian := calc.CalculateLaplacianVariance(gray)
	brightness := calc.CalculateBrightness(gray)

	quality := models.Quality{
		Overexposed:   basic.avgLuminance > opts.OverexposureThreshold,
		Oversaturated: basic.avgSaturation > opts.OversaturationThreshold,
	}
	if !opts.SkipWhiteBalance {
		quality.IncorrectWB = channelSpread(basic.channels()) > maxChannelSpread
	}

	qm := validation.ImageQualityMetrics{
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		LaplacianVar:   laplacian,
		Brightness:     brightness,
		AvgLuminance:   basic.avgLuminance,
		AvgSaturation:  basic.avgSaturation,
		ChannelBalance: basic.channels(),
		Overexposed:    quality.Overexposed,
		Oversaturated:  quality.Oversaturated,
		IncorrectWB:    quality.IncorrectWB,
	}
	issues := a.validator.ValidateFaceQuality(qm)

	quality.Blurry = laplacian < opts.BlurThreshold
	quality.IsTooDark = a.validator.IsTooDark(qm)
	quality.IsTooBright = a.validator.IsTooBright(qm)
	quality.IsLowResolution = a.validator.IsLowResolution(qm)
	quality.IsValid = !a.validator.HasCriticalIssues(issues)

	return Report{
		Quality: quality,
		Metrics: models.ImageMetrics{
			LaplacianVar:   laplacian,
			AvgLuminance:   basic.avgLuminance,
			AvgSaturation:  basic.avgSaturation,
			ChannelBalance: basic.channels(),
			Resolution:     fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
			Brightness:     brightness,
		},
		Issues: issues,
	}
}

func (a *faceQualityAnalyzer) Close() error { return nil }

func channelSpread(c [3]float64) float64 {
	hi := max(c[0], c[1], c[2])
	lo := min(c[0], c[1], c[2])
	return hi - lo
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.SetGray(x, y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
		}
	}
	return gray
}

// downscale bounds the longest side to maxSide, keeping aspect ratio.
func downscale(img image.Image, maxSide int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}
	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
