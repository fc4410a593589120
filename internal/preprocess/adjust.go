// Package preprocess turns a cropped face raster into the fixed-size input tensor the
// classifier expects.
package preprocess

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Mode selects the contrast/brightness normalization applied before resizing.
type Mode string

const (
	ModeNone  Mode = "none"
	ModeScale Mode = "scale"
	ModeAuto  Mode = "auto"
)

// Auto levels targets.
const (
	autoTargetMean   = 128.0
	autoTargetStdDev = 64.0
	autoMaxAlpha     = 3.0
)

// ParseMode resolves a configured normalization name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNone, ModeScale, ModeAuto:
		return m, nil
	case "":
		return ModeNone, nil
	}
	return "", fmt.Errorf("unknown normalization mode %q", s)
}

// Adjustment is a deterministic contrast (Alpha) and brightness (Beta) correction.
type Adjustment struct {
	Mode  Mode
	Alpha float64
	Beta  float64
}

// Apply returns the adjusted image. ModeNone returns img unchanged.
func (a Adjustment) Apply(img image.Image) *image.RGBA {
	src := toRGBA(img)
	alpha, beta := a.Alpha, a.Beta
	switch a.Mode {
	case ModeScale:
	case ModeAuto:
		alpha, beta = autoLevels(src)
	default:
		return src
	}

	b := src.Bounds()
	dst := image.NewRGBA(b)
	for i := 0; i+3 < len(src.Pix); i += 4 {
		dst.Pix[i] = scaleAbs(src.Pix[i], alpha, beta)
		dst.Pix[i+1] = scaleAbs(src.Pix[i+1], alpha, beta)
		dst.Pix[i+2] = scaleAbs(src.Pix[i+2], alpha, beta)
		dst.Pix[i+3] = src.Pix[i+3]
	}
	return dst
}

// scaleAbs mirrors saturating |alpha*p + beta|.
func scaleAbs(p uint8, alpha, beta float64) uint8 {
	v := math.Abs(alpha*float64(p) + beta)
	return uint8(math.Min(255, math.Round(v)))
}

// autoLevels derives alpha/beta that move luminance toward the target mean and spread.
func autoLevels(img *image.RGBA) (alpha, beta float64) {
	n := len(img.Pix) / 4
	if n == 0 {
		return 1, 0
	}
	lum := make([]float64, 0, n)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		y := 0.299*float64(img.Pix[i]) + 0.587*float64(img.Pix[i+1]) + 0.114*float64(img.Pix[i+2])
		lum = append(lum, y)
	}
	mean, std := stat.MeanStdDev(lum, nil)
	alpha = 1
	if std > 1 {
		alpha = math.Min(autoTargetStdDev/std, autoMaxAlpha)
	}
	beta = autoTargetMean - alpha*mean
	return alpha, beta
}

// toRGBA returns img as an origin-anchored RGBA whose Pix holds exactly its pixels.
// Sub-images share a wider parent buffer and are copied.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && isCompact(rgba) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return dst
}

func isCompact(img *image.RGBA) bool {
	b := img.Bounds()
	return b.Min == (image.Point{}) && img.Stride == 4*b.Dx() && len(img.Pix) == 4*b.Dx()*b.Dy()
}
