package analyzer

import (
	"image"
	"image/color"
	"testing"
)

// texturedSkin is a warm skin tone with a fine checker pattern for sharpness.
func texturedSkin(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{200, 150, 130, 255}
			if (x+y)%2 == 0 {
				c = color.RGBA{170, 120, 105, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestAssess_GoodFace(t *testing.T) {
	a := NewFaceQualityAnalyzer()
	defer a.Close()

	report := a.Assess(texturedSkin(200, 200), DefaultOptions())

	if !report.Quality.IsValid {
		t.Errorf("Expected valid face crop, got issues %+v", report.Issues)
	}
	if report.Quality.Blurry {
		t.Errorf("Expected sharp crop, laplacian %f", report.Metrics.LaplacianVar)
	}
	if report.Metrics.Resolution != "200x200" {
		t.Errorf("Expected resolution 200x200, got %s", report.Metrics.Resolution)
	}
}

func TestAssess_FlatDarkFace(t *testing.T) {
	a := NewFaceQualityAnalyzer()

	report := a.Assess(createTestImage(150, 150, color.RGBA{20, 15, 12, 255}), DefaultOptions())

	if report.Quality.IsValid {
		t.Error("Expected a flat dark crop to be flagged")
	}
	if !report.Quality.Blurry || !report.Quality.IsTooDark {
		t.Errorf("Expected blurry and too dark flags, got %+v", report.Quality)
	}
	if len(report.Issues) == 0 {
		t.Error("Expected user-facing issues")
	}
}

func TestAssess_SmallCrop(t *testing.T) {
	a := NewFaceQualityAnalyzer()

	report := a.Assess(texturedSkin(60, 60), DefaultOptions())
	if !report.Quality.IsLowResolution {
		t.Error("Expected low resolution flag")
	}
}

func TestAssess_Overexposed(t *testing.T) {
	a := NewFaceQualityAnalyzer()

	report := a.Assess(createTestImage(150, 150, color.RGBA{250, 250, 248, 255}), DefaultOptions())
	if !report.Quality.Overexposed {
		t.Errorf("Expected overexposure, luminance %f", report.Metrics.AvgLuminance)
	}
}

func TestAssess_WhiteBalance(t *testing.T) {
	a := NewFaceQualityAnalyzer()
	blue := createTestImage(150, 150, color.RGBA{40, 60, 220, 255})

	if !a.Assess(blue, DefaultOptions()).Quality.IncorrectWB {
		t.Error("Expected white balance flag under blue light")
	}
	if a.Assess(blue, FastOptions()).Quality.IncorrectWB {
		t.Error("Expected fast mode to skip white balance")
	}
}

func TestAssess_FastModeKeepsResolution(t *testing.T) {
	a := NewFaceQualityAnalyzer()

	report := a.Assess(texturedSkin(640, 480), FastOptions())
	if report.Metrics.Resolution != "640x480" {
		t.Errorf("Expected original resolution, got %s", report.Metrics.Resolution)
	}
	if report.Quality.IsLowResolution {
		t.Error("Expected fast mode not to affect resolution check")
	}
}

func TestAssess_Empty(t *testing.T) {
	a := NewFaceQualityAnalyzer()

	report := a.Assess(image.NewRGBA(image.Rect(0, 0, 0, 0)), DefaultOptions())
	if report.Quality.IsValid || len(report.Issues) != 1 || report.Issues[0].Type != "empty_image" {
		t.Errorf("Expected a single empty_image issue, got %+v", report)
	}
}

func TestDownscale(t *testing.T) {
	img := createTestImage(800, 400, color.RGBA{1, 2, 3, 255})

	got := downscale(img, 200).Bounds()
	if got.Dx() != 200 || got.Dy() != 100 {
		t.Errorf("Expected 200x100, got %dx%d", got.Dx(), got.Dy())
	}
	if downscale(img, 1000) != image.Image(img) {
		t.Error("Expected small images to pass through")
	}
}
