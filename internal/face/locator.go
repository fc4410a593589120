// Package face finds the most prominent face in an image and crops it.
package face

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
)

// ErrNoFaceDetected means the detector returned no usable candidate.
var ErrNoFaceDetected = errors.New("no face detected")

// Detector returns candidate face boxes in its native order. Implementations are
// responsible for discarding candidates below their minimum size.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]image.Rectangle, error)
	Close() error
}

// Region is a located face. Image is an owned copy of the crop whose bounds start at
// the origin; Box is expressed in the source image's coordinates.
type Region struct {
	Box   image.Rectangle
	Image *image.RGBA
}

// Locator selects and crops the largest detected face.
type Locator struct {
	detector Detector
}

// NewLocator wraps a detector.
func NewLocator(d Detector) *Locator {
	return &Locator{detector: d}
}

// Locate returns the largest face in img, or ErrNoFaceDetected.
func (l *Locator) Locate(ctx context.Context, img image.Image) (Region, error) {
	if img == nil || img.Bounds().Empty() {
		return Region{}, ErrNoFaceDetected
	}
	if err := ctx.Err(); err != nil {
		return Region{}, err
	}

	candidates, err := l.detector.Detect(ctx, img)
	if err != nil {
		return Region{}, fmt.Errorf("face detection: %w", err)
	}

	box, ok := Largest(img.Bounds(), candidates)
	if !ok {
		return Region{}, ErrNoFaceDetected
	}
	return Region{Box: box, Image: Crop(img, box)}, nil
}

// Close releases the detector.
func (l *Locator) Close() error {
	return l.detector.Close()
}

// Largest clamps candidates to bounds and returns the one with the greatest area.
// Ties keep the earlier candidate.
func Largest(bounds image.Rectangle, candidates []image.Rectangle) (image.Rectangle, bool) {
	var best image.Rectangle
	bestArea := 0
	for _, c := range candidates {
		c = c.Canon().Intersect(bounds)
		if c.Empty() {
			continue
		}
		if area := c.Dx() * c.Dy(); area > bestArea {
			best, bestArea = c, area
		}
	}
	return best, bestArea > 0
}

// Crop copies box out of img into a new raster.
func Crop(img image.Image, box image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	draw.Draw(dst, dst.Bounds(), img, box.Min, draw.Src)
	return dst
}
