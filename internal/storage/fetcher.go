// Package storage reads face photos from local disk, HTTP(S) or Azure Blob Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
)

// ErrInvalidImagePath is returned when a reference cannot be opened or does not decode
// as a JPEG or PNG image.
var ErrInvalidImagePath = errors.New("invalid image path")

// Frame is one decoded image. It is owned by the caller for a single analysis.
type Frame struct {
	Image  image.Image
	Format string
	Source string
}

// Width returns the frame width in pixels.
func (f Frame) Width() int { return f.Image.Bounds().Dx() }

// Height returns the frame height in pixels.
func (f Frame) Height() int { return f.Image.Bounds().Dy() }

// ImageFetcher loads and decodes the image a reference points at.
type ImageFetcher interface {
	FetchImage(ctx context.Context, ref string) (Frame, error)
}

// Decode reads a JPEG or PNG image from r.
func Decode(r io.Reader, source string) (Frame, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %s: failed to decode image: %w", ErrInvalidImagePath, source, err)
	}
	if img.Bounds().Empty() {
		return Frame{}, fmt.Errorf("%w: %s: empty image", ErrInvalidImagePath, source)
	}
	return Frame{Image: img, Format: format, Source: source}, nil
}
