package repository

import (
	"context"

	"github.com/anime-shed/skin-advisor-go/internal/storage"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// FetchImage loads and decodes the image ref points at.
	FetchImage(ctx context.Context, ref string) (storage.Frame, error)

	// ValidateImageRef checks ref without any I/O.
	ValidateImageRef(ref string) error
}
