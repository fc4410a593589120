package repository

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/anime-shed/skin-advisor-go/internal/storage"
	"github.com/anime-shed/skin-advisor-go/pkg/models"
	"github.com/anime-shed/skin-advisor-go/pkg/validation"
)

// Kind names the storage backing a repository.
type Kind string

const (
	KindLocal Kind = "local"
	KindHTTP  Kind = "http"
	KindAzure Kind = "azure"
)

type imageRepository struct {
	kind      Kind
	fetcher   storage.ImageFetcher
	validator *validation.RefValidator
}

// NewImageRepository wraps fetcher. kind decides how references are validated.
func NewImageRepository(kind Kind, fetcher storage.ImageFetcher) ImageRepository {
	return &imageRepository{
		kind:      kind,
		fetcher:   fetcher,
		validator: validation.NewRefValidator(),
	}
}

func (r *imageRepository) FetchImage(ctx context.Context, ref string) (storage.Frame, error) {
	if err := r.ValidateImageRef(ref); err != nil {
		return storage.Frame{}, err
	}
	return r.fetcher.FetchImage(ctx, ref)
}

func (r *imageRepository) ValidateImageRef(ref string) error {
	switch r.kind {
	case KindHTTP:
		if err := r.validator.ValidateImageURL(ref); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidImagePath, err)
		}
	case KindLocal:
		if err := r.validator.ValidateImagePath(ref); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidImagePath, err)
		}
	case KindAzure:
		if _, _, err := storage.ParseBlobRef(ref); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedSource, r.kind)
	}
	return nil
}

// FrameMetadata describes a decoded frame. The content type comes from the decoded
// format, falling back to the source's extension.
func FrameMetadata(frame storage.Frame) models.ImageMetadata {
	md := models.ImageMetadata{
		Format: strings.ToUpper(frame.Format),
	}
	if frame.Image != nil {
		md.Width, md.Height = frame.Width(), frame.Height()
	}
	if frame.Format != "" {
		md.ContentType = mime.TypeByExtension("." + frame.Format)
	}
	if md.ContentType == "" {
		md.ContentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(frame.Source)))
	}
	return md
}
