package repository

import (
	"errors"

	"github.com/anime-shed/skin-advisor-go/internal/storage"
)

var (
	// ErrInvalidImagePath indicates a reference that cannot be read as an image.
	ErrInvalidImagePath = storage.ErrInvalidImagePath

	// ErrUnsupportedSource indicates a reference the configured source cannot serve.
	ErrUnsupportedSource = errors.New("unsupported image source")
)
