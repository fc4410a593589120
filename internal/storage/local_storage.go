package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalImageFetcher reads images from the filesystem.
type LocalImageFetcher struct {
	baseDir string
}

// NewLocalImageFetcher creates a fetcher. A non-empty baseDir confines relative and
// absolute references to that directory tree.
func NewLocalImageFetcher(baseDir string) *LocalImageFetcher {
	return &LocalImageFetcher{baseDir: baseDir}
}

func (l *LocalImageFetcher) FetchImage(ctx context.Context, ref string) (Frame, error) {
	if strings.TrimSpace(ref) == "" {
		return Frame{}, fmt.Errorf("%w: empty path", ErrInvalidImagePath)
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	f, err := l.open(ref)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrInvalidImagePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrInvalidImagePath, err)
	}
	if info.IsDir() {
		return Frame{}, fmt.Errorf("%w: %s is a directory", ErrInvalidImagePath, ref)
	}

	return Decode(f, ref)
}

func (l *LocalImageFetcher) open(ref string) (*os.File, error) {
	if l.baseDir == "" {
		return os.Open(ref)
	}
	root, err := os.OpenRoot(l.baseDir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	rel := ref
	if filepath.IsAbs(ref) {
		base, err := filepath.Abs(l.baseDir)
		if err != nil {
			return nil, err
		}
		if rel, err = filepath.Rel(base, ref); err != nil {
			return nil, err
		}
	}
	return root.Open(rel)
}
