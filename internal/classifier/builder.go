package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/skin-advisor-go/internal/logger"
)

// DefaultSeed makes freshly built heads reproducible across processes.
const DefaultSeed uint64 = 42

// Builder produces a fully constructed model.
type Builder interface {
	Build(ctx context.Context) (*Model, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context) (*Model, error)

func (f BuilderFunc) Build(ctx context.Context) (*Model, error) { return f(ctx) }

// ArtifactBuilder loads heads from ArtifactDir when present and otherwise builds
// fresh ones. Every Build creates a new extractor so no runtime state is shared
// between snapshots.
type ArtifactBuilder struct {
	Factory     ExtractorFactory
	Backbone    Backbone
	ArtifactDir string
	Seed        uint64
}

// Build implements Builder.
func (b ArtifactBuilder) Build(ctx context.Context) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	ex, err := b.Factory.CreateExtractor(b.Backbone)
	if err != nil {
		return nil, fmt.Errorf("create %s extractor: %w", b.Backbone, err)
	}

	var m *Model
	if b.ArtifactDir != "" {
		m, err = LoadArtifact(b.ArtifactDir, ex)
	} else {
		err = ErrNoArtifact
	}
	if errors.Is(err, ErrNoArtifact) {
		m, err = NewFreshModel(ex, b.Seed)
	}
	if err != nil {
		ex.Close()
		return nil, err
	}

	logger.Component("classifier").WithFields(logrus.Fields{
		"backbone":    b.Backbone,
		"origin":      m.Origin(),
		"legacy":      m.Legacy(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Model built")
	return m, nil
}
