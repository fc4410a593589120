package classifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/anime-shed/skin-advisor-go/internal/attributes"
	"github.com/anime-shed/skin-advisor-go/internal/preprocess"
)

var (
	// ErrModelNotLoaded is returned when no model has been published yet.
	ErrModelNotLoaded = errors.New("model not loaded")
	// ErrInferenceFailure wraps any failure inside the numeric pipeline.
	ErrInferenceFailure = errors.New("inference failure")
)

// Origin records where a model's heads came from.
type Origin string

const (
	OriginFresh    Origin = "fresh"
	OriginArtifact Origin = "artifact"
)

// Model is a backbone plus one head per attribute dimension. It is read-only after
// construction and safe for concurrent Predict calls if its Extractor is.
type Model struct {
	extractor Extractor
	heads     []Head
	origin    Origin
	builtAt   time.Time
}

// NewModel assembles a model from an extractor and heads in attribute order. Four heads
// produce a legacy model without undertone.
func NewModel(ex Extractor, heads []Head, origin Origin) (*Model, error) {
	if err := validateHeads(ex.Backbone().FeatureDim(), heads); err != nil {
		return nil, err
	}
	return &Model{extractor: ex, heads: heads, origin: origin, builtAt: time.Now()}, nil
}

// NewFreshModel builds heads with deterministic Glorot initialization from seed.
func NewFreshModel(ex Extractor, seed uint64) (*Model, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	in := ex.Backbone().FeatureDim()
	heads := make([]Head, 0, len(attributes.Dimensions))
	for _, d := range attributes.Dimensions {
		heads = append(heads, newHead(d, in, rng))
	}
	return NewModel(ex, heads, OriginFresh)
}

func validateHeads(in int, heads []Head) error {
	var want []attributes.Dimension
	switch len(heads) {
	case len(attributes.Dimensions):
		want = attributes.Dimensions
	case len(attributes.LegacyDimensions):
		want = attributes.LegacyDimensions
	default:
		return fmt.Errorf("model has %d heads, want %d or %d", len(heads), len(attributes.Dimensions), len(attributes.LegacyDimensions))
	}
	for i, h := range heads {
		if h.Dimension != want[i] {
			return fmt.Errorf("head %d is %s, want %s", i, h.Dimension, want[i])
		}
		if err := h.validate(in); err != nil {
			return err
		}
	}
	return nil
}

// Backbone returns the feature network the model runs on.
func (m *Model) Backbone() Backbone { return m.extractor.Backbone() }

// Legacy reports whether the model predates the undertone head.
func (m *Model) Legacy() bool { return len(m.heads) == len(attributes.LegacyDimensions) }

// Origin reports whether heads were freshly built or loaded.
func (m *Model) Origin() Origin { return m.origin }

// Heads exposes the heads for serialization.
func (m *Model) Heads() []Head { return m.heads }

// Predict returns one distribution per head in attribute order.
func (m *Model) Predict(ctx context.Context, t preprocess.Tensor) ([][]float64, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: malformed tensor %dx%dx%d with %d values", ErrInferenceFailure, t.Width, t.Height, t.Channels, len(t.Data))
	}
	features, err := m.extractor.Extract(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInferenceFailure, err)
	}
	if len(features) != m.Backbone().FeatureDim() {
		return nil, fmt.Errorf("%w: backbone returned %d features, want %d", ErrInferenceFailure, len(features), m.Backbone().FeatureDim())
	}
	vec := mat.NewVecDense(len(features), features)
	dists := make([][]float64, 0, len(m.heads))
	for _, h := range m.heads {
		dists = append(dists, h.Forward(vec))
	}
	return dists, nil
}

// Close releases the extractor.
func (m *Model) Close() error {
	return m.extractor.Close()
}
