// Package classifiertest provides a deterministic pure-Go extractor for tests and
// for running the pipeline without a native inference runtime.
package classifiertest

import (
	"context"
	"sync/atomic"

	"github.com/anime-shed/skin-advisor-go/internal/classifier"
	"github.com/anime-shed/skin-advisor-go/internal/preprocess"
)

// Extractor average-pools the tensor into FeatureDim buckets.
type Extractor struct {
	backbone classifier.Backbone
	// Block, when non-nil, is received from before each extraction.
	Block  chan struct{}
	Err    error
	Calls  atomic.Int64
	Closed atomic.Bool
}

// NewExtractor returns a pooling extractor for b.
func NewExtractor(b classifier.Backbone) *Extractor {
	return &Extractor{backbone: b}
}

func (e *Extractor) Backbone() classifier.Backbone { return e.backbone }

func (e *Extractor) Extract(ctx context.Context, t preprocess.Tensor) ([]float64, error) {
	e.Calls.Add(1)
	if e.Block != nil {
		select {
		case <-e.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.Err != nil {
		return nil, e.Err
	}
	dim := e.backbone.FeatureDim()
	sums := make([]float64, dim)
	counts := make([]float64, dim)
	for i, v := range t.Data {
		sums[i%dim] += float64(v)
		counts[i%dim]++
	}
	for i := range sums {
		if counts[i] > 0 {
			sums[i] /= counts[i]
		}
	}
	return sums, nil
}

func (e *Extractor) Close() error {
	e.Closed.Store(true)
	return nil
}

// Factory hands out pooling extractors and remembers them.
type Factory struct {
	Created []*Extractor
	// Configure, when set, is applied to each new extractor.
	Configure func(*Extractor)
}

func (f *Factory) CreateExtractor(b classifier.Backbone) (classifier.Extractor, error) {
	ex := NewExtractor(b)
	if f.Configure != nil {
		f.Configure(ex)
	}
	f.Created = append(f.Created, ex)
	return ex, nil
}
