// Package memory serves the catalog from an in-process slice, optionally loaded
// from a YAML fixture.
package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/anime-shed/skin-advisor-go/internal/catalog"
)

type fixture struct {
	Products []catalog.Product `yaml:"products"`
}

// Store keeps products in fixture order.
type Store struct {
	mu       sync.RWMutex
	products []catalog.Product
	closed   bool
}

// New returns a store over a copy of products.
func New(products []catalog.Product) *Store {
	return &Store{products: append([]catalog.Product(nil), products...)}
}

// Load reads a YAML fixture with a top-level products list.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog fixture: %w", err)
	}
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog fixture %s: %w", path, err)
	}
	return New(f.Products), nil
}

func (s *Store) snapshot(ctx context.Context) ([]catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("%w: store closed", catalog.ErrUnavailable)
	}
	return s.products, nil
}

func (s *Store) FindByAttributes(ctx context.Context, q catalog.MatchQuery) ([]catalog.Product, error) {
	products, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	pred := catalog.NewPredicate(q)
	var out []catalog.Product
	for _, p := range products {
		if pred.Match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) FindByName(ctx context.Context, name string) (catalog.Product, bool, error) {
	products, err := s.snapshot(ctx)
	if err != nil {
		return catalog.Product{}, false, err
	}
	for _, p := range products {
		if p.Name == name {
			return p, true, nil
		}
	}
	return catalog.Product{}, false, nil
}

func (s *Store) FindGallery(ctx context.Context, limit int) ([]catalog.Product, error) {
	products, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var out []catalog.Product
	for _, p := range products {
		if len(out) >= limit {
			break
		}
		if p.HasImage() {
			out = append(out, p)
		}
	}
	return out, nil
}

// Names lists every product name, used for suggestions.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	products, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names, nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.snapshot(ctx)
	return err
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
