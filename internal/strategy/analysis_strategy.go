// Package strategy holds the serving-mode strategies that turn decoded attributes
// into a recommendation payload.
package strategy

import (
	"context"
	"fmt"

	"github.com/anime-shed/skin-advisor-go/internal/catalog"
	"github.com/anime-shed/skin-advisor-go/internal/recommender"
	"github.com/anime-shed/skin-advisor-go/pkg/models"
)

// RecommendationStrategy produces the recommendation block for one serving mode.
type RecommendationStrategy interface {
	Recommend(ctx context.Context, q catalog.MatchQuery) (models.Recommendations, error)
	GetStrategyName() string
}

// CatalogStatus converts a matcher status into its response form.
func CatalogStatus(st recommender.Status, empty bool) models.CatalogStatus {
	return models.CatalogStatus{
		Degraded: st.Degraded,
		Reason:   st.Reason,
		NoMatch:  empty && !st.Degraded,
	}
}

// GeneralStrategy returns products across all categories.
type GeneralStrategy struct {
	matcher *recommender.Matcher
}

func NewGeneralStrategy(m *recommender.Matcher) RecommendationStrategy {
	return &GeneralStrategy{matcher: m}
}

func (s *GeneralStrategy) Recommend(ctx context.Context, q catalog.MatchQuery) (models.Recommendations, error) {
	res, err := s.matcher.General(ctx, q)
	if err != nil {
		return models.Recommendations{}, err
	}
	return models.Recommendations{
		Mode:    string(recommender.ModeGeneral),
		General: res.Items,
		Catalog: CatalogStatus(res.Status, res.Empty()),
	}, nil
}

func (s *GeneralStrategy) GetStrategyName() string { return string(recommender.ModeGeneral) }

// SkincareStrategy returns skincare products with their recommendation text.
type SkincareStrategy struct {
	matcher *recommender.Matcher
}

func NewSkincareStrategy(m *recommender.Matcher) RecommendationStrategy {
	return &SkincareStrategy{matcher: m}
}

func (s *SkincareStrategy) Recommend(ctx context.Context, q catalog.MatchQuery) (models.Recommendations, error) {
	res, err := s.matcher.Skincare(ctx, q)
	if err != nil {
		return models.Recommendations{}, err
	}
	return models.Recommendations{
		Mode:     string(recommender.ModeSkincare),
		Skincare: res.Items,
		Catalog:  CatalogStatus(res.Status, res.Empty()),
	}, nil
}

func (s *SkincareStrategy) GetStrategyName() string { return string(recommender.ModeSkincare) }

// MakeupStrategy returns makeup products grouped by subcategory.
type MakeupStrategy struct {
	matcher *recommender.Matcher
}

func NewMakeupStrategy(m *recommender.Matcher) RecommendationStrategy {
	return &MakeupStrategy{matcher: m}
}

func (s *MakeupStrategy) Recommend(ctx context.Context, q catalog.MatchQuery) (models.Recommendations, error) {
	res, err := s.matcher.Makeup(ctx, q)
	if err != nil {
		return models.Recommendations{}, err
	}
	return models.Recommendations{
		Mode:    string(recommender.ModeMakeup),
		Makeup:  recommender.GroupBySubcategory(res.Items),
		Catalog: CatalogStatus(res.Status, res.Empty()),
	}, nil
}

func (s *MakeupStrategy) GetStrategyName() string { return string(recommender.ModeMakeup) }

// ForMode returns the strategy serving mode.
func ForMode(mode recommender.Mode, m *recommender.Matcher) (RecommendationStrategy, error) {
	switch mode {
	case recommender.ModeGeneral:
		return NewGeneralStrategy(m), nil
	case recommender.ModeSkincare:
		return NewSkincareStrategy(m), nil
	case recommender.ModeMakeup:
		return NewMakeupStrategy(m), nil
	}
	return nil, fmt.Errorf("unsupported recommendation mode: %q", mode)
}

// RecommendationContext holds one strategy per serving mode.
type RecommendationContext struct {
	strategies map[recommender.Mode]RecommendationStrategy
}

// NewRecommendationContext builds strategies for every mode over m.
func NewRecommendationContext(m *recommender.Matcher) *RecommendationContext {
	c := &RecommendationContext{strategies: make(map[recommender.Mode]RecommendationStrategy)}
	for _, mode := range []recommender.Mode{recommender.ModeGeneral, recommender.ModeSkincare, recommender.ModeMakeup} {
		s, _ := ForMode(mode, m)
		c.strategies[mode] = s
	}
	return c
}

// SetStrategy replaces the strategy for its mode.
func (c *RecommendationContext) SetStrategy(mode recommender.Mode, s RecommendationStrategy) {
	c.strategies[mode] = s
}

// ExecuteRecommendation runs the strategy for mode.
func (c *RecommendationContext) ExecuteRecommendation(ctx context.Context, mode recommender.Mode, q catalog.MatchQuery) (models.Recommendations, error) {
	s, ok := c.strategies[mode]
	if !ok {
		return models.Recommendations{}, fmt.Errorf("unsupported recommendation mode: %q", mode)
	}
	return s.Recommend(ctx, q)
}
