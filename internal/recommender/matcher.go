package recommender

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/arbovm/levenshtein"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/skin-advisor-go/internal/catalog"
	"github.com/anime-shed/skin-advisor-go/internal/logger"
)

// Degradation reasons.
const (
	ReasonUnavailable = "database_unavailable"
	ReasonTimeout     = "timeout"
	ReasonCanceled    = "canceled"
)

// Status reports whether a result was served from a healthy catalog.
type Status struct {
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
	Cause    string `json:"cause,omitempty"`
	err      error
}

// Err returns the underlying store error of a degraded result.
func (s Status) Err() error { return s.err }

// Result is a possibly empty, possibly degraded list of items.
type Result[T any] struct {
	Items  []T    `json:"items"`
	Status Status `json:"status"`
}

// Empty reports whether nothing matched.
func (r Result[T]) Empty() bool { return len(r.Items) == 0 }

// DegradedHook observes every catalog failure the matcher absorbs.
type DegradedHook func(op string, err error)

// Option configures a Matcher.
type Option func(*Matcher)

// WithQueryTimeout bounds each catalog call.
func WithQueryTimeout(d time.Duration) Option {
	return func(m *Matcher) { m.timeout = d }
}

// WithGalleryLimit sets the default gallery size.
func WithGalleryLimit(n int) Option {
	return func(m *Matcher) { m.galleryLimit = n }
}

// WithDegradedHook registers a callback for absorbed failures.
func WithDegradedHook(h DegradedHook) Option {
	return func(m *Matcher) { m.onDegraded = h }
}

// DefaultGalleryLimit is used when no limit is configured or requested.
const DefaultGalleryLimit = 20

// Matcher queries the catalog and shapes results per serving mode. Catalog failures
// never propagate as errors; they produce an empty, degraded result.
type Matcher struct {
	store        catalog.Store
	timeout      time.Duration
	galleryLimit int
	onDegraded   DegradedHook
}

// NewMatcher wraps a store.
func NewMatcher(store catalog.Store, opts ...Option) *Matcher {
	m := &Matcher{store: store, galleryLimit: DefaultGalleryLimit}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Matcher) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout > 0 {
		return context.WithTimeout(ctx, m.timeout)
	}
	return context.WithCancel(ctx)
}

func (m *Matcher) degrade(op string, fields logrus.Fields, err error) Status {
	reason := ReasonUnavailable
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = ReasonTimeout
	case errors.Is(err, context.Canceled):
		reason = ReasonCanceled
	}
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["operation"] = op
	fields["reason"] = reason
	logger.Component("recommender").WithFields(fields).WithError(err).Error("Catalog query failed, serving empty result")
	if m.onDegraded != nil {
		m.onDegraded(op, err)
	}
	return Status{Degraded: true, Reason: reason, Cause: err.Error(), err: err}
}

func queryFields(q catalog.MatchQuery) logrus.Fields {
	return logrus.Fields{
		"skin_tone":    q.Tone,
		"skin_type":    q.Type,
		"skin_concern": q.Concern,
		"skin_texture": q.Texture,
		"category":     q.Category,
		"undertone":    q.Undertone,
	}
}

func find[T any](ctx context.Context, m *Matcher, q catalog.MatchQuery, shape func(catalog.Product) T) (Result[T], error) {
	if err := q.Validate(); err != nil {
		return Result[T]{}, err
	}
	qctx, cancel := m.bound(ctx)
	defer cancel()
	products, err := m.store.FindByAttributes(qctx, q)
	if err != nil {
		return Result[T]{Items: []T{}, Status: m.degrade("find_by_attributes", queryFields(q), err)}, nil
	}
	items := make([]T, 0, len(products))
	for _, p := range products {
		items = append(items, shape(p))
	}
	return Result[T]{Items: items}, nil
}

// Products returns full records across all categories, honoring the query's filters.
// The error is non-nil only for an invalid query.
func (m *Matcher) Products(ctx context.Context, q catalog.MatchQuery) (Result[catalog.Product], error) {
	return find(ctx, m, q, func(p catalog.Product) catalog.Product { return p })
}

// General returns the cross-category view.
func (m *Matcher) General(ctx context.Context, q catalog.MatchQuery) (Result[GeneralItem], error) {
	return find(ctx, m, q, toGeneral)
}

// Skincare restricts the query to skincare products.
func (m *Matcher) Skincare(ctx context.Context, q catalog.MatchQuery) (Result[SkincareItem], error) {
	q.Category = catalog.CategorySkincare
	return find(ctx, m, q, toSkincare)
}

// Makeup restricts the query to makeup products.
func (m *Matcher) Makeup(ctx context.Context, q catalog.MatchQuery) (Result[MakeupItem], error) {
	q.Category = catalog.CategoryMakeup
	return find(ctx, m, q, toMakeup)
}

// ProductByName looks up one product by exact name. A miss is not an error.
func (m *Matcher) ProductByName(ctx context.Context, name string) (catalog.Product, bool, Status) {
	qctx, cancel := m.bound(ctx)
	defer cancel()
	p, ok, err := m.store.FindByName(qctx, name)
	if err != nil {
		return catalog.Product{}, false, m.degrade("find_by_name", logrus.Fields{"name": name}, err)
	}
	return p, ok, Status{}
}

// Gallery returns up to limit products with images. limit <= 0 uses the default.
func (m *Matcher) Gallery(ctx context.Context, limit int) Result[GalleryItem] {
	if limit <= 0 {
		limit = m.galleryLimit
	}
	qctx, cancel := m.bound(ctx)
	defer cancel()
	products, err := m.store.FindGallery(qctx, limit)
	if err != nil {
		return Result[GalleryItem]{Items: []GalleryItem{}, Status: m.degrade("find_gallery", logrus.Fields{"limit": limit}, err)}
	}
	items := make([]GalleryItem, 0, len(products))
	for _, p := range products {
		if p.HasImage() {
			items = append(items, toGallery(p))
		}
	}
	return Result[GalleryItem]{Items: items}
}

// Suggest returns up to n catalog names closest to name by edit distance. Stores that
// cannot list names yield no suggestions.
func (m *Matcher) Suggest(ctx context.Context, name string, n int) []string {
	lister, ok := m.store.(catalog.NameLister)
	if !ok || n <= 0 {
		return nil
	}
	qctx, cancel := m.bound(ctx)
	defer cancel()
	names, err := lister.Names(qctx)
	if err != nil {
		m.degrade("list_names", logrus.Fields{"name": name}, err)
		return nil
	}

	target := strings.ToLower(name)
	maxDist := len(target)/2 + 1
	type candidate struct {
		name string
		dist int
	}
	var cands []candidate
	for _, candName := range names {
		lower := strings.ToLower(candName)
		d := levenshtein.Distance(target, lower)
		if strings.Contains(lower, target) && target != "" {
			d = 0
		}
		if d <= maxDist {
			cands = append(cands, candidate{candName, d})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].name < cands[j].name
	})
	out := make([]string, 0, n)
	for i := 0; i < len(cands) && i < n; i++ {
		out = append(out, cands[i].name)
	}
	return out
}

// Ping checks catalog connectivity.
func (m *Matcher) Ping(ctx context.Context) error {
	qctx, cancel := m.bound(ctx)
	defer cancel()
	return m.store.Ping(qctx)
}
