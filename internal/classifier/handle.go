package classifier

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/skin-advisor-go/internal/attributes"
	"github.com/anime-shed/skin-advisor-go/internal/logger"
	"github.com/anime-shed/skin-advisor-go/internal/preprocess"
)

// State is the lifecycle position of a Handle.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateReloading
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateReloading:
		return "reloading"
	}
	return "unknown"
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// snapshot is one published model. refs counts the publication itself plus every
// in-flight prediction; the model is closed when it reaches zero.
type snapshot struct {
	model      *Model
	key        string
	generation uint64
	loadedAt   time.Time
	refs       atomic.Int64
	closeOnce  sync.Once
}

func newSnapshot(m *Model, key string, generation uint64) *snapshot {
	s := &snapshot{model: m, key: key, generation: generation, loadedAt: time.Now()}
	s.refs.Store(1)
	return s
}

// retain fails once the snapshot has been fully released.
func (s *snapshot) retain() bool {
	for {
		n := s.refs.Load()
		if n <= 0 {
			return false
		}
		if s.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (s *snapshot) release() {
	if s.refs.Add(-1) == 0 {
		s.closeOnce.Do(func() {
			if err := s.model.Close(); err != nil {
				logger.Component("classifier").WithError(err).Warn("Failed to close retired model")
			}
		})
	}
}

// Info describes the published model.
type Info struct {
	State      State     `json:"state"`
	Backbone   Backbone  `json:"backbone,omitempty"`
	Origin     Origin    `json:"origin,omitempty"`
	Legacy     bool      `json:"legacy"`
	Key        string    `json:"key,omitempty"`
	Generation uint64    `json:"generation"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
}

// PredictOptions carries per-call lifecycle hints.
type PredictOptions struct {
	// RefreshKey names the model version the caller expects. When it differs from
	// the published snapshot's key the handle rebuilds before predicting. Empty
	// means any published model is acceptable.
	RefreshKey string
}

// Prediction is the raw output of one inference call.
type Prediction struct {
	Distributions [][]float64
	Legacy        bool
	Generation    uint64
}

// Decode converts the distributions into labels, synthesizing undertone for legacy models.
func (p Prediction) Decode() (attributes.Vector, error) {
	if p.Legacy {
		return attributes.DecodeLegacy(p.Distributions)
	}
	return attributes.Decode(p.Distributions)
}

// Option configures a Handle.
type Option func(*Handle)

// WithTimeout bounds each inference call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(h *Handle) { h.timeout = d }
}

// WithPublishHook is called after every successful load or reload.
func WithPublishHook(fn func(Info)) Option {
	return func(h *Handle) { h.onPublish = fn }
}

// Handle owns the lifecycle of the shared model. Predictions run concurrently against
// the current snapshot; reloads are serialized and publish a new snapshot atomically,
// so in-flight predictions finish on the model they started with.
type Handle struct {
	builder   Builder
	timeout   time.Duration
	onPublish func(Info)

	current    atomic.Pointer[snapshot]
	state      atomic.Int32
	generation atomic.Uint64
	reloadMu   sync.Mutex
}

// NewHandle returns an unloaded handle.
func NewHandle(b Builder, opts ...Option) *Handle {
	h := &Handle{builder: b}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Info describes the published snapshot.
func (h *Handle) Info() Info {
	info := Info{State: h.State()}
	if s := h.current.Load(); s != nil {
		info.Backbone = s.model.Backbone()
		info.Origin = s.model.Origin()
		info.Legacy = s.model.Legacy()
		info.Key = s.key
		info.Generation = s.generation
		info.LoadedAt = s.loadedAt
	}
	return info
}

// Load builds and publishes the first model. It is a no-op when a model with the same
// key is already published.
func (h *Handle) Load(ctx context.Context, key string) error {
	return h.publish(ctx, key, false)
}

// Reload rebuilds the model unconditionally and swaps it in.
func (h *Handle) Reload(ctx context.Context, key string) error {
	return h.publish(ctx, key, true)
}

func (h *Handle) publish(ctx context.Context, key string, force bool) error {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	prev := h.current.Load()
	if !force && prev != nil && prev.key == key {
		return nil
	}
	if prev == nil {
		h.state.Store(int32(StateLoading))
	} else {
		h.state.Store(int32(StateReloading))
	}

	start := time.Now()
	m, err := h.builder.Build(ctx)
	if err != nil {
		if prev == nil {
			h.state.Store(int32(StateUnloaded))
		} else {
			h.state.Store(int32(StateReady))
		}
		return fmt.Errorf("%w: %w", ErrModelNotLoaded, err)
	}

	next := newSnapshot(m, key, h.generation.Add(1))
	h.current.Store(next)
	h.state.Store(int32(StateReady))
	if prev != nil {
		prev.release()
	}

	info := h.Info()
	logger.Component("classifier").WithFields(logrus.Fields{
		"backbone":    info.Backbone,
		"origin":      info.Origin,
		"key":         key,
		"generation":  info.Generation,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Model published")
	if h.onPublish != nil {
		h.onPublish(info)
	}
	return nil
}

func (h *Handle) acquire() *snapshot {
	for {
		s := h.current.Load()
		if s == nil {
			return nil
		}
		if s.retain() {
			return s
		}
		// s was retired between Load and retain; a newer snapshot is already published.
	}
}

// Predict runs inference on the current snapshot.
func (h *Handle) Predict(ctx context.Context, t preprocess.Tensor, opts PredictOptions) (Prediction, error) {
	if opts.RefreshKey != "" {
		if s := h.current.Load(); s == nil || s.key != opts.RefreshKey {
			if err := h.publish(ctx, opts.RefreshKey, false); err != nil {
				return Prediction{}, err
			}
		}
	}

	s := h.acquire()
	if s == nil {
		return Prediction{}, ErrModelNotLoaded
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	type result struct {
		pred Prediction
		err  error
	}
	done := make(chan result, 1)
	go func() {
		dists, err := s.model.Predict(ctx, t)
		pred := Prediction{Distributions: dists, Legacy: s.model.Legacy(), Generation: s.generation}
		// Release before reporting so a retired model is closed by the time the caller returns.
		s.release()
		done <- result{pred, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return Prediction{}, r.err
		}
		return r.pred, nil
	case <-ctx.Done():
		return Prediction{}, ctx.Err()
	}
}

// Close unpublishes the current model. In-flight predictions complete first.
func (h *Handle) Close() error {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	if s := h.current.Swap(nil); s != nil {
		s.release()
	}
	h.state.Store(int32(StateUnloaded))
	return nil
}
