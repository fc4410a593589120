package classifier_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anime-shed/skin-advisor-go/internal/classifier"
	"github.com/anime-shed/skin-advisor-go/internal/classifier/classifiertest"
	"github.com/anime-shed/skin-advisor-go/internal/logger"
)

func init() {
	logger.Silence()
}

func newBuilder(f *classifiertest.Factory) classifier.ArtifactBuilder {
	return classifier.ArtifactBuilder{Factory: f, Backbone: classifier.VGG16, Seed: classifier.DefaultSeed}
}

func TestHandle_PredictBeforeLoad(t *testing.T) {
	h := classifier.NewHandle(newBuilder(&classifiertest.Factory{}))
	_, err := h.Predict(context.Background(), testTensor(0), classifier.PredictOptions{})
	if !errors.Is(err, classifier.ErrModelNotLoaded) {
		t.Errorf("error = %v, want ErrModelNotLoaded", err)
	}
	if h.State() != classifier.StateUnloaded {
		t.Errorf("State() = %s", h.State())
	}
}

func TestHandle_LoadAndDeterministicPredict(t *testing.T) {
	h := classifier.NewHandle(newBuilder(&classifiertest.Factory{}))
	if err := h.Load(context.Background(), "v1"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if h.State() != classifier.StateReady {
		t.Fatalf("State() = %s", h.State())
	}
	a, err := h.Predict(context.Background(), testTensor(0.4), classifier.PredictOptions{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.Predict(context.Background(), testTensor(0.4), classifier.PredictOptions{})
	if err != nil {
		t.Fatal(err)
	}
	va, _ := a.Decode()
	vb, _ := b.Decode()
	if va.Tuple() != vb.Tuple() {
		t.Errorf("predictions drifted: %v vs %v", va.Tuple(), vb.Tuple())
	}
}

func TestHandle_LoadSameKeyIsNoop(t *testing.T) {
	f := &classifiertest.Factory{}
	h := classifier.NewHandle(newBuilder(f))
	_ = h.Load(context.Background(), "v1")
	_ = h.Load(context.Background(), "v1")
	if len(f.Created) != 1 {
		t.Errorf("built %d models, want 1", len(f.Created))
	}
}

func TestHandle_RefreshKeyTriggersReload(t *testing.T) {
	f := &classifiertest.Factory{}
	var published []classifier.Info
	h := classifier.NewHandle(newBuilder(f), classifier.WithPublishHook(func(i classifier.Info) {
		published = append(published, i)
	}))
	ctx := context.Background()

	p1, err := h.Predict(ctx, testTensor(0.1), classifier.PredictOptions{RefreshKey: "session-a"})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	p2, _ := h.Predict(ctx, testTensor(0.1), classifier.PredictOptions{RefreshKey: "session-a"})
	p3, _ := h.Predict(ctx, testTensor(0.1), classifier.PredictOptions{RefreshKey: "session-b"})

	if p1.Generation != p2.Generation {
		t.Errorf("same key rebuilt the model: %d -> %d", p1.Generation, p2.Generation)
	}
	if p3.Generation == p2.Generation {
		t.Error("new key did not rebuild the model")
	}
	if len(published) != 2 || published[1].Key != "session-b" {
		t.Errorf("published = %+v", published)
	}
	// The retired extractor is closed once nothing references it.
	if !f.Created[0].Closed.Load() {
		t.Error("retired model was not closed")
	}
	if f.Created[1].Closed.Load() {
		t.Error("current model was closed")
	}
}

func TestHandle_ReloadKeepsInFlightSnapshot(t *testing.T) {
	block := make(chan struct{})
	first := true
	f := &classifiertest.Factory{Configure: func(e *classifiertest.Extractor) {
		if first {
			e.Block = block
			first = false
		}
	}}
	h := classifier.NewHandle(newBuilder(f))
	ctx := context.Background()
	if err := h.Load(ctx, "v1"); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var inflight classifier.Prediction
	var inflightErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		inflight, inflightErr = h.Predict(ctx, testTensor(0.7), classifier.PredictOptions{})
	}()

	// Wait until the prediction is inside the first extractor.
	for f.Created[0].Calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	if err := h.Reload(ctx, "v2"); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if f.Created[0].Closed.Load() {
		t.Fatal("model closed while a prediction was running on it")
	}

	close(block)
	wg.Wait()
	if inflightErr != nil {
		t.Fatalf("in-flight Predict() error = %v", inflightErr)
	}
	if inflight.Generation != 1 {
		t.Errorf("in-flight prediction used generation %d, want 1", inflight.Generation)
	}
	if !f.Created[0].Closed.Load() {
		t.Error("retired model not closed after last reader finished")
	}
	if got := h.Info().Generation; got != 2 {
		t.Errorf("published generation = %d, want 2", got)
	}
}

func TestHandle_ConcurrentPredictAndReload(t *testing.T) {
	h := classifier.NewHandle(newBuilder(&classifiertest.Factory{}))
	ctx := context.Background()
	if err := h.Load(ctx, "v0"); err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				p, err := h.Predict(ctx, testTensor(0.2), classifier.PredictOptions{})
				if err == nil {
					_, err = p.Decode()
				}
				if err != nil {
					errs <- err
				}
			}
		}()
	}
	for i := 0; i < 4; i++ {
		if err := h.Reload(ctx, "v"+string(rune('1'+i))); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Predict() error during reload: %v", err)
	}
}

func TestHandle_Timeout(t *testing.T) {
	f := &classifiertest.Factory{Configure: func(e *classifiertest.Extractor) {
		e.Block = make(chan struct{})
	}}
	h := classifier.NewHandle(newBuilder(f), classifier.WithTimeout(20*time.Millisecond))
	if err := h.Load(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	_, err := h.Predict(context.Background(), testTensor(0), classifier.PredictOptions{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded", err)
	}
}

func TestHandle_Canceled(t *testing.T) {
	h := classifier.NewHandle(newBuilder(&classifiertest.Factory{Configure: func(e *classifiertest.Extractor) {
		e.Block = make(chan struct{})
	}}))
	_ = h.Load(context.Background(), "")
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := h.Predict(ctx, testTensor(0), classifier.PredictOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want Canceled", err)
	}
}

func TestHandle_FailedReloadKeepsPreviousModel(t *testing.T) {
	calls := 0
	good := newBuilder(&classifiertest.Factory{})
	b := classifier.BuilderFunc(func(ctx context.Context) (*classifier.Model, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("artifact corrupt")
		}
		return good.Build(ctx)
	})
	h := classifier.NewHandle(b)
	if err := h.Load(context.Background(), "v1"); err != nil {
		t.Fatal(err)
	}
	err := h.Reload(context.Background(), "v2")
	if !errors.Is(err, classifier.ErrModelNotLoaded) {
		t.Errorf("Reload() error = %v", err)
	}
	if h.State() != classifier.StateReady || h.Info().Key != "v1" {
		t.Errorf("state %s key %q after failed reload", h.State(), h.Info().Key)
	}
	if _, err := h.Predict(context.Background(), testTensor(0), classifier.PredictOptions{}); err != nil {
		t.Errorf("Predict() after failed reload: %v", err)
	}
}

func TestHandle_BuilderUsesArtifact(t *testing.T) {
	dir := t.TempDir()
	m, _ := classifier.NewFreshModel(classifiertest.NewExtractor(classifier.VGG16), 5)
	if err := classifier.SaveArtifact(dir, m); err != nil {
		t.Fatal(err)
	}
	b := newBuilder(&classifiertest.Factory{})
	b.ArtifactDir = dir
	h := classifier.NewHandle(b)
	if err := h.Load(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if h.Info().Origin != classifier.OriginArtifact {
		t.Errorf("Origin = %s, want artifact", h.Info().Origin)
	}
}

func TestHandle_Close(t *testing.T) {
	f := &classifiertest.Factory{}
	h := classifier.NewHandle(newBuilder(f))
	_ = h.Load(context.Background(), "")
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if !f.Created[0].Closed.Load() || h.State() != classifier.StateUnloaded {
		t.Error("Close() did not release the model")
	}
}
