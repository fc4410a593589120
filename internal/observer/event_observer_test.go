package observer

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type panickyObserver struct{}

func (panickyObserver) OnEvent(context.Context, AnalysisEvent) { panic("boom") }
func (panickyObserver) GetObserverName() string               { return "panicky" }

func quietEntry() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestMetricsObserver_Counts(t *testing.T) {
	pub := NewEventPublisher()
	metrics := NewMetricsObserver()
	pub.Subscribe(metrics)
	pub.Subscribe(NewLoggingObserver(quietEntry()))

	ctx := context.Background()
	events := []AnalysisEvent{
		{EventType: AnalysisStarted},
		{EventType: AnalysisStarted},
		{EventType: AnalysisStarted},
		{EventType: AnalysisCompleted, Success: true, ProcessingTime: 10 * time.Millisecond},
		{EventType: AnalysisCompleted, Success: true, ProcessingTime: 30 * time.Millisecond},
		{EventType: FaceNotDetected},
		{EventType: AnalysisFailed},
		{EventType: ModelReloaded},
		{EventType: CatalogDegraded, Metadata: map[string]interface{}{MetaOperation: "find_by_attributes"}},
		{EventType: CatalogDegraded, Metadata: map[string]interface{}{MetaOperation: "find_by_attributes"}},
		{EventType: CatalogDegraded},
	}
	for _, e := range events {
		pub.NotifyObservers(ctx, e)
	}
	pub.Wait()

	got := metrics.Snapshot()
	if got.TotalAnalyses != 3 || got.SuccessfulAnalyses != 2 || got.FailedAnalyses != 1 {
		t.Errorf("Unexpected analysis counters %+v", got)
	}
	if got.FaceNotDetected != 1 || got.ModelReloads != 1 {
		t.Errorf("Unexpected event counters %+v", got)
	}
	if got.CatalogDegraded["find_by_attributes"] != 2 || got.CatalogDegraded["unknown"] != 1 {
		t.Errorf("Unexpected degraded counters %v", got.CatalogDegraded)
	}
	if got.AvgProcessingMs != 20 {
		t.Errorf("Expected 20ms average, got %f", got.AvgProcessingMs)
	}
}

func TestEventPublisher_RecoversPanics(t *testing.T) {
	pub := NewEventPublisher()
	metrics := NewMetricsObserver()
	pub.Subscribe(panickyObserver{})
	pub.Subscribe(metrics)

	pub.NotifyObservers(context.Background(), AnalysisEvent{EventType: ModelReloaded})
	pub.Wait()

	if metrics.Snapshot().ModelReloads != 1 {
		t.Error("Expected healthy observers to receive the event")
	}
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	pub := NewEventPublisher()
	metrics := NewMetricsObserver()
	pub.Subscribe(metrics)
	pub.Unsubscribe(metrics)

	pub.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted})
	pub.Wait()

	if metrics.Snapshot().TotalAnalyses != 0 {
		t.Error("Expected no delivery after unsubscribe")
	}
}

func TestEventPublisher_DeliversAfterCancel(t *testing.T) {
	pub := NewEventPublisher()
	got := make(chan error, 1)
	pub.Subscribe(observerFunc(func(ctx context.Context, e AnalysisEvent) {
		if e.Timestamp.IsZero() {
			t.Error("Expected timestamp to be set")
		}
		got <- ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub.NotifyObservers(ctx, AnalysisEvent{EventType: AnalysisFailed})
	pub.Wait()

	if err := <-got; err != nil {
		t.Errorf("Expected detached context, got %v", err)
	}
}

type observerFunc func(context.Context, AnalysisEvent)

func (f observerFunc) OnEvent(ctx context.Context, e AnalysisEvent) { f(ctx, e) }
func (f observerFunc) GetObserverName() string                     { return "func" }
