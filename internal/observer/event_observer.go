package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/skin-advisor-go/internal/logger"
)

// AnalysisEvent is one pipeline lifecycle notification.
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	AnalysisID     string                 `json:"analysis_id,omitempty"`
	Source         string                 `json:"source,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	AnalysisStarted   EventType = "analysis_started"
	AnalysisCompleted EventType = "analysis_completed"
	AnalysisFailed    EventType = "analysis_failed"
	FaceNotDetected   EventType = "face_not_detected"
	ModelReloaded     EventType = "model_reloaded"
	CatalogDegraded   EventType = "catalog_degraded"
)

// Metadata keys with meaning to observers.
const (
	MetaOperation = "operation"
	MetaBackbone  = "backbone"
	MetaMode      = "mode"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	entry *logrus.Entry
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(entry *logrus.Entry) Observer {
	return &LoggingObserver{entry: entry}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.AnalysisID != "" {
		fields["analysis_id"] = event.AnalysisID
	}
	if event.Source != "" {
		fields["source"] = event.Source
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	log := o.entry.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		log.Debug("Skin analysis started")
	case AnalysisCompleted:
		log.Info("Skin analysis completed")
	case AnalysisFailed:
		log.Error("Skin analysis failed")
	case FaceNotDetected:
		log.Warn("No face detected")
	case ModelReloaded:
		log.Info("Classifier model reloaded")
	case CatalogDegraded:
		log.Error("Catalog degraded")
	default:
		log.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Metrics is a point-in-time copy of the MetricsObserver counters.
type Metrics struct {
	TotalAnalyses      int64            `json:"total_analyses"`
	SuccessfulAnalyses int64            `json:"successful_analyses"`
	FailedAnalyses     int64            `json:"failed_analyses"`
	FaceNotDetected    int64            `json:"face_not_detected"`
	ModelReloads       int64            `json:"model_reloads"`
	CatalogDegraded    map[string]int64 `json:"catalog_degraded"`
	AvgProcessingMs    float64          `json:"avg_processing_ms"`
}

// MetricsObserver counts pipeline events in process.
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	successfulAnalyses  int64
	failedAnalyses      int64
	faceNotDetected     int64
	modelReloads        int64
	catalogDegraded     map[string]int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{catalogDegraded: make(map[string]int64)}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
	case AnalysisCompleted:
		o.successfulAnalyses++
		o.totalProcessingTime += event.ProcessingTime
	case AnalysisFailed:
		o.failedAnalyses++
	case FaceNotDetected:
		o.faceNotDetected++
	case ModelReloaded:
		o.modelReloads++
	case CatalogDegraded:
		op, _ := event.Metadata[MetaOperation].(string)
		if op == "" {
			op = "unknown"
		}
		o.catalogDegraded[op]++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Snapshot returns current metrics
func (o *MetricsObserver) Snapshot() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	m := Metrics{
		TotalAnalyses:      o.totalAnalyses,
		SuccessfulAnalyses: o.successfulAnalyses,
		FailedAnalyses:     o.failedAnalyses,
		FaceNotDetected:    o.faceNotDetected,
		ModelReloads:       o.modelReloads,
		CatalogDegraded:    make(map[string]int64, len(o.catalogDegraded)),
	}
	for k, v := range o.catalogDegraded {
		m.CatalogDegraded[k] = v
	}
	if o.successfulAnalyses > 0 {
		avg := o.totalProcessingTime / time.Duration(o.successfulAnalyses)
		m.AvgProcessingMs = float64(avg) / float64(time.Millisecond)
	}
	return m
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	pending   sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers event to every observer on its own goroutine.
// A zero Timestamp is set to now.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Delivery outlives the request.
	ctx = context.WithoutCancel(ctx)

	for _, observer := range observers {
		p.pending.Add(1)
		go func(obs Observer) {
			defer p.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Component("observer").WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until every delivery started so far has returned.
func (p *EventPublisher) Wait() {
	p.pending.Wait()
}
