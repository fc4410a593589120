package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/skin-advisor-go/internal/analyzer"
	"github.com/anime-shed/skin-advisor-go/internal/catalog"
	"github.com/anime-shed/skin-advisor-go/internal/classifier"
	"github.com/anime-shed/skin-advisor-go/internal/classifier/onnx"
	"github.com/anime-shed/skin-advisor-go/internal/config"
	"github.com/anime-shed/skin-advisor-go/internal/face"
	"github.com/anime-shed/skin-advisor-go/internal/face/cascade"
	"github.com/anime-shed/skin-advisor-go/internal/factory"
	"github.com/anime-shed/skin-advisor-go/internal/logger"
	"github.com/anime-shed/skin-advisor-go/internal/observer"
	"github.com/anime-shed/skin-advisor-go/internal/preprocess"
	"github.com/anime-shed/skin-advisor-go/internal/recommender"
	"github.com/anime-shed/skin-advisor-go/internal/service"
	"github.com/anime-shed/skin-advisor-go/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config  *config.Config
	store   catalog.Store
	locator *face.Locator
	model   *classifier.Handle
	events  *observer.EventPublisher
	metrics *observer.MetricsObserver
	service service.SkinAnalysisService
	handler http.Handler
}

// NewContainer builds the dependency graph and loads the model. The catalog may be
// unreachable at startup; requests then degrade until it recovers.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	log := logger.Component("container")

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Component("events")))
	events.Subscribe(metrics)

	components := factory.NewComponentFactory(cfg)

	pathSource, err := components.StorageFactory.CreateStorage(factory.StorageType(cfg.Source.Type))
	if err != nil {
		return nil, fmt.Errorf("failed to create image source: %w", err)
	}
	var sources service.Sources
	if cfg.Source.Type == string(factory.HTTPStorage) {
		sources.URL = pathSource
	} else {
		sources.Path = pathSource
		if sources.URL, err = components.StorageFactory.CreateStorage(factory.HTTPStorage); err != nil {
			return nil, fmt.Errorf("failed to create url source: %w", err)
		}
	}

	store, err := components.CatalogFactory.CreateCatalog(ctx, factory.CatalogBackend(cfg.Catalog.Backend))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	matcher := recommender.NewMatcher(store,
		recommender.WithQueryTimeout(cfg.Catalog.QueryTimeout),
		recommender.WithGalleryLimit(cfg.Catalog.GalleryLimit),
		recommender.WithDegradedHook(func(op string, err error) {
			events.NotifyObservers(context.Background(), observer.AnalysisEvent{
				EventType:    observer.CatalogDegraded,
				ErrorMessage: err.Error(),
				Metadata:     map[string]interface{}{observer.MetaOperation: op},
			})
		}),
	)
	if err := matcher.Ping(ctx); err != nil {
		log.WithError(err).Warn("Catalog unreachable at startup, serving degraded results")
	}

	detector, err := cascade.New(cfg.Face.CascadePath, cascade.Options{
		ScaleFactor:  cfg.Face.ScaleFactor,
		MinNeighbors: cfg.Face.MinNeighbors,
		MinSize:      cfg.Face.MinSize,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create face detector: %w", err)
	}
	locator := face.NewLocator(detector)

	backbone, err := classifier.ParseBackbone(cfg.Model.Backbone)
	if err != nil {
		locator.Close()
		store.Close()
		return nil, err
	}
	extractors := onnx.NewFactory(cfg.Model.Dir, cfg.Model.RuntimeLib)
	model := classifier.NewHandle(
		classifier.ArtifactBuilder{
			Factory:     extractors,
			Backbone:    backbone,
			ArtifactDir: cfg.Model.ArtifactPath,
			Seed:        classifier.DefaultSeed,
		},
		classifier.WithTimeout(cfg.AnalysisTimeout),
		classifier.WithPublishHook(func(info classifier.Info) {
			events.NotifyObservers(context.Background(), observer.AnalysisEvent{
				EventType: observer.ModelReloaded,
				Success:   true,
				Metadata: map[string]interface{}{
					observer.MetaBackbone: info.Backbone.String(),
					"origin":              string(info.Origin),
					"generation":          info.Generation,
				},
			})
		}),
	)
	if err := model.Load(ctx, ""); err != nil {
		// Served as model_not_loaded until POST /model/reload succeeds.
		log.WithError(err).WithFields(logrus.Fields{
			"backbone":  backbone,
			"model_dir": cfg.Model.Dir,
		}).Error("Initial model load failed")
	}

	normalization, err := preprocess.ParseMode(cfg.Model.Normalization)
	if err != nil {
		model.Close()
		locator.Close()
		store.Close()
		return nil, err
	}
	quality, err := analyzer.ProfileOptions(cfg.QualityProfile)
	if err != nil {
		model.Close()
		locator.Close()
		store.Close()
		return nil, err
	}

	svc := service.NewSkinAnalysisService(service.Dependencies{
		Sources:        sources,
		Locator:        locator,
		Quality:        analyzer.NewFaceQualityAnalyzer(),
		QualityOptions: quality,
		Pipeline: preprocess.NewPipeline(preprocess.Adjustment{
			Mode:  normalization,
			Alpha: cfg.Model.Contrast,
			Beta:  cfg.Model.Brightness,
		}),
		Classifier: model,
		Matcher:    matcher,
		Events:     events,
	})

	return &Container{
		config:  cfg,
		store:   store,
		locator: locator,
		model:   model,
		events:  events,
		metrics: metrics,
		service: svc,
		handler: transport.NewHandler(svc, metrics, cfg),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Service returns the analysis service for non-HTTP callers.
func (c *Container) Service() service.SkinAnalysisService {
	return c.service
}

// Metrics returns the in-process counters.
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Model returns the classifier handle.
func (c *Container) Model() *classifier.Handle {
	return c.model
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases the model, detector and catalog, then drains pending events.
func (c *Container) Close() error {
	err := errors.Join(c.model.Close(), c.locator.Close(), c.store.Close())
	c.events.Wait()
	return err
}
