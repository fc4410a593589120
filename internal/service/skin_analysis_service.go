package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anime-shed/skin-advisor-go/internal/analyzer"
	"github.com/anime-shed/skin-advisor-go/internal/attributes"
	"github.com/anime-shed/skin-advisor-go/internal/catalog"
	"github.com/anime-shed/skin-advisor-go/internal/classifier"
	apperrors "github.com/anime-shed/skin-advisor-go/internal/errors"
	"github.com/anime-shed/skin-advisor-go/internal/face"
	"github.com/anime-shed/skin-advisor-go/internal/observer"
	"github.com/anime-shed/skin-advisor-go/internal/preprocess"
	"github.com/anime-shed/skin-advisor-go/internal/recommender"
	"github.com/anime-shed/skin-advisor-go/internal/repository"
	"github.com/anime-shed/skin-advisor-go/internal/storage"
	"github.com/anime-shed/skin-advisor-go/internal/strategy"
	"github.com/anime-shed/skin-advisor-go/pkg/models"
	"github.com/anime-shed/skin-advisor-go/pkg/validation"
)

// MaxGalleryLimit caps caller-supplied gallery sizes.
const MaxGalleryLimit = 100

// SkinAnalysisService runs the photo to recommendation pipeline.
type SkinAnalysisService interface {
	// Analyze fetches the referenced photo and runs the full pipeline.
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResult, error)
	// AnalyzeFrame runs the pipeline on an already decoded photo.
	AnalyzeFrame(ctx context.Context, frame storage.Frame, opts AnalyzeOptions) (*models.AnalysisResult, error)

	Recommend(ctx context.Context, req models.RecommendRequest) (*models.Recommendations, error)
	ProductByName(ctx context.Context, name string) (*models.ProductResponse, error)
	Gallery(ctx context.Context, limit int) (*models.GalleryResponse, error)

	ReloadModel(ctx context.Context, key string) (models.ModelStatus, error)
	Health(ctx context.Context) models.HealthResponse
}

// Classifier is the model lifecycle the service depends on. *classifier.Handle implements it.
type Classifier interface {
	Predict(ctx context.Context, t preprocess.Tensor, opts classifier.PredictOptions) (classifier.Prediction, error)
	Reload(ctx context.Context, key string) error
	Info() classifier.Info
}

// Sources resolves image references. Path serves {"path"} requests and URL serves {"url"}.
// Either may be nil when that kind of reference is not accepted.
type Sources struct {
	Path repository.ImageRepository
	URL  repository.ImageRepository
}

// Dependencies wires a SkinAnalysisService.
type Dependencies struct {
	Sources        Sources
	Locator        *face.Locator
	Quality        analyzer.FaceQualityAnalyzer
	QualityOptions analyzer.Options // zero means analyzer.DefaultOptions()
	Pipeline       preprocess.Pipeline
	Classifier     Classifier
	Matcher        *recommender.Matcher
	Events         observer.Subject
}

// AnalyzeOptions are the per-request knobs of an analysis.
type AnalyzeOptions struct {
	Mode       recommender.Mode
	Category   string
	Undertone  string
	RefreshKey string
	Detail     bool
	FastMode   bool
}

// OptionsFromRequest validates the request's mode and filters.
func OptionsFromRequest(req models.AnalyzeRequest) (AnalyzeOptions, error) {
	mode, err := recommender.ParseMode(req.Mode)
	if err != nil {
		return AnalyzeOptions{}, apperrors.NewValidationError(err.Error(), err)
	}
	category, err := parseCategory(req.Category)
	if err != nil {
		return AnalyzeOptions{}, err
	}
	undertone, err := parseOptional(attributes.Undertone, req.Undertone)
	if err != nil {
		return AnalyzeOptions{}, err
	}
	return AnalyzeOptions{
		Mode:       mode,
		Category:   category,
		Undertone:  undertone,
		RefreshKey: strings.TrimSpace(req.RefreshKey),
		Detail:     req.Detail,
		FastMode:   req.FastMode,
	}, nil
}

type skinAnalysisService struct {
	sources        Sources
	validator      *validation.RefValidator
	locator        *face.Locator
	quality        analyzer.FaceQualityAnalyzer
	qualityOptions analyzer.Options
	pipeline       preprocess.Pipeline
	classifier     Classifier
	matcher        *recommender.Matcher
	strategies     *strategy.RecommendationContext
	events         observer.Subject
}

// NewSkinAnalysisService creates a new skin analysis service
func NewSkinAnalysisService(deps Dependencies) SkinAnalysisService {
	quality := deps.Quality
	if quality == nil {
		quality = analyzer.NewFaceQualityAnalyzer()
	}
	qopts := deps.QualityOptions
	if qopts == (analyzer.Options{}) {
		qopts = analyzer.DefaultOptions()
	}
	events := deps.Events
	if events == nil {
		events = observer.NewEventPublisher()
	}
	return &skinAnalysisService{
		sources:        deps.Sources,
		validator:      validation.NewRefValidator(),
		locator:        deps.Locator,
		quality:        quality,
		qualityOptions: qopts,
		pipeline:       deps.Pipeline,
		classifier:     deps.Classifier,
		matcher:        deps.Matcher,
		strategies:     strategy.NewRecommendationContext(deps.Matcher),
		events:         events,
	}
}

func (s *skinAnalysisService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResult, error) {
	opts, err := OptionsFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateRef(req.Path, req.URL); err != nil {
		return nil, err
	}

	repo, ref := s.sources.Path, strings.TrimSpace(req.Path)
	if ref == "" {
		repo, ref = s.sources.URL, strings.TrimSpace(req.URL)
	}
	if repo == nil {
		return nil, apperrors.NewValidationError("this kind of image reference is not accepted", nil)
	}

	frame, err := repo.FetchImage(ctx, ref)
	if err != nil {
		return nil, fetchError(err)
	}
	return s.AnalyzeFrame(ctx, frame, opts)
}

func (s *skinAnalysisService) AnalyzeFrame(ctx context.Context, frame storage.Frame, opts AnalyzeOptions) (*models.AnalysisResult, error) {
	if opts.Mode == "" {
		opts.Mode = recommender.ModeGeneral
	}
	start := time.Now()
	id := uuid.NewString()
	s.emit(ctx, observer.AnalysisEvent{EventType: observer.AnalysisStarted, AnalysisID: id, Source: frame.Source})

	result, err := s.run(ctx, id, frame, opts)
	elapsed := time.Since(start)
	if err != nil {
		event := observer.AnalysisEvent{
			EventType:      observer.AnalysisFailed,
			AnalysisID:     id,
			Source:         frame.Source,
			ProcessingTime: elapsed,
			ErrorMessage:   err.Error(),
		}
		if apperrors.IsType(err, apperrors.ErrorTypeNoFaceDetected) {
			s.emit(ctx, observer.AnalysisEvent{EventType: observer.FaceNotDetected, AnalysisID: id, Source: frame.Source})
		}
		s.emit(ctx, event)
		return nil, err
	}

	result.ProcessingTimeSec = elapsed.Seconds()
	s.emit(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		AnalysisID:     id,
		Source:         frame.Source,
		ProcessingTime: elapsed,
		Success:        true,
		Metadata: map[string]interface{}{
			observer.MetaMode:     string(opts.Mode),
			observer.MetaBackbone: result.Model.Backbone,
		},
	})
	return result, nil
}

func (s *skinAnalysisService) run(ctx context.Context, id string, frame storage.Frame, opts AnalyzeOptions) (*models.AnalysisResult, error) {
	if frame.Image == nil || frame.Image.Bounds().Empty() {
		return nil, apperrors.NewInvalidImagePathError(storage.ErrInvalidImagePath)
	}
	if s.locator == nil || s.classifier == nil || s.matcher == nil {
		return nil, apperrors.NewInternalError("analysis pipeline is not configured", nil)
	}

	region, err := s.locator.Locate(ctx, frame.Image)
	if err != nil {
		if ae := apperrors.FromContext("face detection interrupted", err); ae != nil {
			return nil, ae
		}
		if errors.Is(err, face.ErrNoFaceDetected) {
			return nil, apperrors.NewNoFaceDetectedError(err)
		}
		return nil, apperrors.NewProcessingError("face detection failed", err)
	}

	qopts := s.qualityOptions
	if opts.FastMode {
		qopts = qopts.WithFastMode()
	}
	report := s.quality.Assess(region.Image, qopts)

	tensor, err := s.pipeline.Run(region.Image)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to prepare face crop", err)
	}

	pred, err := s.classifier.Predict(ctx, tensor, classifier.PredictOptions{RefreshKey: opts.RefreshKey})
	if err != nil {
		return nil, classifierError(err)
	}
	vec, err := pred.Decode()
	if err != nil {
		return nil, apperrors.NewInferenceFailureError(err)
	}

	q := catalog.QueryFromVector(vec)
	q.Category = opts.Category
	q.Undertone = opts.Undertone
	if q.Undertone == "" && opts.Mode == recommender.ModeMakeup && !pred.Legacy {
		q.Undertone = vec.Undertone()
	}
	recs, err := s.strategies.ExecuteRecommendation(ctx, opts.Mode, q)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid recommendation query", err)
	}

	info := s.classifier.Info()
	result := &models.AnalysisResult{
		ID:        id,
		Source:    frame.Source,
		Timestamp: time.Now().UTC(),
		Image:     repository.FrameMetadata(frame),
		Face: models.FaceBox{
			X:      region.Box.Min.X,
			Y:      region.Box.Min.Y,
			Width:  region.Box.Dx(),
			Height: region.Box.Dy(),
		},
		Attributes: attributesOf(vec, pred.Legacy),
		Quality:    report,
		Model: models.ModelInfo{
			Backbone:   info.Backbone.String(),
			Origin:     string(info.Origin),
			Generation: pred.Generation,
		},
		Recommendations: recs,
	}
	for _, issue := range report.Issues {
		result.Warnings = append(result.Warnings, issue.Message)
	}
	if opts.Detail {
		result.Detail = detailOf(vec)
	}
	return result, nil
}

func (s *skinAnalysisService) Recommend(ctx context.Context, req models.RecommendRequest) (*models.Recommendations, error) {
	mode, err := recommender.ParseMode(req.Mode)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), err)
	}
	q, err := queryFromRequest(req)
	if err != nil {
		return nil, err
	}
	recs, err := s.strategies.ExecuteRecommendation(ctx, mode, q)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid recommendation query", err)
	}
	return &recs, nil
}

func (s *skinAnalysisService) ProductByName(ctx context.Context, name string) (*models.ProductResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("product name is required", nil)
	}
	p, ok, st := s.matcher.ProductByName(ctx, name)
	resp := &models.ProductResponse{Found: ok, Catalog: strategy.CatalogStatus(st, !ok)}
	if ok {
		resp.Product = &p
		return resp, nil
	}
	if !st.Degraded {
		resp.Suggestions = s.matcher.Suggest(ctx, name, 5)
	}
	return resp, nil
}

func (s *skinAnalysisService) Gallery(ctx context.Context, limit int) (*models.GalleryResponse, error) {
	if limit < 0 || limit > MaxGalleryLimit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("limit must be between 0 and %d", MaxGalleryLimit), nil)
	}
	res := s.matcher.Gallery(ctx, limit)
	return &models.GalleryResponse{Items: res.Items, Catalog: strategy.CatalogStatus(res.Status, res.Empty())}, nil
}

func (s *skinAnalysisService) ReloadModel(ctx context.Context, key string) (models.ModelStatus, error) {
	if s.classifier == nil {
		return models.ModelStatus{}, apperrors.NewModelNotLoadedError(classifier.ErrModelNotLoaded)
	}
	if err := s.classifier.Reload(ctx, strings.TrimSpace(key)); err != nil {
		return modelStatus(s.classifier.Info()), classifierError(err)
	}
	return modelStatus(s.classifier.Info()), nil
}

func (s *skinAnalysisService) Health(ctx context.Context) models.HealthResponse {
	resp := models.HealthResponse{Status: "ok", Catalog: "ok"}
	if s.classifier != nil {
		resp.Model = modelStatus(s.classifier.Info())
	} else {
		resp.Model = models.ModelStatus{State: classifier.StateUnloaded.String()}
	}
	if resp.Model.State != classifier.StateReady.String() && resp.Model.State != classifier.StateReloading.String() {
		resp.Status = "degraded"
	}
	if s.matcher == nil || s.matcher.Ping(ctx) != nil {
		resp.Catalog = "unavailable"
		resp.Status = "degraded"
	}
	return resp
}

func (s *skinAnalysisService) emit(ctx context.Context, e observer.AnalysisEvent) {
	s.events.NotifyObservers(ctx, e)
}

func fetchError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if ae := apperrors.FromContext("image fetch interrupted", err); ae != nil {
		return ae
	}
	if errors.Is(err, repository.ErrInvalidImagePath) {
		return apperrors.NewInvalidImagePathError(err)
	}
	return apperrors.NewNetworkError("failed to fetch image", err)
}

func classifierError(err error) error {
	if ae := apperrors.FromContext("skin analysis interrupted", err); ae != nil {
		return ae
	}
	switch {
	case errors.Is(err, classifier.ErrModelNotLoaded):
		return apperrors.NewModelNotLoadedError(err)
	default:
		return apperrors.NewInferenceFailureError(err)
	}
}

func modelStatus(info classifier.Info) models.ModelStatus {
	st := models.ModelStatus{
		State:      info.State.String(),
		Backbone:   info.Backbone.String(),
		Origin:     string(info.Origin),
		Generation: info.Generation,
		RefreshKey: info.Key,
	}
	if !info.LoadedAt.IsZero() {
		st.LoadedAt = info.LoadedAt.UTC().Format(time.RFC3339)
	}
	return st
}

func attributesOf(v attributes.Vector, legacy bool) models.Attributes {
	a := models.Attributes{
		SkinTone:        v.Tone(),
		SkinType:        v.Type(),
		SkinConcern:     v.Concern(),
		SkinTexture:     v.Texture(),
		Undertone:       v.Undertone(),
		Confidence:      make(map[string]float64, len(attributes.Dimensions)),
		LegacyUndertone: legacy,
	}
	for _, d := range attributes.Dimensions {
		a.Confidence[d.String()] = v.Score(d)
	}
	return a
}

func detailOf(v attributes.Vector) []models.AttributeDetail {
	out := make([]models.AttributeDetail, 0, len(attributes.Dimensions))
	for _, d := range attributes.Dimensions {
		labels := d.Labels()
		conf := v.Confidence(d)
		ranked := make([]models.LabelScore, 0, len(labels))
		for i, l := range labels {
			if i < len(conf) {
				ranked = append(ranked, models.LabelScore{Label: l, Score: conf[i]})
			}
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
		out = append(out, models.AttributeDetail{
			Dimension:  d.String(),
			Label:      v.Label(d),
			Confidence: v.Score(d),
			Ranked:     ranked,
		})
	}
	return out
}

func queryFromRequest(req models.RecommendRequest) (catalog.MatchQuery, error) {
	var q catalog.MatchQuery
	for _, f := range []struct {
		d   attributes.Dimension
		in  string
		out *string
	}{
		{attributes.Tone, req.SkinTone, &q.Tone},
		{attributes.Type, req.SkinType, &q.Type},
		{attributes.Concern, req.SkinConcern, &q.Concern},
		{attributes.Texture, req.SkinTexture, &q.Texture},
	} {
		label, err := attributes.Parse(f.d, f.in)
		if err != nil {
			return catalog.MatchQuery{}, apperrors.NewValidationError(err.Error(), err)
		}
		*f.out = label
	}
	var err error
	if q.Undertone, err = parseOptional(attributes.Undertone, req.Undertone); err != nil {
		return catalog.MatchQuery{}, err
	}
	if q.Category, err = parseCategory(req.Category); err != nil {
		return catalog.MatchQuery{}, err
	}
	return q, nil
}

func parseOptional(d attributes.Dimension, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	label, err := attributes.Parse(d, value)
	if err != nil {
		return "", apperrors.NewValidationError(err.Error(), err)
	}
	return label, nil
}

func parseCategory(value string) (string, error) {
	switch {
	case strings.TrimSpace(value) == "":
		return "", nil
	case strings.EqualFold(strings.TrimSpace(value), catalog.CategorySkincare):
		return catalog.CategorySkincare, nil
	case strings.EqualFold(strings.TrimSpace(value), catalog.CategoryMakeup):
		return catalog.CategoryMakeup, nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("unknown category %q", value), nil)
}
