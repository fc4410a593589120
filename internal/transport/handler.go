package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/skin-advisor-go/internal/config"
	apperrors "github.com/anime-shed/skin-advisor-go/internal/errors"
	"github.com/anime-shed/skin-advisor-go/internal/logger"
	"github.com/anime-shed/skin-advisor-go/internal/observer"
	"github.com/anime-shed/skin-advisor-go/internal/service"
	"github.com/anime-shed/skin-advisor-go/internal/storage"
	"github.com/anime-shed/skin-advisor-go/pkg/models"
)

// uploadField is the multipart field carrying the photo.
const uploadField = "image"

var log = logger.Component("transport")

type handler struct {
	svc     service.SkinAnalysisService
	metrics *observer.MetricsObserver
	cfg     *config.Config
}

// NewHandler builds the HTTP API. metrics may be nil, in which case /metrics is not served.
func NewHandler(svc service.SkinAnalysisService, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	h := &handler{svc: svc, metrics: metrics, cfg: cfg}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", h.health)
	if metrics != nil {
		r.GET("/metrics", h.metricsSnapshot)
	}
	r.POST("/analyze", h.analyze)
	r.POST("/recommendations", h.recommend)
	r.GET("/view_product", h.viewProduct)
	r.GET("/products/:name", h.product)
	r.GET("/gallery", h.gallery)
	r.POST("/model/reload", h.reloadModel)

	return r
}

func (h *handler) withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
}

func (h *handler) analyze(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	var (
		res *models.AnalysisResult
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		res, err = h.analyzeUpload(ctx, c)
	} else {
		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, bindError(err))
			return
		}
		res, err = h.svc.Analyze(ctx, req)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(logrus.Fields{
		"analysis_id":        res.ID,
		"skin_tone":          res.Attributes.SkinTone,
		"skin_type":          res.Attributes.SkinType,
		"mode":               res.Recommendations.Mode,
		"processing_time_ms": int64(res.ProcessingTimeSec * 1000),
		"quality_issues":     len(res.Quality.Issues),
	}).Info("Skin analysis completed successfully")
	c.JSON(http.StatusOK, res)
}

func (h *handler) analyzeUpload(ctx context.Context, c *gin.Context) (*models.AnalysisResult, error) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		return nil, bindError(err)
	}
	req := models.AnalyzeRequest{
		Mode:       c.PostForm("mode"),
		Category:   c.PostForm("category"),
		Undertone:  c.PostForm("undertone"),
		RefreshKey: c.PostForm("refresh_key"),
		Detail:     formBool(c.PostForm("detail")),
		FastMode:   formBool(c.PostForm("fast_mode")),
	}
	opts, err := service.OptionsFromRequest(req)
	if err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.NewInvalidImagePathError(err)
	}
	defer f.Close()
	frame, err := storage.Decode(f, fh.Filename)
	if err != nil {
		return nil, apperrors.NewInvalidImagePathError(err)
	}
	return h.svc.AnalyzeFrame(ctx, frame, opts)
}

func (h *handler) recommend(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	var req models.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	recs, err := h.svc.Recommend(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// viewProduct always answers 200 with a found flag.
func (h *handler) viewProduct(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	resp, err := h.svc.ProductByName(ctx, c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) product(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	resp, err := h.svc.ProductByName(ctx, c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !resp.Found && !resp.Catalog.Degraded {
		c.JSON(http.StatusNotFound, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) gallery(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, apperrors.NewValidationError("limit must be an integer", err))
			return
		}
		limit = n
	}
	resp, err := h.svc.Gallery(ctx, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) reloadModel(c *gin.Context) {
	var req models.ReloadRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, bindError(err))
		return
	}
	// Reloads build a whole model; they are bounded by the analysis budget, not the request's.
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.AnalysisTimeout)
	defer cancel()

	status, err := h.svc.ReloadModel(ctx, req.RefreshKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *handler) health(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	resp := h.svc.Health(ctx)
	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func (h *handler) metricsSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			respondError(c, c.Errors.Last().Err)
		}
	}
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &apperrors.AppError{
			Type:       apperrors.ErrorTypeValidation,
			Message:    fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			StatusCode: http.StatusRequestEntityTooLarge,
			Cause:      err,
		}
	}
	return apperrors.NewValidationError("invalid request format", err)
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)
	entry := log.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	resp := models.ErrorResponse{Error: http.StatusText(code)}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Error = string(appErr.Type)
		resp.Message = appErr.Message
		resp.Details = appErr.Details
	} else {
		resp.Message = err.Error()
	}
	c.AbortWithStatusJSON(code, resp)
}

func formBool(v string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(v))
	return b
}
