package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	LogLevel           string
	QualityProfile     string // default, strict or fast

	Catalog CatalogConfig
	Model   ModelConfig
	Face    FaceConfig
	Source  SourceConfig
}

// CatalogConfig selects and tunes the product catalog backend.
type CatalogConfig struct {
	Backend           string // mysql, postgres or memory
	DSN               string
	FixturePath       string // YAML fixture for the memory backend
	QueryTimeout      time.Duration
	MaxOpenConns      int
	MaxIdleConns      int
	MinConns          int // postgres pool floor; 0 keeps the pgxpool default
	ConnMaxLifetime   time.Duration
	HealthCheckPeriod time.Duration
	GalleryLimit      int
}

// ModelConfig describes how the attribute classifier is built.
type ModelConfig struct {
	Backbone      string
	Dir           string // directory holding <backbone>.onnx exports
	ArtifactPath  string // trained heads; built fresh when missing
	RuntimeLib    string // onnxruntime shared library
	Normalization string // none, scale or auto
	Contrast      float64
	Brightness    float64
}

// FaceConfig mirrors the Haar cascade detectMultiScale parameters.
type FaceConfig struct {
	CascadePath  string
	MinSize      int
	ScaleFactor  float64
	MinNeighbors int
}

// SourceConfig selects where analyzed images are read from.
type SourceConfig struct {
	Type         string // local, http or azure
	BaseDir      string // confines local paths when set
	AzureAccount string
	AzureKey     string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set in the environment win.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		QualityProfile:     strings.ToLower(getEnvOrDefault("QUALITY_PROFILE", "default")),
		Catalog: CatalogConfig{
			Backend:           strings.ToLower(getEnvOrDefault("CATALOG_BACKEND", "mysql")),
			DSN:               getEnvOrDefault("CATALOG_DSN", "root:@tcp(localhost:3306)/cosmetics_db?parseTime=true"),
			FixturePath:       os.Getenv("CATALOG_FIXTURE"),
			QueryTimeout:      parseDurationOrDefault("CATALOG_QUERY_TIMEOUT", 5*time.Second),
			MaxOpenConns:      int(parseIntOrDefault("CATALOG_MAX_OPEN_CONNS", 10)),
			MaxIdleConns:      int(parseIntOrDefault("CATALOG_MAX_IDLE_CONNS", 2)),
			MinConns:          int(parseIntOrDefault("CATALOG_MIN_CONNS", 0)),
			ConnMaxLifetime:   parseDurationOrDefault("CATALOG_CONN_MAX_LIFETIME", time.Hour),
			HealthCheckPeriod: parseDurationOrDefault("CATALOG_HEALTH_CHECK_PERIOD", 30*time.Second),
			GalleryLimit:      int(parseIntOrDefault("GALLERY_LIMIT", 20)),
		},
		Model: ModelConfig{
			Backbone:      strings.ToLower(getEnvOrDefault("MODEL_BACKBONE", "mobilenet_v2")),
			Dir:           getEnvOrDefault("MODEL_DIR", "models"),
			ArtifactPath:  getEnvOrDefault("MODEL_ARTIFACT", "models/skin_heads"),
			RuntimeLib:    os.Getenv("ONNXRUNTIME_LIB"),
			Normalization: strings.ToLower(getEnvOrDefault("MODEL_NORMALIZATION", "none")),
			Contrast:      parseFloatOrDefault("MODEL_CONTRAST", 1.0),
			Brightness:    parseFloatOrDefault("MODEL_BRIGHTNESS", 0),
		},
		Face: FaceConfig{
			CascadePath:  getEnvOrDefault("FACE_CASCADE_PATH", "models/haarcascade_frontalface_default.xml"),
			MinSize:      int(parseIntOrDefault("FACE_MIN_SIZE", 100)),
			ScaleFactor:  parseFloatOrDefault("FACE_SCALE_FACTOR", 1.1),
			MinNeighbors: int(parseIntOrDefault("FACE_MIN_NEIGHBORS", 5)),
		},
		Source: SourceConfig{
			Type:         strings.ToLower(getEnvOrDefault("IMAGE_SOURCE", "local")),
			BaseDir:      os.Getenv("IMAGE_BASE_DIR"),
			AzureAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
			AzureKey:     os.Getenv("AZURE_STORAGE_KEY"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 || c.Catalog.QueryTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s, catalog=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout, c.Catalog.QueryTimeout)
	}

	switch c.Catalog.Backend {
	case "mysql", "postgres":
		if c.Catalog.DSN == "" {
			return fmt.Errorf("CATALOG_DSN is required for the %s backend", c.Catalog.Backend)
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported CATALOG_BACKEND: %q", c.Catalog.Backend)
	}
	if c.Catalog.MaxOpenConns <= 0 {
		return fmt.Errorf("CATALOG_MAX_OPEN_CONNS must be > 0 (got %d)", c.Catalog.MaxOpenConns)
	}
	if c.Catalog.MinConns < 0 || c.Catalog.MinConns > c.Catalog.MaxOpenConns {
		return fmt.Errorf("CATALOG_MIN_CONNS must be between 0 and CATALOG_MAX_OPEN_CONNS (got %d)", c.Catalog.MinConns)
	}
	if c.Catalog.GalleryLimit <= 0 {
		return fmt.Errorf("GALLERY_LIMIT must be > 0 (got %d)", c.Catalog.GalleryLimit)
	}

	switch c.QualityProfile {
	case "default", "strict", "fast":
	default:
		return fmt.Errorf("unsupported QUALITY_PROFILE: %q", c.QualityProfile)
	}

	switch c.Model.Normalization {
	case "none", "scale", "auto":
	default:
		return fmt.Errorf("unsupported MODEL_NORMALIZATION: %q", c.Model.Normalization)
	}

	if c.Face.MinSize <= 0 {
		return fmt.Errorf("FACE_MIN_SIZE must be > 0 (got %d)", c.Face.MinSize)
	}
	if c.Face.ScaleFactor <= 1 {
		return fmt.Errorf("FACE_SCALE_FACTOR must be > 1 (got %g)", c.Face.ScaleFactor)
	}

	switch c.Source.Type {
	case "local", "http":
	case "azure":
		if c.Source.AzureAccount == "" || c.Source.AzureKey == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY are required for the azure image source")
		}
	default:
		return fmt.Errorf("unsupported IMAGE_SOURCE: %q", c.Source.Type)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
