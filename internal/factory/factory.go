package factory

import (
	"context"
	"fmt"

	"github.com/anime-shed/skin-advisor-go/internal/catalog"
	"github.com/anime-shed/skin-advisor-go/internal/catalog/memory"
	"github.com/anime-shed/skin-advisor-go/internal/catalog/mysql"
	"github.com/anime-shed/skin-advisor-go/internal/catalog/postgres"
	"github.com/anime-shed/skin-advisor-go/internal/config"
	"github.com/anime-shed/skin-advisor-go/internal/repository"
	"github.com/anime-shed/skin-advisor-go/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// CatalogBackend names a product catalog implementation.
type CatalogBackend string

const (
	MySQLCatalog    CatalogBackend = "mysql"
	PostgresCatalog CatalogBackend = "postgres"
	MemoryCatalog   CatalogBackend = "memory"
)

// StorageFactory creates image repositories
type StorageFactory interface {
	CreateStorage(storageType StorageType) (repository.ImageRepository, error)
}

// CatalogFactory opens product catalogs
type CatalogFactory interface {
	CreateCatalog(ctx context.Context, backend CatalogBackend) (catalog.Store, error)
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (repository.ImageRepository, error) {
	switch storageType {
	case HTTPStorage:
		return repository.NewImageRepository(repository.KindHTTP,
			storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout, storage.WithMaxBytes(f.cfg.MaxRequestBodySize))), nil
	case AzureStorage:
		fetcher, err := storage.NewAzureImageFetcher(f.cfg.Source.AzureAccount, f.cfg.Source.AzureKey)
		if err != nil {
			return nil, err
		}
		return repository.NewImageRepository(repository.KindAzure, fetcher), nil
	case LocalStorage:
		return repository.NewImageRepository(repository.KindLocal, storage.NewLocalImageFetcher(f.cfg.Source.BaseDir)), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

type catalogFactory struct {
	cfg config.CatalogConfig
}

// NewCatalogFactory creates a catalog factory
func NewCatalogFactory(cfg config.CatalogConfig) CatalogFactory {
	return &catalogFactory{cfg: cfg}
}

// CreateCatalog opens the backend. An unreachable SQL server still yields a store
// whose queries report catalog.ErrUnavailable until the pool reconnects.
func (f *catalogFactory) CreateCatalog(ctx context.Context, backend CatalogBackend) (catalog.Store, error) {
	switch backend {
	case MySQLCatalog:
		return mysql.Open(ctx, mysql.Options{
			DSN:             f.cfg.DSN,
			MaxOpenConns:    f.cfg.MaxOpenConns,
			MaxIdleConns:    f.cfg.MaxIdleConns,
			ConnMaxLifetime: f.cfg.ConnMaxLifetime,
		})
	case PostgresCatalog:
		return postgres.Open(ctx, postgres.Options{
			DSN:               f.cfg.DSN,
			MaxConns:          f.cfg.MaxOpenConns,
			MinConns:          f.cfg.MinConns,
			ConnMaxLifetime:   f.cfg.ConnMaxLifetime,
			HealthCheckPeriod: f.cfg.HealthCheckPeriod,
		})
	case MemoryCatalog:
		if f.cfg.FixturePath == "" {
			return memory.New(nil), nil
		}
		return memory.Load(f.cfg.FixturePath)
	default:
		return nil, fmt.Errorf("unsupported catalog backend: %s", backend)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory StorageFactory
	CatalogFactory CatalogFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		StorageFactory: NewStorageFactory(cfg),
		CatalogFactory: NewCatalogFactory(cfg.Catalog),
	}
}
