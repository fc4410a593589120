package factory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anime-shed/skin-advisor-go/internal/catalog"
	"github.com/anime-shed/skin-advisor-go/internal/config"
	"github.com/anime-shed/skin-advisor-go/internal/logger"
	"github.com/anime-shed/skin-advisor-go/internal/recommender"
	"github.com/anime-shed/skin-advisor-go/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		ImageFetchTimeout:  time.Second,
		MaxRequestBodySize: 1 << 20,
		Catalog: config.CatalogConfig{
			Backend:     "memory",
			FixturePath: "../catalog/testdata/products.yaml",
		},
	}
}

func TestCreateStorage(t *testing.T) {
	f := NewStorageFactory(testConfig())

	for _, st := range []StorageType{HTTPStorage, LocalStorage} {
		repo, err := f.CreateStorage(st)
		if err != nil || repo == nil {
			t.Errorf("CreateStorage(%s) = %v, %v", st, repo, err)
		}
	}

	if _, err := f.CreateStorage(AzureStorage); err == nil {
		t.Error("Expected azure storage to require credentials")
	}
	if _, err := f.CreateStorage("ftp"); err == nil {
		t.Error("Expected unknown storage type to be rejected")
	}
}

func TestCreateStorage_LocalRejectsURLs(t *testing.T) {
	repo, err := NewStorageFactory(testConfig()).CreateStorage(LocalStorage)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.ValidateImageRef("https://example.com/a.jpg"); !errors.Is(err, repository.ErrInvalidImagePath) {
		t.Errorf("Expected local storage to reject URL, got %v", err)
	}
}

func TestCreateCatalog_Memory(t *testing.T) {
	f := NewComponentFactory(testConfig())

	store, err := f.CatalogFactory.CreateCatalog(context.Background(), MemoryCatalog)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	gallery, err := store.FindGallery(context.Background(), 10)
	if err != nil || len(gallery) == 0 {
		t.Errorf("Expected fixture gallery, got %v, %v", gallery, err)
	}
}

func TestCreateCatalog_Unknown(t *testing.T) {
	f := NewCatalogFactory(config.CatalogConfig{})
	if _, err := f.CreateCatalog(context.Background(), "sqlite"); err == nil {
		t.Error("Expected unknown backend to be rejected")
	}
}

func TestCreateCatalog_UnreachableSQLDegrades(t *testing.T) {
	logger.Silence()

	tests := []struct {
		name    string
		backend CatalogBackend
		dsn     string
	}{
		{"mysql", MySQLCatalog, "root:@tcp(127.0.0.1:1)/cosmetics_db?timeout=1s"},
		{"postgres", PostgresCatalog, "postgres://skin@127.0.0.1:1/cosmetics_db?connect_timeout=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, err := NewCatalogFactory(config.CatalogConfig{DSN: tt.dsn, MaxOpenConns: 2}).CreateCatalog(ctx, tt.backend)
			if err != nil {
				t.Fatalf("CreateCatalog() error = %v", err)
			}
			defer store.Close()

			if err := store.Ping(ctx); !errors.Is(err, catalog.ErrUnavailable) {
				t.Errorf("Ping() = %v, want catalog.ErrUnavailable", err)
			}

			m := recommender.NewMatcher(store, recommender.WithQueryTimeout(5*time.Second))
			res, err := m.General(ctx, catalog.MatchQuery{Tone: "Fair", Type: "Oily", Concern: "Acne", Texture: "Smooth"})
			if err != nil {
				t.Fatalf("General() error = %v", err)
			}
			if !res.Status.Degraded || len(res.Items) != 0 {
				t.Errorf("General() = %+v, want degraded empty result", res)
			}
		})
	}
}

func TestCreateCatalog_SQLRequiresDSN(t *testing.T) {
	f := NewCatalogFactory(config.CatalogConfig{MaxOpenConns: 2})
	for _, backend := range []CatalogBackend{MySQLCatalog, PostgresCatalog} {
		if _, err := f.CreateCatalog(context.Background(), backend); err == nil {
			t.Errorf("Expected %s without DSN to be rejected", backend)
		}
	}
}
