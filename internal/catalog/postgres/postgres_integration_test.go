//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/anime-shed/skin-advisor-go/internal/catalog"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		_, err = testcontainers.NewDockerClientWithOpts(ctx)
		return
	}()
	if err != nil {
		t.Skipf("Docker not available: %v", err)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "user",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "cosmetics_db",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatal(err)
	}
	dsn := fmt.Sprintf("postgres://user:password@%s:%s/cosmetics_db?sslmode=disable", host, port.Port())

	schema, err := os.ReadFile("../testdata/schema.sql")
	if err != nil {
		t.Fatal(err)
	}
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(ctx)
	for _, stmt := range strings.Split(string(schema), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := conn.Exec(ctx, stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return dsn
}

func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	s, err := Open(ctx, Options{DSN: startPostgres(t), MaxConns: 4, HealthCheckPeriod: time.Second})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	got, err := s.FindByAttributes(ctx, catalog.MatchQuery{Tone: "FAIR", Type: "Oily", Concern: "Cystic", Texture: "Smooth", Undertone: "cool"})
	if err != nil {
		t.Fatalf("FindByAttributes() error = %v", err)
	}
	if len(got) != 1 || got[0].Shade != "Porcelain" {
		t.Errorf("got %+v", got)
	}

	wildcard, _ := s.FindByAttributes(ctx, catalog.MatchQuery{Tone: "_air", Type: "Oily", Concern: "Acne", Texture: "Smooth"})
	if len(wildcard) != 0 {
		t.Errorf("underscore acted as a wildcard: %d matches", len(wildcard))
	}

	if _, ok, err := s.FindByName(ctx, "Nope"); ok || err != nil {
		t.Errorf("FindByName(missing) = %v, %v", ok, err)
	}
	gallery, err := s.FindGallery(ctx, 10)
	if err != nil || len(gallery) != 2 {
		t.Errorf("FindGallery() = %d products, %v", len(gallery), err)
	}
}
