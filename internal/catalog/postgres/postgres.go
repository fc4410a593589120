// Package postgres reads the catalog from PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anime-shed/skin-advisor-go/internal/catalog"
)

// Options configure the pool.
type Options struct {
	DSN               string
	MaxConns          int
	MinConns          int
	ConnMaxLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

// Store is a pooled PostgreSQL catalog. pgxpool health-checks idle connections and
// dials replacements for dropped ones.
type Store struct {
	pool *pgxpool.Pool
}

func placeholder(n int) string { return "$" + strconv.Itoa(n) }

// Open creates the pool without dialing. An unreachable server surfaces as
// catalog.ErrUnavailable on the first query or Ping.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.DSN == "" {
		return nil, errors.New("database URL is required")
	}
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse PostgreSQL DSN: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		cfg.MinConns = int32(opts.MinConns)
	}
	if opts.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = opts.ConnMaxLifetime
	}
	if opts.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = opts.HealthCheckPeriod
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create pool: %w", catalog.ErrUnavailable, err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) FindByAttributes(ctx context.Context, q catalog.MatchQuery) ([]catalog.Product, error) {
	stmt, args := catalog.AttributeQuery(q, placeholder)
	return s.query(ctx, stmt, args...)
}

func (s *Store) FindByName(ctx context.Context, name string) (catalog.Product, bool, error) {
	row := s.pool.QueryRow(ctx, catalog.NameQuery(placeholder), name)
	p, err := catalog.ScanProduct(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, false, nil
	}
	if err != nil {
		return catalog.Product{}, false, unavailable(err)
	}
	return p, true, nil
}

// Names lists every product name.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, catalog.NamesQuery())
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, unavailable(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return names, nil
}

func (s *Store) FindGallery(ctx context.Context, limit int) ([]catalog.Product, error) {
	return s.query(ctx, catalog.GalleryQuery(placeholder), limit)
}

func (s *Store) query(ctx context.Context, stmt string, args ...any) ([]catalog.Product, error) {
	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		p, err := catalog.ScanProduct(rows.Scan)
		if err != nil {
			return nil, unavailable(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", catalog.ErrUnavailable, err)
}
