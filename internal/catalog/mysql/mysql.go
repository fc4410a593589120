// Package mysql reads the catalog from MySQL or MariaDB through a database/sql pool.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/anime-shed/skin-advisor-go/internal/catalog"
)

// Options configure the connection pool.
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store is a pooled MySQL catalog. The pool replaces broken connections on demand.
type Store struct {
	db *sql.DB
}

func placeholder(int) string { return "?" }

// Open creates the pool. Connections are dialed lazily, so an unreachable server is
// not an error here: queries report catalog.ErrUnavailable until it comes back.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.DSN == "" {
		return nil, errors.New("MySQL DSN is required")
	}

	db, err := sql.Open("mysql", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return &Store{db: db}, nil
}

func (s *Store) FindByAttributes(ctx context.Context, q catalog.MatchQuery) ([]catalog.Product, error) {
	stmt, args := catalog.AttributeQuery(q, placeholder)
	return s.query(ctx, stmt, args...)
}

func (s *Store) FindByName(ctx context.Context, name string) (catalog.Product, bool, error) {
	row := s.db.QueryRowContext(ctx, catalog.NameQuery(placeholder), name)
	p, err := catalog.ScanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, false, nil
	}
	if err != nil {
		return catalog.Product{}, false, unavailable(err)
	}
	return p, true, nil
}

// Names lists every product name.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, catalog.NamesQuery())
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
	rows, err := s.db.QueryContext(ctx, stmt, args...)
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
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database connection: %w", err)
	}
	return nil
}

// unavailable keeps context errors distinguishable from store failures.
func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", catalog.ErrUnavailable, err)
}
