package store

import (
	"context"
	"fmt"

	"sjsage522/pricescout/internal/product"
	pkgerrors "sjsage522/pricescout/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS products (
		id             BIGSERIAL PRIMARY KEY,
		external_id    TEXT NOT NULL,
		name           TEXT NOT NULL,
		description    TEXT,
		price          DOUBLE PRECISION,
		category       TEXT NOT NULL,
		image_url      TEXT,
		affiliate_url  TEXT,
		detail_url     TEXT,
		store          TEXT NOT NULL,
		rating         DOUBLE PRECISION,
		review_count   INTEGER,
		status         TEXT NOT NULL DEFAULT 'active',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (category, external_id)
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id                BIGSERIAL PRIMARY KEY,
		scraper_name      TEXT NOT NULL,
		status            TEXT NOT NULL,
		products_scraped  INTEGER NOT NULL DEFAULT 0,
		message           TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	);
`

// PostgresSink implements Sink on a hosted Postgres database
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects to dsn and makes sure the tables exist
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	if dsn == "" {
		return nil, pkgerrors.NewMisconfigured("postgres store selected without a connection string", []string{"DATABASE_URL"})
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, pkgerrors.NewPersistence("postgres", "failed to parse DATABASE_URL", err)
	}
	if cfg.MaxConns <= 0 || cfg.MaxConns > 4 {
		cfg.MaxConns = 4
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, pkgerrors.NewPersistence("postgres", "failed to connect", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, pkgerrors.NewPersistence("postgres", "failed to initialize schema", err)
	}

	return &PostgresSink{pool: pool}, nil
}

// ReplaceCategory implements Sink
func (s *PostgresSink) ReplaceCategory(ctx context.Context, category string, products []product.Product) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return pkgerrors.NewPersistence("postgres", "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM products WHERE category = $1`, category); err != nil {
		return pkgerrors.NewPersistence("postgres", fmt.Sprintf("failed to clear category %q", category), err)
	}

	b := &pgx.Batch{}
	for _, p := range products {
		b.Queue(`
			INSERT INTO products
				(external_id, name, description, price, category, image_url, affiliate_url,
				 detail_url, store, rating, review_count, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,'active')
			ON CONFLICT (category, external_id) DO NOTHING`,
			p.ID, p.Name, p.Description, p.Price, category, p.ImageURL, p.AffiliateURL,
			p.DetailURL, p.Store, p.Rating, p.ReviewCount,
		)
	}

	br := tx.SendBatch(ctx, b)
	for range products {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return pkgerrors.NewPersistence("postgres", "failed to insert products", err)
		}
	}
	if err := br.Close(); err != nil {
		return pkgerrors.NewPersistence("postgres", "failed to insert products", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return pkgerrors.NewPersistence("postgres", "failed to commit", err)
	}
	return nil
}

// AppendLog implements Sink
func (s *PostgresSink) AppendLog(ctx context.Context, entry product.LogEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scrape_logs (scraper_name, status, products_scraped, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.SourceName, string(entry.Status), entry.ItemCount, entry.Message, entry.Timestamp)
	if err != nil {
		return pkgerrors.NewPersistence("postgres", "failed to append log", err)
	}
	return nil
}

// Close closes the pool
func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
