package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sjsage522/pricescout/internal/product"
	pkgerrors "sjsage522/pricescout/pkg/errors"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS products (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id    TEXT NOT NULL,
		name           TEXT NOT NULL,
		description    TEXT,
		price          REAL,
		category       TEXT NOT NULL,
		image_url      TEXT,
		affiliate_url  TEXT,
		detail_url     TEXT,
		store          TEXT NOT NULL,
		rating         REAL,
		review_count   INTEGER,
		status         TEXT NOT NULL DEFAULT 'active',
		created_at     TEXT NOT NULL,
		UNIQUE(category, external_id)
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		scraper_name      TEXT NOT NULL,
		status            TEXT NOT NULL,
		products_scraped  INTEGER NOT NULL DEFAULT 0,
		message           TEXT,
		created_at        TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
	CREATE INDEX IF NOT EXISTS idx_scrape_logs_created ON scrape_logs(created_at);
`

// SQLiteSink implements Sink on a local SQLite file
type SQLiteSink struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteSink opens (creating if needed) the database at path
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, pkgerrors.NewPersistence("sqlite", "failed to create directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, pkgerrors.NewPersistence("sqlite", "failed to open database", err)
	}
	// one writer; modernc serializes anyway and WAL lets readers through
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, pkgerrors.NewPersistence("sqlite", "failed to set WAL mode", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, pkgerrors.NewPersistence("sqlite", "failed to initialize database", err)
	}

	return &SQLiteSink{db: db}, nil
}

// ReplaceCategory implements Sink
func (s *SQLiteSink) ReplaceCategory(ctx context.Context, category string, products []product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.NewPersistence("sqlite", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE category = ?`, category); err != nil {
		return pkgerrors.NewPersistence("sqlite", fmt.Sprintf("failed to clear category %q", category), err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO products
			(external_id, name, description, price, category, image_url, affiliate_url,
			 detail_url, store, rating, review_count, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'active', ?)
	`)
	if err != nil {
		return pkgerrors.NewPersistence("sqlite", "failed to prepare insert", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range products {
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.Description, p.Price, category, p.ImageURL, p.AffiliateURL,
			p.DetailURL, p.Store, p.Rating, p.ReviewCount, now,
		); err != nil {
			return pkgerrors.NewPersistence("sqlite", fmt.Sprintf("failed to insert %s", p.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return pkgerrors.NewPersistence("sqlite", "failed to commit", err)
	}
	return nil
}

// AppendLog implements Sink
func (s *SQLiteSink) AppendLog(ctx context.Context, entry product.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scrape_logs (scraper_name, status, products_scraped, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.SourceName, string(entry.Status), entry.ItemCount, entry.Message,
		entry.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return pkgerrors.NewPersistence("sqlite", "failed to append log", err)
	}
	return nil
}

// Products returns the stored products of category in insertion order
func (s *SQLiteSink) Products(ctx context.Context, category string) ([]product.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT external_id, name, description, price, category, image_url, affiliate_url,
		       detail_url, store, rating, review_count
		FROM products
		WHERE category = ?
		ORDER BY id
	`, category)
	if err != nil {
		return nil, pkgerrors.NewPersistence("sqlite", "failed to query products", err)
	}
	defer rows.Close()

	var products []product.Product
	for rows.Next() {
		var (
			p                   product.Product
			description, detail sql.NullString
			affiliate           sql.NullString
			price, rating       sql.NullFloat64
			image               sql.NullString
			reviews             sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Name, &description, &price, &p.Category, &image,
			&affiliate, &detail, &p.Store, &rating, &reviews); err != nil {
			return nil, pkgerrors.NewPersistence("sqlite", "failed to scan product", err)
		}
		p.Description = description.String
		p.AffiliateURL = affiliate.String
		p.DetailURL = detail.String
		if price.Valid {
			p.Price = &price.Float64
		}
		if rating.Valid {
			p.Rating = &rating.Float64
		}
		if image.Valid {
			p.ImageURL = &image.String
		}
		if reviews.Valid {
			n := int(reviews.Int64)
			p.ReviewCount = &n
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Logs returns the most recent audit entries, newest first
func (s *SQLiteSink) Logs(ctx context.Context, limit int) ([]product.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scraper_name, status, products_scraped, message, created_at
		FROM scrape_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, pkgerrors.NewPersistence("sqlite", "failed to query logs", err)
	}
	defer rows.Close()

	var entries []product.LogEntry
	for rows.Next() {
		var (
			e         product.LogEntry
			status    string
			message   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.SourceName, &status, &e.ItemCount, &message, &createdAt); err != nil {
			return nil, pkgerrors.NewPersistence("sqlite", "failed to scan log", err)
		}
		e.Status = product.LogStatus(status)
		e.Message = message.String
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
