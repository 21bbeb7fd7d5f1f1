// Package store persists normalized products and the scrape audit log.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sjsage522/pricescout/config"
	"sjsage522/pricescout/internal/product"
	"sjsage522/pricescout/logger"
	pkgerrors "sjsage522/pricescout/pkg/errors"
)

// Sink is the write side of product storage.
type Sink interface {
	// ReplaceCategory deletes every stored product of category and inserts
	// products in its place. Either all of it applies or none does.
	ReplaceCategory(ctx context.Context, category string, products []product.Product) error

	// AppendLog appends one audit entry.
	AppendLog(ctx context.Context, entry product.LogEntry) error

	Close() error
}

// NewSinkFromConfig opens the sink selected by STORE_DRIVER. The "none" driver
// returns a nil sink, which Journal treats as a no-op.
func NewSinkFromConfig(ctx context.Context, cfg *config.Config) (Sink, error) {
	switch cfg.StoreDriver {
	case "", "sqlite":
		s, err := NewSQLiteSink(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgresSink(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Journal wraps a Sink for callers that must never fail because storage did.
// Errors are logged and swallowed. A Journal with a nil sink does nothing.
type Journal struct {
	sink Sink
	now  func() time.Time
	log  *logger.Logger
}

// NewJournal creates a journal over sink
func NewJournal(sink Sink) *Journal {
	return &Journal{
		sink: sink,
		now:  time.Now,
		log:  logger.ForStore(),
	}
}

// Enabled reports whether writes reach a real sink
func (j *Journal) Enabled() bool {
	return j != nil && j.sink != nil
}

// Record appends an audit entry, stamping it if no timestamp is set.
func (j *Journal) Record(ctx context.Context, entry product.LogEntry) {
	if !j.Enabled() {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = j.now()
	}
	if err := j.sink.AppendLog(ctx, entry); err != nil {
		j.log.Warn().Err(err).
			Str("source", entry.SourceName).
			Str("status", string(entry.Status)).
			Msg("Failed to append scrape log")
	}
}

// Success records a successful attempt
func (j *Journal) Success(ctx context.Context, source string, count int, message string) {
	j.Record(ctx, product.LogEntry{
		SourceName: source,
		Status:     product.StatusSuccess,
		Message:    message,
		ItemCount:  count,
	})
}

// Failure records a failed attempt. Upstream failures keep the provider's
// body excerpt in the message.
func (j *Journal) Failure(ctx context.Context, source string, err error) {
	message := err.Error()
	var pe *pkgerrors.PipelineError
	if errors.As(err, &pe) && pe.Excerpt != "" {
		message = fmt.Sprintf("%s: %s", message, pe.Excerpt)
	}
	j.Record(ctx, product.LogEntry{
		SourceName: source,
		Status:     product.StatusError,
		Message:    message,
	})
}

// Persist replaces the stored products of category. It reports whether the
// write went through.
func (j *Journal) Persist(ctx context.Context, category string, products []product.Product) bool {
	if !j.Enabled() || len(products) == 0 {
		return false
	}
	if err := j.sink.ReplaceCategory(ctx, category, products); err != nil {
		j.log.Error().Err(err).
			Str("category", category).
			Int("products", len(products)).
			Msg("Failed to persist products")
		return false
	}
	j.log.Debug().Str("category", category).Int("products", len(products)).Msg("Persisted products")
	return true
}

// Close closes the underlying sink
func (j *Journal) Close() error {
	if !j.Enabled() {
		return nil
	}
	return j.sink.Close()
}
