package publisher

import (
	"context"
	"encoding/json"
	"time"

	"sjsage522/pricescout/internal/product"
)

// RefreshKey is the stream field carrying a category refresh announcement.
const RefreshKey = "b64_refresh"

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message to a stream. Messages with the same key
	// land on the same stream.
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// Refresh announces that the stored products of a category were replaced.
type Refresh struct {
	RunID     string            `json:"run_id"`
	Store     string            `json:"store"`
	Category  string            `json:"category"`
	Query     string            `json:"query"`
	Count     int               `json:"count"`
	Products  []product.Product `json:"products"`
	Timestamp time.Time         `json:"timestamp"`
}

// PublishRefresh encodes r and publishes it keyed by its category.
func PublishRefresh(ctx context.Context, p Publisher, r Refresh) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return p.Publish(ctx, RefreshKey+":"+r.Category, data)
}
