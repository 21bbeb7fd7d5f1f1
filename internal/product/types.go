// Package product holds the canonical product schema and the normalizer that
// turns scraped candidates into it.
package product

import (
	"context"
	"time"
)

// Request is a single search invocation.
type Request struct {
	Query    string
	Category string
	Store    string

	// RetryOnEmpty allows one extra pass of the search sequence when the
	// first pass yields nothing. Live consumers set it; sweeps do not.
	RetryOnEmpty bool

	// SkipCache bypasses the result cache for both reads and writes.
	SkipCache bool

	// Pacer, when set, brackets every provider call of the search.
	Pacer Pacer
}

// Pacer spaces consecutive provider calls. Wait blocks until the next call
// may start; Done marks the end of a call.
type Pacer interface {
	Wait(ctx context.Context) error
	Done()
}

// Candidate is one parsed search-result element before normalization.
type Candidate struct {
	Title           string
	RawPriceText    string
	ImageURL        string
	DetailURL       string
	RatingText      string
	ReviewCountText string
	ProviderID      string
	Sponsored       bool
}

// Product is the canonical product written to storage and returned to callers.
type Product struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        *float64 `json:"price"`
	ImageURL     *string  `json:"imageUrl"`
	Category     string   `json:"category"`
	Rating       *float64 `json:"rating"`
	ReviewCount  *int     `json:"reviewCount"`
	Store        string   `json:"store"`
	AffiliateURL string   `json:"affiliateUrl"`
	DetailURL    string   `json:"detailUrl"`
}

// LogStatus is the outcome recorded on a LogEntry.
type LogStatus string

const (
	StatusSuccess LogStatus = "success"
	StatusError   LogStatus = "error"
)

// LogEntry is an append-only audit record of one scrape attempt.
type LogEntry struct {
	SourceName string    `json:"source_name"`
	Status     LogStatus `json:"status"`
	Message    string    `json:"message"`
	ItemCount  int       `json:"item_count"`
	Timestamp  time.Time `json:"timestamp"`
}
