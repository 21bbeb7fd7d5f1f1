// Package api exposes search, health and sweep-trigger endpoints over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sjsage522/pricescout/internal/product"
	"sjsage522/pricescout/logger"
	pkgerrors "sjsage522/pricescout/pkg/errors"
	"sjsage522/pricescout/services/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 16

// Searcher answers live search requests
type Searcher interface {
	Search(ctx context.Context, req product.Request) ([]product.Product, error)
	Configured() bool
}

// Sweeper runs on-demand persisted searches and full sweeps
type Sweeper interface {
	SearchOne(ctx context.Context, query, category string) ([]product.Product, error)
	Sweep(ctx context.Context) (worker.SweepReport, error)
}

// Server holds the HTTP handlers
type Server struct {
	searcher Searcher
	sweeper  Sweeper
	registry *prometheus.Registry
	now      func() time.Time
	log      *logger.Logger
}

// NewServer creates a server. sweeper and registry may be nil, which disables
// the sweep trigger and the metrics endpoint.
func NewServer(searcher Searcher, sweeper Sweeper, registry *prometheus.Registry) *Server {
	return &Server{
		searcher: searcher,
		sweeper:  sweeper,
		registry: registry,
		now:      time.Now,
		log:      logger.ForAPI(),
	}
}

// Handler returns the routed handler with CORS and request logging applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/sweep", s.handleSweep)
	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return s.logRequests(withCORS(mux))
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.log.Info().Msg("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

type searchResponse struct {
	Items []product.Product `json:"items"`
	Count int               `json:"count"`
	Query string            `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		query = strings.TrimSpace(q.Get("query"))
	}
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing query"})
		return
	}

	products, err := s.searcher.Search(r.Context(), product.Request{
		Query:        query,
		Category:     q.Get("category"),
		Store:        q.Get("store"),
		RetryOnEmpty: true,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if products == nil {
		products = []product.Product{}
	}

	writeJSON(w, http.StatusOK, searchResponse{Items: products, Count: len(products), Query: query})
}

type healthResponse struct {
	OK        bool   `json:"ok"`
	Env       bool   `json:"env"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	configured := s.searcher != nil && s.searcher.Configured()

	resp := healthResponse{
		OK:        configured,
		Env:       configured,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Message:   "Scraping provider configured",
	}
	if !configured {
		resp.Message = "Scraping provider API key is not configured"
	}
	writeJSON(w, http.StatusOK, resp)
}

type sweepRequest struct {
	Query    string `json:"query"`
	Category string `json:"category"`
}

type sweepResponse struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message"`
	Products []product.Product   `json:"products"`
	Count    int                 `json:"count"`
	Report   *worker.SweepReport `json:"report,omitempty"`
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.sweeper == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "sweeps are not enabled"})
		return
	}

	var req sweepRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read body"})
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
			return
		}
	}

	query := strings.TrimSpace(req.Query)
	category := strings.TrimSpace(req.Category)

	if query != "" {
		products, err := s.sweeper.SearchOne(r.Context(), query, category)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if products == nil {
			products = []product.Product{}
		}
		writeJSON(w, http.StatusOK, sweepResponse{
			Success:  true,
			Message:  fmt.Sprintf("Scraped %d products for %q", len(products), query),
			Products: products,
			Count:    len(products),
		})
		return
	}

	report, err := s.sweeper.Sweep(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sweepResponse{
		Success:  report.Failed == 0,
		Message:  fmt.Sprintf("Sweep %s: %d targets succeeded, %d failed", report.RunID, report.Succeeded, report.Failed),
		Products: []product.Product{},
		Count:    report.Products,
		Report:   &report,
	})
}

// writeError maps err onto the error envelope. Invalid requests echo their
// message; everything else is a 500 with the error in details.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := pkgerrors.HTTPStatus(err)

	var pe *pkgerrors.PipelineError
	if status == http.StatusBadRequest && errors.As(err, &pe) {
		writeJSON(w, status, map[string]string{"error": pe.Message})
		return
	}

	s.log.Error().Err(err).Str("type", string(pkgerrors.TypeOf(err))).Msg("Request failed")
	writeJSON(w, status, map[string]string{
		"error":   errorSummary(err),
		"details": err.Error(),
	})
}

func errorSummary(err error) string {
	switch pkgerrors.TypeOf(err) {
	case pkgerrors.ErrorTypeMisconfigured:
		return "Server misconfigured"
	case pkgerrors.ErrorTypeUpstream, pkgerrors.ErrorTypeNetwork:
		return "Upstream scraping provider failed"
	default:
		if errors.Is(err, worker.ErrSweepRunning) {
			return "Sweep already running"
		}
		return "Internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
