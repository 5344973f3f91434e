// Package http is the thin glue between the outside world and the engine:
// a chat webhook that feeds the parser and a small JSON API over the
// dataset. All domain decisions live in nlp, analytics and services;
// handlers only translate requests and replies.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"budgetbot/internal/analytics"
	"budgetbot/internal/cache"
	"budgetbot/internal/dataset"
	applog "budgetbot/internal/log"
	"budgetbot/internal/nlp"
	"budgetbot/internal/services"
)

// Options tunes the server; zero values select sane defaults.
type Options struct {
	ReportCacheSize int
	ReportCacheTTL  time.Duration
}

// Server serves the webhook and the JSON API.
type Server struct {
	http.Server

	store    dataset.Store
	expenses *services.ExpenseService
	parser   *nlp.Parser

	reportCache *cache.LRUCache[*analytics.Report]
}

// NewServer configures routes and the report cache, returning a
// ready-to-run server.
func NewServer(addr string, store dataset.Store, expenses *services.ExpenseService, parser *nlp.Parser, opts Options) *Server {
	if opts.ReportCacheSize <= 0 {
		opts.ReportCacheSize = 64
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           logRequests(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:       store,
		expenses:    expenses,
		parser:      parser,
		reportCache: cache.NewLRUCache[*analytics.Report](opts.ReportCacheSize, opts.ReportCacheTTL),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("POST /api/budgets", s.handleUpsertBudget)
	mux.HandleFunc("GET /api/subscriptions", s.handleListSubscriptions)
	mux.HandleFunc("POST /api/subscriptions", s.handleSaveSubscription)
	mux.HandleFunc("POST /api/subscriptions/{id}/toggle", s.handleToggleSubscription)

	return s
}

// logRequests emits one line per handled request.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.InfoContext(r.Context(), "Request handled",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, sw.status,
			applog.FieldDuration, time.Since(start).Milliseconds())
	})
}

// statusWriter captures the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// ReportCache exposes the cache for lifecycle wiring (expiry sweeps).
func (s *Server) ReportCache() cache.Cleaner { return s.reportCache }

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// monthReport builds (or serves from cache) the aggregation for one month.
// Every write path calls invalidateReports, so a hit is never stale.
func (s *Server) monthReport(ctx context.Context, month string) (*analytics.Report, error) {
	if report, ok := s.reportCache.Get(month); ok {
		return report, nil
	}

	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	report, err := analytics.Aggregate(ds.Expenses, ds.Budgets, ds.Users, month)
	if err != nil {
		return nil, err
	}

	s.reportCache.Set(month, report)
	slog.DebugContext(ctx, "Report computed", applog.FieldMonth, month)
	return report, nil
}

func (s *Server) invalidateReports() {
	s.reportCache.Clear()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", applog.FieldError, err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
