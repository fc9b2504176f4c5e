// Package server exposes the credibility check over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/newsguard/internal/metrics"
	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/pipeline"
	"github.com/ppiankov/newsguard/internal/report"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-Id"

// Checker runs one credibility check
type Checker interface {
	Check(ctx context.Context, text string) *model.Analysis
}

// Server serves the analyze API
type Server struct {
	cfg     model.ServerConfig
	checker Checker
	metrics *metrics.Metrics
	footer  bool
}

// AnalyzeRequest is the body of POST /v1/analyze
type AnalyzeRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Option configures a Server
type Option func(*Server)

// WithMetrics mounts /metrics for m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithReportFooter toggles the footer on Markdown responses
func WithReportFooter(footer bool) Option {
	return func(s *Server) { s.footer = footer }
}

// New creates a server
func New(cfg model.ServerConfig, checker Checker, opts ...Option) *Server {
	s := &Server{cfg: cfg, checker: checker, footer: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/analyze", s.handleAnalyze)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.String("addr", s.cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id := RequestIDFrom(r.Context())
	maxChars := s.cfg.MaxClaimChars
	if maxChars <= 0 {
		maxChars = 4000
	}

	// Four bytes per rune plus JSON framing
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxChars)*4+1024)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large", RequestID: id})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", RequestID: id})
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required", RequestID: id})
		return
	}
	if n := utf8.RuneCountInString(text); n > maxChars {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "text exceeds the claim length limit", RequestID: id})
		return
	}

	analysis := s.checker.Check(pipeline.WithRequestID(r.Context(), id), text)

	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := report.NewMarkdownWriter(w, report.WithFooter(s.footer)).Write(analysis); err != nil {
			zap.L().Warn("write markdown response", zap.String("request_id", id), zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := report.NewJSONWriter(w).Write(analysis); err != nil {
		zap.L().Warn("write json response", zap.String("request_id", id), zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type ctxKey struct{}

// requestID takes the caller's X-Request-Id or assigns a fresh one
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestIDFrom returns the id assigned by the server, if any
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
