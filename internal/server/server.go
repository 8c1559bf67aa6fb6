package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Afrawles/weekreport/internal/azdevops"
	"github.com/Afrawles/weekreport/internal/config"
	"github.com/Afrawles/weekreport/internal/report"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the weekly report over HTTP.
type Server struct {
	Router    *chi.Mux
	generator *report.Generator
	config    config.ServerConfig
	logger    *slog.Logger
	now       func() time.Time
}

func New(gen *report.Generator, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		generator: gen,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}

	r.Get("/", s.welcome)
	r.Get("/health", s.healthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/tasks", s.getTasks)
		r.Post("/report", s.generateReport)
	})

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}

	s.Router = r
}

func (s *Server) welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "Welcome to the API"})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "weekreport-api",
	})
}

type tasksRequest struct {
	report.Settings
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// getTasks fetches the four categories for the requested week, defaulting to
// the current Monday-based week.
func (s *Server) getTasks(w http.ResponseWriter, r *http.Request) {
	var req tasksRequest
	// An empty body carries no settings and falls through to the token check.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Settings.Validate(); err != nil {
		writeError(w, http.StatusUnauthorized, "Settings are required")
		return
	}

	rng := report.CurrentWeek(s.now())
	if req.StartDate != "" {
		parsed, err := report.ParseRange(req.StartDate, req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rng = parsed
	}

	week, err := s.generator.FetchWeek(r.Context(), req.Settings, rng)
	if err != nil {
		s.logger.Error("error fetching tasks",
			"error", err,
			"organization", req.Organization,
			"authorization", azdevops.IsAuthorizationError(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to fetch tasks")
		return
	}

	writeJSON(w, http.StatusOK, week)
}

type reportRequest struct {
	Settings *report.Settings `json:"settings,omitempty"`
	report.WeekTasks
}

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Error("error generating report", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "报告生成成功",
		"report":  report.FormatReport(req.WeekTasks),
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting weekreport API server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down weekreport API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(started),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
