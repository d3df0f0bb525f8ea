// Package server exposes the ledger over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
	"github.com/joseph-ayodele/anphuc-nienso/internal/dashboard"
	"github.com/joseph-ayodele/anphuc-nienso/internal/export"
	"github.com/joseph-ayodele/anphuc-nienso/internal/families"
	"github.com/joseph-ayodele/anphuc-nienso/internal/imports"
	"github.com/joseph-ayodele/anphuc-nienso/internal/prayers"
)

// Pinger reports database liveness.
type Pinger interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

// YearStore reads and writes the configured lunar year.
type YearStore interface {
	CurrentYear(ctx context.Context) (int, error)
	SetYear(ctx context.Context, year int) error
}

// Services are the application services the API fronts.
type Services struct {
	Families  *families.Service
	Imports   *imports.Service
	Prayers   *prayers.Service
	Dashboard *dashboard.Service
	Export    *export.Service
	Years     YearStore
	DB        Pinger
}

// Config holds runtime options for the HTTP server.
type Config struct {
	Address        string
	RequestTimeout time.Duration
	// OCRRatePerMin of 0 disables OCR rate limiting.
	OCRRatePerMin  int
	OCRBurst       int
	MaxUploadBytes int64
	DefaultLocale  string
}

// ConfigFrom builds a server Config from the application config.
func ConfigFrom(cfg *common.Config) Config {
	return Config{
		Address:        cfg.Server.HTTPAddr,
		RequestTimeout: cfg.Server.RequestTimeout,
		OCRRatePerMin:  cfg.Server.OCRRatePerMin,
		OCRBurst:       cfg.Server.OCRBurst,
		MaxUploadBytes: cfg.OCR.MaxUploadBytes,
		DefaultLocale:  cfg.Server.DefaultLocale,
	}
}

type Server struct {
	cfg        Config
	svc        Services
	logger     *slog.Logger
	i18n       *translator
	schemas    map[string]*jsonschema.Schema
	ocrLimiter *rate.Limiter
}

// NewServer wires the handlers. It fails only if the embedded locales or
// schemas are broken.
func NewServer(cfg Config, svc Services, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = "vi"
	}
	tr, err := newTranslator(logger)
	if err != nil {
		return nil, fmt.Errorf("load locales: %w", err)
	}
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, svc: svc, logger: logger, i18n: tr, schemas: schemas}
	if cfg.OCRRatePerMin > 0 {
		burst := cfg.OCRBurst
		if burst <= 0 {
			burst = 1
		}
		s.ocrLimiter = rate.NewLimiter(rate.Limit(float64(cfg.OCRRatePerMin)/60), burst)
	}
	return s, nil
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(s.cfg.RequestTimeout))
	r.Use(s.locale)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/config/lunar-year", s.handleGetLunarYear)
		r.Put("/config/lunar-year", s.handleSetLunarYear)

		r.Route("/import", func(r chi.Router) {
			r.Post("/process-text", s.handleProcessText)
			r.With(s.limitOCR).Post("/ocr", s.handleOCR)
			r.Post("/save", s.handleImportSave)
		})

		r.Route("/families", func(r chi.Router) {
			r.Get("/", s.handleListFamilies)
			r.Post("/", s.handleCreateFamily)
			r.Get("/autocomplete", s.handleAutocomplete)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleFamilyDetail)
				r.Put("/", s.handleUpdateFamily)
				r.Delete("/", s.handleDeleteFamily)
				r.Post("/members", s.handleAddMember)
				r.Put("/members/{memberId}", s.handleUpdateMember)
				r.Delete("/members/{memberId}", s.handleDeleteMember)
				r.Get("/prayer-records", s.handleFamilyPrayerRecords)
			})
		})

		r.Route("/prayer-records", func(r chi.Router) {
			r.Get("/", s.handleListPrayerRecords)
			r.Post("/", s.handleCreatePrayerRecord)
			r.Get("/summary", s.handlePrayerSummary)
			r.Get("/print-data", s.handlePrintData)
			r.Get("/print-data.xlsx", s.handlePrintDataXLSX)
			r.Put("/{id}", s.handleUpdatePrayerRecord)
			r.Delete("/{id}", s.handleDeletePrayerRecord)
		})

		r.Get("/dashboard/summary", s.handleDashboardSummary)
		r.Get("/dashboard/sao-han-stats", s.handleSaoHanStats)
		r.Get("/fortune", s.handleFortune)
	})
	return r
}

// New constructs the HTTP server with its middleware stack.
func New(cfg Config, svc Services, logger *slog.Logger) (*http.Server, error) {
	s, err := NewServer(cfg, svc, logger)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.svc.DB == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if err := s.svc.DB.HealthCheck(r.Context(), 2*time.Second); err != nil {
		s.log(r).Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError logs err and writes {"error": <localized message>}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatusFromCode(common.CodeOf(err))
	logger := s.log(r)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Debug("request rejected", "status", status, "error", err)
	}
	data := map[string]any{"MaxMB": s.cfg.MaxUploadBytes >> 20}
	msg := s.i18n.message(common.LocaleFromContext(r.Context()), err, data)
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) log(r *http.Request) *slog.Logger {
	return common.LoggerFromContext(r.Context(), s.logger)
}
