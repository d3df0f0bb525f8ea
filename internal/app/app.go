// Package app wires repositories and services from configuration. Both
// binaries build on it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
	"github.com/joseph-ayodele/anphuc-nienso/internal/dashboard"
	"github.com/joseph-ayodele/anphuc-nienso/internal/export"
	"github.com/joseph-ayodele/anphuc-nienso/internal/families"
	"github.com/joseph-ayodele/anphuc-nienso/internal/imports"
	"github.com/joseph-ayodele/anphuc-nienso/internal/ingest"
	"github.com/joseph-ayodele/anphuc-nienso/internal/ocr"
	"github.com/joseph-ayodele/anphuc-nienso/internal/prayers"
	"github.com/joseph-ayodele/anphuc-nienso/internal/repository"
	"github.com/joseph-ayodele/anphuc-nienso/internal/server"
	"github.com/joseph-ayodele/anphuc-nienso/internal/yearconfig"
)

type App struct {
	Config    *common.Config
	DB        *repository.DB
	Years     *yearconfig.Service
	OCR       *ocr.Extractor
	Families  *families.Service
	Imports   *imports.Service
	Prayers   *prayers.Service
	Dashboard *dashboard.Service
	Export    *export.Service
	Ingestor  *ingest.Ingestor
	logger    *slog.Logger
}

// DatabaseConfig maps the database section onto repository.Config.
func DatabaseConfig(cfg common.DatabaseConfig) repository.Config {
	return repository.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}
}

// OCRConfig maps the OCR section onto ocr.Config.
func OCRConfig(cfg common.OCRConfig) ocr.Config {
	return ocr.Config{
		Tesseract:        cfg.TesseractBin,
		Languages:        cfg.Languages,
		PSM:              cfg.PSM,
		TessdataDir:      cfg.TessdataDir,
		HeicConverter:    cfg.HeicConverter,
		ArtifactCacheDir: cfg.ArtifactCacheDir,
		Timeout:          cfg.Timeout,
	}
}

// New opens the database, checks it answers and builds every service.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := repository.Open(ctx, DatabaseConfig(cfg.Database), logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.HealthCheck(ctx, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("database health: %w", err)
	}

	familyRepo := repository.NewFamilyRepository(db, logger)
	memberRepo := repository.NewMemberRepository(db, logger)
	recordRepo := repository.NewPrayerRecordRepository(db, logger)
	years := yearconfig.NewService(repository.NewConfigRepository(db, logger), logger)
	extractor := ocr.NewExtractor(OCRConfig(cfg.OCR), logger)

	importSvc := imports.NewService(familyRepo, years, extractor, logger)
	prayerSvc := prayers.NewService(recordRepo, familyRepo, memberRepo, years, logger)

	return &App{
		Config:    cfg,
		DB:        db,
		Years:     years,
		OCR:       extractor,
		Families:  families.NewService(familyRepo, memberRepo, recordRepo, years, logger),
		Imports:   importSvc,
		Prayers:   prayerSvc,
		Dashboard: dashboard.NewService(familyRepo, memberRepo, recordRepo, years, logger),
		Export:    export.NewService(prayerSvc, logger),
		Ingestor:  ingest.NewIngestor(importSvc, logger),
		logger:    logger,
	}, nil
}

// Services returns the set the HTTP API fronts.
func (a *App) Services() server.Services {
	return server.Services{
		Families:  a.Families,
		Imports:   a.Imports,
		Prayers:   a.Prayers,
		Dashboard: a.Dashboard,
		Export:    a.Export,
		Years:     a.Years,
		DB:        a.DB,
	}
}

func (a *App) Close() {
	a.DB.Close()
}
