// Package ocr turns photographed ledger pages into text by shelling out to
// tesseract. HEIC photos from phones are converted to PNG first.
package ocr

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrResourceUnavailable reports that OCR cannot run on this host: the trained
// data or the tesseract binary is missing.
var ErrResourceUnavailable = errors.New("ocr resources unavailable")

var (
	// ErrEmptyImage is returned for zero-length input.
	ErrEmptyImage = errors.New("empty image")
	// ErrUnsupportedFormat is returned when DetectFormat does not recognise the bytes.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Languages string // default "vie+eng"
	PSM       int    // page segmentation mode; 6 = uniform block of text

	TessdataDir         string
	HeicConverter       string
	EnableTSVConfidence bool

	ArtifactCacheDir string
	// Timeout bounds one Extract call; 0 means no limit beyond ctx.
	Timeout time.Duration
}

type Result struct {
	Text       string
	Format     string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return NewExtractorWithRunner(cfg, ExecRunner{Logger: logger}, logger)
}

// NewExtractorWithRunner is NewExtractor with an injected command runner.
func NewExtractorWithRunner(cfg Config, r Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Languages == "" {
		cfg.Languages = "vie+eng"
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	return &Extractor{cfg: cfg, runner: r, logger: logger}
}

// ExtractText returns the normalized text found in an encoded image.
func (e *Extractor) ExtractText(ctx context.Context, image []byte) (string, error) {
	res, err := e.Extract(ctx, image)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Extract runs OCR on an encoded image and reports text plus diagnostics.
func (e *Extractor) Extract(ctx context.Context, image []byte) (Result, error) {
	start := time.Now()
	if len(image) == 0 {
		return Result{}, ErrEmptyImage
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	if err := e.checkTessdata(); err != nil {
		e.logger.Error("ocr resources missing", "tessdata_dir", e.cfg.TessdataDir, "error", err)
		return Result{}, err
	}

	format := DetectFormat(image)
	if format == FormatUnknown {
		return Result{}, ErrUnsupportedFormat
	}

	tmpDir, err := os.MkdirTemp("", "nienso-ocr-*")
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove ocr temp dir", "dir", tmpDir, "error", err)
		}
	}()

	path := filepath.Join(tmpDir, "page."+format)
	if err := os.WriteFile(path, image, 0o600); err != nil {
		return Result{}, err
	}

	var warns []string
	if format == FormatHEIC {
		sum := sha256.Sum256(image)
		out, w, cleanup, err := convertHEICtoPNG(ctx, e.runner, e.logger, e.cfg.HeicConverter, path, e.cfg.ArtifactCacheDir, hex.EncodeToString(sum[:]))
		warns = append(warns, w...)
		if err != nil {
			e.logger.Error("heic conversion failed", "error", err)
			return Result{Format: format, Warnings: warns}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		path = out
	}

	txt, err := e.tesseract(ctx, path)
	if err != nil {
		return Result{Format: format, Warnings: warns}, err
	}
	txt = Normalize(txt)

	var ocrConf float32
	if e.cfg.EnableTSVConfidence {
		if c, err := e.tesseractTSVConfidence(ctx, path); err == nil {
			ocrConf = c
		} else {
			warns = append(warns, err.Error())
		}
	}
	conf := heuristicConfidence(txt)
	if ocrConf > 0 {
		conf = 0.7*ocrConf + 0.3*conf
	}

	res := Result{
		Text:       txt,
		Format:     format,
		Duration:   time.Since(start),
		Warnings:   warns,
		Confidence: conf,
	}
	e.logger.Info("ocr finished",
		"format", format,
		"confidence", fmt.Sprintf("%.1f%%", conf*100),
		"text_len", len(txt),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) baseArgs(path string) []string {
	args := []string{path, "stdout",
		"-l", e.cfg.Languages,
		"--psm", strconv.Itoa(e.cfg.PSM),
		"-c", "preserve_interword_spaces=1",
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

func (e *Extractor) tesseract(ctx context.Context, path string) (string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.baseArgs(path)...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || missingLanguage(errb) {
			return "", fmt.Errorf("%w: %v", ErrResourceUnavailable, err)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

// checkTessdata verifies the configured trained-data directory holds every
// requested language. An empty TessdataDir defers to tesseract's own lookup.
func (e *Extractor) checkTessdata() error {
	dir := e.cfg.TessdataDir
	if dir == "" {
		return nil
	}
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return fmt.Errorf("%w: tessdata directory not found at %q", ErrResourceUnavailable, dir)
	}
	for _, lang := range strings.Split(e.cfg.Languages, "+") {
		if _, err := os.Stat(filepath.Join(dir, lang+".traineddata")); err != nil {
			return fmt.Errorf("%w: %s.traineddata missing in %q", ErrResourceUnavailable, lang, dir)
		}
	}
	return nil
}

func missingLanguage(stderr []byte) bool {
	return bytes.Contains(stderr, []byte("Failed loading language")) ||
		bytes.Contains(stderr, []byte("Error opening data file"))
}
