// Package ingest turns files dropped into an inbox folder into extraction
// results the operator reviews before saving.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/anphuc-nienso/constants"
	"github.com/joseph-ayodele/anphuc-nienso/internal/async"
	"github.com/joseph-ayodele/anphuc-nienso/internal/imports"
)

// Previewer extracts member candidates from text or an image.
type Previewer interface {
	ProcessText(ctx context.Context, text string) (*imports.Preview, error)
	ProcessImage(ctx context.Context, image []byte) (*imports.Preview, error)
}

// Sidecar is the JSON document written next to each processed inbox file.
type Sidecar struct {
	SourceFile  string    `json:"sourceFile"`
	ProcessedAt time.Time `json:"processedAt"`
	*imports.Preview
}

// Result is the per-file ingest outcome.
type Result struct {
	SourcePath  string
	SidecarPath string
	Skipped     bool
	Members     int
	Err         string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Skipped   uint32
	Failed    uint32
}

type Ingestor struct {
	previewer Previewer
	logger    *slog.Logger
	now       func() time.Time
}

func NewIngestor(previewer Previewer, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{previewer: previewer, logger: logger, now: time.Now}
}

// Handle adapts IngestPath to an async.Handler.
func (i *Ingestor) Handle(ctx context.Context, job async.Job) error {
	_, err := i.IngestPath(ctx, job.Path, job.Force)
	return err
}

// IngestPath extracts path and writes its sidecar. Files that already have a
// sidecar are skipped unless force is set.
func (i *Ingestor) IngestPath(ctx context.Context, path string, force bool) (Result, error) {
	res := Result{SourcePath: path, SidecarPath: SidecarPath(path)}
	if !Allowed(path) {
		return res, fmt.Errorf("unsupported inbox file %q", filepath.Base(path))
	}
	if !force {
		if _, err := os.Stat(res.SidecarPath); err == nil {
			res.Skipped = true
			i.logger.Debug("sidecar exists, skipping", "path", path)
			return res, nil
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}

	var preview *imports.Preview
	if constants.IsTextExt(filepath.Ext(path)) {
		if strings.TrimSpace(string(b)) == "" {
			// Blank text files get no sidecar.
			res.Skipped = true
			return res, nil
		}
		preview, err = i.previewer.ProcessText(ctx, string(b))
	} else {
		preview, err = i.previewer.ProcessImage(ctx, b)
	}
	if err != nil {
		return res, fmt.Errorf("extract %s: %w", path, err)
	}

	doc := Sidecar{SourceFile: filepath.Base(path), ProcessedAt: i.now().UTC(), Preview: preview}
	if err := writeJSONAtomic(res.SidecarPath, doc); err != nil {
		return res, err
	}
	res.Members = len(preview.Members)
	i.logger.Info("inbox file extracted", "path", path, "members", res.Members)
	return res, nil
}

// IngestDirectory walks root and ingests each inbox file found, continuing
// past per-file failures.
func (i *Ingestor) IngestDirectory(ctx context.Context, root string, skipHidden, force bool) ([]Result, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	var (
		results []Result
		stats   DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, Result{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Allowed(path) {
			return nil
		}
		stats.Matched++

		res, err := i.IngestPath(ctx, path, force)
		switch {
		case err != nil:
			res.Err = err.Error()
			stats.Failed++
		case res.Skipped:
			stats.Skipped++
		default:
			stats.Succeeded++
		}
		results = append(results, res)
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

func writeJSONAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sidecar-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
