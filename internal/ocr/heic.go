package ocr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// convertHEICtoPNG converts a HEIC/HEIF file to PNG.
// If cacheDir and hashHex are non-empty, the PNG is persisted (and reused) at
//
//	{cacheDir}/{hashHex}.png
//
// Returns (outPath, warnings, cleanup, err). cleanup is nil when the cached
// file is returned.
func convertHEICtoPNG(
	ctx context.Context,
	r Runner,
	logger *slog.Logger,
	converter string,
	in string,
	cacheDir string,
	hashHex string,
) (string, []string, func(), error) {
	if cacheDir != "" && hashHex != "" {
		cached := filepath.Join(cacheDir, hashHex+".png")
		if st, err := os.Stat(cached); err == nil && !st.IsDir() {
			logger.Debug("using cached heic->png", "cache", cached)
			return cached, nil, nil, nil
		}
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return "", nil, nil, err
		}
	}

	tmpDir, err := os.MkdirTemp("", "nienso-heic-*")
	if err != nil {
		return "", nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	var errb []byte
	switch converter {
	case "heif-convert":
		_, errb, err = r.Run(ctx, "heif-convert", in, out)
	case "magick":
		_, errb, err = r.Run(ctx, "magick", in, out)
	case "sips":
		_, errb, err = r.Run(ctx, "sips", "-s", "format", "png", in, "--out", out)
	default:
		cleanup()
		return "", nil, nil, fmt.Errorf("HEIC not supported: set HEIC_CONVERTER to one of: heif-convert | magick | sips")
	}
	if err != nil {
		cleanup()
		return "", []string{string(errb)}, nil, fmt.Errorf("%s failed: %w", converter, err)
	}

	if _, statErr := os.Stat(out); statErr != nil {
		cleanup()
		return "", nil, nil, fmt.Errorf("HEIC conversion produced no output: %v", statErr)
	}

	if cacheDir == "" || hashHex == "" {
		return out, nil, cleanup, nil
	}

	cached := filepath.Join(cacheDir, hashHex+".png")
	if err := os.Rename(out, cached); err != nil {
		// another worker may have written it first
		if st, statErr := os.Stat(cached); statErr == nil && !st.IsDir() {
			cleanup()
			return cached, nil, nil, nil
		}
		if err := copyFile(out, cached); err != nil {
			cleanup()
			return "", nil, nil, err
		}
	}
	cleanup()
	logger.Debug("cached heic->png", "cache", cached)
	return cached, nil, nil, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
