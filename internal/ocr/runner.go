package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// stderrLogLimit caps how much of a failing tool's stderr goes into the log.
const stderrLogLimit = 8 << 10

// Runner lets us stub tesseract and the HEIC converters in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// CommandError is returned by ExecRunner when an OCR tool exits non-zero or
// cannot be started. It unwraps to the exec error, so exec.ErrNotFound still
// matches.
type CommandError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExecRunner runs the OCR tools installed on the host.
type ExecRunner struct {
	Logger *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(commandAttrs(name, args)...)
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		stderr := lastLine(errb.String())
		logger.Error("ocr tool failed",
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", tail(errb.String(), stderrLogLimit),
		)
		return out.Bytes(), errb.Bytes(), &CommandError{Tool: filepath.Base(name), Stderr: stderr, Err: err}
	}
	logger.Debug("ocr tool finished",
		"duration_ms", dur.Milliseconds(),
		"stdout_bytes", out.Len(),
		"stderr_bytes", errb.Len(),
	)
	return out.Bytes(), errb.Bytes(), nil
}

// commandAttrs describes a tool invocation for the log: the tool, the page it
// reads and, for tesseract, the languages and segmentation mode.
func commandAttrs(name string, args []string) []any {
	tool := filepath.Base(name)
	attrs := []any{"tool", tool}
	if len(args) > 0 {
		attrs = append(attrs, "page", filepath.Base(args[0]))
	}
	if !strings.HasPrefix(tool, "tesseract") {
		return attrs
	}
	for i := 0; i+1 < len(args); i++ {
		switch args[i] {
		case "-l":
			attrs = append(attrs, "langs", args[i+1])
		case "--psm":
			attrs = append(attrs, "psm", args[i+1])
		}
	}
	return attrs
}

// tail keeps the end of s; tesseract prints the actual failure last.
func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return "(truncated)..." + s[len(s)-limit:]
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
