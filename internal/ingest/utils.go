package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/anphuc-nienso/constants"
)

// AllowedExt checks if a file extension is an inbox image or text type.
func AllowedExt(ext string) bool {
	return constants.IsImageExt(ext) || constants.IsTextExt(ext)
}

// Allowed reports whether path is an inbox source file rather than a sidecar.
func Allowed(path string) bool {
	return !IsSidecar(path) && AllowedExt(filepath.Ext(path))
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// SidecarPath is where the extraction result for path is written.
func SidecarPath(path string) string {
	return path + constants.ImportSidecarSuffix
}

func IsSidecar(path string) bool {
	return strings.HasSuffix(path, constants.ImportSidecarSuffix)
}
