package constants

import "strings"

// ImageExtensions are the inbox files sent through OCR.
var ImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"heic": {},
	"heif": {},
	"tif":  {},
	"tiff": {},
	"bmp":  {},
	"webp": {},
}

// TextExtensions are inbox files read as already-transcribed text.
var TextExtensions = map[string]struct{}{
	"txt": {},
}

// ImportSidecarSuffix is appended to an inbox file name for its extraction result.
const ImportSidecarSuffix = ".import.json"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func IsImageExt(ext string) bool {
	_, ok := ImageExtensions[NormalizeExt(ext)]
	return ok
}

func IsTextExt(ext string) bool {
	_, ok := TextExtensions[NormalizeExt(ext)]
	return ok
}
