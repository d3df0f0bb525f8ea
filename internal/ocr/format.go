package ocr

import "bytes"

// Image formats recognised by DetectFormat; the value doubles as file extension.
const (
	FormatPNG     = "png"
	FormatJPEG    = "jpg"
	FormatGIF     = "gif"
	FormatBMP     = "bmp"
	FormatTIFF    = "tif"
	FormatWebP    = "webp"
	FormatHEIC    = "heic"
	FormatUnknown = ""
)

var heicBrands = [][]byte{
	[]byte("heic"), []byte("heix"), []byte("hevc"), []byte("heim"),
	[]byte("heis"), []byte("mif1"), []byte("msf1"),
}

// DetectFormat sniffs the magic bytes of an encoded image.
func DetectFormat(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG
	case bytes.HasPrefix(b, []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG
	case bytes.HasPrefix(b, []byte("GIF87a")), bytes.HasPrefix(b, []byte("GIF89a")):
		return FormatGIF
	case bytes.HasPrefix(b, []byte("BM")):
		return FormatBMP
	case bytes.HasPrefix(b, []byte("II*\x00")), bytes.HasPrefix(b, []byte("MM\x00*")):
		return FormatTIFF
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return FormatWebP
	case len(b) >= 12 && bytes.Equal(b[4:8], []byte("ftyp")):
		for _, brand := range heicBrands {
			if bytes.Equal(b[8:12], brand) {
				return FormatHEIC
			}
		}
	}
	return FormatUnknown
}
