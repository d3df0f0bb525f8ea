package ocr

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var reYearLike = regexp.MustCompile(`(?:^|[^\d])(?:19|20)\d{2}(?:[^\d]|$)`)

// heuristicConfidence scores decoded text by how much it looks like a ledger
// page: Vietnamese diacritics, years and enough content.
func heuristicConfidence(txt string) float32 {
	score := float32(0.2)
	var letters, marked int
	for _, r := range txt {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if r > unicode.MaxASCII {
			marked++
		}
	}
	if letters > 0 && float32(marked)/float32(letters) > 0.05 {
		score += 0.3
	}
	if reYearLike.MatchString(txt) {
		score += 0.2
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// tesseractTSVConfidence runs tesseract in TSV mode and returns mean word conf in 0..1.
func (e *Extractor) tesseractTSVConfidence(ctx context.Context, path string) (float32, error) {
	args := append(e.baseArgs(path), "tsv")
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return 0, fmt.Errorf("tesseract TSV: %w: %s", err, tail(string(errb), 512))
	}
	return meanTSVConfidence(string(out)), nil
}

// meanTSVConfidence averages the conf column, skipping the header and -1 rows.
func meanTSVConfidence(tsv string) float32 {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || len(ln) == 0 {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[10]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil && v >= 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float32(sum / n / 100.0)
}
