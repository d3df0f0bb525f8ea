package common

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// CleanText strips markup from free text entered by operators and trims it.
func CleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// CleanOptional is CleanText for optional fields; blank results become nil.
func CleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := CleanText(*s)
	if v == "" {
		return nil
	}
	return &v
}

// TooLong reports whether s has more than max runes.
func TooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
