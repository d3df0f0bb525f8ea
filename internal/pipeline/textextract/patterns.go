package textextract

import "regexp"

// RE2 has no lookaround and its \b is ASCII-only, so word edges are spelled
// out with these fragments and the removable span is the named group "m".
const (
	wordStart = `(?:^|[^\p{L}\p{N}])`
	wordEnd   = `(?:[^\p{L}\p{N}]|$)`
)

var (
	reHead = regexp.MustCompile(`(?i)(?:tr[aạ]i\s*ch[uủ]|gia\s*ch[uủ])\s*[:\-]?\s*` +
		`(?P<name>\p{L}[\p{L} ]*?)` +
		`(?:\s*$|\s*[^\p{L}\s]|\s+(?:tổ|to)(?:[^\p{L}]|$))`)

	reAddress = regexp.MustCompile(`(?i)(?:[dđ][iị]a\s*ch[iỉ])\s*[:\-]?\s*(?P<addr>\S.*)`)

	reTableRow = regexp.MustCompile(`^\s*\d{1,2}\s+` +
		`(?P<name>[\p{L}\s]{3,}?)\s{2,}` +
		`(?:(?P<dharma>\p{L}[\p{L}\s]*?)\s+)?` +
		`(?P<age>\d{1,3})(?:\s|$)`)

	reYearPrefixed = regexp.MustCompile(`(?i)` + wordStart +
		`(?P<m>(?:sn|sinh\s*n[aă]m|sinh)\s*[:\-]?\s*(?P<y>(?:19|20)\d{2}))(?:[^\p{N}]|$)`)

	reBareYear = regexp.MustCompile(wordStart + `(?P<m>(?P<y>(?:19|20)\d{2}))` + wordEnd)

	reStandaloneAge = regexp.MustCompile(wordStart + `(?P<m>(?P<a>\d{1,3}))` + wordEnd)

	reGender = regexp.MustCompile(`(?i)` + wordStart + `(?P<m>(?P<g>nam|nữ|nu|male|female))` + wordEnd)

	reDharma = regexp.MustCompile(`(?i)` + wordStart +
		`(?P<m>(?:pd|ph[aá]p\s*danh)\s*[:\-]?\s*(?P<dn>[\p{L}\s]+?))(?:[,;\-|]|$)`)

	reDeceased = regexp.MustCompile(`(?i)` + wordStart +
		`(?P<m>[dđ][aã]\s*m[aấ]t|m[aấ]t|qua\s*[dđ][oờ]i|qu[aá]\s*v[aã]ng)` + wordEnd)

	reLeadingSerial = regexp.MustCompile(`^\d{1,3}[.)\s]+`)

	// Star and obstacle names, including the spellings OCR tends to produce.
	reTrailingFortune = regexp.MustCompile(`(?i)\s+(?:` +
		`th[uủ]y\s*di[eệ]u|th[aá]i\s*(?:b[aạ]ch|d[uư][oơ]ng|[aâ]m)|m[oộ]c\s*[dđ][uứ]c|` +
		`v[aâ]n\s*h[oớ]n|k[eế]\s*[dđ][oôồ]|la\s*h[aầ]u|th[oổ]\s*t[uú]|b[iì]nh\s*an|` +
		`hu[yỳ]nh\s*tuy[eề]n|thi[eê]n\s*(?:tinh|la)|t[aá]n\s*t[aậ]n|to[aá]n\s*t[aậ]n|` +
		`[dđ][iị]a\s*v[oõ]ng|di[eê]m\s*v[uư][oơ]ng|tam\s*kh?eo|ng[uũ]\s*(?:m[oộ]|h[aạ])` +
		`)(?:[^\p{L}].*)?$`)

	reDelimiters = regexp.MustCompile(`[,;\-–—|/]+`)

	reMultiSpace = regexp.MustCompile(`\s{2,}`)
)

// take finds the first match of re in s and cuts the span of group "m" out of s.
// It returns all submatches (empty string for groups that did not take part).
func take(re *regexp.Regexp, s string) ([]string, string, bool) {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return nil, s, false
	}
	subs := make([]string, re.NumSubexp()+1)
	for i := range subs {
		if loc[2*i] >= 0 {
			subs[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	m := re.SubexpIndex("m")
	start, end := loc[2*m], loc[2*m+1]
	return subs, s[:start] + s[end:], true
}

// group returns the named submatch from a FindStringSubmatch-style slice.
func group(re *regexp.Regexp, subs []string, name string) string {
	i := re.SubexpIndex(name)
	if i < 0 || i >= len(subs) {
		return ""
	}
	return subs[i]
}
