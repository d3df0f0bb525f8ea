// Package textextract turns pasted or OCR'd ledger text into household member
// candidates. Extraction is best effort: malformed lines are skipped, never
// reported as errors, and nothing is persisted here.
package textextract

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// minLineRunes is the shortest trimmed line considered for extraction.
const minLineRunes = 3

// CandidateMember is one person recognised on a line. Pointer fields are nil
// when the line did not carry that piece of information.
type CandidateMember struct {
	Name       *string `json:"name"`
	BirthYear  *int    `json:"birthYear"`
	IsMale     *bool   `json:"gender"`
	DharmaName *string `json:"dharmaName"`
	IsAlive    bool    `json:"isAlive"`
}

// Result is the outcome of one extraction call.
type Result struct {
	HouseholdHead *string           `json:"headOfHouseholdName"`
	Address       *string           `json:"address"`
	Members       []CandidateMember `json:"members"`
}

// Extract parses rawText line by line. referenceYear converts ages to birth
// years (age counted the lunar way: referenceYear - age + 1).
func Extract(rawText string, referenceYear int) Result {
	res := Result{Members: []CandidateMember{}}
	if strings.TrimSpace(rawText) == "" {
		return res
	}

	text := norm.NFC.String(rawText)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if utf8.RuneCountInString(line) < minLineRunes {
			continue
		}

		captureHeader(line, &res)

		if m, ok := parseLine(line, referenceYear); ok {
			res.Members = append(res.Members, m)
		}
	}
	return res
}

func captureHeader(line string, res *Result) {
	if res.HouseholdHead == nil {
		if subs := reHead.FindStringSubmatch(line); subs != nil {
			if name := strings.TrimSpace(group(reHead, subs, "name")); name != "" {
				res.HouseholdHead = &name
			}
		}
	}
	if res.Address == nil {
		if subs := reAddress.FindStringSubmatch(line); subs != nil {
			if addr := strings.TrimSpace(group(reAddress, subs, "addr")); addr != "" {
				res.Address = &addr
			}
		}
	}
}

func parseLine(line string, referenceYear int) (CandidateMember, bool) {
	if isHeaderLine(line) {
		return CandidateMember{}, false
	}
	if subs := reTableRow.FindStringSubmatch(line); subs != nil {
		return parseTableRow(subs, referenceYear)
	}
	return parseFreeForm(line, referenceYear)
}

// isHeaderLine reports table titles, column headers and organisational banners.
func isHeaderLine(line string) bool {
	l := strings.ToLower(line)
	has := func(s string) bool { return strings.Contains(l, s) }

	switch {
	case has("stt") && (has("họ tên") || has("ho ten")):
		return true
	case has("ban trị sự"):
		return true
	case has("chùa") && has("sổ cầu"):
		return true
	case has("sổ cầu an") || has("sổ cầu siêu"):
		return true
	case has("trại chủ") || has("trai chu"):
		return true
	case has("pháp danh") && has("tuổi") && has("sao"):
		return true
	case has("địa chỉ") && !has(","):
		return true
	}
	return false
}

func parseTableRow(subs []string, referenceYear int) (CandidateMember, bool) {
	name := cleanName(group(reTableRow, subs, "name"))
	if name == "" {
		return CandidateMember{}, false
	}

	m := CandidateMember{Name: &name, IsAlive: true}
	if age, err := strconv.Atoi(group(reTableRow, subs, "age")); err == nil {
		m.BirthYear = birthYearFromAge(age, referenceYear)
	}
	m.IsMale = genderFromName(name)
	if dharma := strings.TrimSpace(group(reTableRow, subs, "dharma")); dharma != "" {
		m.DharmaName = &dharma
	}
	return m, true
}

// parseFreeForm peels recognised fields off the line one at a time; each pass
// removes what it matched so later passes only see the leftovers.
func parseFreeForm(line string, referenceYear int) (CandidateMember, bool) {
	rest := line
	m := CandidateMember{IsAlive: true}

	if subs, r, ok := take(reYearPrefixed, rest); ok {
		m.BirthYear = atoiPtr(group(reYearPrefixed, subs, "y"))
		rest = r
	} else if subs, r, ok := take(reBareYear, rest); ok {
		m.BirthYear = atoiPtr(group(reBareYear, subs, "y"))
		rest = r
	}

	if m.BirthYear == nil {
		if subs, r, ok := take(reStandaloneAge, rest); ok {
			age, _ := strconv.Atoi(group(reStandaloneAge, subs, "a"))
			if by := birthYearFromAge(age, referenceYear); by != nil {
				m.BirthYear = by
				rest = r
			}
		}
	}

	if subs, r, ok := take(reGender, rest); ok {
		g := strings.ToLower(group(reGender, subs, "g"))
		male := g == "nam" || g == "male"
		m.IsMale = &male
		rest = r
	}

	if subs, r, ok := take(reDharma, rest); ok {
		if dn := strings.TrimSpace(group(reDharma, subs, "dn")); dn != "" {
			m.DharmaName = &dn
		}
		rest = r
	}

	if _, r, ok := take(reDeceased, rest); ok {
		m.IsAlive = false
		rest = r
	}

	name := reDelimiters.ReplaceAllString(rest, " ")
	name = reMultiSpace.ReplaceAllString(name, " ")
	name = cleanName(name)

	if name == "" && m.BirthYear == nil {
		return CandidateMember{}, false
	}
	if name != "" {
		m.Name = &name
	}
	if m.IsMale == nil {
		m.IsMale = genderFromName(name)
	}
	return m, true
}

// cleanName drops a leading serial number and any star/obstacle text that a
// table scan pulled into the name column.
func cleanName(name string) string {
	name = strings.TrimSpace(reLeadingSerial.ReplaceAllString(strings.TrimSpace(name), ""))
	name = strings.TrimSpace(reTrailingFortune.ReplaceAllString(name, ""))
	return name
}

// genderFromName looks for the conventional middle names: Thị (female), Văn (male).
func genderFromName(name string) *bool {
	words := strings.Fields(strings.ToLower(name))
	for _, w := range words {
		if w == "thị" || w == "thi" {
			f := false
			return &f
		}
	}
	for _, w := range words {
		if w == "văn" || w == "van" {
			t := true
			return &t
		}
	}
	return nil
}

func birthYearFromAge(age, referenceYear int) *int {
	if age <= 0 || age >= 200 {
		return nil
	}
	by := referenceYear - age + 1
	return &by
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
