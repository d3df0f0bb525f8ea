package constants

import "strings"

// PrayerType is the kind of ceremony a record registers a family for.
type PrayerType string

// Stable values (store these exact strings in DB).
const (
	CauAn   PrayerType = "CauAn"   // prayers for the living
	CauSieu PrayerType = "CauSieu" // prayers for the deceased
)

var allPrayerTypes = []PrayerType{CauAn, CauSieu}

// PrayerTypes returns every valid prayer type.
func PrayerTypes() []PrayerType {
	return append([]PrayerType(nil), allPrayerTypes...)
}

// ParsePrayerType accepts the stored spelling case-insensitively.
func ParsePrayerType(s string) (PrayerType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range allPrayerTypes {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

// ListsLiving reports whether the ceremony reads out living members.
func (t PrayerType) ListsLiving() bool { return t == CauAn }

// Title is the ledger heading printed for the ceremony.
func (t PrayerType) Title() string {
	if t == CauSieu {
		return "Sổ Cầu Siêu"
	}
	return "Sổ Cầu An"
}
