// Package lunar computes the yearly Cửu Diệu (Sao) and Bát Hạn assignments
// used in the temple ledgers. Everything here is a pure function of birth year,
// gender and the reference lunar year; nothing is persisted.
package lunar

// NoData is returned for a star or obstacle that does not apply to the age.
const NoData = "—"

// Gender selects the star and obstacle tables.
type Gender int

const (
	Male Gender = iota
	Female
)

// GenderOf maps the stored boolean (true = male) to a Gender.
func GenderOf(isMale bool) Gender {
	if isMale {
		return Male
	}
	return Female
}

func (g Gender) String() string {
	if g == Female {
		return "female"
	}
	return "male"
}

var stars = map[Gender][9]string{
	Male: {
		"La Hầu", "Thổ Tú", "Thủy Diệu", "Thái Bạch", "Thái Dương",
		"Vân Hớn", "Kế Đô", "Thái Âm", "Mộc Đức",
	},
	Female: {
		"Kế Đô", "Vân Hớn", "Mộc Đức", "Thái Âm", "Thổ Tú",
		"La Hầu", "Thái Dương", "Thái Bạch", "Thủy Diệu",
	},
}

var obstacles = map[Gender][8]string{
	Male: {
		"Huỳnh Tuyền", "Tam Kheo", "Ngũ Mộ", "Thiên Tinh",
		"Tán Tận", "Thiên La", "Địa Võng", "Diêm Vương",
	},
	Female: {
		"Tán Tận", "Thiên Tinh", "Ngũ Mộ", "Tam Kheo",
		"Huỳnh Tuyền", "Diêm Vương", "Địa Võng", "Thiên La",
	},
}

// Fortune is the per-person result for one reference year.
type Fortune struct {
	ApparentAge int    `json:"tuoiMu"`
	Star        string `json:"sao"`
	Obstacle    string `json:"han"`
}

// Compute returns the apparent age (tuổi mụ), star and obstacle for a person
// born in birthYear, looked up for referenceYear.
func Compute(birthYear int, g Gender, referenceYear int) Fortune {
	age := referenceYear - birthYear + 1
	return Fortune{
		ApparentAge: age,
		Star:        star(age, g),
		Obstacle:    obstacle(age, g),
	}
}

// ComputeBool is Compute for callers holding the stored gender flag.
func ComputeBool(birthYear int, isMale bool, referenceYear int) Fortune {
	return Compute(birthYear, GenderOf(isMale), referenceYear)
}

// Stars returns a copy of the star table for g.
func Stars(g Gender) []string {
	t := stars[g]
	return append([]string(nil), t[:]...)
}

// Obstacles returns a copy of the obstacle table for g.
func Obstacles(g Gender) []string {
	t := obstacles[g]
	return append([]string(nil), t[:]...)
}

func star(age int, g Gender) string {
	if age <= 0 {
		return NoData
	}
	t := stars[g]
	return t[(age-1)%len(t)]
}

// obstacle walks the 8-entry cycle through 9-wide columns from age 18 on;
// the position that would overflow a column folds back onto its neighbour,
// so each column repeats exactly one name and the repeat shifts diagonally.
func obstacle(age int, g Gender) string {
	if age < 10 {
		return NoData
	}
	t := obstacles[g]
	if age <= 17 {
		return t[age-10]
	}
	col := (age-18)/9 + 2
	pos := (age - 18) % 9
	idx := pos
	if pos >= col {
		idx = pos - 1
	}
	return t[idx%len(t)]
}
