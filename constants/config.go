package constants

// System config keys stored in system_config.
const (
	KeyLunarYear = "lunar_year"
)

// Bounds shared by services and request schemas.
const (
	MinLunarYear       = 1900
	MaxLunarYear       = 2100
	MinMemberBirthYear = 1800
	MaxMemberBirthYear = 2200
	MinRecordYear      = 1900
	MaxRecordYear      = 2200

	// UnknownName fills names the operator left blank on import.
	UnknownName = "Không rõ"
)
