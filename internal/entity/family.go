package entity

import (
	"time"

	"github.com/google/uuid"
)

// Family is one household in the ledger.
type Family struct {
	ID                  uuid.UUID `json:"id"`
	HeadOfHouseholdName string    `json:"headOfHouseholdName"`
	Address             *string   `json:"address"`
	PhoneNumber         *string   `json:"phoneNumber"`
	CreatedAt           time.Time `json:"createdAt"`
}

// FamilySummary is a family row with member counts, used by listings.
type FamilySummary struct {
	ID                  uuid.UUID `json:"id"`
	HeadOfHouseholdName string    `json:"headOfHouseholdName"`
	Address             *string   `json:"address"`
	PhoneNumber         *string   `json:"phoneNumber"`
	MemberCount         int       `json:"memberCount"`
	AliveCount          int       `json:"aliveCount"`
	DeceasedCount       int       `json:"deceasedCount"`
}

// FamilyFilter narrows a family listing. Search matches head name, address
// and member names case-insensitively.
type FamilyFilter struct {
	Search string
	Limit  int
	Offset int
}
