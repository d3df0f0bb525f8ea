package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/anphuc-nienso/constants"
)

// PrayerRecord registers a family for one ceremony in one year.
type PrayerRecord struct {
	ID             uuid.UUID            `json:"id"`
	FamilyID       uuid.UUID            `json:"familyId"`
	Year           int                  `json:"year"`
	Type           constants.PrayerType `json:"type"`
	DonationAmount *decimal.Decimal     `json:"donationAmount"`
	Notes          *string              `json:"notes"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// PrayerRecordView is a record joined with its family for listings.
type PrayerRecordView struct {
	PrayerRecord
	FamilyName    string  `json:"familyName"`
	FamilyAddress *string `json:"familyAddress"`
	FamilyPhone   *string `json:"familyPhone"`
	MemberCount   int     `json:"memberCount"`
}

// PrayerRecordFilter narrows a record listing. Zero values mean "any".
type PrayerRecordFilter struct {
	Year     int
	Type     constants.PrayerType
	FamilyID uuid.UUID
	ID       uuid.UUID
	Limit    int
	Offset   int
}

// PrayerTotals are count and donation sums over a filter.
type PrayerTotals struct {
	Count    int
	Donation decimal.Decimal
}

// YearSummary aggregates one year of records by ceremony.
type YearSummary struct {
	Year                 int             `json:"year"`
	CauAnCount           int             `json:"cauAnCount"`
	CauSieuCount         int             `json:"cauSieuCount"`
	TotalCauAnDonation   decimal.Decimal `json:"totalCauAnDonation"`
	TotalCauSieuDonation decimal.Decimal `json:"totalCauSieuDonation"`
}
