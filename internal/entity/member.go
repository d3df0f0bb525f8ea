package entity

import "github.com/google/uuid"

// Member is a person registered under a family.
type Member struct {
	ID         uuid.UUID `json:"id"`
	FamilyID   uuid.UUID `json:"familyId"`
	Name       string    `json:"name"`
	BirthYear  int       `json:"birthYear"`
	IsMale     bool      `json:"gender"`
	DharmaName *string   `json:"dharmaName"`
	IsAlive    bool      `json:"isAlive"`
}
