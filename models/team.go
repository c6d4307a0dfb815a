package models

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Team - команда школы. Создается вне движка сетки и только читается им.
type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Grade     string    `json:"grade" db:"grade"`
	Gender    Gender    `json:"gender" db:"gender"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
