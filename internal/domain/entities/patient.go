package entities

import "time"

// Patient is the owner of procedure records
type Patient struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Document  string     `json:"document" db:"document"`
	BirthDate *time.Time `json:"birth_date" db:"birth_date"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
