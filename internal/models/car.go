package models

import (
	"time"

	"github.com/google/uuid"
)

// CarStatus is the listing state of a car.
type CarStatus string

const (
	CarStatusAvailable   CarStatus = "AVAILABLE"
	CarStatusUnavailable CarStatus = "UNAVAILABLE"
	CarStatusSold        CarStatus = "SOLD"
)

// ValidCarStatus reports whether s is one of the known listing states.
func ValidCarStatus(s CarStatus) bool {
	switch s {
	case CarStatusAvailable, CarStatusUnavailable, CarStatusSold:
		return true
	}
	return false
}

type Car struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Make         string    `json:"make" db:"make"`
	Model        string    `json:"model" db:"model"`
	Year         int       `json:"year" db:"year"`
	Price        float64   `json:"price" db:"price"`
	Mileage      int       `json:"mileage" db:"mileage"`
	Color        string    `json:"color" db:"color"`
	FuelType     string    `json:"fuel_type" db:"fuel_type"`
	Transmission string    `json:"transmission" db:"transmission"`
	BodyType     string    `json:"body_type" db:"body_type"`
	Seats        *int      `json:"seats" db:"seats"`
	Description  string    `json:"description" db:"description"`
	Status       CarStatus `json:"status" db:"status"`
	Featured     bool      `json:"featured" db:"featured"`
	Images       []string  `json:"images" db:"images"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultSearchLimit is the page size applied when a listing request
// does not specify one.
const DefaultSearchLimit = 50

// CarSearchFilter holds search and filter criteria for listing queries.
// Query matches make, model or color as a case-insensitive substring;
// the remaining attribute fields are exact matches and impose no
// constraint when empty.
type CarSearchFilter struct {
	Query    string `json:"query,omitempty"`
	Make     string `json:"make,omitempty"`
	BodyType string `json:"body_type,omitempty"`
	Color    string `json:"color,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// IsEmpty reports whether the filter constrains the listing at all.
// An unconstrained listing is the one worth caching; a non-default
// limit or offset is a constraint like any other.
func (f *CarSearchFilter) IsEmpty() bool {
	return f == nil || (f.Query == "" && f.Make == "" && f.BodyType == "" && f.Color == "" &&
		(f.Limit == 0 || f.Limit == DefaultSearchLimit) && f.Offset == 0)
}

// CarStatusUpdate is a partial update of the mutable listing flags.
// Nil fields are left untouched.
type CarStatusUpdate struct {
	Status   *CarStatus `json:"status,omitempty"`
	Featured *bool      `json:"featured,omitempty"`
}
