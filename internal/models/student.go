package models

import (
	"strings"
	"time"
)

// IndexNumberLength is the fixed length of a normalized student index number.
const IndexNumberLength = 10

// Student represents a candidate registered for examination seating.
type Student struct {
	ID          string    `db:"id" json:"id"`
	IndexNumber string    `db:"index_number" json:"index_number"`
	FullName    string    `db:"full_name" json:"full_name"`
	Course      string    `db:"course" json:"course"`
	Level       *int      `db:"level" json:"level,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Level     *int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// NormalizeIndexNumber strips all whitespace and uppercases the raw value.
// Every lookup and write path must pass index numbers through here so that
// " ab12345678 " and "AB12345678" address the same student.
func NormalizeIndexNumber(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// ValidLevel reports whether the academic level belongs to the closed set.
func ValidLevel(level int) bool {
	switch level {
	case 100, 200, 300, 400:
		return true
	}
	return false
}
