package models

import "time"

// Exam represents a scheduled examination sitting.
type Exam struct {
	ID        string     `db:"id" json:"id"`
	Subject   string     `db:"subject" json:"subject"`
	ExamCode  string     `db:"exam_code" json:"exam_code"`
	Date      *time.Time `db:"date" json:"date,omitempty"`
	Duration  int        `db:"duration" json:"duration"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Label returns the display label for an exam: subject first, exam code as
// the fallback for records created before subject became mandatory.
func (e *Exam) Label() string {
	if e == nil {
		return ""
	}
	if e.Subject != "" {
		return e.Subject
	}
	return e.ExamCode
}
