package models

import "time"

// Allocation binds an exam and a room to an ordered set of seated students.
// Allocations are immutable after creation; re-seating means delete and
// recreate.
type Allocation struct {
	ID        string    `db:"id" json:"id"`
	ExamID    string    `db:"exam_id" json:"exam_id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Seats     []Seat    `json:"seats"`
}

// Seat is a single numbered seat within an allocation. Seat numbers are
// 1-based and contiguous in submission order.
type Seat struct {
	SeatNumber int    `db:"seat_number" json:"seat_number"`
	StudentID  string `db:"student_id" json:"student_id"`
}

// SeatEntry is a seat joined against the student record. The student columns
// are nullable: a seat may reference a student that was deleted after the
// allocation was written, and such rows must still project cleanly.
type SeatEntry struct {
	AllocationID string  `db:"allocation_id" json:"-"`
	SeatNumber   int     `db:"seat_number" json:"seat_number"`
	StudentID    string  `db:"student_id" json:"student_id"`
	FullName     *string `db:"full_name" json:"full_name,omitempty"`
	IndexNumber  *string `db:"index_number" json:"index_number,omitempty"`
}

// Resolved reports whether the student reference could be joined to a record.
func (s *SeatEntry) Resolved() bool {
	return s != nil && s.FullName != nil
}

// AllocationView is an allocation with its references resolved for display.
// Exam and Room stay nil when the referenced record no longer exists.
type AllocationView struct {
	ID        string      `json:"id"`
	Exam      *Exam       `json:"exam,omitempty"`
	Room      *Room       `json:"room,omitempty"`
	Seats     []SeatEntry `json:"seats"`
	CreatedAt time.Time   `json:"created_at"`
}

// StudentSeat is the per-student lookup result: where does this student sit.
type StudentSeat struct {
	Exam       string `json:"exam"`
	Room       string `json:"room"`
	SeatNumber int    `json:"seat_number"`
}

// ExportRow is one flat line of the seating report, one per seated student.
type ExportRow struct {
	ExamLabel    string
	RoomLabel    string
	StudentName  string
	StudentIndex string
	SeatNumber   int
}
