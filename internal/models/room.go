package models

import "time"

// Room represents an examination room with a fixed seat capacity.
type Room struct {
	ID         string    `db:"id" json:"id"`
	RoomNumber string    `db:"room_number" json:"room_number"`
	Capacity   int       `db:"capacity" json:"capacity"`
	RoomFloor  int       `db:"room_floor" json:"room_floor"`
	Building   string    `db:"building" json:"building"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Label returns the display label for a room. Earlier schema versions carried
// a free-text location instead of a room number, so the building acts as the
// fallback when the number is blank.
func (r *Room) Label() string {
	if r == nil {
		return ""
	}
	if r.RoomNumber != "" {
		return r.RoomNumber
	}
	return r.Building
}
