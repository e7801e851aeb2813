package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-seat-api/internal/models"
)

// AllocationRepository handles persistence for seat allocations.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository constructs an AllocationRepository.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// allocationJoinRow scans an allocation with its exam and room references
// LEFT JOINed. The reference columns are nullable because deleting an exam or
// room leaves allocations dangling.
type allocationJoinRow struct {
	ID           string     `db:"id"`
	ExamID       string     `db:"exam_id"`
	RoomID       string     `db:"room_id"`
	CreatedAt    time.Time  `db:"created_at"`
	ExamSubject  *string    `db:"exam_subject"`
	ExamCode     *string    `db:"exam_code"`
	ExamDate     *time.Time `db:"exam_date"`
	ExamDuration *int       `db:"exam_duration"`
	RoomNumber   *string    `db:"room_number"`
	RoomCapacity *int       `db:"room_capacity"`
	RoomFloor    *int       `db:"room_floor"`
	RoomBuilding *string    `db:"room_building"`
}

func (row *allocationJoinRow) toView() models.AllocationView {
	view := models.AllocationView{
		ID:        row.ID,
		CreatedAt: row.CreatedAt,
		Seats:     []models.SeatEntry{},
	}
	if row.ExamSubject != nil || row.ExamCode != nil {
		view.Exam = &models.Exam{
			ID:       row.ExamID,
			Subject:  deref(row.ExamSubject),
			ExamCode: deref(row.ExamCode),
			Date:     row.ExamDate,
			Duration: derefInt(row.ExamDuration),
		}
	}
	if row.RoomNumber != nil || row.RoomBuilding != nil {
		view.Room = &models.Room{
			ID:         row.RoomID,
			RoomNumber: deref(row.RoomNumber),
			Capacity:   derefInt(row.RoomCapacity),
			RoomFloor:  derefInt(row.RoomFloor),
			Building:   deref(row.RoomBuilding),
		}
	}
	return view
}

// Create persists an allocation and its seat rows in one transaction.
func (r *AllocationRepository) Create(ctx context.Context, allocation *models.Allocation) (err error) {
	if allocation.ID == "" {
		allocation.ID = uuid.NewString()
	}
	if allocation.CreatedAt.IsZero() {
		allocation.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin allocation tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO allocations (id, exam_id, room_id, created_at) VALUES ($1, $2, $3, $4)`,
		allocation.ID, allocation.ExamID, allocation.RoomID, allocation.CreatedAt,
	); err != nil {
		return fmt.Errorf("create allocation: %w", err)
	}

	for _, seat := range allocation.Seats {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO allocation_seats (allocation_id, seat_number, student_id) VALUES ($1, $2, $3)`,
			allocation.ID, seat.SeatNumber, seat.StudentID,
		); err != nil {
			return fmt.Errorf("create allocation seat %d: %w", seat.SeatNumber, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit allocation tx: %w", err)
	}
	return nil
}

// FindByID loads an allocation with its seats, references unresolved.
func (r *AllocationRepository) FindByID(ctx context.Context, id string) (*models.Allocation, error) {
	var allocation models.Allocation
	if err := r.db.GetContext(ctx, &allocation,
		`SELECT id, exam_id, room_id, created_at FROM allocations WHERE id = $1`, id); err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &allocation.Seats,
		`SELECT seat_number, student_id FROM allocation_seats WHERE allocation_id = $1 ORDER BY seat_number ASC`, id); err != nil {
		return nil, fmt.Errorf("load allocation seats: %w", err)
	}
	return &allocation, nil
}

// ListResolved returns all allocations with exam, room and student references
// resolved where the referenced records still exist. Allocations come back in
// creation order with seats ascending.
func (r *AllocationRepository) ListResolved(ctx context.Context) ([]models.AllocationView, error) {
	const query = `SELECT a.id, a.exam_id, a.room_id, a.created_at,
        e.subject AS exam_subject, e.exam_code, e.date AS exam_date, e.duration AS exam_duration,
        ro.room_number, ro.capacity AS room_capacity, ro.room_floor, ro.building AS room_building
        FROM allocations a
        LEFT JOIN exams e ON e.id = a.exam_id
        LEFT JOIN rooms ro ON ro.id = a.room_id
        ORDER BY a.created_at ASC`

	var rows []allocationJoinRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	if len(rows) == 0 {
		return []models.AllocationView{}, nil
	}

	const seatQuery = `SELECT s.allocation_id, s.seat_number, s.student_id,
        st.full_name, st.index_number
        FROM allocation_seats s
        LEFT JOIN students st ON st.id = s.student_id
        ORDER BY s.allocation_id, s.seat_number ASC`

	var seats []models.SeatEntry
	if err := r.db.SelectContext(ctx, &seats, seatQuery); err != nil {
		return nil, fmt.Errorf("list allocation seats: %w", err)
	}

	seatsByAllocation := make(map[string][]models.SeatEntry, len(rows))
	for _, seat := range seats {
		seatsByAllocation[seat.AllocationID] = append(seatsByAllocation[seat.AllocationID], seat)
	}

	views := make([]models.AllocationView, 0, len(rows))
	for i := range rows {
		view := rows[i].toView()
		if entries, ok := seatsByAllocation[view.ID]; ok {
			view.Seats = entries
		}
		views = append(views, view)
	}
	return views, nil
}

// Delete removes an allocation and its seat rows.
func (r *AllocationRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete allocation tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM allocation_seats WHERE allocation_id = $1`, id); err != nil {
		return fmt.Errorf("delete allocation seats: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM allocations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete allocation tx: %w", err)
	}
	return nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func derefInt(ptr *int) int {
	if ptr == nil {
		return 0
	}
	return *ptr
}
