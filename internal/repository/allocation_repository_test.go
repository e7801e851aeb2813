package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-seat-api/internal/models"
)

func TestAllocationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO allocations (id, exam_id, room_id, created_at) VALUES ($1, $2, $3, $4)")).
		WithArgs(sqlmock.AnyArg(), "e1", "r1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO allocation_seats (allocation_id, seat_number, student_id) VALUES ($1, $2, $3)")).
		WithArgs(sqlmock.AnyArg(), 1, "s1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO allocation_seats (allocation_id, seat_number, student_id) VALUES ($1, $2, $3)")).
		WithArgs(sqlmock.AnyArg(), 2, "s2").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	allocation := &models.Allocation{
		ExamID: "e1",
		RoomID: "r1",
		Seats: []models.Seat{
			{SeatNumber: 1, StudentID: "s1"},
			{SeatNumber: 2, StudentID: "s2"},
		},
	}
	err := repo.Create(context.Background(), allocation)
	require.NoError(t, err)
	assert.NotEmpty(t, allocation.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryCreateRollsBackOnSeatFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO allocations")).
		WithArgs(sqlmock.AnyArg(), "e1", "r1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO allocation_seats")).
		WithArgs(sqlmock.AnyArg(), 1, "s1").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Allocation{
		ExamID: "e1",
		RoomID: "r1",
		Seats:  []models.Seat{{SeatNumber: 1, StudentID: "s1"}},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, exam_id, room_id, created_at FROM allocations WHERE id = $1")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "exam_id", "room_id", "created_at"}).
			AddRow("a1", "e1", "r1", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_number, student_id FROM allocation_seats WHERE allocation_id = $1 ORDER BY seat_number ASC")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"seat_number", "student_id"}).
			AddRow(1, "s1").
			AddRow(2, "s2"))

	allocation, err := repo.FindByID(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, allocation.Seats, 2)
	assert.Equal(t, 1, allocation.Seats[0].SeatNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryListResolved(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	joinColumns := []string{"id", "exam_id", "room_id", "created_at",
		"exam_subject", "exam_code", "exam_date", "exam_duration",
		"room_number", "room_capacity", "room_floor", "room_building"}
	examDate := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT a.id, a.exam_id, a.room_id, a.created_at").
		WillReturnRows(sqlmock.NewRows(joinColumns).
			AddRow("a1", "e1", "r1", time.Now(), "Mathematics", "MATH101", examDate, 120, "A1", 30, 1, "Main Block").
			AddRow("a2", "e-gone", "r-gone", time.Now(), nil, nil, nil, nil, nil, nil, nil, nil))
	mock.ExpectQuery("SELECT s.allocation_id, s.seat_number, s.student_id").
		WillReturnRows(sqlmock.NewRows([]string{"allocation_id", "seat_number", "student_id", "full_name", "index_number"}).
			AddRow("a1", 1, "s1", "Ama Mensah", "AB12345678").
			AddRow("a2", 1, "s-gone", nil, nil))

	views, err := repo.ListResolved(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	resolved := views[0]
	require.NotNil(t, resolved.Exam)
	assert.Equal(t, "Mathematics", resolved.Exam.Subject)
	require.NotNil(t, resolved.Room)
	assert.Equal(t, "A1", resolved.Room.RoomNumber)
	require.Len(t, resolved.Seats, 1)
	assert.True(t, resolved.Seats[0].Resolved())

	// Dangling references: exam and room stay nil, the seat row keeps its
	// number with unresolved student fields.
	dangling := views[1]
	assert.Nil(t, dangling.Exam)
	assert.Nil(t, dangling.Room)
	require.Len(t, dangling.Seats, 1)
	assert.False(t, dangling.Seats[0].Resolved())
	assert.Equal(t, 1, dangling.Seats[0].SeatNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryListResolvedEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectQuery("SELECT a.id, a.exam_id, a.room_id, a.created_at").
		WillReturnRows(sqlmock.NewRows([]string{"id", "exam_id", "room_id", "created_at"}))

	views, err := repo.ListResolved(context.Background())
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM allocation_seats WHERE allocation_id = $1")).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM allocations WHERE id = $1")).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
