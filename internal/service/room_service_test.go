package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-seat-api/internal/models"
	appErrors "github.com/noah-isme/exam-seat-api/pkg/errors"
)

type mockRoomRepo struct {
	rooms    map[string]models.Room
	byNumber map[string]string
	deleted  []string
}

func (m *mockRoomRepo) List(ctx context.Context) ([]models.Room, error) {
	rooms := make([]models.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	return rooms, nil
}

func (m *mockRoomRepo) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if r, ok := m.rooms[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoomRepo) ExistsByRoomNumber(ctx context.Context, roomNumber string, excludeID string) (bool, error) {
	if id, ok := m.byNumber[roomNumber]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRoomRepo) Create(ctx context.Context, room *models.Room) error {
	if m.rooms == nil {
		m.rooms = make(map[string]models.Room)
	}
	if m.byNumber == nil {
		m.byNumber = make(map[string]string)
	}
	if room.ID == "" {
		room.ID = "generated"
	}
	m.rooms[room.ID] = *room
	m.byNumber[room.RoomNumber] = room.ID
	return nil
}

func (m *mockRoomRepo) Update(ctx context.Context, room *models.Room) error {
	m.rooms[room.ID] = *room
	return nil
}

func (m *mockRoomRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.rooms, id)
	return nil
}

func newRoomService(repo *mockRoomRepo) *RoomService {
	return NewRoomService(repo, validator.New(), zap.NewNop())
}

func TestRoomServiceCreate(t *testing.T) {
	repo := &mockRoomRepo{}
	svc := newRoomService(repo)

	room, err := svc.Create(context.Background(), CreateRoomRequest{RoomNumber: "A1", Capacity: 30, RoomFloor: 1, Building: "Main Block"})
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, 30, room.Capacity)
}

func TestRoomServiceCreateRejectsNonPositiveCapacity(t *testing.T) {
	svc := newRoomService(&mockRoomRepo{})

	_, err := svc.Create(context.Background(), CreateRoomRequest{RoomNumber: "A1", Capacity: 0})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRoomServiceCreateDuplicateNumberConflicts(t *testing.T) {
	repo := &mockRoomRepo{byNumber: map[string]string{"A1": "other"}}
	svc := newRoomService(repo)

	_, err := svc.Create(context.Background(), CreateRoomRequest{RoomNumber: "A1", Capacity: 10})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestRoomServiceUpdateShrinkCapacity(t *testing.T) {
	repo := &mockRoomRepo{
		rooms:    map[string]models.Room{"r1": {ID: "r1", RoomNumber: "A1", Capacity: 30}},
		byNumber: map[string]string{"A1": "r1"},
	}
	svc := newRoomService(repo)

	room, err := svc.Update(context.Background(), "r1", UpdateRoomRequest{RoomNumber: "A1", Capacity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, room.Capacity)
}

func TestRoomServiceDeleteNotFound(t *testing.T) {
	svc := newRoomService(&mockRoomRepo{})

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
