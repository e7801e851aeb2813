package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-seat-api/internal/models"
	appErrors "github.com/noah-isme/exam-seat-api/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	ExistsByRoomNumber(ctx context.Context, roomNumber string, excludeID string) (bool, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

// CreateRoomRequest holds payload for creating rooms.
type CreateRoomRequest struct {
	RoomNumber string `json:"room_number" validate:"required"`
	Capacity   int    `json:"capacity" validate:"required,gt=0"`
	RoomFloor  int    `json:"room_floor"`
	Building   string `json:"building"`
}

// UpdateRoomRequest holds payload for updating rooms.
type UpdateRoomRequest struct {
	RoomNumber string `json:"room_number" validate:"required"`
	Capacity   int    `json:"capacity" validate:"required,gt=0"`
	RoomFloor  int    `json:"room_floor"`
	Building   string `json:"building"`
}

// RoomService handles room use-cases.
type RoomService struct {
	repo      roomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs the room service.
func NewRoomService(repo roomRepository, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, validator: validate, logger: logger}
}

// List returns all rooms.
func (s *RoomService) List(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list rooms")
	}
	return rooms, nil
}

// Get returns one room by ID.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, storeError(err, "failed to load room")
	}
	return room, nil
}

// Create registers a new room.
func (s *RoomService) Create(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	exists, err := s.repo.ExistsByRoomNumber(ctx, req.RoomNumber, "")
	if err != nil {
		return nil, storeError(err, "failed to validate room number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "room number already used")
	}
	room := &models.Room{
		RoomNumber: req.RoomNumber,
		Capacity:   req.Capacity,
		RoomFloor:  req.RoomFloor,
		Building:   req.Building,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, storeError(err, "failed to create room")
	}
	return room, nil
}

// Update modifies an existing room. Shrinking the capacity does not touch
// allocations already written against the room.
func (s *RoomService) Update(ctx context.Context, id string, req UpdateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, storeError(err, "failed to load room")
	}
	exists, err := s.repo.ExistsByRoomNumber(ctx, req.RoomNumber, id)
	if err != nil {
		return nil, storeError(err, "failed to validate room number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "room number already used")
	}
	room.RoomNumber = req.RoomNumber
	room.Capacity = req.Capacity
	room.RoomFloor = req.RoomFloor
	room.Building = req.Building
	if err := s.repo.Update(ctx, room); err != nil {
		return nil, storeError(err, "failed to update room")
	}
	return room, nil
}

// Delete removes a room. Allocations referencing the room stay in place and
// project with an empty room label.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return storeError(err, "failed to load room")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "failed to delete room")
	}
	return nil
}
