package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-seat-api/internal/models"
	appErrors "github.com/noah-isme/exam-seat-api/pkg/errors"
)

const allocationListCacheKey = "allocations:list"

type allocationRepository interface {
	Create(ctx context.Context, allocation *models.Allocation) error
	FindByID(ctx context.Context, id string) (*models.Allocation, error)
	ListResolved(ctx context.Context) ([]models.AllocationView, error)
	Delete(ctx context.Context, id string) error
}

type roomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
	List(ctx context.Context) ([]models.Room, error)
}

type examCreator interface {
	Create(ctx context.Context, exam *models.Exam) error
}

type studentPool interface {
	ListAll(ctx context.Context) ([]models.Student, error)
}

type allocationCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type metricsObserver interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	ObserveDBQuery(label string, duration time.Duration)
}

// AllocateRequest holds payload for creating one allocation. Field names
// mirror the wire contract: bare identifiers for exam, room and students.
type AllocateRequest struct {
	ExamID     string   `json:"exam" validate:"required"`
	RoomID     string   `json:"room" validate:"required"`
	StudentIDs []string `json:"students" validate:"required,min=1"`
}

// AutoAllocateRequest anchors a batch allocation to a date and time label.
type AutoAllocateRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// AutoAllocateResult reports the outcome of a batch allocation. Callers
// compare TotalSeated against PoolSize to detect students left unseated.
type AutoAllocateResult struct {
	Exam        *models.Exam        `json:"exam"`
	Allocations []models.Allocation `json:"allocations"`
	PoolSize    int                 `json:"pool_size"`
	TotalSeated int                 `json:"total_seated"`
	Errors      []string            `json:"errors,omitempty"`
}

// AllocationService is the allocation engine plus the projection layer over
// stored allocations.
type AllocationService struct {
	repo      allocationRepository
	rooms     roomReader
	exams     examCreator
	students  studentPool
	cache     allocationCache
	metrics   metricsObserver
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAllocationService constructs the allocation service.
func NewAllocationService(repo allocationRepository, rooms roomReader, exams examCreator, students studentPool, cache allocationCache, metrics metricsObserver, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AllocationService{
		repo:      repo,
		rooms:     rooms,
		exams:     exams,
		students:  students,
		cache:     cache,
		metrics:   metrics,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// Allocate validates the room capacity and persists a seat-numbered
// allocation. Seats follow submission order: the k-th student gets seat k+1.
//
// The capacity check and the allocation write are two separate store
// operations with no room lock between them; concurrent calls against one
// room can both pass the check and jointly overbook it. This mirrors the
// behaviour of the system this one replaces.
func (s *AllocationService) Allocate(ctx context.Context, req AllocateRequest) (*models.Allocation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}

	room, err := s.rooms.FindByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, storeError(err, "failed to load room")
	}

	if len(req.StudentIDs) > room.Capacity {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("room capacity exceeded: %d students for %d seats", len(req.StudentIDs), room.Capacity))
	}

	seats := make([]models.Seat, 0, len(req.StudentIDs))
	for i, studentID := range req.StudentIDs {
		seats = append(seats, models.Seat{SeatNumber: i + 1, StudentID: studentID})
	}

	allocation := &models.Allocation{
		ExamID: req.ExamID,
		RoomID: req.RoomID,
		Seats:  seats,
	}
	if err := s.repo.Create(ctx, allocation); err != nil {
		return nil, storeError(err, "failed to create allocation")
	}

	s.invalidateListCache(ctx)
	s.logger.Info("allocation created",
		zap.String("allocation_id", allocation.ID),
		zap.String("room_id", room.ID),
		zap.Int("seated", len(seats)),
	)
	return allocation, nil
}

// AutoAllocate creates an anchor exam and partitions the full student pool
// across all rooms in capacity order. Rooms fill front-first from the pool;
// students beyond total capacity stay unseated, which is reported, not an
// error. A failed room keeps earlier rooms' allocations committed.
func (s *AllocationService) AutoAllocate(ctx context.Context, req AutoAllocateRequest) (*AutoAllocateResult, error) {
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	exam := &models.Exam{
		Subject:  strings.TrimSpace(fmt.Sprintf("Exam %s %s", date, strings.TrimSpace(req.Time))),
		ExamCode: fmt.Sprintf("AUTO-%d", time.Now().UnixMilli()),
		Duration: 0,
	}
	if parsed, err := time.Parse("2006-01-02", date); err == nil {
		exam.Date = &parsed
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, storeError(err, "failed to create batch exam")
	}

	pool, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, storeError(err, "failed to load student pool")
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, storeError(err, "failed to load rooms")
	}

	result := &AutoAllocateResult{
		Exam:        exam,
		Allocations: []models.Allocation{},
		PoolSize:    len(pool),
	}

	remaining := pool
	for _, room := range rooms {
		if len(remaining) == 0 {
			break
		}
		if room.Capacity <= 0 {
			continue
		}

		take := room.Capacity
		if take > len(remaining) {
			take = len(remaining)
		}
		ids := make([]string, 0, take)
		for _, student := range remaining[:take] {
			ids = append(ids, student.ID)
		}

		allocation, err := s.Allocate(ctx, AllocateRequest{ExamID: exam.ID, RoomID: room.ID, StudentIDs: ids})
		if err != nil {
			// Earlier rooms stay committed; the unseated slice rolls over
			// to the next room.
			result.Errors = append(result.Errors, fmt.Sprintf("room %s: %v", room.RoomNumber, err))
			s.logger.Warn("auto-allocate room failed", zap.String("room_id", room.ID), zap.Error(err))
			continue
		}

		result.Allocations = append(result.Allocations, *allocation)
		result.TotalSeated += take
		remaining = remaining[take:]
	}

	s.logger.Info("auto-allocate finished",
		zap.String("exam_id", exam.ID),
		zap.Int("pool", result.PoolSize),
		zap.Int("seated", result.TotalSeated),
		zap.Int("rooms_used", len(result.Allocations)),
	)
	return result, nil
}

// List returns all allocations with references resolved, served cache-aside:
// a fresh read repopulates the cache, writers invalidate it.
func (s *AllocationService) List(ctx context.Context) ([]models.AllocationView, error) {
	if s.cache != nil {
		start := time.Now()
		var cached []models.AllocationView
		err := s.cache.Get(ctx, allocationListCacheKey, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("allocation cache read failed", zap.Error(err))
		}
	}

	queryStart := time.Now()
	views, err := s.repo.ListResolved(ctx)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("allocations_list_resolved", time.Since(queryStart))
	}
	if err != nil {
		return nil, storeError(err, "failed to list allocations")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, allocationListCacheKey, views, s.cacheTTL); err != nil {
			s.logger.Warn("allocation cache write failed", zap.Error(err))
		}
	}
	return views, nil
}

// FindStudentSeat scans stored allocations for the student and returns the
// display labels of the exam and room plus the seat number.
func (s *AllocationService) FindStudentSeat(ctx context.Context, studentID string) (*models.StudentSeat, error) {
	views, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range views {
		for _, seat := range views[i].Seats {
			if seat.StudentID != studentID {
				continue
			}
			return &models.StudentSeat{
				Exam:       views[i].Exam.Label(),
				Room:       views[i].Room.Label(),
				SeatNumber: seat.SeatNumber,
			}, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no allocation found for student")
}

// Delete removes one allocation entirely. Partial edits are not supported;
// re-seating a room means deleting and allocating again.
func (s *AllocationService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "allocation not found")
		}
		return storeError(err, "failed to load allocation")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "failed to delete allocation")
	}
	s.invalidateListCache(ctx)
	return nil
}

func (s *AllocationService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, allocationListCacheKey); err != nil {
		s.logger.Warn("allocation cache invalidation failed", zap.Error(err))
	}
}

// storeError maps a failed store operation onto the error taxonomy: timeouts
// and cancellations are reported as unavailability, never as a domain
// failure; everything else stays internal.
func storeError(err error, message string) *appErrors.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
