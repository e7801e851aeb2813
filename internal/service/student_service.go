package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-seat-api/internal/models"
	appErrors "github.com/noah-isme/exam-seat-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByIndexNumber(ctx context.Context, indexNumber string) (*models.Student, error)
	ExistsByIndexNumber(ctx context.Context, indexNumber string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	IndexNumber string `json:"index_number" validate:"required"`
	FullName    string `json:"full_name" validate:"required"`
	Course      string `json:"course"`
	Level       *int   `json:"level,omitempty"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	IndexNumber string `json:"index_number" validate:"required"`
	FullName    string `json:"full_name" validate:"required"`
	Course      string `json:"course"`
	Level       *int   `json:"level,omitempty"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns one student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, storeError(err, "failed to load student")
	}
	return student, nil
}

// FindByIndexNumber looks a student up by external index number. The query
// is normalized the same way stored values are, so " ab12345678 " matches
// AB12345678.
func (s *StudentService) FindByIndexNumber(ctx context.Context, raw string) (*models.Student, error) {
	indexNumber := models.NormalizeIndexNumber(raw)
	if indexNumber == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "index number is required")
	}
	student, err := s.repo.FindByIndexNumber(ctx, indexNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, storeError(err, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	indexNumber, err := normalizeAndCheckIndex(req.IndexNumber)
	if err != nil {
		return nil, err
	}
	if err := validateLevel(req.Level); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByIndexNumber(ctx, indexNumber, "")
	if err != nil {
		return nil, storeError(err, "failed to validate index number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "index number already used")
	}

	student := &models.Student{
		IndexNumber: indexNumber,
		FullName:    req.FullName,
		Course:      req.Course,
		Level:       req.Level,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, storeError(err, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	indexNumber, err := normalizeAndCheckIndex(req.IndexNumber)
	if err != nil {
		return nil, err
	}
	if err := validateLevel(req.Level); err != nil {
		return nil, err
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, storeError(err, "failed to load student")
	}

	exists, err := s.repo.ExistsByIndexNumber(ctx, indexNumber, id)
	if err != nil {
		return nil, storeError(err, "failed to validate index number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "index number already used")
	}

	student.IndexNumber = indexNumber
	student.FullName = req.FullName
	student.Course = req.Course
	student.Level = req.Level
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, storeError(err, "failed to update student")
	}
	return student, nil
}

// Delete removes a student. Allocations that reference the student are left
// untouched; their seat rows become dangling and project with empty fields.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return storeError(err, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "failed to delete student")
	}
	return nil
}

func normalizeAndCheckIndex(raw string) (string, error) {
	indexNumber := models.NormalizeIndexNumber(raw)
	if len(indexNumber) != models.IndexNumberLength {
		return "", appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("index number must be exactly %d characters", models.IndexNumberLength))
	}
	return indexNumber, nil
}

func validateLevel(level *int) error {
	if level == nil {
		return nil
	}
	if !models.ValidLevel(*level) {
		return appErrors.Clone(appErrors.ErrValidation, "level must be one of 100, 200, 300, 400")
	}
	return nil
}
