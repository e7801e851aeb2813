package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-seat-api/internal/models"
	appErrors "github.com/noah-isme/exam-seat-api/pkg/errors"
)

type examRepository interface {
	List(ctx context.Context) ([]models.Exam, error)
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id string) error
}

// CreateExamRequest holds payload for creating exams. The exam code is a
// label, not a unique key: auto-allocation mints AUTO-prefixed codes freely.
type CreateExamRequest struct {
	Subject  string     `json:"subject" validate:"required"`
	ExamCode string     `json:"exam_code" validate:"required"`
	Date     *time.Time `json:"date,omitempty"`
	Duration int        `json:"duration" validate:"gte=0"`
}

// UpdateExamRequest holds payload for updating exams.
type UpdateExamRequest struct {
	Subject  string     `json:"subject" validate:"required"`
	ExamCode string     `json:"exam_code" validate:"required"`
	Date     *time.Time `json:"date,omitempty"`
	Duration int        `json:"duration" validate:"gte=0"`
}

// ExamService handles exam use-cases.
type ExamService struct {
	repo      examRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs the exam service.
func NewExamService(repo examRepository, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, validator: validate, logger: logger}
}

// List returns all exams.
func (s *ExamService) List(ctx context.Context) ([]models.Exam, error) {
	exams, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list exams")
	}
	return exams, nil
}

// Get returns one exam by ID.
func (s *ExamService) Get(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, storeError(err, "failed to load exam")
	}
	return exam, nil
}

// Create registers a new exam.
func (s *ExamService) Create(ctx context.Context, req CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	exam := &models.Exam{
		Subject:  req.Subject,
		ExamCode: req.ExamCode,
		Date:     req.Date,
		Duration: req.Duration,
	}
	if err := s.repo.Create(ctx, exam); err != nil {
		return nil, storeError(err, "failed to create exam")
	}
	return exam, nil
}

// Update modifies an existing exam.
func (s *ExamService) Update(ctx context.Context, id string, req UpdateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, storeError(err, "failed to load exam")
	}
	exam.Subject = req.Subject
	exam.ExamCode = req.ExamCode
	exam.Date = req.Date
	exam.Duration = req.Duration
	if err := s.repo.Update(ctx, exam); err != nil {
		return nil, storeError(err, "failed to update exam")
	}
	return exam, nil
}

// Delete removes an exam. Allocations referencing it keep their exam id and
// project with an empty exam label.
func (s *ExamService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return storeError(err, "failed to load exam")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "failed to delete exam")
	}
	return nil
}
