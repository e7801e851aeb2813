package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-seat-api/internal/models"
	appErrors "github.com/noah-isme/exam-seat-api/pkg/errors"
)

type mockExamRepo struct {
	exams   map[string]models.Exam
	deleted []string
}

func (m *mockExamRepo) List(ctx context.Context) ([]models.Exam, error) {
	exams := make([]models.Exam, 0, len(m.exams))
	for _, e := range m.exams {
		exams = append(exams, e)
	}
	return exams, nil
}

func (m *mockExamRepo) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	if e, ok := m.exams[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExamRepo) Create(ctx context.Context, exam *models.Exam) error {
	if m.exams == nil {
		m.exams = make(map[string]models.Exam)
	}
	if exam.ID == "" {
		exam.ID = "generated"
	}
	m.exams[exam.ID] = *exam
	return nil
}

func (m *mockExamRepo) Update(ctx context.Context, exam *models.Exam) error {
	m.exams[exam.ID] = *exam
	return nil
}

func (m *mockExamRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.exams, id)
	return nil
}

func newExamService(repo *mockExamRepo) *ExamService {
	return NewExamService(repo, validator.New(), zap.NewNop())
}

func TestExamServiceCreate(t *testing.T) {
	repo := &mockExamRepo{}
	svc := newExamService(repo)

	date := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	exam, err := svc.Create(context.Background(), CreateExamRequest{Subject: "Mathematics", ExamCode: "MATH101", Date: &date, Duration: 120})
	require.NoError(t, err)
	assert.NotEmpty(t, exam.ID)
	assert.Equal(t, "MATH101", exam.ExamCode)
}

func TestExamServiceCreateAllowsDuplicateCodes(t *testing.T) {
	repo := &mockExamRepo{}
	svc := newExamService(repo)

	_, err := svc.Create(context.Background(), CreateExamRequest{Subject: "First", ExamCode: "SHARED"})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), CreateExamRequest{Subject: "Second", ExamCode: "SHARED"})
	require.NoError(t, err)
	assert.Equal(t, "SHARED", second.ExamCode)
}

func TestExamServiceCreateRejectsNegativeDuration(t *testing.T) {
	svc := newExamService(&mockExamRepo{})

	_, err := svc.Create(context.Background(), CreateExamRequest{Subject: "Mathematics", ExamCode: "MATH101", Duration: -1})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExamServiceUpdateNotFound(t *testing.T) {
	svc := newExamService(&mockExamRepo{})

	_, err := svc.Update(context.Background(), "missing", UpdateExamRequest{Subject: "X", ExamCode: "Y"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestExamServiceDelete(t *testing.T) {
	repo := &mockExamRepo{exams: map[string]models.Exam{"e1": {ID: "e1", Subject: "Mathematics"}}}
	svc := newExamService(repo)

	require.NoError(t, svc.Delete(context.Background(), "e1"))
	assert.Contains(t, repo.deleted, "e1")
}
