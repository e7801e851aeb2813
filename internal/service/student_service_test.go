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

type mockStudentRepo struct {
	students   map[string]models.Student
	byIndex    map[string]string
	deleted    []string
	lastFilter models.StudentFilter
	listTotal  int
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	students := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		students = append(students, s)
	}
	return students, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindByIndexNumber(ctx context.Context, indexNumber string) (*models.Student, error) {
	if id, ok := m.byIndex[indexNumber]; ok {
		s := m.students[id]
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByIndexNumber(ctx context.Context, indexNumber string, excludeID string) (bool, error) {
	if id, ok := m.byIndex[indexNumber]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if m.byIndex == nil {
		m.byIndex = make(map[string]string)
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students[student.ID] = *student
	m.byIndex[student.IndexNumber] = student.ID
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.students, id)
	return nil
}

func newStudentService(repo *mockStudentRepo) *StudentService {
	return NewStudentService(repo, validator.New(), zap.NewNop())
}

func TestStudentServiceCreateNormalizesIndexNumber(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := newStudentService(repo)

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		IndexNumber: " ab1234 5678 ",
		FullName:    "Ama Mensah",
		Course:      "Computer Science",
	})
	require.NoError(t, err)
	assert.Equal(t, "AB12345678", student.IndexNumber)
	assert.Contains(t, repo.byIndex, "AB12345678")
}

func TestStudentServiceCreateRejectsWrongLength(t *testing.T) {
	svc := newStudentService(&mockStudentRepo{})

	_, err := svc.Create(context.Background(), CreateStudentRequest{IndexNumber: "AB123", FullName: "Short Index"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentServiceCreateDuplicateIndexConflicts(t *testing.T) {
	repo := &mockStudentRepo{byIndex: map[string]string{"AB12345678": "other"}}
	svc := newStudentService(repo)

	_, err := svc.Create(context.Background(), CreateStudentRequest{IndexNumber: "ab12345678", FullName: "Dup"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestStudentServiceCreateRejectsInvalidLevel(t *testing.T) {
	svc := newStudentService(&mockStudentRepo{})

	level := 250
	_, err := svc.Create(context.Background(), CreateStudentRequest{IndexNumber: "AB12345678", FullName: "Bad Level", Level: &level})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentServiceUpdateKeepsOwnIndexNumber(t *testing.T) {
	repo := &mockStudentRepo{
		students: map[string]models.Student{"id1": {ID: "id1", IndexNumber: "AB12345678", FullName: "Old"}},
		byIndex:  map[string]string{"AB12345678": "id1"},
	}
	svc := newStudentService(repo)

	level := 300
	updated, err := svc.Update(context.Background(), "id1", UpdateStudentRequest{
		IndexNumber: "AB12345678",
		FullName:    "New Name",
		Level:       &level,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.FullName)
	require.NotNil(t, updated.Level)
	assert.Equal(t, 300, *updated.Level)
}

func TestStudentServiceUpdateNotFound(t *testing.T) {
	svc := newStudentService(&mockStudentRepo{})

	_, err := svc.Update(context.Background(), "missing", UpdateStudentRequest{IndexNumber: "AB12345678", FullName: "X"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStudentServiceFindByIndexNumberNormalizesQuery(t *testing.T) {
	repo := &mockStudentRepo{
		students: map[string]models.Student{"id1": {ID: "id1", IndexNumber: "AB12345678", FullName: "Ama"}},
		byIndex:  map[string]string{"AB12345678": "id1"},
	}
	svc := newStudentService(repo)

	student, err := svc.FindByIndexNumber(context.Background(), " ab12345678 ")
	require.NoError(t, err)
	assert.Equal(t, "id1", student.ID)

	_, err = svc.FindByIndexNumber(context.Background(), "   ")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentServiceDelete(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1", IndexNumber: "AB12345678"}}}
	svc := newStudentService(repo)

	require.NoError(t, svc.Delete(context.Background(), "id1"))
	assert.Contains(t, repo.deleted, "id1")

	err := svc.Delete(context.Background(), "id1")
	require.Error(t, err)
}

func TestNormalizeIndexNumber(t *testing.T) {
	assert.Equal(t, "AB12345678", models.NormalizeIndexNumber(" ab12345678 "))
	assert.Equal(t, "AB12345678", models.NormalizeIndexNumber("ab 1234 5678"))
	assert.Equal(t, "", models.NormalizeIndexNumber("   "))
}
