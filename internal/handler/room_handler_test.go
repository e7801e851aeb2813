package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-seat-api/internal/models"
	"github.com/noah-isme/exam-seat-api/internal/service"
	appErrors "github.com/noah-isme/exam-seat-api/pkg/errors"
)

type roomServiceMock struct {
	listResp   []models.Room
	getResp    *models.Room
	getErr     error
	createResp *models.Room
	createErr  error
	updateResp *models.Room
	updateErr  error
	deleteErr  error
	deletedID  string
}

func (m *roomServiceMock) List(ctx context.Context) ([]models.Room, error) {
	return m.listResp, nil
}

func (m *roomServiceMock) Get(ctx context.Context, id string) (*models.Room, error) {
	return m.getResp, m.getErr
}

func (m *roomServiceMock) Create(ctx context.Context, req service.CreateRoomRequest) (*models.Room, error) {
	return m.createResp, m.createErr
}

func (m *roomServiceMock) Update(ctx context.Context, id string, req service.UpdateRoomRequest) (*models.Room, error) {
	return m.updateResp, m.updateErr
}

func (m *roomServiceMock) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	return m.deleteErr
}

func TestRoomHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &roomServiceMock{createResp: &models.Room{ID: "r1", RoomNumber: "A1", Capacity: 30}}
	h := NewRoomHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateRoomRequest{RoomNumber: "A1", Capacity: 30})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/rooms", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "A1")
}

func TestRoomHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &roomServiceMock{createErr: appErrors.Clone(appErrors.ErrConflict, "room number already used")}
	h := NewRoomHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateRoomRequest{RoomNumber: "A1", Capacity: 30})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/rooms", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestRoomHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &roomServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "room not found")}
	h := NewRoomHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/rooms/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoomHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &roomServiceMock{}
	h := NewRoomHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/rooms/r1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	h.Delete(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r1", mockSvc.deletedID)
	assert.Contains(t, w.Body.String(), "room deleted successfully")
}
