package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-seat-api/internal/models"
	"github.com/noah-isme/exam-seat-api/internal/service"
	appErrors "github.com/noah-isme/exam-seat-api/pkg/errors"
	"github.com/noah-isme/exam-seat-api/pkg/response"
)

type allocationService interface {
	Allocate(ctx context.Context, req service.AllocateRequest) (*models.Allocation, error)
	AutoAllocate(ctx context.Context, req service.AutoAllocateRequest) (*service.AutoAllocateResult, error)
	List(ctx context.Context) ([]models.AllocationView, error)
	FindStudentSeat(ctx context.Context, studentID string) (*models.StudentSeat, error)
	Delete(ctx context.Context, id string) error
}

type exportService interface {
	RenderCSV(ctx context.Context) ([]byte, error)
	RenderPDF(ctx context.Context) ([]byte, error)
}

// AllocationHandler exposes allocation and seating-report endpoints.
type AllocationHandler struct {
	allocations allocationService
	exports     exportService
}

// NewAllocationHandler constructs AllocationHandler.
func NewAllocationHandler(allocations allocationService, exports exportService) *AllocationHandler {
	return &AllocationHandler{allocations: allocations, exports: exports}
}

// Create godoc
// @Summary Allocate students to a room for an exam
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body service.AllocateRequest true "Allocation payload"
// @Success 201 {object} response.Envelope
// @Router /allocations [post]
func (h *AllocationHandler) Create(c *gin.Context) {
	var req service.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	allocation, err := h.allocations.Allocate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, allocation)
}

// AutoAllocate godoc
// @Summary Partition the full student pool across all rooms
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body service.AutoAllocateRequest true "Batch anchor date/time"
// @Success 201 {object} response.Envelope
// @Router /allocations/auto [post]
func (h *AllocationHandler) AutoAllocate(c *gin.Context) {
	var req service.AutoAllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.allocations.AutoAllocate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List allocations with resolved references
// @Tags Allocations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /allocations [get]
func (h *AllocationHandler) List(c *gin.Context) {
	views, err := h.allocations.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// StudentSeat godoc
// @Summary Find a student's seat
// @Tags Allocations
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /allocations/student/{studentId} [get]
func (h *AllocationHandler) StudentSeat(c *gin.Context) {
	seat, err := h.allocations.FindStudentSeat(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, seat, nil)
}

// Delete godoc
// @Summary Delete allocation
// @Tags Allocations
// @Produce json
// @Param id path string true "Allocation ID"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id} [delete]
func (h *AllocationHandler) Delete(c *gin.Context) {
	if err := h.allocations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "allocation deleted successfully")
}

// ExportCSV godoc
// @Summary Download the seating report as CSV
// @Tags Allocations
// @Produce text/csv
// @Success 200 {file} file
// @Router /allocations/export/csv [get]
func (h *AllocationHandler) ExportCSV(c *gin.Context) {
	payload, err := h.exports.RenderCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "allocations.csv", "text/csv", payload)
}

// ExportPDF godoc
// @Summary Download the seating report as PDF
// @Tags Allocations
// @Produce application/pdf
// @Success 200 {file} file
// @Router /allocations/export/pdf [get]
func (h *AllocationHandler) ExportPDF(c *gin.Context) {
	payload, err := h.exports.RenderPDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "allocations.pdf", "application/pdf", payload)
}
