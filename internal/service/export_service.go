package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-seat-api/internal/models"
	"github.com/noah-isme/exam-seat-api/pkg/export"
)

const seatingReportTitle = "Student Allocations"

type allocationLister interface {
	List(ctx context.Context) ([]models.AllocationView, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService flattens resolved allocations into report rows and renders
// them as CSV or PDF.
type ExportService struct {
	allocations allocationLister
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(allocations allocationLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{allocations: allocations, csv: csv, pdf: pdf, logger: logger}
}

// Rows flattens allocations into one row per seated student, grouped by
// allocation in retrieval order with seats ascending. Missing references
// degrade to empty fields: a deleted exam or room becomes a blank label, a
// dangling student reference keeps its seat with blank name and index.
func Rows(views []models.AllocationView) []models.ExportRow {
	rows := make([]models.ExportRow, 0, len(views))
	for i := range views {
		examLabel := views[i].Exam.Label()
		roomLabel := views[i].Room.Label()
		for _, seat := range views[i].Seats {
			row := models.ExportRow{
				ExamLabel:  examLabel,
				RoomLabel:  roomLabel,
				SeatNumber: seat.SeatNumber,
			}
			if seat.FullName != nil {
				row.StudentName = *seat.FullName
			}
			if seat.IndexNumber != nil {
				row.StudentIndex = *seat.IndexNumber
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func dataset(rows []models.ExportRow) export.Dataset {
	headers := []string{"Exam", "Room", "Student", "Seat Number", "Student Index"}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Exam":          row.ExamLabel,
			"Room":          row.RoomLabel,
			"Student":       row.StudentName,
			"Seat Number":   fmt.Sprintf("%d", row.SeatNumber),
			"Student Index": row.StudentIndex,
		})
	}
	return export.Dataset{Headers: headers, Rows: dataRows}
}

// RenderCSV builds the full seating report as CSV bytes.
func (s *ExportService) RenderCSV(ctx context.Context) ([]byte, error) {
	views, err := s.allocations.List(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(dataset(Rows(views)))
	if err != nil {
		return nil, storeError(err, "failed to render csv export")
	}
	return payload, nil
}

// RenderPDF builds the full seating report as a paginated PDF.
func (s *ExportService) RenderPDF(ctx context.Context) ([]byte, error) {
	views, err := s.allocations.List(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(dataset(Rows(views)), seatingReportTitle)
	if err != nil {
		return nil, storeError(err, "failed to render pdf export")
	}
	return payload, nil
}
