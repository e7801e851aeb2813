package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-seat-api/internal/models"
	appErrors "github.com/noah-isme/exam-seat-api/pkg/errors"
)

type studentCreator interface {
	Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error)
}

// ImportResult summarises a bulk student import. The insert is best-effort:
// rows that fail (duplicate index number, malformed fields) are counted as
// skipped and do not abort the batch.
type ImportResult struct {
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportService loads students in bulk from an uploaded spreadsheet.
type ImportService struct {
	students studentCreator
	logger   *zap.Logger
}

// NewImportService constructs the import service.
func NewImportService(students studentCreator, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{students: students, logger: logger}
}

// column aliases accepted in the header row, all matched case-insensitively
// with whitespace stripped.
var importAliases = map[string]string{
	"name":        "name",
	"indexnumber": "index",
	"index":       "index",
	"course":      "course",
	"department":  "course",
	"level":       "level",
}

// ImportStudents parses the first sheet of an .xlsx upload and inserts one
// student per data row.
func (s *ImportService) ImportStudents(ctx context.Context, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file is not a readable spreadsheet")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read spreadsheet rows")
	}
	if len(rows) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "spreadsheet has no data rows")
	}

	columns := mapColumns(rows[0])
	if _, ok := columns["name"]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing name column")
	}
	if _, ok := columns["index"]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing index number column")
	}

	result := &ImportResult{}
	for i, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		req := CreateStudentRequest{
			FullName:    cell(row, columns["name"]),
			IndexNumber: cell(row, columns["index"]),
		}
		if col, ok := columns["course"]; ok {
			req.Course = cell(row, col)
		}
		if col, ok := columns["level"]; ok {
			if level, err := strconv.Atoi(strings.TrimSpace(cell(row, col))); err == nil {
				req.Level = &level
			}
		}

		if _, err := s.students.Create(ctx, req); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		result.Inserted++
	}

	s.logger.Info("student import finished",
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for i, raw := range header {
		key := strings.ToLower(strings.Join(strings.Fields(raw), ""))
		if field, ok := importAliases[key]; ok {
			if _, taken := columns[field]; !taken {
				columns[field] = i
			}
		}
	}
	return columns
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func emptyRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
