package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/models"
	"github.com/classhub/classhub-api/internal/schedule"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
	"github.com/classhub/classhub-api/pkg/export"
)

// ExportFormat names a supported schedule export encoding.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus the response metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

type exportClassRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Class, error)
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	IsEnrolled(ctx context.Context, classID, studentID string) (bool, error)
}

// ExportService renders class schedules as downloadable CSV or PDF files.
type ExportService struct {
	repo   exportClassRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportClassRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:   repo,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

var scheduleExportHeaders = []string{"Class", "Subject", "Day", "Start", "End"}

// ClassSchedule exports one class's schedule. The caller must own or be
// enrolled in the class.
func (s *ExportService) ClassSchedule(ctx context.Context, callerID, classID string, format ExportFormat) (*ExportResult, error) {
	detail, err := s.repo.FindDetailByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if detail.TeacherID != callerID {
		enrolled, err := s.repo.IsEnrolled(ctx, classID, callerID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		if !enrolled {
			return nil, appErrors.Clone(appErrors.ErrNotAuthorized, "")
		}
	}

	rows := scheduleRows(detail.Class)
	return s.render(format, "class-schedule-"+classID, "Schedule: "+detail.Name, rows)
}

// MySchedule exports the caller's weekly schedule across every class they
// teach or attend, ordered by day then start time.
func (s *ExportService) MySchedule(ctx context.Context, callerID string, role models.UserRole, format ExportFormat) (*ExportResult, error) {
	var classes []models.Class
	var err error
	if role == models.RoleTeacher {
		classes, _, err = s.repo.List(ctx, models.ClassFilter{TeacherID: callerID, PageSize: 100})
	} else {
		classes, err = s.repo.ListByStudent(ctx, callerID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}

	var rows []map[string]string
	for _, class := range classes {
		rows = append(rows, scheduleRows(class)...)
	}
	return s.render(format, "my-schedule", "Weekly Schedule", rows)
}

func (s *ExportService) render(format ExportFormat, basename, title string, rows []map[string]string) (*ExportResult, error) {
	dataset := export.Dataset{Headers: scheduleExportHeaders, Rows: rows}
	switch format {
	case FormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: basename + ".csv"}, nil
	case FormatPDF:
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: basename + ".pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// scheduleRows flattens a class's schedule sorted by day then start time.
func scheduleRows(class models.Class) []map[string]string {
	sorted := make(schedule.Set, len(class.Schedule))
	copy(sorted, class.Schedule)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := schedule.DayIndex(sorted[i].Day), schedule.DayIndex(sorted[j].Day)
		if di != dj {
			return di < dj
		}
		return sorted[i].Start < sorted[j].Start
	})
	rows := make([]map[string]string, 0, len(sorted))
	for _, entry := range sorted {
		rows = append(rows, map[string]string{
			"Class":   class.Name,
			"Subject": class.Subject,
			"Day":     entry.Day,
			"Start":   entry.Start,
			"End":     entry.End,
		})
	}
	return rows
}
