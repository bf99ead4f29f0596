package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub-api/internal/models"
	"github.com/classhub/classhub-api/internal/schedule"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
)

type exportRepoMock struct {
	detail     *models.ClassDetail
	detailErr  error
	byStudent  []models.Class
	byTeacher  []models.Class
	isEnrolled bool
}

func (m *exportRepoMock) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	return m.detail, m.detailErr
}

func (m *exportRepoMock) ListByStudent(ctx context.Context, studentID string) ([]models.Class, error) {
	return m.byStudent, nil
}

func (m *exportRepoMock) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	return m.byTeacher, len(m.byTeacher), nil
}

func (m *exportRepoMock) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	return m.isEnrolled, nil
}

func TestExportClassScheduleCSVSortedByDay(t *testing.T) {
	repo := &exportRepoMock{
		detail: &models.ClassDetail{
			Class: models.Class{
				ID:        "class-1",
				Name:      "Algebra",
				Subject:   "Math",
				TeacherID: "teacher-1",
				Schedule: schedule.Set{
					{Day: "Wed", Start: "14:00", End: "15:30"},
					{Day: "Mon", Start: "09:00", End: "10:00"},
				},
			},
		},
	}
	svc := NewExportService(repo, nil)

	result, err := svc.ClassSchedule(context.Background(), "teacher-1", "class-1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "class-schedule-class-1.csv", result.Filename)

	lines := strings.Split(strings.TrimSpace(string(result.Content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Class,Subject,Day,Start,End", lines[0])
	assert.Equal(t, "Algebra,Math,Mon,09:00,10:00", lines[1])
	assert.Equal(t, "Algebra,Math,Wed,14:00,15:30", lines[2])
}

func TestExportClassScheduleOutsiderRejected(t *testing.T) {
	repo := &exportRepoMock{
		detail: &models.ClassDetail{
			Class: models.Class{ID: "class-1", TeacherID: "teacher-1"},
		},
		isEnrolled: false,
	}
	svc := NewExportService(repo, nil)

	_, err := svc.ClassSchedule(context.Background(), "outsider", "class-1", FormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotAuthorized.Code, appErrors.FromError(err).Code)
}

func TestExportUnsupportedFormat(t *testing.T) {
	repo := &exportRepoMock{
		detail: &models.ClassDetail{
			Class: models.Class{ID: "class-1", TeacherID: "teacher-1"},
		},
	}
	svc := NewExportService(repo, nil)

	_, err := svc.ClassSchedule(context.Background(), "teacher-1", "class-1", ExportFormat("xml"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportMySchedulePDF(t *testing.T) {
	repo := &exportRepoMock{
		byStudent: []models.Class{
			{Name: "Algebra", Subject: "Math", Schedule: schedule.Set{{Day: "Mon", Start: "09:00", End: "10:00"}}},
		},
	}
	svc := NewExportService(repo, nil)

	result, err := svc.MySchedule(context.Background(), "student-1", models.RoleStudent, FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}
