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

	"github.com/classhub/classhub-api/internal/middleware"
	"github.com/classhub/classhub-api/internal/models"
	"github.com/classhub/classhub-api/internal/service"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
	"github.com/classhub/classhub-api/pkg/response"
)

type classServiceMock struct {
	listResp    *service.ClassListResult
	getResp     *models.ClassDetail
	getErr      error
	createResp  *models.Class
	createErr   error
	updateResp  *models.Class
	updateErr   error
	deleteErr   error
	studentsErr error
}

func (m *classServiceMock) List(ctx context.Context, filter models.ClassFilter) (*service.ClassListResult, error) {
	return m.listResp, nil
}

func (m *classServiceMock) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	return m.getResp, m.getErr
}

func (m *classServiceMock) Create(ctx context.Context, teacherID string, req models.CreateClassRequest) (*models.Class, error) {
	return m.createResp, m.createErr
}

func (m *classServiceMock) Update(ctx context.Context, callerID, id string, req models.UpdateClassRequest) (*models.Class, error) {
	return m.updateResp, m.updateErr
}

func (m *classServiceMock) Delete(ctx context.Context, callerID, id string) error {
	return m.deleteErr
}

func (m *classServiceMock) Students(ctx context.Context, callerID, id string) ([]models.ClassStudent, error) {
	return nil, m.studentsErr
}

type exportServiceMock struct {
	result *service.ExportResult
	err    error
}

func (m *exportServiceMock) ClassSchedule(ctx context.Context, callerID, classID string, format service.ExportFormat) (*service.ExportResult, error) {
	return m.result, m.err
}

func (m *exportServiceMock) MySchedule(ctx context.Context, callerID string, role models.UserRole, format service.ExportFormat) (*service.ExportResult, error) {
	return m.result, m.err
}

func teacherContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})
	return c, w
}

func TestClassHandlerCreateInvalidBody(t *testing.T) {
	handler := NewClassHandler(&classServiceMock{}, &exportServiceMock{}, nil)
	c, w := teacherContext(t)
	req, _ := http.NewRequest(http.MethodPost, "/classes", bytes.NewReader([]byte(`not-json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassHandlerCreateSuccess(t *testing.T) {
	handler := NewClassHandler(&classServiceMock{
		createResp: &models.Class{ID: "class-1", Name: "Algebra", Code: "CLS123456"},
	}, &exportServiceMock{}, nil)
	c, w := teacherContext(t)
	body, _ := json.Marshal(map[string]interface{}{
		"name":     "Algebra",
		"subject":  "Math",
		"schedule": "Mon 09:00-10:00",
	})
	req, _ := http.NewRequest(http.MethodPost, "/classes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Error)
}

func TestClassHandlerUpdatePropagatesRevisionConflict(t *testing.T) {
	handler := NewClassHandler(&classServiceMock{
		updateErr: appErrors.ErrPreconditionFailed,
	}, &exportServiceMock{}, nil)
	c, w := teacherContext(t)
	body, _ := json.Marshal(map[string]interface{}{"name": "New", "revision": 2})
	req, _ := http.NewRequest(http.MethodPatch, "/classes/class-1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}

	handler.Update(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestClassHandlerDeleteNotFound(t *testing.T) {
	handler := NewClassHandler(&classServiceMock{
		deleteErr: appErrors.ErrNotFound,
	}, &exportServiceMock{}, nil)
	c, w := teacherContext(t)
	req, _ := http.NewRequest(http.MethodDelete, "/classes/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Delete(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClassHandlerExportSetsAttachmentHeaders(t *testing.T) {
	handler := NewClassHandler(&classServiceMock{}, &exportServiceMock{
		result: &service.ExportResult{
			Content:     []byte("Class,Subject,Day,Start,End\n"),
			ContentType: "text/csv",
			Filename:    "class-schedule-class-1.csv",
		},
	}, nil)
	c, w := teacherContext(t)
	req, _ := http.NewRequest(http.MethodGet, "/classes/class-1/schedule/export", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}

	handler.ExportSchedule(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "class-schedule-class-1.csv")
}
