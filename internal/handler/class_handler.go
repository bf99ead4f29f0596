package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/middleware"
	"github.com/classhub/classhub-api/internal/models"
	"github.com/classhub/classhub-api/internal/service"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
	"github.com/classhub/classhub-api/pkg/response"
)

type classService interface {
	List(ctx context.Context, filter models.ClassFilter) (*service.ClassListResult, error)
	Get(ctx context.Context, id string) (*models.ClassDetail, error)
	Create(ctx context.Context, teacherID string, req models.CreateClassRequest) (*models.Class, error)
	Update(ctx context.Context, callerID, id string, req models.UpdateClassRequest) (*models.Class, error)
	Delete(ctx context.Context, callerID, id string) error
	Students(ctx context.Context, callerID, id string) ([]models.ClassStudent, error)
}

type exportService interface {
	ClassSchedule(ctx context.Context, callerID, classID string, format service.ExportFormat) (*service.ExportResult, error)
	MySchedule(ctx context.Context, callerID string, role models.UserRole, format service.ExportFormat) (*service.ExportResult, error)
}

// ClassHandler exposes class CRUD and export endpoints.
type ClassHandler struct {
	classes classService
	exports exportService
	logger  *zap.Logger
}

// NewClassHandler constructs a ClassHandler.
func NewClassHandler(classes classService, exports exportService, logger *zap.Logger) *ClassHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassHandler{classes: classes, exports: exports, logger: logger}
}

// List godoc
// @Summary List classes
// @Tags classes
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Filter by subject"
// @Param search query string false "Search in class names"
// @Param teacher query string false "Set to 'me' to list only owned classes"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "Sort column: name, subject, created_at, updated_at"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope{data=[]models.Class}
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	filter := models.ClassFilter{
		Subject:   c.Query("subject"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
	}
	if c.Query("teacher") == "me" {
		claims, ok := middleware.Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		filter.TeacherID = claims.UserID
	}

	result, err := h.classes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Classes, &result.Pagination)
}

// Get godoc
// @Summary Get one class with teacher info and roster size
// @Tags classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope{data=models.ClassDetail}
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	detail, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create a class
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope{data=models.Class}
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	class, err := h.classes.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update a class
// @Description Partial update. Include the revision field to make the update
// @Description conditional on the class not having changed since it was read.
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body models.UpdateClassRequest true "Fields to update"
// @Success 200 {object} response.Envelope{data=models.Class}
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /classes/{id} [patch]
func (h *ClassHandler) Update(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	class, err := h.classes.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Delete a class and its announcements
// @Tags classes
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 204
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.classes.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Students godoc
// @Summary List the roster of an owned class
// @Tags classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope{data=[]models.ClassStudent}
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/students [get]
func (h *ClassHandler) Students(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	students, err := h.classes.Students(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// ExportSchedule godoc
// @Summary Download a class schedule as CSV or PDF
// @Tags classes
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/schedule/export [get]
func (h *ClassHandler) ExportSchedule(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.exports.ClassSchedule(c.Request.Context(), claims.UserID, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, result)
}

// ExportMySchedule godoc
// @Summary Download the caller's weekly schedule as CSV or PDF
// @Tags classes
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /me/schedule/export [get]
func (h *ClassHandler) ExportMySchedule(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.exports.MySchedule(c.Request.Context(), claims.UserID, claims.Role, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, result)
}

func serveExport(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
