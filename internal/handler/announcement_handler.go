package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/middleware"
	"github.com/classhub/classhub-api/internal/models"
	"github.com/classhub/classhub-api/internal/service"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
	"github.com/classhub/classhub-api/pkg/response"
)

type announcementService interface {
	ListByClass(ctx context.Context, callerID, classID string, page, pageSize int) (*service.AnnouncementListResult, error)
	Create(ctx context.Context, callerID, classID string, req models.CreateAnnouncementRequest) (*models.Announcement, error)
	Update(ctx context.Context, callerID, id string, req models.UpdateAnnouncementRequest) (*models.Announcement, error)
	Delete(ctx context.Context, callerID, id string) error
}

// AnnouncementHandler exposes class announcement endpoints.
type AnnouncementHandler struct {
	announcements announcementService
	logger        *zap.Logger
}

// NewAnnouncementHandler constructs an AnnouncementHandler.
func NewAnnouncementHandler(announcements announcementService, logger *zap.Logger) *AnnouncementHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementHandler{announcements: announcements, logger: logger}
}

// ListByClass godoc
// @Summary List a class's announcements, newest first
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope{data=[]models.AnnouncementDetail}
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/announcements [get]
func (h *AnnouncementHandler) ListByClass(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.announcements.ListByClass(c.Request.Context(), claims.UserID, c.Param("id"),
		queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Announcements, &result.Pagination)
}

// Create godoc
// @Summary Post an announcement to an owned class
// @Tags announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body models.CreateAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope{data=models.Announcement}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	announcement, err := h.announcements.Create(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// Update godoc
// @Summary Update an announcement you authored
// @Tags announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Param payload body models.UpdateAnnouncementRequest true "Fields to update"
// @Success 200 {object} response.Envelope{data=models.Announcement}
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [patch]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	announcement, err := h.announcements.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// Delete godoc
// @Summary Delete an announcement you authored
// @Tags announcements
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Success 204
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.announcements.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
