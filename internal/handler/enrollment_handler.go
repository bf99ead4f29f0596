package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/middleware"
	"github.com/classhub/classhub-api/internal/models"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
	"github.com/classhub/classhub-api/pkg/response"
)

type enrollmentService interface {
	Join(ctx context.Context, studentID, code string) (*models.Class, error)
	ListMine(ctx context.Context, studentID string) ([]models.Class, error)
}

// EnrollmentHandler exposes join-by-code and enrollment listing endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
	logger      *zap.Logger
}

// NewEnrollmentHandler constructs an EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService, logger *zap.Logger) *EnrollmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentHandler{enrollments: enrollments, logger: logger}
}

type joinRequest struct {
	Code string `json:"code" binding:"required"`
}

// Join godoc
// @Summary Join a class using its join code
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body joinRequest true "Join code"
// @Success 200 {object} response.Envelope{data=models.Class}
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/join [post]
func (h *EnrollmentHandler) Join(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	class, err := h.enrollments.Join(c.Request.Context(), claims.UserID, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// MyClasses godoc
// @Summary List the classes the caller has joined
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.Class}
// @Router /me/classes [get]
func (h *EnrollmentHandler) MyClasses(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	classes, err := h.enrollments.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}
