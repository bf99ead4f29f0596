package handler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/middleware"
	"github.com/classhub/classhub-api/internal/models"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
	"github.com/classhub/classhub-api/pkg/response"
	"github.com/classhub/classhub-api/pkg/storage"
)

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Me(ctx context.Context, userID string) (*models.UserInfo, error)
	UpdateProfile(ctx context.Context, userID, fullName string, avatarURL *string) (*models.UserInfo, error)
}

// AuthHandler exposes registration, login and profile endpoints.
type AuthHandler struct {
	auth      authService
	uploads   *storage.LocalStorage
	maxUpload int64
	logger    *zap.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth authService, uploads *storage.LocalStorage, maxUpload int64, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, uploads: uploads, maxUpload: maxUpload, logger: logger}
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope{data=models.AuthResponse}
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Login godoc
// @Summary Authenticate and receive an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope{data=models.AuthResponse}
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, resp, nil)
}

// Me godoc
// @Summary Return the authenticated user's profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=models.UserInfo}
// @Failure 401 {object} response.Envelope
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	info, err := h.auth.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, info, nil)
}

// UpdateMe godoc
// @Summary Update the authenticated user's profile
// @Description Accepts JSON with a name, or multipart form data with an
// @Description optional name field and an optional avatar image file.
// @Tags auth
// @Accept json
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=models.UserInfo}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me [patch]
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		h.updateFromMultipart(c, claims.UserID)
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	info, err := h.auth.UpdateProfile(c.Request.Context(), claims.UserID, req.FullName, nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, info, nil)
}

var allowedAvatarExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

func (h *AuthHandler) updateFromMultipart(c *gin.Context, userID string) {
	name := c.PostForm("name")

	var avatarURL *string
	file, err := c.FormFile("avatar")
	if err == nil && file != nil {
		if file.Size > h.maxUpload {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "avatar exceeds the maximum upload size"))
			return
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedAvatarExtensions[ext] {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "avatar must be a png, jpg or webp image"))
			return
		}

		src, err := file.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
			return
		}
		defer src.Close() //nolint:errcheck

		stored, err := h.uploads.SaveStream(fmt.Sprintf("avatar-%s%s", userID, ext), src)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store avatar"))
			return
		}
		url := "/uploads/" + stored
		avatarURL = &url
	}

	info, err := h.auth.UpdateProfile(c.Request.Context(), userID, name, avatarURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, info, nil)
}
