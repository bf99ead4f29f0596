package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub-api/internal/models"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
)

type validatorMock struct {
	claims *models.JWTClaims
	err    error
}

func (m *validatorMock) ValidateToken(token string) (*models.JWTClaims, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.claims, nil
}

func runAuthenticate(t *testing.T, auth tokenValidator, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/me", nil)
	require.NoError(t, err)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c.Request = req

	reached := false
	Authenticate(auth)(c)
	if !c.IsAborted() {
		reached = true
	}
	return w, reached
}

func TestAuthenticateMissingHeader(t *testing.T) {
	w, reached := runAuthenticate(t, &validatorMock{}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	w, reached := runAuthenticate(t, &validatorMock{}, "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	w, reached := runAuthenticate(t, &validatorMock{err: appErrors.ErrUnauthorized}, "Bearer bad-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestAuthenticateStoresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	c.Request = req

	auth := &validatorMock{claims: &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent}}
	Authenticate(auth)(c)

	require.False(t, c.IsAborted())
	claims, ok := Claims(c)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestRequireRolesRejectsWrongRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/classes", nil)
	c.Request = req
	c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent})

	RequireRoles(models.RoleTeacher)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
}
