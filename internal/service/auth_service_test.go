package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/classhub/classhub-api/internal/models"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
)

type userRepoMock struct {
	findByEmailFn   func(ctx context.Context, email string) (*models.User, error)
	findByIDFn      func(ctx context.Context, id string) (*models.User, error)
	existsByEmailFn func(ctx context.Context, email string) (bool, error)
	createFn        func(ctx context.Context, user *models.User) error
	updateProfileFn func(ctx context.Context, user *models.User) error
}

func (m *userRepoMock) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findByEmailFn(ctx, email)
}

func (m *userRepoMock) FindByID(ctx context.Context, id string) (*models.User, error) {
	return m.findByIDFn(ctx, id)
}

func (m *userRepoMock) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.existsByEmailFn(ctx, email)
}

func (m *userRepoMock) Create(ctx context.Context, user *models.User) error {
	return m.createFn(ctx, user)
}

func (m *userRepoMock) UpdateProfile(ctx context.Context, user *models.User) error {
	return m.updateProfileFn(ctx, user)
}

func testAuthConfig() AuthConfig {
	return AuthConfig{TokenSecret: "test-secret", TokenExpiry: time.Hour, Issuer: "classhub-test"}
}

func TestAuthRegisterIssuesToken(t *testing.T) {
	repo := &userRepoMock{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) { return false, nil },
		createFn: func(ctx context.Context, user *models.User) error {
			user.ID = "user-1"
			return nil
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "Ada Teacher",
		Email:    "ada@example.com",
		Password: "secret123",
		Role:     "teacher",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleTeacher, resp.User.Role)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthRegisterRejectsUnknownRole(t *testing.T) {
	svc := NewAuthService(&userRepoMock{}, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "Eve",
		Email:    "eve@example.com",
		Password: "secret123",
		Role:     "admin",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	repo := &userRepoMock{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) { return true, nil },
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "Ada",
		Email:    "ada@example.com",
		Password: "secret123",
		Role:     "teacher",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("right-password"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &userRepoMock{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: "user-1", Email: email, PasswordHash: string(hash)}, nil
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong-password",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	repo := &userRepoMock{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateTokenRejectsTampered(t *testing.T) {
	svc := NewAuthService(&userRepoMock{}, nil, nil, testAuthConfig())
	other := NewAuthService(&userRepoMock{}, nil, nil, AuthConfig{TokenSecret: "other-secret", TokenExpiry: time.Hour})

	resp, err := other.issueToken(&models.User{ID: "user-1", Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthUpdateProfile(t *testing.T) {
	var saved *models.User
	repo := &userRepoMock{
		findByIDFn: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, FullName: "Old Name"}, nil
		},
		updateProfileFn: func(ctx context.Context, user *models.User) error {
			saved = user
			return nil
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	avatar := "/uploads/avatar-1.png"
	info, err := svc.UpdateProfile(context.Background(), "user-1", "New Name", &avatar)

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "New Name", info.FullName)
	require.NotNil(t, info.AvatarURL)
	assert.Equal(t, avatar, *info.AvatarURL)
}
