package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/models"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
)

type enrollmentRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Class, error)
	IsEnrolled(ctx context.Context, classID, studentID string) (bool, error)
	AddStudent(ctx context.Context, classID, studentID string) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Class, error)
}

// EnrollmentService handles students joining classes by code and listing
// their enrollments.
type EnrollmentService struct {
	repo   enrollmentRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, cache *CacheService, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = NewCacheService(nil, 0, false, logger)
	}
	return &EnrollmentService{repo: repo, cache: cache, logger: logger}
}

// Join enrolls the student into the class carrying the given code. Codes are
// canonicalised the same way the class service stores them, so the lookup is
// effectively case-insensitive; joining a class twice is a conflict.
func (s *EnrollmentService) Join(ctx context.Context, studentID, code string) (*models.Class, error) {
	code = NormalizeJoinCode(code)
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class code is required")
	}

	class, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no class with that code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up class code")
	}

	if class.TeacherID == studentID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot join a class you teach")
	}

	enrolled, err := s.repo.IsEnrolled(ctx, class.ID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if enrolled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in this class")
	}

	if err := s.repo.AddStudent(ctx, class.ID, studentID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to join class")
	}

	s.cache.InvalidateClasses(ctx)
	s.logger.Info("student joined class",
		zap.String("class_id", class.ID),
		zap.String("student_id", studentID))
	return class, nil
}

// ListMine returns the classes the student has joined.
func (s *EnrollmentService) ListMine(ctx context.Context, studentID string) ([]models.Class, error) {
	classes, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled classes")
	}
	if classes == nil {
		classes = []models.Class{}
	}
	return classes, nil
}
