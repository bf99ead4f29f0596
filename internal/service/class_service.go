package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/models"
	"github.com/classhub/classhub-api/internal/repository"
	"github.com/classhub/classhub-api/internal/schedule"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
)

const codeGenerationAttempts = 5

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
	Create(ctx context.Context, class *models.Class) error
	UpdateRevisioned(ctx context.Context, class *models.Class, expected int) (bool, error)
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
	ListStudents(ctx context.Context, classID string) ([]models.ClassStudent, error)
}

type announcementCleaner interface {
	DeleteByClass(ctx context.Context, classID string) error
}

// ClassListResult is the paginated list payload.
type ClassListResult struct {
	Classes    []models.Class    `json:"classes"`
	Pagination models.Pagination `json:"pagination"`
}

// ClassService implements class CRUD with schedule validation, ownership
// checks and revision-aware updates.
type ClassService struct {
	repo          classRepository
	announcements announcementCleaner
	cache         *CacheService
	codec         schedule.Codec
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewClassService constructs a ClassService. strictParse selects whether
// malformed schedule strings are rejected or repaired with defaults.
func NewClassService(repo classRepository, announcements announcementCleaner, cache *CacheService, strictParse bool, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = NewCacheService(nil, 0, false, logger)
	}
	mode := schedule.Lenient
	if strictParse {
		mode = schedule.Strict
	}
	return &ClassService{
		repo:          repo,
		announcements: announcements,
		cache:         cache,
		codec:         schedule.Codec{Mode: mode},
		validator:     validate,
		logger:        logger,
	}
}

// List returns classes matching the filter, serving from cache when possible.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) (*ClassListResult, error) {
	key := ClassListKey(filter)
	var cached ClassListResult
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	if classes == nil {
		classes = []models.Class{}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	result := &ClassListResult{
		Classes:    classes,
		Pagination: models.Pagination{Page: page, PageSize: size, TotalCount: total},
	}
	s.cache.Set(ctx, key, result)
	return result, nil
}

// Get returns a class detail by ID.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	key := ClassKey(id)
	var cached models.ClassDetail
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	s.cache.Set(ctx, key, detail)
	return detail, nil
}

// Create validates the payload and schedule, then persists a new class owned
// by teacherID. Nothing is written when validation fails.
func (s *ClassService) Create(ctx context.Context, teacherID string, req models.CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	set, err := s.resolveSchedule(req.Schedule)
	if err != nil {
		return nil, err
	}

	class := &models.Class{
		Name:        req.Name,
		Subject:     req.Subject,
		Description: req.Description,
		Schedule:    set,
		Code:        NormalizeJoinCode(req.Code),
		TeacherID:   teacherID,
		Revision:    0,
	}

	if class.Code != "" {
		if err := s.repo.Create(ctx, class); err != nil {
			if repository.IsUniqueViolation(err, "code") {
				return nil, appErrors.Clone(appErrors.ErrDuplicateCode, "")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
		}
	} else {
		// Generated codes can collide; retry with a fresh code.
		var createErr error
		for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
			class.Code = generateJoinCode()
			createErr = s.repo.Create(ctx, class)
			if createErr == nil {
				break
			}
			if !repository.IsUniqueViolation(createErr, "code") {
				return nil, appErrors.Wrap(createErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
			}
		}
		if createErr != nil {
			return nil, appErrors.Clone(appErrors.ErrDuplicateCode, "could not allocate a unique class code")
		}
	}

	s.cache.InvalidateClasses(ctx)
	s.logger.Info("class created",
		zap.String("class_id", class.ID),
		zap.String("teacher_id", teacherID))
	return class, nil
}

// Update applies a partial update after checking, in order, that the class
// exists, that the caller owns it, and that the merged payload is valid.
func (s *ClassService) Update(ctx context.Context, callerID, id string, req models.UpdateClassRequest) (*models.Class, error) {
	class, err := s.loadOwned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	if req.Name != nil {
		class.Name = *req.Name
	}
	if req.Subject != nil {
		class.Subject = *req.Subject
	}
	if req.Description != nil {
		class.Description = *req.Description
	}
	if req.Code != nil {
		class.Code = NormalizeJoinCode(*req.Code)
	}
	if req.Schedule != nil {
		set, err := s.resolveSchedule(*req.Schedule)
		if err != nil {
			return nil, err
		}
		class.Schedule = set
	}

	if req.Revision != nil {
		ok, err := s.repo.UpdateRevisioned(ctx, class, *req.Revision)
		if err != nil {
			if repository.IsUniqueViolation(err, "code") {
				return nil, appErrors.Clone(appErrors.ErrDuplicateCode, "")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
		}
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "class was modified by another request")
		}
	} else {
		if err := s.repo.Update(ctx, class); err != nil {
			if repository.IsUniqueViolation(err, "code") {
				return nil, appErrors.Clone(appErrors.ErrDuplicateCode, "")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
		}
	}

	s.cache.InvalidateClasses(ctx)
	return class, nil
}

// Delete removes a class, its announcements, and via FK cascade its roster.
func (s *ClassService) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.loadOwned(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.announcements.DeleteByClass(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class announcements")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}

	s.cache.InvalidateClasses(ctx)
	s.logger.Info("class deleted", zap.String("class_id", id), zap.String("teacher_id", callerID))
	return nil
}

// Students returns the roster of a class owned by the caller.
func (s *ClassService) Students(ctx context.Context, callerID, id string) ([]models.ClassStudent, error) {
	if _, err := s.loadOwned(ctx, callerID, id); err != nil {
		return nil, err
	}
	students, err := s.repo.ListStudents(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.ClassStudent{}
	}
	return students, nil
}

// loadOwned fetches the class and enforces ownership. Existence is checked
// before ownership so a missing class is reported as not found, not as an
// authorization failure.
func (s *ClassService) loadOwned(ctx context.Context, callerID, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.TeacherID != callerID {
		return nil, appErrors.Clone(appErrors.ErrNotAuthorized, "")
	}
	return class, nil
}

// resolveSchedule converts the wire value into a structured set and runs the
// overlap validator, mapping violations onto a validation error payload.
func (s *ClassService) resolveSchedule(in schedule.Input) (schedule.Set, error) {
	set, err := s.codec.Resolve(in)
	if err != nil {
		var verr *schedule.ValidationError
		if errors.As(err, &verr) {
			return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid schedule"), verr.Violations)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule")
	}
	if violations := schedule.Validate(set); len(violations) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid schedule"), violations)
	}
	return set, nil
}

// NormalizeJoinCode canonicalises a join code to its stored form. Codes are
// persisted and looked up in this form so the exact-match code lookup behaves
// case-insensitively for clients.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// generateJoinCode produces a join code of the form CLS plus six digits.
func generateJoinCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(fmt.Sprintf("join code entropy: %v", err))
	}
	digits := make([]byte, 6)
	for i, b := range buf {
		digits[i] = '0' + b%10
	}
	return "CLS" + string(digits)
}
