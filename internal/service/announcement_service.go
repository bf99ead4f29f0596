package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/models"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
)

type announcementRepository interface {
	ListByClass(ctx context.Context, filter models.AnnouncementFilter) ([]models.AnnouncementDetail, int, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

type announcementClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	IsEnrolled(ctx context.Context, classID, studentID string) (bool, error)
}

// AnnouncementListResult is the paginated announcement payload.
type AnnouncementListResult struct {
	Announcements []models.AnnouncementDetail `json:"announcements"`
	Pagination    models.Pagination           `json:"pagination"`
}

// AnnouncementService manages class announcements. Posting is restricted to
// the owning teacher; reading requires owning or being enrolled in the class.
type AnnouncementService struct {
	repo      announcementRepository
	classes   announcementClassRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs an AnnouncementService.
func NewAnnouncementService(repo announcementRepository, classes announcementClassRepository, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// ListByClass returns a class's announcements, newest first.
func (s *AnnouncementService) ListByClass(ctx context.Context, callerID, classID string, page, pageSize int) (*AnnouncementListResult, error) {
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, class, callerID); err != nil {
		return nil, err
	}

	filter := models.AnnouncementFilter{ClassID: classID, Page: page, PageSize: pageSize}
	announcements, total, err := s.repo.ListByClass(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	if announcements == nil {
		announcements = []models.AnnouncementDetail{}
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &AnnouncementListResult{
		Announcements: announcements,
		Pagination:    models.Pagination{Page: page, PageSize: pageSize, TotalCount: total},
	}, nil
}

// Create posts an announcement to a class the caller teaches.
func (s *AnnouncementService) Create(ctx context.Context, callerID, classID string, req models.CreateAnnouncementRequest) (*models.Announcement, error) {
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.TeacherID != callerID {
		return nil, appErrors.Clone(appErrors.ErrNotAuthorized, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}

	announcement := &models.Announcement{
		ClassID:   classID,
		AuthorID:  callerID,
		Title:     req.Title,
		Content:   req.Content,
		Important: req.Important,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	return announcement, nil
}

// Update patches an announcement. Only the author may update it.
func (s *AnnouncementService) Update(ctx context.Context, callerID, id string, req models.UpdateAnnouncementRequest) (*models.Announcement, error) {
	announcement, err := s.loadAuthored(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}

	if req.Title != nil {
		announcement.Title = *req.Title
	}
	if req.Content != nil {
		announcement.Content = *req.Content
	}
	if req.Important != nil {
		announcement.Important = *req.Important
	}

	if err := s.repo.Update(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}
	return announcement, nil
}

// Delete removes an announcement. Only the author may delete it.
func (s *AnnouncementService) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.loadAuthored(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	return nil
}

func (s *AnnouncementService) loadClass(ctx context.Context, classID string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func (s *AnnouncementService) loadAuthored(ctx context.Context, callerID, id string) (*models.Announcement, error) {
	announcement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	if announcement.AuthorID != callerID {
		return nil, appErrors.Clone(appErrors.ErrNotAuthorized, "")
	}
	return announcement, nil
}

func (s *AnnouncementService) requireMember(ctx context.Context, class *models.Class, callerID string) error {
	if class.TeacherID == callerID {
		return nil
	}
	enrolled, err := s.classes.IsEnrolled(ctx, class.ID, callerID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return appErrors.Clone(appErrors.ErrNotAuthorized, "")
	}
	return nil
}
