package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classhub/classhub-api/internal/models"
)

// AnnouncementRepository provides persistence for class announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// ListByClass returns a class's announcements, newest first.
func (r *AnnouncementRepository) ListByClass(ctx context.Context, filter models.AnnouncementFilter) ([]models.AnnouncementDetail, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.class_id, a.author_id, a.title, a.content, a.important, a.created_at, a.updated_at, u.full_name AS author_name
FROM announcements a JOIN users u ON u.id = a.author_id
WHERE a.class_id = $1 ORDER BY a.created_at DESC LIMIT %d OFFSET %d`, size, offset)
	var announcements []models.AnnouncementDetail
	if err := r.db.SelectContext(ctx, &announcements, query, filter.ClassID); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM announcements WHERE class_id = $1`, filter.ClassID); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return announcements, total, nil
}

// GetByID returns an announcement by identifier.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	const query = `SELECT id, class_id, author_id, title, content, important, created_at, updated_at FROM announcements WHERE id = $1`
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, id); err != nil {
		return nil, err
	}
	return &announcement, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = now
	}
	announcement.UpdatedAt = now
	const query = `INSERT INTO announcements (id, class_id, author_id, title, content, important, created_at, updated_at)
VALUES (:id, :class_id, :author_id, :title, :content, :important, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update modifies an existing announcement.
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	announcement.UpdatedAt = time.Now().UTC()
	const query = `UPDATE announcements SET title = :title, content = :content, important = :important, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	return nil
}

// Delete removes an announcement.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return nil
}

// DeleteByClass removes every announcement attached to the class. Called by
// the class delete path so removing a class does not strand its posts.
func (r *AnnouncementRepository) DeleteByClass(ctx context.Context, classID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE class_id = $1`, classID); err != nil {
		return fmt.Errorf("delete class announcements: %w", err)
	}
	return nil
}
