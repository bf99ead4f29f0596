package models

import "time"

// Announcement represents a persisted class announcement.
type Announcement struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Important bool      `db:"important" json:"important"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AnnouncementDetail includes the author display name for responses.
type AnnouncementDetail struct {
	Announcement
	AuthorName string `db:"author_name" json:"author_name"`
}

// CreateAnnouncementRequest is the payload for posting an announcement.
type CreateAnnouncementRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	Content   string `json:"content" validate:"required"`
	Important bool   `json:"important"`
}

// UpdateAnnouncementRequest is a partial announcement update.
type UpdateAnnouncementRequest struct {
	Title     *string `json:"title" validate:"omitempty,max=200"`
	Content   *string `json:"content"`
	Important *bool   `json:"important"`
}

// AnnouncementFilter allows listing a class's announcements.
type AnnouncementFilter struct {
	ClassID  string
	Page     int
	PageSize int
}
