package models

import (
	"time"

	"github.com/classhub/classhub-api/internal/schedule"
)

// Class represents a class owned by a teacher. The schedule column is JSONB;
// legacy rows may still hold the free-text string form, which the
// schedule.Set scanner migrates on read so every outward-facing class carries
// the structured array.
type Class struct {
	ID          string       `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	Subject     string       `db:"subject" json:"subject"`
	Description string       `db:"description" json:"description"`
	Schedule    schedule.Set `db:"schedule" json:"schedule"`
	Code        string       `db:"code" json:"code"`
	TeacherID   string       `db:"teacher_id" json:"teacher_id"`
	Revision    int          `db:"revision" json:"revision"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with joined teacher info and the roster size.
type ClassDetail struct {
	Class
	TeacherName  string `db:"teacher_name" json:"teacher_name"`
	StudentCount int    `db:"student_count" json:"student_count"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	TeacherID string
	Subject   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateClassRequest is the payload for creating a class. Schedule accepts
// either the structured entry array or the legacy free-text string.
type CreateClassRequest struct {
	Name        string         `json:"name" validate:"required,max=120"`
	Subject     string         `json:"subject" validate:"required,max=80"`
	Description string         `json:"description" validate:"max=2000"`
	Schedule    schedule.Input `json:"schedule"`
	Code        string         `json:"code" validate:"omitempty,min=4,max=16"`
}

// UpdateClassRequest is a partial update. Nil fields are left untouched.
// When Revision is set the update only applies if the stored revision still
// matches, otherwise the request fails with a precondition error.
type UpdateClassRequest struct {
	Name        *string         `json:"name" validate:"omitempty,max=120"`
	Subject     *string         `json:"subject" validate:"omitempty,max=80"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Schedule    *schedule.Input `json:"schedule"`
	Code        *string         `json:"code" validate:"omitempty,min=4,max=16"`
	Revision    *int            `json:"revision"`
}

// ClassStudent is one enrolled student on a class roster.
type ClassStudent struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	JoinedAt  time.Time `db:"joined_at" json:"joined_at"`
}
