package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/classhub/classhub-api/internal/models"
)

// ClassRepository manages persistence for classes and their rosters.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes matching filter criteria.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	base := "FROM classes WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(subject) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d)", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"subject":    true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, subject, description, schedule, code, teacher_id, revision, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID returns a class record by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, subject, description, schedule, code, teacher_id, revision, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindDetailByID returns the class with teacher name and roster size.
func (r *ClassRepository) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	const query = `SELECT c.id, c.name, c.subject, c.description, c.schedule, c.code, c.teacher_id, c.revision, c.created_at, c.updated_at,
u.full_name AS teacher_name,
(SELECT COUNT(*) FROM class_students cs WHERE cs.class_id = c.id) AS student_count
FROM classes c JOIN users u ON u.id = c.teacher_id WHERE c.id = $1`
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByCode returns the class carrying the given join code.
func (r *ClassRepository) FindByCode(ctx context.Context, code string) (*models.Class, error) {
	const query = `SELECT id, name, subject, description, schedule, code, teacher_id, revision, created_at, updated_at FROM classes WHERE code = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, code); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create persists a class record. The unique constraint on code surfaces as
// a duplicate-code error detectable via IsUniqueViolation.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO classes (id, name, subject, description, schedule, code, teacher_id, revision, created_at, updated_at)
VALUES (:id, :name, :subject, :description, :schedule, :code, :teacher_id, :revision, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update rewrites a class record unconditionally, bumping its revision.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	class.Revision++
	const query = `UPDATE classes SET name = :name, subject = :subject, description = :description, schedule = :schedule, code = :code, revision = :revision, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		class.Revision--
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// UpdateRevisioned applies the update only when the stored revision still
// matches expected. Returns false when another writer got there first.
func (r *ClassRepository) UpdateRevisioned(ctx context.Context, class *models.Class, expected int) (bool, error) {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = $1, subject = $2, description = $3, schedule = $4, code = $5, revision = revision + 1, updated_at = $6 WHERE id = $7 AND revision = $8`
	scheduleValue, err := class.Schedule.Value()
	if err != nil {
		return false, fmt.Errorf("encode schedule: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, class.Name, class.Subject, class.Description, scheduleValue, class.Code, class.UpdatedAt, class.ID, expected)
	if err != nil {
		return false, fmt.Errorf("update class (revision %d): %w", expected, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update class rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	class.Revision = expected + 1
	return true, nil
}

// Delete removes a class record. Enrollment rows go with it via FK cascade.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

// ListStudents returns the enrolled students for a class.
func (r *ClassRepository) ListStudents(ctx context.Context, classID string) ([]models.ClassStudent, error) {
	const query = `SELECT u.id, u.full_name, u.email, cs.joined_at
FROM class_students cs JOIN users u ON u.id = cs.student_id
WHERE cs.class_id = $1 ORDER BY cs.joined_at ASC`
	var students []models.ClassStudent
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}

// ListByStudent returns the classes a student has joined.
func (r *ClassRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Class, error) {
	const query = `SELECT c.id, c.name, c.subject, c.description, c.schedule, c.code, c.teacher_id, c.revision, c.created_at, c.updated_at
FROM classes c JOIN class_students cs ON cs.class_id = c.id
WHERE cs.student_id = $1 ORDER BY cs.joined_at DESC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, studentID); err != nil {
		return nil, fmt.Errorf("list classes by student: %w", err)
	}
	return classes, nil
}

// IsEnrolled reports whether the student already joined the class.
func (r *ClassRepository) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM class_students WHERE class_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, classID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// AddStudent enrolls a student into a class.
func (r *ClassRepository) AddStudent(ctx context.Context, classID, studentID string) error {
	const query = `INSERT INTO class_students (class_id, student_id, joined_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, classID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add class student: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err stems from a Postgres unique
// constraint, optionally narrowed to a constraint name fragment.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || strings.Contains(pqErr.Constraint, constraint)
}
