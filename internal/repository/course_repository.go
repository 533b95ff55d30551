package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/westfield-hs/scheduler-api/internal/models"
)

// CourseRepository manages persistence for the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, code, name, subject_area, level, description, teacher_name, teacher_email, room, grade_min, grade_max, requires_approval, created_at, updated_at`

// List returns catalog courses matching the filter. Grade restricts to
// courses whose grade range contains it; subject and name match as
// case-insensitive substrings (name also searches the course code).
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Grade > 0 {
		conditions = append(conditions, fmt.Sprintf("grade_min <= $%d AND grade_max >= $%d", len(args)+1, len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(subject_area) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Subject)+"%")
	}
	if filter.Name != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name || ' ' || code) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.TeacherEmail != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(teacher_email) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.TeacherEmail))
	}

	query := fmt.Sprintf("SELECT %s FROM courses WHERE %s ORDER BY name, code", courseColumns, strings.Join(conditions, " AND "))

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByCode returns the course with the given code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE code = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// MapByCodes returns the subset of the catalog keyed by course code.
func (r *CourseRepository) MapByCodes(ctx context.Context, codes []string) (map[string]models.Course, error) {
	result := make(map[string]models.Course, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	query := fmt.Sprintf("SELECT %s FROM courses WHERE code = ANY($1)", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("map courses by code: %w", err)
	}
	for _, course := range courses {
		result[course.Code] = course
	}
	return result, nil
}

// Create persists a new catalog course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, code, name, subject_area, level, description, teacher_name, teacher_email, room, grade_min, grade_max, requires_approval, created_at, updated_at)
        VALUES (:id, :code, :name, :subject_area, :level, :description, :teacher_name, :teacher_email, :room, :grade_min, :grade_max, :requires_approval, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, subject_area = :subject_area, level = :level, description = :description,
        teacher_name = :teacher_name, teacher_email = :teacher_email, room = :room, grade_min = :grade_min, grade_max = :grade_max,
        requires_approval = :requires_approval, updated_at = :updated_at WHERE code = :code`
	result, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateDescription changes only the description, used by the owning teacher.
func (r *CourseRepository) UpdateDescription(ctx context.Context, code, description string) error {
	const query = `UPDATE courses SET description = $2, updated_at = $3 WHERE code = $1`
	result, err := r.db.ExecContext(ctx, query, code, description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update course description: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a course from the catalog.
func (r *CourseRepository) Delete(ctx context.Context, code string) error {
	const query = `DELETE FROM courses WHERE code = $1`
	if _, err := r.db.ExecContext(ctx, query, code); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
