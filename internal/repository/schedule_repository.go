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

// ScheduleRepository provides database access for student schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new instance of ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, student_id, student_name, grade_level, academic_courses, elective_courses, special_instructions, reviewed, created_at, updated_at`

// FindByStudent returns the schedule row for one student.
func (r *ScheduleRepository) FindByStudent(ctx context.Context, studentID string) (*models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE student_id = $1 LIMIT 1", scheduleColumns)
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find schedule: %w", err)
	}
	return &schedule, nil
}

// ListAll returns every schedule row. Used for per-teacher roster projection,
// where membership is derived from the stored selection labels.
func (r *ScheduleRepository) ListAll(ctx context.Context) ([]models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules ORDER BY student_name, student_id", scheduleColumns)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// Upsert writes the schedule row for a student, creating it on first save.
// The reviewed flag is deliberately not touched here; sign-off state moves
// only through SetReviewed.
func (r *ScheduleRepository) Upsert(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO schedules (id, student_id, student_name, grade_level, academic_courses, elective_courses, special_instructions, reviewed, created_at, updated_at)
        VALUES (:id, :student_id, :student_name, :grade_level, :academic_courses, :elective_courses, :special_instructions, FALSE, :created_at, :updated_at)
        ON CONFLICT (student_id) DO UPDATE SET
            student_name = EXCLUDED.student_name,
            grade_level = EXCLUDED.grade_level,
            academic_courses = EXCLUDED.academic_courses,
            elective_courses = EXCLUDED.elective_courses,
            special_instructions = EXCLUDED.special_instructions,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

// SetReviewed flips the counselor sign-off flag.
func (r *ScheduleRepository) SetReviewed(ctx context.Context, studentID string, reviewed bool) error {
	const query = `UPDATE schedules SET reviewed = $2, updated_at = $3 WHERE student_id = $1`
	result, err := r.db.ExecContext(ctx, query, studentID, reviewed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set reviewed: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a student's schedule row entirely.
func (r *ScheduleRepository) Delete(ctx context.Context, studentID string) error {
	const query = `DELETE FROM schedules WHERE student_id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

type rosterRow struct {
	StudentID           string         `db:"student_id"`
	StudentName         string         `db:"student_name"`
	GradeLevel          string         `db:"grade_level"`
	AcademicCourses     pq.StringArray `db:"academic_courses"`
	ElectiveCourses     pq.StringArray `db:"elective_courses"`
	SpecialInstructions string         `db:"special_instructions"`
	Scheduled           bool           `db:"scheduled"`
	Reviewed            bool           `db:"reviewed"`
	Pending             int            `db:"pending"`
	Rejected            int            `db:"rejected"`
}

// Roster lists every student with their schedule summary and approval counts,
// in enrollment order, restricted by the counselor filter. Name and course
// match as case-insensitive substrings; the course filter searches the stored
// selection labels of both categories.
func (r *ScheduleRepository) Roster(ctx context.Context, filter models.RosterFilter) ([]models.RosterEntry, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Name != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(st.full_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("st.grade_level = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Course != "" {
		conditions = append(conditions, fmt.Sprintf(
			"LOWER(array_to_string(COALESCE(sc.academic_courses, '{}') || COALESCE(sc.elective_courses, '{}'), ' ')) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Course)+"%")
	}

	query := fmt.Sprintf(`SELECT st.id AS student_id, st.full_name AS student_name, st.grade_level,
            COALESCE(sc.academic_courses, '{}') AS academic_courses,
            COALESCE(sc.elective_courses, '{}') AS elective_courses,
            COALESCE(sc.special_instructions, '') AS special_instructions,
            (sc.id IS NOT NULL) AS scheduled,
            COALESCE(sc.reviewed, FALSE) AS reviewed,
            COALESCE(ap.pending, 0) AS pending,
            COALESCE(ap.rejected, 0) AS rejected
        FROM students st
        LEFT JOIN schedules sc ON sc.student_id = st.id
        LEFT JOIN LATERAL (
            SELECT COUNT(*) FILTER (WHERE a.status = 'pending') AS pending,
                   COUNT(*) FILTER (WHERE a.status = 'rejected') AS rejected
            FROM approvals a WHERE a.student_id = st.id
        ) ap ON TRUE
        WHERE %s
        ORDER BY st.created_at, st.id`, strings.Join(conditions, " AND "))

	var rows []rosterRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}

	entries := make([]models.RosterEntry, 0, len(rows))
	for _, row := range rows {
		entry := models.RosterEntry{
			StudentID:           row.StudentID,
			StudentName:         row.StudentName,
			GradeLevel:          row.GradeLevel,
			AcademicCourses:     row.AcademicCourses,
			Scheduled:           row.Scheduled,
			Reviewed:            row.Reviewed,
			PendingApprovals:    row.Pending,
			RejectedApprovals:   row.Rejected,
			SpecialInstructions: row.SpecialInstructions,
		}
		if len(row.ElectiveCourses) > 0 {
			entry.TopElective = row.ElectiveCourses[0]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
