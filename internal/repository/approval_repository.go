package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/westfield-hs/scheduler-api/internal/models"
)

// ApprovalRepository provides database access for gatekeeper approval rows.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository creates a new instance of ApprovalRepository.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// MapForStudent returns the student's approval rows keyed by course code.
func (r *ApprovalRepository) MapForStudent(ctx context.Context, studentID string) (map[string]models.Approval, error) {
	const query = `SELECT id, student_id, course_code, status, teacher_email, note, updated_at FROM approvals WHERE student_id = $1`
	var rows []models.Approval
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("map approvals: %w", err)
	}
	result := make(map[string]models.Approval, len(rows))
	for _, row := range rows {
		result[row.CourseCode] = row
	}
	return result, nil
}

// MapAll returns every approval row keyed by student then course code.
func (r *ApprovalRepository) MapAll(ctx context.Context) (map[string]map[string]models.Approval, error) {
	const query = `SELECT id, student_id, course_code, status, teacher_email, note, updated_at FROM approvals`
	var rows []models.Approval
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("map all approvals: %w", err)
	}
	result := make(map[string]map[string]models.Approval)
	for _, row := range rows {
		byCourse, ok := result[row.StudentID]
		if !ok {
			byCourse = make(map[string]models.Approval)
			result[row.StudentID] = byCourse
		}
		byCourse[row.CourseCode] = row
	}
	return result, nil
}

// DeleteUnselected drops approval rows for courses no longer on the student's
// schedule. An empty selection removes every row.
func (r *ApprovalRepository) DeleteUnselected(ctx context.Context, studentID string, selectedCodes []string) error {
	const query = `DELETE FROM approvals WHERE student_id = $1 AND NOT (course_code = ANY($2))`
	if _, err := r.db.ExecContext(ctx, query, studentID, pq.Array(selectedCodes)); err != nil {
		return fmt.Errorf("delete unselected approvals: %w", err)
	}
	return nil
}

// EnsurePending inserts a pending row per gated selection, leaving existing
// rows (and their dispositions) untouched.
func (r *ApprovalRepository) EnsurePending(ctx context.Context, rows []models.Approval) error {
	const query = `INSERT INTO approvals (id, student_id, course_code, status, teacher_email, note, updated_at)
        VALUES (:id, :student_id, :course_code, :status, :teacher_email, :note, :updated_at)
        ON CONFLICT (student_id, course_code) DO NOTHING`
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if rows[i].Status == "" {
			rows[i].Status = models.ApprovalPending
		}
		rows[i].UpdatedAt = time.Now().UTC()
		if _, err := r.db.NamedExecContext(ctx, query, rows[i]); err != nil {
			return fmt.Errorf("ensure pending approval: %w", err)
		}
	}
	return nil
}

// SetStatus records a gatekeeper disposition, creating the row if the
// reconciler has not seen the selection yet.
func (r *ApprovalRepository) SetStatus(ctx context.Context, approval *models.Approval) error {
	if approval.ID == "" {
		approval.ID = uuid.NewString()
	}
	approval.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO approvals (id, student_id, course_code, status, teacher_email, note, updated_at)
        VALUES (:id, :student_id, :course_code, :status, :teacher_email, :note, :updated_at)
        ON CONFLICT (student_id, course_code) DO UPDATE SET
            status = EXCLUDED.status,
            teacher_email = EXCLUDED.teacher_email,
            note = EXCLUDED.note,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, approval); err != nil {
		return fmt.Errorf("set approval status: %w", err)
	}
	return nil
}

// DeleteByStudent removes every approval row for one student. Used by the
// schedule reset, which clears gatekeeper state along with selections.
func (r *ApprovalRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	const query = `DELETE FROM approvals WHERE student_id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID); err != nil {
		return fmt.Errorf("delete approvals by student: %w", err)
	}
	return nil
}

// DeleteByCourse removes every approval row for a course, across all
// students. Used when the course leaves the catalog.
func (r *ApprovalRepository) DeleteByCourse(ctx context.Context, courseCode string) error {
	const query = `DELETE FROM approvals WHERE course_code = $1`
	if _, err := r.db.ExecContext(ctx, query, courseCode); err != nil {
		return fmt.Errorf("delete approvals by course: %w", err)
	}
	return nil
}

// ListPending returns the counselor's queue of undecided gated selections,
// grouped by course then student.
func (r *ApprovalRepository) ListPending(ctx context.Context) ([]models.PendingApproval, error) {
	const query = `SELECT a.student_id, st.full_name AS student_name, st.grade_level, a.course_code, c.name AS course_name, a.teacher_email, a.updated_at
        FROM approvals a
        JOIN students st ON st.id = a.student_id
        JOIN courses c ON c.code = a.course_code
        WHERE a.status = 'pending'
        ORDER BY c.name, st.full_name`
	var rows []models.PendingApproval
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	return rows, nil
}

// CountsForStudent summarises a student's outstanding gatekeeper work.
func (r *ApprovalRepository) CountsForStudent(ctx context.Context, studentID string) (models.ApprovalCounts, error) {
	const query = `SELECT COUNT(*) FILTER (WHERE status = 'pending') AS pending,
               COUNT(*) FILTER (WHERE status = 'rejected') AS rejected
        FROM approvals WHERE student_id = $1`
	var counts struct {
		Pending  int `db:"pending"`
		Rejected int `db:"rejected"`
	}
	if err := r.db.GetContext(ctx, &counts, query, studentID); err != nil {
		return models.ApprovalCounts{}, fmt.Errorf("count approvals: %w", err)
	}
	return models.ApprovalCounts{Pending: counts.Pending, Rejected: counts.Rejected}, nil
}
