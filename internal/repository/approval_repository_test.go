package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westfield-hs/scheduler-api/internal/models"
)

func TestApprovalRepositoryMapForStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_code", "status", "teacher_email", "note", "updated_at"}).
		AddRow("ap-1", "stu-1", "CHEM-AP", "pending", "curie@whs.edu", "", time.Now()).
		AddRow("ap-2", "stu-1", "CALC-AP", "rejected", "newton@whs.edu", "missing prerequisite", time.Now())
	mock.ExpectQuery("FROM approvals WHERE student_id").
		WithArgs("stu-1").
		WillReturnRows(rows)

	approvals, err := repo.MapForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, approvals, 2)
	assert.Equal(t, models.ApprovalRejected, approvals["CALC-AP"].Status)
	assert.Equal(t, "missing prerequisite", approvals["CALC-AP"].Note)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryDeleteUnselected(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM approvals WHERE student_id = $1 AND NOT (course_code = ANY($2))")).
		WithArgs("stu-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteUnselected(context.Background(), "stu-1", []string{"CHEM-AP"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryEnsurePendingDefaultsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectExec("INSERT INTO approvals").
		WithArgs(sqlmock.AnyArg(), "stu-1", "CHEM-AP", "pending", "curie@whs.edu", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows := []models.Approval{{StudentID: "stu-1", CourseCode: "CHEM-AP", TeacherEmail: "curie@whs.edu"}}
	require.NoError(t, repo.EnsurePending(context.Background(), rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositorySetStatusUpserts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectExec("INSERT INTO approvals").
		WithArgs(sqlmock.AnyArg(), "stu-1", "CHEM-AP", "approved", "curie@whs.edu", "welcome aboard", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	approval := &models.Approval{
		StudentID:    "stu-1",
		CourseCode:   "CHEM-AP",
		Status:       models.ApprovalApproved,
		TeacherEmail: "curie@whs.edu",
		Note:         "welcome aboard",
	}
	require.NoError(t, repo.SetStatus(context.Background(), approval))
	assert.NotEmpty(t, approval.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryListPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "student_name", "grade_level", "course_code", "course_name", "teacher_email", "updated_at"}).
		AddRow("stu-1", "Ada Lovelace", "10", "CHEM-AP", "AP Chemistry", "curie@whs.edu", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.status = 'pending'")).
		WillReturnRows(rows)

	pending, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "AP Chemistry", pending[0].CourseName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryCountsForStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectQuery("FROM approvals WHERE student_id").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"pending", "rejected"}).AddRow(2, 1))

	counts, err := repo.CountsForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalCounts{Pending: 2, Rejected: 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
