package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westfield-hs/scheduler-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func courseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "name", "subject_area", "level", "description", "teacher_name", "teacher_email", "room", "grade_min", "grade_max", "requires_approval", "created_at", "updated_at"})
}

func TestCourseRepositoryListFiltersByGradeRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := courseRows().
		AddRow("1", "ALG1", "Algebra I", "Math", "regular", "", "R. Moses", "moses@whs.edu", "101", 9, 10, false, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE 1=1 AND grade_min <= $1 AND grade_max >= $1 ORDER BY name, code")).
		WithArgs(10).
		WillReturnRows(rows)

	courses, err := repo.List(context.Background(), models.CourseFilter{Grade: 10})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Algebra I (ALG1)", courses[0].DisplayLabel())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListCombinesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND LOWER(subject_area) LIKE $1 AND LOWER(name || ' ' || code) LIKE $2")).
		WithArgs("%math%", "%algebra%").
		WillReturnRows(courseRows())

	_, err := repo.List(context.Background(), models.CourseFilter{Subject: "Math", Name: "Algebra"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryMapByCodesEmptyShortCircuits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	result, err := repo.MapByCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateDescription(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET description = $2, updated_at = $3 WHERE code = $1")).
		WithArgs("ALG1", "Covers linear equations.", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateDescription(context.Background(), "ALG1", "Covers linear equations."))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateDescriptionUnknownCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("UPDATE courses SET description").
		WithArgs("NOPE", "text", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateDescription(context.Background(), "NOPE", "text")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
