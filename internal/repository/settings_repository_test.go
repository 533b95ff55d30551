package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepositoryGradeLocks(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	rows := sqlmock.NewRows([]string{"grade_level", "open"}).
		AddRow("9", true).
		AddRow("10", false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT grade_level, open FROM grade_locks")).
		WillReturnRows(rows)

	locks, err := repo.GradeLocks(context.Background())
	require.NoError(t, err)
	assert.True(t, locks.CanSubmit("9"))
	assert.False(t, locks.CanSubmit("10"))
	// Grades without a row default to open.
	assert.True(t, locks.CanSubmit("12"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositorySetGradeLock(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectExec("INSERT INTO grade_locks").
		WithArgs("10", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetGradeLock(context.Background(), "10", false))
	assert.NoError(t, mock.ExpectationsWereMet())
}
