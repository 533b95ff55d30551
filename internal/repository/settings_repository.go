package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/westfield-hs/scheduler-api/internal/models"
)

// SettingsRepository provides database access for scheduling settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GradeLocks returns the per-grade submission switches. Grades without a row
// are open by default.
func (r *SettingsRepository) GradeLocks(ctx context.Context) (models.GradeLockMap, error) {
	const query = `SELECT grade_level, open FROM grade_locks`
	var rows []models.GradeLock
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list grade locks: %w", err)
	}
	locks := make(models.GradeLockMap, len(rows))
	for _, row := range rows {
		locks[row.GradeLevel] = row.Open
	}
	return locks, nil
}

// SetGradeLock opens or closes submissions for one grade level.
func (r *SettingsRepository) SetGradeLock(ctx context.Context, gradeLevel string, open bool) error {
	const query = `INSERT INTO grade_locks (grade_level, open, updated_at) VALUES ($1, $2, $3)
        ON CONFLICT (grade_level) DO UPDATE SET open = EXCLUDED.open, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, gradeLevel, open, time.Now().UTC()); err != nil {
		return fmt.Errorf("set grade lock: %w", err)
	}
	return nil
}
