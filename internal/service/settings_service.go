package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/westfield-hs/scheduler-api/internal/models"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
)

type settingsRepository interface {
	GradeLocks(ctx context.Context) (models.GradeLockMap, error)
	SetGradeLock(ctx context.Context, gradeLevel string, open bool) error
}

// SettingsService manages the per-grade submission switches.
type SettingsService struct {
	repo   settingsRepository
	audit  auditRecorder
	logger *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsRepository, audit auditRecorder, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, audit: audit, logger: logger}
}

// GradeLocks returns the current submission switches.
func (s *SettingsService) GradeLocks(ctx context.Context) (models.GradeLockMap, error) {
	locks, err := s.repo.GradeLocks(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade locks")
	}
	return locks, nil
}

// SetGradeLock opens or closes schedule submissions for one grade level.
func (s *SettingsService) SetGradeLock(ctx context.Context, actor *models.JWTClaims, gradeLevel string, open bool) error {
	if gradeLevel == "" {
		return appErrors.Clone(appErrors.ErrValidation, "grade level is required")
	}
	if err := s.repo.SetGradeLock(ctx, gradeLevel, open); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set grade lock")
	}

	if s.audit != nil {
		raw, _ := json.Marshal(models.GradeLock{GradeLevel: gradeLevel, Open: open})
		resource := fmt.Sprintf("grade:%s", gradeLevel)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionGradeLockSet,
			Resource:   "settings",
			ResourceID: &resource,
			NewValues:  raw,
		}); err != nil {
			s.logger.Warn("failed to record grade lock audit log", zap.Error(err))
		}
	}
	return nil
}
