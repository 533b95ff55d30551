package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/westfield-hs/scheduler-api/internal/models"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
)

const rosterCachePattern = "roster:*"

type rosterRepository interface {
	Roster(ctx context.Context, filter models.RosterFilter) ([]models.RosterEntry, error)
}

// RosterService serves the counselor roster listing and resolves neighbor
// students for review navigation. It satisfies workflow.NeighborResolver.
type RosterService struct {
	repo     rosterRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(repo rosterRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// List returns the filtered roster in enrollment order.
func (s *RosterService) List(ctx context.Context, filter models.RosterFilter) ([]models.RosterEntry, error) {
	key := rosterCacheKey(filter)
	var cached []models.RosterEntry
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	entries, err := s.repo.Roster(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}

	if err := s.cache.Set(ctx, key, entries, s.cacheTTL); err != nil {
		s.logger.Debug("roster cache write failed", zap.Error(err))
	}
	return entries, nil
}

// Invalidate drops cached roster listings after schedule or approval writes.
func (s *RosterService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, rosterCachePattern); err != nil {
		s.logger.Debug("roster cache invalidation failed", zap.Error(err))
	}
}

// Adjacent resolves the student before or after currentID within the
// filtered roster ordering. An empty string means the roster edge; a current
// student that fell out of the filter also resolves to the edge.
func (s *RosterService) Adjacent(ctx context.Context, currentID string, direction models.Direction, filter models.RosterFilter) (string, error) {
	entries, err := s.List(ctx, filter)
	if err != nil {
		return "", err
	}
	for i, entry := range entries {
		if entry.StudentID != currentID {
			continue
		}
		switch direction {
		case models.DirectionNext:
			if i+1 < len(entries) {
				return entries[i+1].StudentID, nil
			}
		case models.DirectionPrevious:
			if i > 0 {
				return entries[i-1].StudentID, nil
			}
		default:
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown direction %q", direction))
		}
		return "", nil
	}
	return "", nil
}

func rosterCacheKey(filter models.RosterFilter) string {
	raw, _ := json.Marshal(filter)
	sum := sha1.Sum(raw)
	return fmt.Sprintf("roster:list:%s", hex.EncodeToString(sum[:8]))
}
