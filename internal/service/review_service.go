package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/westfield-hs/scheduler-api/internal/models"
	"github.com/westfield-hs/scheduler-api/internal/workflow"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
)

// reviewGateway binds the counselor identity to the schedule service so the
// editor session's commits run with counselor privileges.
type reviewGateway struct {
	schedules *ScheduleService
	actor     *models.JWTClaims
}

func (g *reviewGateway) Load(ctx context.Context, studentID string) (*models.ScheduleDetail, error) {
	return g.schedules.GetSchedule(ctx, studentID)
}

func (g *reviewGateway) Save(ctx context.Context, payload workflow.SavePayload) error {
	return g.schedules.Save(ctx, g.actor, payload)
}

func (g *reviewGateway) Reset(ctx context.Context, studentID string) error {
	return g.schedules.Reset(ctx, g.actor, studentID)
}

func (g *reviewGateway) SignOff(ctx context.Context, studentID string) error {
	return g.schedules.SignOff(ctx, g.actor, studentID)
}

// ReviewState is the projection of a counselor's open review session.
type ReviewState struct {
	Open           bool                 `json:"open"`
	StudentID      string               `json:"student_id,omitempty"`
	StudentName    string               `json:"student_name,omitempty"`
	GradeLevel     string               `json:"grade_level,omitempty"`
	Items          models.ScheduleItems `json:"schedule_items"`
	Notes          string               `json:"special_instructions"`
	Reviewed       bool                 `json:"reviewed"`
	UnsavedChanges bool                 `json:"unsaved_changes"`
	Filter         models.RosterFilter  `json:"filter"`
}

// ReviewService holds one review walk per counselor. Each counselor's session
// is serialized behind the service lock, preserving the single-editor model
// the session type assumes.
type ReviewService struct {
	schedules *ScheduleService
	catalog   *CatalogService
	roster    *RosterService
	logger    *zap.Logger
	limits    workflow.Limits

	mu      sync.Mutex
	reviews map[string]*workflow.Review
}

// NewReviewService constructs a ReviewService.
func NewReviewService(schedules *ScheduleService, catalog *CatalogService, roster *RosterService, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		schedules: schedules,
		catalog:   catalog,
		roster:    roster,
		logger:    logger,
		limits:    schedules.Limits(),
		reviews:   make(map[string]*workflow.Review),
	}
}

func (s *ReviewService) reviewFor(actor *models.JWTClaims) *workflow.Review {
	review, ok := s.reviews[actor.UserID]
	if !ok {
		gateway := &reviewGateway{schedules: s.schedules, actor: actor}
		session := workflow.NewEditorSession(gateway, s.limits, workflow.DefaultClassifier)
		review = workflow.NewReview(session, s.roster, models.RosterFilter{})
		s.reviews[actor.UserID] = review
	}
	return review
}

// Open starts (or replaces) the counselor's session on the given student.
func (s *ReviewService) Open(ctx context.Context, actor *models.JWTClaims, studentID string) (*ReviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	review := s.reviewFor(actor)
	if err := review.Open(ctx, studentID); err != nil {
		return nil, s.closeOnNotFound(review, err)
	}
	return s.project(review), nil
}

// State returns the current session projection.
func (s *ReviewService) State(actor *models.JWTClaims) *ReviewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project(s.reviewFor(actor))
}

// AddCourse resolves the code against the catalog and adds it to the working
// lists. Duplicates and at-capacity adds are reported as no-ops.
func (s *ReviewService) AddCourse(ctx context.Context, actor *models.JWTClaims, courseCode string) (*ReviewState, bool, error) {
	course, err := s.catalog.Get(ctx, courseCode)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	review := s.reviewFor(actor)
	if !review.Session().IsOpen() {
		return nil, false, s.mapError(workflow.ErrNoSession)
	}
	added := review.Session().Add(*course)
	return s.project(review), added, nil
}

// RemoveItem drops the working item at index in the given category.
func (s *ReviewService) RemoveItem(actor *models.JWTClaims, category workflow.Category, index int) (*ReviewState, bool, error) {
	if !category.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	review := s.reviewFor(actor)
	if !review.Session().IsOpen() {
		return nil, false, s.mapError(workflow.ErrNoSession)
	}
	removed := review.Session().Remove(category, index)
	return s.project(review), removed, nil
}

// MoveElective shifts an elective's priority. Boundary moves are no-ops.
func (s *ReviewService) MoveElective(actor *models.JWTClaims, index int, direction models.Direction) (*ReviewState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	review := s.reviewFor(actor)
	if !review.Session().IsOpen() {
		return nil, false, s.mapError(workflow.ErrNoSession)
	}
	var moved bool
	switch direction {
	case models.DirectionPrevious:
		moved = review.Session().MoveUp(index)
	case models.DirectionNext:
		moved = review.Session().MoveDown(index)
	default:
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "unknown direction")
	}
	return s.project(review), moved, nil
}

// SetNotes replaces the working special-instructions text.
func (s *ReviewService) SetNotes(actor *models.JWTClaims, notes string) (*ReviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	review := s.reviewFor(actor)
	if !review.Session().IsOpen() {
		return nil, s.mapError(workflow.ErrNoSession)
	}
	review.Session().SetNotes(notes)
	return s.project(review), nil
}

// Commit persists the working state through the schedule service.
func (s *ReviewService) Commit(ctx context.Context, actor *models.JWTClaims) (*ReviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	review := s.reviewFor(actor)
	if err := review.Session().Commit(ctx); err != nil {
		return nil, s.closeOnNotFound(review, err)
	}
	s.roster.Invalidate(ctx)
	return s.project(review), nil
}

// Reset issues the hard reset for the open student and reloads the session.
func (s *ReviewService) Reset(ctx context.Context, actor *models.JWTClaims) (*ReviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	review := s.reviewFor(actor)
	if err := review.Session().Reset(ctx); err != nil {
		return nil, s.closeOnNotFound(review, err)
	}
	s.roster.Invalidate(ctx)
	return s.project(review), nil
}

// SignOff marks the open student reviewed. With advance set, the walk moves
// to the next student in the filtered ordering; hitting the roster end closes
// the session and returns an empty next ID.
func (s *ReviewService) SignOff(ctx context.Context, actor *models.JWTClaims, confirm, advance bool) (*ReviewState, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	review := s.reviewFor(actor)

	if !advance {
		if err := review.SignOff(ctx, confirm); err != nil {
			return nil, "", s.closeOnNotFound(review, err)
		}
		s.roster.Invalidate(ctx)
		return s.project(review), review.Session().StudentID(), nil
	}

	next, err := review.SignOffAndAdvance(ctx, confirm)
	if err != nil {
		return nil, "", s.closeOnNotFound(review, err)
	}
	s.roster.Invalidate(ctx)
	return s.project(review), next, nil
}

// Navigate opens the adjacent student. Unsaved edits require confirmation and
// are discarded, never committed.
func (s *ReviewService) Navigate(ctx context.Context, actor *models.JWTClaims, direction models.Direction, confirm bool) (*ReviewState, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	review := s.reviewFor(actor)
	neighbor, err := review.Navigate(ctx, direction, confirm)
	if err != nil {
		return nil, "", s.closeOnNotFound(review, err)
	}
	return s.project(review), neighbor, nil
}

// SetFilter replaces the counselor's roster filter for subsequent navigation.
func (s *ReviewService) SetFilter(actor *models.JWTClaims, filter models.RosterFilter) *ReviewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	review := s.reviewFor(actor)
	review.SetFilter(filter)
	return s.project(review)
}

// Discard drops the counselor's working state without persisting anything.
func (s *ReviewService) Discard(actor *models.JWTClaims) *ReviewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	review := s.reviewFor(actor)
	review.Session().Discard()
	return s.project(review)
}

func (s *ReviewService) project(review *workflow.Review) *ReviewState {
	session := review.Session()
	academic, elective := session.Items()
	if academic == nil {
		academic = []models.ScheduleItem{}
	}
	if elective == nil {
		elective = []models.ScheduleItem{}
	}
	return &ReviewState{
		Open:           session.IsOpen(),
		StudentID:      session.StudentID(),
		StudentName:    session.StudentName(),
		GradeLevel:     session.GradeLevel(),
		Items:          models.ScheduleItems{Academic: academic, Elective: elective},
		Notes:          session.Notes(),
		Reviewed:       session.Reviewed(),
		UnsavedChanges: session.HasUnsavedChanges(),
		Filter:         review.Filter(),
	}
}

// closeOnNotFound handles gateway failures. When the student behind the
// session no longer exists there is nothing left to edit, so the working
// state is discarded; every other failure keeps it so the counselor may
// retry.
func (s *ReviewService) closeOnNotFound(review *workflow.Review, err error) error {
	if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
		review.Session().Discard()
	}
	return s.mapError(err)
}

// mapError translates workflow sentinel errors into API errors; everything
// else passes through (schedule service errors are already typed).
func (s *ReviewService) mapError(err error) error {
	switch {
	case errors.Is(err, workflow.ErrNoSession):
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "no review session is open")
	case errors.Is(err, workflow.ErrUnsavedChanges):
		return appErrors.Clone(appErrors.ErrConflict, "session has unsaved changes; retry with confirm")
	case errors.Is(err, workflow.ErrAtRosterEdge):
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "already at the edge of the filtered roster")
	case errors.Is(err, workflow.ErrSessionSuperseded):
		return appErrors.Clone(appErrors.ErrConflict, "review session was superseded")
	default:
		return err
	}
}
