package workflow

import (
	"context"
	"errors"

	"github.com/westfield-hs/scheduler-api/internal/models"
)

// ErrAtRosterEdge reports that navigation hit the first or last student of
// the filtered ordering. It is a normal boundary condition, not a failure;
// the open session is untouched.
var ErrAtRosterEdge = errors.New("already at the edge of the filtered roster")

// NeighborResolver resolves the student adjacent to current within the
// ordering produced by the given filter. It returns "" when no neighbor
// exists in that direction.
type NeighborResolver interface {
	Adjacent(ctx context.Context, currentID string, direction models.Direction, filter models.RosterFilter) (string, error)
}

// Review walks a counselor through a filtered roster, reviewing and signing
// off one student at a time. Navigation always re-resolves neighbors against
// the last-applied filter, so a roster whose composition shifted between
// visits still yields the adjacent student of the current ordering.
type Review struct {
	session  *EditorSession
	resolver NeighborResolver
	filter   models.RosterFilter
}

// NewReview binds a session to a neighbor resolver and the counselor's
// active filter.
func NewReview(session *EditorSession, resolver NeighborResolver, filter models.RosterFilter) *Review {
	return &Review{session: session, resolver: resolver, filter: filter}
}

// Session exposes the underlying editor session for projection.
func (r *Review) Session() *EditorSession { return r.session }

// Filter returns the active roster filter.
func (r *Review) Filter() models.RosterFilter { return r.filter }

// SetFilter replaces the active filter for subsequent navigation.
func (r *Review) SetFilter(filter models.RosterFilter) { r.filter = filter }

// Open starts editing the given student.
func (r *Review) Open(ctx context.Context, studentID string) error {
	return r.session.Open(ctx, studentID)
}

// SignOff commits pending edits (only with confirmation) and issues the
// sign-off command for the open student. Without confirmation, unsaved
// changes abort with ErrUnsavedChanges and nothing is sent.
func (r *Review) SignOff(ctx context.Context, confirm bool) error {
	if !r.session.IsOpen() {
		return ErrNoSession
	}
	if r.session.HasUnsavedChanges() {
		if !confirm {
			return ErrUnsavedChanges
		}
		if err := r.session.Commit(ctx); err != nil {
			return err
		}
	}
	if err := r.session.gateway.SignOff(ctx, r.session.StudentID()); err != nil {
		return err
	}
	r.session.markReviewed()
	return nil
}

// SignOffAndAdvance signs off the open student and then opens the next one
// in the filtered ordering. When no next student exists the walk terminates
// normally: the session is closed and "" is returned.
func (r *Review) SignOffAndAdvance(ctx context.Context, confirm bool) (string, error) {
	if err := r.SignOff(ctx, confirm); err != nil {
		return "", err
	}
	next, err := r.Navigate(ctx, models.DirectionNext, true)
	if err != nil {
		if errors.Is(err, ErrAtRosterEdge) {
			r.session.Discard()
			return "", nil
		}
		return "", err
	}
	return next, nil
}

// Navigate opens the student adjacent to the current one under the active
// filter. Unsaved changes require confirmation; confirming discards them —
// navigation never commits silently. At the roster edge the session stays
// open and ErrAtRosterEdge is returned.
func (r *Review) Navigate(ctx context.Context, direction models.Direction, confirm bool) (string, error) {
	if !r.session.IsOpen() {
		return "", ErrNoSession
	}
	if r.session.HasUnsavedChanges() && !confirm {
		return "", ErrUnsavedChanges
	}

	neighbor, err := r.resolver.Adjacent(ctx, r.session.StudentID(), direction, r.filter)
	if err != nil {
		return "", err
	}
	if neighbor == "" {
		return "", ErrAtRosterEdge
	}

	if err := r.session.Open(ctx, neighbor); err != nil {
		return "", err
	}
	return neighbor, nil
}
