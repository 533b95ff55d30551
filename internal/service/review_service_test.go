package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/westfield-hs/scheduler-api/internal/models"
	"github.com/westfield-hs/scheduler-api/internal/workflow"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
)

func newReviewServiceFixture(t *testing.T) (*ReviewService, *scheduleFixture) {
	t.Helper()
	f := newScheduleFixture(t)
	cache := NewCacheService(nil, nil, 0, zap.NewNop(), false)
	catalog := NewCatalogService(f.courses, nil, cache, nil, zap.NewNop())
	roster := NewRosterService(&memRoster{entries: []models.RosterEntry{
		{StudentID: "stu-1", StudentName: "Ada Lovelace", GradeLevel: "10"},
		{StudentID: "stu-2", StudentName: "Grace Hopper", GradeLevel: "11"},
	}}, cache, 0, zap.NewNop())
	return NewReviewService(f.svc, catalog, roster, zap.NewNop()), f
}

func TestReviewServiceEditAndCommitFlow(t *testing.T) {
	svc, f := newReviewServiceFixture(t)
	ctx := context.Background()
	actor := counselorClaims()

	state, err := svc.Open(ctx, actor, "stu-1")
	require.NoError(t, err)
	assert.True(t, state.Open)
	assert.Equal(t, "Ada Lovelace", state.StudentName)
	assert.False(t, state.UnsavedChanges)

	state, added, err := svc.AddCourse(ctx, actor, "ALG1")
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, state.UnsavedChanges)
	require.Len(t, state.Items.Academic, 1)
	assert.Equal(t, "Algebra I (ALG1)", state.Items.Academic[0].Display)

	// Duplicate add is a no-op.
	_, added, err = svc.AddCourse(ctx, actor, "ALG1")
	require.NoError(t, err)
	assert.False(t, added)

	state, err = svc.Commit(ctx, actor)
	require.NoError(t, err)
	// Commit does not rebaseline; a fresh open against persisted state does.
	assert.True(t, state.UnsavedChanges)
	assert.Equal(t, []string{"Algebra I (ALG1)"}, []string(f.schedules.rows["stu-1"].AcademicCourses))

	state, err = svc.Open(ctx, actor, "stu-1")
	require.NoError(t, err)
	assert.False(t, state.UnsavedChanges)
}

func TestReviewServiceElectiveReordering(t *testing.T) {
	svc, _ := newReviewServiceFixture(t)
	ctx := context.Background()
	actor := counselorClaims()

	_, err := svc.Open(ctx, actor, "stu-1")
	require.NoError(t, err)
	_, _, err = svc.AddCourse(ctx, actor, "ART1")
	require.NoError(t, err)
	_, _, err = svc.AddCourse(ctx, actor, "BND1")
	require.NoError(t, err)

	state, moved, err := svc.MoveElective(actor, 1, models.DirectionPrevious)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "Band (BND1)", state.Items.Elective[0].Display)

	// Boundary move is a no-op.
	_, moved, err = svc.MoveElective(actor, 0, models.DirectionPrevious)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestReviewServiceAddUnknownCourse(t *testing.T) {
	svc, _ := newReviewServiceFixture(t)
	actor := counselorClaims()
	_, err := svc.Open(context.Background(), actor, "stu-1")
	require.NoError(t, err)

	_, _, err = svc.AddCourse(context.Background(), actor, "NOPE")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceNavigateRequiresConfirmation(t *testing.T) {
	svc, f := newReviewServiceFixture(t)
	ctx := context.Background()
	actor := counselorClaims()

	_, err := svc.Open(ctx, actor, "stu-1")
	require.NoError(t, err)
	_, _, err = svc.AddCourse(ctx, actor, "ALG1")
	require.NoError(t, err)

	_, _, err = svc.Navigate(ctx, actor, models.DirectionNext, false)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// Confirming discards the edits and opens the neighbor.
	state, next, err := svc.Navigate(ctx, actor, models.DirectionNext, true)
	require.NoError(t, err)
	assert.Equal(t, "stu-2", next)
	assert.Equal(t, "stu-2", state.StudentID)
	_, saved := f.schedules.rows["stu-1"]
	assert.False(t, saved)
}

func TestReviewServiceNavigateAtEdge(t *testing.T) {
	svc, _ := newReviewServiceFixture(t)
	ctx := context.Background()
	actor := counselorClaims()

	_, err := svc.Open(ctx, actor, "stu-2")
	require.NoError(t, err)

	_, _, err = svc.Navigate(ctx, actor, models.DirectionNext, false)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	// The boundary leaves the session open on the same student.
	state := svc.State(actor)
	assert.True(t, state.Open)
	assert.Equal(t, "stu-2", state.StudentID)
}

func TestReviewServiceSignOffAndAdvanceWalk(t *testing.T) {
	svc, f := newReviewServiceFixture(t)
	ctx := context.Background()
	actor := counselorClaims()

	_, err := svc.Open(ctx, actor, "stu-1")
	require.NoError(t, err)

	state, next, err := svc.SignOff(ctx, actor, false, true)
	require.NoError(t, err)
	assert.Equal(t, "stu-2", next)
	assert.Equal(t, "stu-2", state.StudentID)
	assert.True(t, f.schedules.rows["stu-1"].Reviewed)

	// Roster end: walk terminates cleanly with the session closed.
	state, next, err = svc.SignOff(ctx, actor, false, true)
	require.NoError(t, err)
	assert.Empty(t, next)
	assert.False(t, state.Open)
	assert.True(t, f.schedules.rows["stu-2"].Reviewed)
}

func TestReviewServiceSignOffCommitsConfirmedEdits(t *testing.T) {
	svc, f := newReviewServiceFixture(t)
	ctx := context.Background()
	actor := counselorClaims()

	_, err := svc.Open(ctx, actor, "stu-1")
	require.NoError(t, err)
	_, _, err = svc.AddCourse(ctx, actor, "BIO1")
	require.NoError(t, err)

	_, _, err = svc.SignOff(ctx, actor, false, false)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	state, _, err := svc.SignOff(ctx, actor, true, false)
	require.NoError(t, err)
	assert.True(t, state.Reviewed)
	assert.Equal(t, []string{"Biology (BIO1)"}, []string(f.schedules.rows["stu-1"].AcademicCourses))
	assert.True(t, f.schedules.rows["stu-1"].Reviewed)
}

func TestReviewServiceCommitOnDeletedStudentClosesSession(t *testing.T) {
	svc, f := newReviewServiceFixture(t)
	ctx := context.Background()
	actor := counselorClaims()

	_, err := svc.Open(ctx, actor, "stu-1")
	require.NoError(t, err)
	_, _, err = svc.AddCourse(ctx, actor, "ALG1")
	require.NoError(t, err)

	// The student is withdrawn while the counselor is still editing.
	delete(f.students.rows, "stu-1")

	_, err = svc.Commit(ctx, actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// Nothing left to edit: the session must not stay open on the dead
	// student, unlike retryable failures which keep the working state.
	state := svc.State(actor)
	assert.False(t, state.Open)
	assert.Empty(t, state.StudentID)

	// The counselor can carry on with the next student.
	state, err = svc.Open(ctx, actor, "stu-2")
	require.NoError(t, err)
	assert.Equal(t, "stu-2", state.StudentID)
}

func TestReviewServiceOpenUnknownStudentLeavesSessionClosed(t *testing.T) {
	svc, _ := newReviewServiceFixture(t)
	actor := counselorClaims()

	_, err := svc.Open(context.Background(), actor, "ghost")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.False(t, svc.State(actor).Open)
}

func TestReviewServiceSessionsAreIsolatedPerCounselor(t *testing.T) {
	svc, _ := newReviewServiceFixture(t)
	ctx := context.Background()
	first := &models.JWTClaims{UserID: "usr-a", Role: models.RoleCounselor}
	second := &models.JWTClaims{UserID: "usr-b", Role: models.RoleCounselor}

	_, err := svc.Open(ctx, first, "stu-1")
	require.NoError(t, err)

	state := svc.State(second)
	assert.False(t, state.Open)

	_, err = svc.Open(ctx, second, "stu-2")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", svc.State(first).StudentID)
	assert.Equal(t, "stu-2", svc.State(second).StudentID)
}

func TestReviewServiceClosedSessionOperations(t *testing.T) {
	svc, _ := newReviewServiceFixture(t)
	actor := counselorClaims()

	_, err := svc.Commit(context.Background(), actor)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, _, err = svc.RemoveItem(actor, workflow.CategoryAcademic, 0)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
