package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westfield-hs/scheduler-api/internal/models"
)

// gatewayMock echoes commits back through Load, acting as a well-behaved
// backing store.
type gatewayMock struct {
	students map[string]models.Schedule
	saves    []SavePayload
	resets   []string
	signoffs []string
	saveErr  error
	loadErr  error

	// hooks fire while the call is "in flight", before the result is
	// returned, to simulate session activity racing a slow gateway.
	onLoad  func()
	onSave  func()
	onReset func()
}

func newGatewayMock() *gatewayMock {
	return &gatewayMock{students: map[string]models.Schedule{}}
}

func (g *gatewayMock) seed(studentID, name, grade string, academic, elective []string, notes string) {
	g.students[studentID] = models.Schedule{
		StudentID:           studentID,
		StudentName:         name,
		GradeLevel:          grade,
		AcademicCourses:     academic,
		ElectiveCourses:     elective,
		SpecialInstructions: notes,
	}
}

func (g *gatewayMock) Load(ctx context.Context, studentID string) (*models.ScheduleDetail, error) {
	if g.onLoad != nil {
		g.onLoad()
	}
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	sched, ok := g.students[studentID]
	if !ok {
		sched = models.Schedule{StudentID: studentID}
	}
	detail := &models.ScheduleDetail{Schedule: sched}
	for _, label := range sched.AcademicCourses {
		detail.Items.Academic = append(detail.Items.Academic, models.ScheduleItem{
			Display: label, CourseCode: ExtractCode(label), SubjectArea: "Math", ApprovalStatus: models.ApprovalApproved,
		})
	}
	for _, label := range sched.ElectiveCourses {
		detail.Items.Elective = append(detail.Items.Elective, models.ScheduleItem{
			Display: label, CourseCode: ExtractCode(label), SubjectArea: "Elective", ApprovalStatus: models.ApprovalApproved,
		})
	}
	return detail, nil
}

func (g *gatewayMock) Save(ctx context.Context, payload SavePayload) error {
	if g.onSave != nil {
		g.onSave()
	}
	if g.saveErr != nil {
		return g.saveErr
	}
	g.saves = append(g.saves, payload)
	existing := g.students[payload.StudentID]
	existing.StudentID = payload.StudentID
	existing.StudentName = payload.StudentName
	existing.GradeLevel = payload.GradeLevel
	existing.AcademicCourses = payload.AcademicCourses
	existing.ElectiveCourses = payload.ElectiveCourses
	existing.SpecialInstructions = payload.SpecialInstructions
	g.students[payload.StudentID] = existing
	return nil
}

func (g *gatewayMock) Reset(ctx context.Context, studentID string) error {
	if g.onReset != nil {
		g.onReset()
	}
	g.resets = append(g.resets, studentID)
	delete(g.students, studentID)
	return nil
}

func (g *gatewayMock) SignOff(ctx context.Context, studentID string) error {
	g.signoffs = append(g.signoffs, studentID)
	sched := g.students[studentID]
	sched.Reviewed = true
	g.students[studentID] = sched
	return nil
}

func testLimits() Limits { return Limits{MaxAcademic: 7, MaxElective: 5} }

func TestEditorSessionOpenEstablishesBaseline(t *testing.T) {
	gw := newGatewayMock()
	gw.seed("stu-1", "Ada Lovelace", "10", []string{"Algebra I (ALG1)"}, []string{"Art (ART1)"}, "front row")
	session := NewEditorSession(gw, testLimits(), DefaultClassifier)

	require.NoError(t, session.Open(context.Background(), "stu-1"))
	assert.True(t, session.IsOpen())
	assert.Equal(t, "Ada Lovelace", session.StudentName())
	assert.False(t, session.HasUnsavedChanges())
}

func TestEditorSessionMutationsFlipUnsavedChanges(t *testing.T) {
	gw := newGatewayMock()
	gw.seed("stu-1", "Ada", "10", nil, []string{"Art (ART1)", "Band (BND1)"}, "")
	session := NewEditorSession(gw, testLimits(), DefaultClassifier)
	require.NoError(t, session.Open(context.Background(), "stu-1"))

	// add
	require.True(t, session.Add(models.Course{Code: "ALG1", Name: "Algebra I", SubjectArea: "Math"}))
	assert.True(t, session.HasUnsavedChanges())

	// removing it restores the baseline state
	require.True(t, session.Remove(CategoryAcademic, 0))
	assert.False(t, session.HasUnsavedChanges())

	// reorder is a value change for the ranked-choice category
	require.True(t, session.MoveDown(0))
	assert.True(t, session.HasUnsavedChanges())
	require.True(t, session.MoveUp(1))
	assert.False(t, session.HasUnsavedChanges())

	// notes edit
	session.SetNotes("needs study hall")
	assert.True(t, session.HasUnsavedChanges())
	session.SetNotes("")
	assert.False(t, session.HasUnsavedChanges())
}

func TestEditorSessionCommitDoesNotRebaseline(t *testing.T) {
	gw := newGatewayMock()
	gw.seed("stu-1", "Ada", "10", nil, nil, "")
	session := NewEditorSession(gw, testLimits(), DefaultClassifier)
	require.NoError(t, session.Open(context.Background(), "stu-1"))

	session.Add(models.Course{Code: "ALG1", Name: "Algebra I", SubjectArea: "Math"})
	require.True(t, session.HasUnsavedChanges())

	require.NoError(t, session.Commit(context.Background()))
	// Baseline only moves on a fresh Open against persisted state.
	assert.True(t, session.HasUnsavedChanges())

	require.NoError(t, session.Open(context.Background(), "stu-1"))
	assert.False(t, session.HasUnsavedChanges())
	academic, _ := session.Items()
	require.Len(t, academic, 1)
	assert.Equal(t, "ALG1", academic[0].CourseCode)
}

func TestEditorSessionCommitFailureKeepsWorkingState(t *testing.T) {
	gw := newGatewayMock()
	gw.seed("stu-1", "Ada", "10", nil, nil, "")
	session := NewEditorSession(gw, testLimits(), DefaultClassifier)
	require.NoError(t, session.Open(context.Background(), "stu-1"))

	session.Add(models.Course{Code: "ALG1", Name: "Algebra I", SubjectArea: "Math"})
	gw.saveErr = errors.New("connection refused")

	err := session.Commit(context.Background())
	require.Error(t, err)
	// Working state preserved so the caller may retry the same commit.
	assert.True(t, session.IsOpen())
	assert.True(t, session.HasUnsavedChanges())
	academic, _ := session.Items()
	assert.Len(t, academic, 1)
}

func TestEditorSessionResetBehavesLikeOpenOnEmpty(t *testing.T) {
	gw := newGatewayMock()
	gw.seed("stu-1", "Ada", "10", []string{"Algebra I (ALG1)"}, []string{"Art (ART1)"}, "notes")
	session := NewEditorSession(gw, testLimits(), DefaultClassifier)
	require.NoError(t, session.Open(context.Background(), "stu-1"))

	require.NoError(t, session.Reset(context.Background()))
	assert.Equal(t, []string{"stu-1"}, gw.resets)
	assert.True(t, session.IsOpen())
	academic, elective := session.Items()
	assert.Empty(t, academic)
	assert.Empty(t, elective)
	assert.Empty(t, session.Notes())
	assert.False(t, session.HasUnsavedChanges())
}

func TestEditorSessionDiscardDropsState(t *testing.T) {
	gw := newGatewayMock()
	gw.seed("stu-1", "Ada", "10", nil, nil, "")
	session := NewEditorSession(gw, testLimits(), DefaultClassifier)
	require.NoError(t, session.Open(context.Background(), "stu-1"))
	session.SetNotes("scratch")

	session.Discard()
	assert.False(t, session.IsOpen())
	assert.Empty(t, session.StudentID())
	assert.Empty(t, gw.saves)
}

func TestEditorSessionClosedMutationsAreNoOps(t *testing.T) {
	session := NewEditorSession(newGatewayMock(), testLimits(), DefaultClassifier)

	assert.False(t, session.Add(models.Course{Code: "X"}))
	assert.False(t, session.Remove(CategoryAcademic, 0))
	assert.False(t, session.MoveUp(1))
	assert.False(t, session.HasUnsavedChanges())
	assert.ErrorIs(t, session.Commit(context.Background()), ErrNoSession)
	assert.ErrorIs(t, session.Reset(context.Background()), ErrNoSession)
}

func TestEditorSessionRoundTrip(t *testing.T) {
	// Committing the working lists and re-opening against a server that
	// echoes the payload yields identical {code, category, elective order}.
	gw := newGatewayMock()
	gw.seed("stu-1", "Ada", "10", nil, nil, "")
	session := NewEditorSession(gw, testLimits(), DefaultClassifier)
	require.NoError(t, session.Open(context.Background(), "stu-1"))

	session.Add(models.Course{Code: "ALG1", Name: "Algebra I", SubjectArea: "Math"})
	session.Add(models.Course{Code: "BIO1", Name: "Biology", SubjectArea: "Science"})
	session.Add(models.Course{Code: "ART1", Name: "Art", SubjectArea: "Elective"})
	session.Add(models.Course{Code: "BND1", Name: "Band", SubjectArea: "Elective"})
	session.MoveUp(1)
	session.SetNotes("prefers mornings")

	wantAcademic := session.Payload().AcademicCourses
	wantElective := session.Payload().ElectiveCourses
	require.Equal(t, []string{"Band (BND1)", "Art (ART1)"}, wantElective)

	require.NoError(t, session.Commit(context.Background()))
	require.NoError(t, session.Open(context.Background(), "stu-1"))

	reloaded := session.Payload()
	assert.Equal(t, wantAcademic, reloaded.AcademicCourses)
	assert.Equal(t, wantElective, reloaded.ElectiveCourses)
	assert.Equal(t, "prefers mornings", reloaded.SpecialInstructions)
	assert.False(t, session.HasUnsavedChanges())
}

func TestEditorSessionLateOpenResultIsIgnored(t *testing.T) {
	ctx := context.Background()
	gw := newGatewayMock()
	gw.seed("stu-1", "Ada", "10", []string{"Algebra I (ALG1)"}, nil, "")
	gw.seed("stu-2", "Grace", "11", []string{"Biology (BIO1)"}, nil, "")
	session := NewEditorSession(gw, testLimits(), DefaultClassifier)

	// A newer open lands while the first load is still in flight; the first
	// load's result must not clobber it.
	gw.onLoad = func() {
		gw.onLoad = nil
		require.NoError(t, session.Open(ctx, "stu-2"))
	}

	err := session.Open(ctx, "stu-1")
	assert.ErrorIs(t, err, ErrSessionSuperseded)
	assert.True(t, session.IsOpen())
	assert.Equal(t, "stu-2", session.StudentID())
	academic, _ := session.Items()
	require.Len(t, academic, 1)
	assert.Equal(t, "BIO1", academic[0].CourseCode)
}

func TestEditorSessionDiscardedOpenIsNotApplied(t *testing.T) {
	gw := newGatewayMock()
	gw.seed("stu-1", "Ada", "10", []string{"Algebra I (ALG1)"}, nil, "")
	session := NewEditorSession(gw, testLimits(), DefaultClassifier)

	// The open is abandoned while the load is in flight.
	gw.onLoad = session.Discard

	err := session.Open(context.Background(), "stu-1")
	assert.ErrorIs(t, err, ErrSessionSuperseded)
	assert.False(t, session.IsOpen())
	assert.Empty(t, session.StudentID())
	academic, elective := session.Items()
	assert.Empty(t, academic)
	assert.Empty(t, elective)
}

func TestEditorSessionStaleCommitResultIsDropped(t *testing.T) {
	gw := newGatewayMock()
	gw.seed("stu-1", "Ada", "10", nil, nil, "")
	session := NewEditorSession(gw, testLimits(), DefaultClassifier)
	require.NoError(t, session.Open(context.Background(), "stu-1"))
	session.Add(models.Course{Code: "ALG1", Name: "Algebra I", SubjectArea: "Math"})

	// The session is discarded while the save is in flight.
	gw.onSave = session.Discard

	err := session.Commit(context.Background())
	assert.ErrorIs(t, err, ErrSessionSuperseded)
	assert.False(t, session.IsOpen())
}

func TestEditorSessionStaleResetResultIsDropped(t *testing.T) {
	gw := newGatewayMock()
	gw.seed("stu-1", "Ada", "10", []string{"Algebra I (ALG1)"}, nil, "")
	session := NewEditorSession(gw, testLimits(), DefaultClassifier)
	require.NoError(t, session.Open(context.Background(), "stu-1"))

	// The session is discarded while the reset is in flight; the reset must
	// not reopen it.
	gw.onReset = session.Discard

	err := session.Reset(context.Background())
	assert.ErrorIs(t, err, ErrSessionSuperseded)
	assert.False(t, session.IsOpen())
	assert.Equal(t, []string{"stu-1"}, gw.resets)
}

func TestEditorSessionLoadOverCapacityTruncates(t *testing.T) {
	gw := newGatewayMock()
	gw.seed("stu-1", "Ada", "10", nil, []string{"E1", "E2", "E3", "E4"}, "")
	session := NewEditorSession(gw, Limits{MaxAcademic: 7, MaxElective: 3}, DefaultClassifier)
	require.NoError(t, session.Open(context.Background(), "stu-1"))

	_, elective := session.Items()
	assert.Len(t, elective, 3)
}
