package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/westfield-hs/scheduler-api/internal/models"
)

// Session errors surfaced to callers. ErrSessionSuperseded marks a response
// that arrived after the session it belonged to was replaced or discarded;
// such results are never applied.
var (
	ErrNoSession         = errors.New("no editor session is open")
	ErrSessionSuperseded = errors.New("editor session was superseded")
	ErrUnsavedChanges    = errors.New("session has unsaved changes; confirmation required")
)

// SavePayload is the flattened commit shape sent to the backing store.
type SavePayload struct {
	StudentID           string   `json:"student_id"`
	StudentName         string   `json:"student_name"`
	GradeLevel          string   `json:"grade_level"`
	AcademicCourses     []string `json:"academic_courses"`
	ElectiveCourses     []string `json:"elective_courses"`
	SpecialInstructions string   `json:"special_instructions"`
}

// Gateway is the external commit/reset protocol plus the authoritative read
// the session baselines against. Implementations do not retry; failures are
// surfaced as-is and the working state is kept so the caller may retry.
type Gateway interface {
	Load(ctx context.Context, studentID string) (*models.ScheduleDetail, error)
	Save(ctx context.Context, payload SavePayload) error
	Reset(ctx context.Context, studentID string) error
	SignOff(ctx context.Context, studentID string) error
}

// EditorSession is the mutable working copy of one student's schedule. It
// owns its item lists exclusively until committed or discarded; the caller is
// single-threaded (one session per counselor), so the session does no locking.
type EditorSession struct {
	gateway  Gateway
	limits   Limits
	classify Classifier

	open        bool
	studentID   string
	studentName string
	gradeLevel  string
	items       *ItemList
	notes       string
	reviewed    bool

	// baseline is the serialized form of the state as loaded; unsaved-change
	// detection compares against it. Commit never advances it — only a fresh
	// Open against persisted state does.
	baseline string

	// epoch increments whenever the session is opened, reset or discarded.
	// In-flight gateway responses captured under an older epoch are dropped.
	epoch uint64
}

// NewEditorSession constructs a closed session bound to a gateway.
func NewEditorSession(gateway Gateway, limits Limits, classify Classifier) *EditorSession {
	if classify == nil {
		classify = DefaultClassifier
	}
	return &EditorSession{gateway: gateway, limits: limits, classify: classify}
}

// Open loads the authoritative schedule for studentID and makes it the
// working copy, re-establishing the baseline from persisted state.
func (s *EditorSession) Open(ctx context.Context, studentID string) error {
	s.epoch++
	epoch := s.epoch

	detail, err := s.gateway.Load(ctx, studentID)
	if err != nil {
		return err
	}
	if s.epoch != epoch {
		return ErrSessionSuperseded
	}

	items := NewItemList(s.limits, s.classify)
	for _, item := range detail.Items.Academic {
		items.AddItem(item, CategoryAcademic)
	}
	for _, item := range detail.Items.Elective {
		items.AddItem(item, CategoryElective)
	}

	s.open = true
	s.studentID = studentID
	s.studentName = detail.Schedule.StudentName
	s.gradeLevel = detail.Schedule.GradeLevel
	s.items = items
	s.notes = detail.Schedule.SpecialInstructions
	s.reviewed = detail.Schedule.Reviewed
	s.baseline = s.serialize()
	return nil
}

// IsOpen reports whether a student is currently being edited.
func (s *EditorSession) IsOpen() bool { return s.open }

// StudentID returns the student being edited, empty when closed.
func (s *EditorSession) StudentID() string { return s.studentID }

// StudentName returns the student's display name.
func (s *EditorSession) StudentName() string { return s.studentName }

// GradeLevel returns the student's grade level.
func (s *EditorSession) GradeLevel() string { return s.gradeLevel }

// Reviewed returns the sign-off snapshot taken at open (or set by SignOff).
func (s *EditorSession) Reviewed() bool { return s.reviewed }

// Notes returns the working special-instructions text.
func (s *EditorSession) Notes() string { return s.notes }

// Items exposes the working collections for projection. Callers must mutate
// through the session methods, never the returned copies.
func (s *EditorSession) Items() (academic, elective []models.ScheduleItem) {
	if s.items == nil {
		return nil, nil
	}
	return s.items.Academic(), s.items.Elective()
}

// Add routes a course into the working lists. No-op at capacity or on
// duplicate, mirroring ItemList semantics.
func (s *EditorSession) Add(course models.Course) bool {
	if !s.open {
		return false
	}
	return s.items.Add(course)
}

// Remove drops the working item at index in the given category.
func (s *EditorSession) Remove(category Category, index int) bool {
	if !s.open {
		return false
	}
	return s.items.Remove(category, index)
}

// MoveUp raises an elective's priority by one position.
func (s *EditorSession) MoveUp(index int) bool {
	if !s.open {
		return false
	}
	return s.items.MoveUp(index)
}

// MoveDown lowers an elective's priority by one position.
func (s *EditorSession) MoveDown(index int) bool {
	if !s.open {
		return false
	}
	return s.items.MoveDown(index)
}

// SetNotes replaces the working special-instructions text.
func (s *EditorSession) SetNotes(notes string) {
	if !s.open {
		return
	}
	s.notes = notes
}

// HasUnsavedChanges compares a fresh serialization of the working state
// against the baseline. Equality is by value: academic membership, elective
// code order, and notes text.
func (s *EditorSession) HasUnsavedChanges() bool {
	if !s.open {
		return false
	}
	return s.serialize() != s.baseline
}

// Payload flattens the working state to the commit shape.
func (s *EditorSession) Payload() SavePayload {
	return SavePayload{
		StudentID:           s.studentID,
		StudentName:         s.studentName,
		GradeLevel:          s.gradeLevel,
		AcademicCourses:     s.items.Labels(CategoryAcademic),
		ElectiveCourses:     s.items.Labels(CategoryElective),
		SpecialInstructions: s.notes,
	}
}

// Commit sends the working state through the gateway. On success the
// baseline is deliberately NOT advanced: a subsequent Open re-establishes it
// from freshly persisted state, which guards against client/server skew.
func (s *EditorSession) Commit(ctx context.Context) error {
	if !s.open {
		return ErrNoSession
	}
	epoch := s.epoch
	if err := s.gateway.Save(ctx, s.Payload()); err != nil {
		return err
	}
	if s.epoch != epoch {
		return ErrSessionSuperseded
	}
	return nil
}

// Reset clears the working lists and notes and issues the hard reset, which
// also clears approval state server-side. On success it behaves like Open
// against the now-empty schedule.
func (s *EditorSession) Reset(ctx context.Context) error {
	if !s.open {
		return ErrNoSession
	}
	studentID := s.studentID
	epoch := s.epoch
	if err := s.gateway.Reset(ctx, studentID); err != nil {
		return err
	}
	if s.epoch != epoch {
		return ErrSessionSuperseded
	}
	return s.Open(ctx, studentID)
}

// Discard drops the working state without persisting anything.
func (s *EditorSession) Discard() {
	s.epoch++
	s.open = false
	s.studentID = ""
	s.studentName = ""
	s.gradeLevel = ""
	s.items = nil
	s.notes = ""
	s.reviewed = false
	s.baseline = ""
}

func (s *EditorSession) markReviewed() {
	s.reviewed = true
}

// serialize produces the change-detection form: sorted academic codes (the
// category is an unordered set), elective codes in priority order, and the
// notes text.
func (s *EditorSession) serialize() string {
	academic := s.items.Codes(CategoryAcademic)
	sort.Strings(academic)

	snapshot := struct {
		Academic []string `json:"academic"`
		Elective []string `json:"elective"`
		Notes    string   `json:"notes"`
	}{
		Academic: academic,
		Elective: s.items.Codes(CategoryElective),
		Notes:    s.notes,
	}
	raw, _ := json.Marshal(snapshot)
	return string(raw)
}
