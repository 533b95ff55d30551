package models

// GradeLock is one grade level's submission switch. When Open is false,
// students in that grade may not save their own schedule; counselors edit
// unconditionally.
type GradeLock struct {
	GradeLevel string `db:"grade_level" json:"grade_level"`
	Open       bool   `db:"open" json:"open"`
}

// GradeLockMap maps grade level to whether submissions are open. Grades
// absent from the map default to open.
type GradeLockMap map[string]bool

// CanSubmit reports whether the given grade level may submit.
func (m GradeLockMap) CanSubmit(gradeLevel string) bool {
	open, ok := m[gradeLevel]
	if !ok {
		return true
	}
	return open
}
