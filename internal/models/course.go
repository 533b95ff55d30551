package models

import "time"

// Course is an immutable catalog descriptor. The workflow core treats courses
// as read-only input; only the owning teacher may change the description.
type Course struct {
	ID               string    `db:"id" json:"id"`
	Code             string    `db:"code" json:"course_code"`
	Name             string    `db:"name" json:"course_name"`
	SubjectArea      string    `db:"subject_area" json:"subject_area"`
	Level            string    `db:"level" json:"level"`
	Description      string    `db:"description" json:"description"`
	TeacherName      string    `db:"teacher_name" json:"teacher_name"`
	TeacherEmail     string    `db:"teacher_email" json:"teacher_email"`
	Room             string    `db:"room" json:"room"`
	GradeMin         int       `db:"grade_min" json:"grade_min"`
	GradeMax         int       `db:"grade_max" json:"grade_max"`
	RequiresApproval bool      `db:"requires_approval" json:"requires_approval"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayLabel is the label schedules store for a selection, "Name (CODE)".
// The trailing parenthesised code is what the intake parser extracts again.
func (c Course) DisplayLabel() string {
	return c.Name + " (" + c.Code + ")"
}

// CourseFilter captures the catalog search parameters. Grade restricts to
// courses whose [grade_min, grade_max] range contains it; zero means any.
type CourseFilter struct {
	Grade        int
	Subject      string
	Name         string
	TeacherEmail string
}
