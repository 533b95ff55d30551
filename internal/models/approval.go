package models

import "time"

// Approval is a gatekeeper row for one (student, course) selection. Rows exist
// only for selections whose course requires approval; they are reconciled on
// every schedule read and write.
type Approval struct {
	ID           string         `db:"id" json:"id"`
	StudentID    string         `db:"student_id" json:"student_id"`
	CourseCode   string         `db:"course_code" json:"course_code"`
	Status       ApprovalStatus `db:"status" json:"status"`
	TeacherEmail string         `db:"teacher_email" json:"teacher_email"`
	Note         string         `db:"note" json:"note"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// PendingApproval is one row of the counselor's pending-approvals queue.
type PendingApproval struct {
	StudentID    string    `db:"student_id" json:"student_id"`
	StudentName  string    `db:"student_name" json:"student_name"`
	GradeLevel   string    `db:"grade_level" json:"grade_level"`
	CourseCode   string    `db:"course_code" json:"course_code"`
	CourseName   string    `db:"course_name" json:"course_name"`
	TeacherEmail string    `db:"teacher_email" json:"teacher_email"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RosterStudent is one student row within a teacher's course roster.
type RosterStudent struct {
	StudentID      string         `json:"student_id"`
	StudentName    string         `json:"student_name"`
	GradeLevel     string         `json:"grade_level"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
}

// CourseRoster groups the students who selected one of a teacher's courses.
type CourseRoster struct {
	Course   Course          `json:"course"`
	Students []RosterStudent `json:"students"`
}
