package models

import (
	"time"

	"github.com/lib/pq"
)

// ApprovalStatus is the gatekeeper disposition of a single selection.
type ApprovalStatus string

// Approval dispositions. Selections that do not require approval are
// implicitly APPROVED and never enter the state machine.
const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is one of the known dispositions.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Schedule is the durable per-student record. Course selections are stored as
// display labels; elective order is significant (position = priority).
type Schedule struct {
	ID                  string         `db:"id" json:"-"`
	StudentID           string         `db:"student_id" json:"student_id"`
	StudentName         string         `db:"student_name" json:"student_name"`
	GradeLevel          string         `db:"grade_level" json:"grade_level"`
	AcademicCourses     pq.StringArray `db:"academic_courses" json:"academic_courses"`
	ElectiveCourses     pq.StringArray `db:"elective_courses" json:"elective_courses"`
	SpecialInstructions string         `db:"special_instructions" json:"special_instructions"`
	Reviewed            bool           `db:"reviewed" json:"reviewed"`
	CreatedAt           time.Time      `db:"created_at" json:"-"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleItem is one selection enriched with catalog and approval context.
type ScheduleItem struct {
	Display          string         `json:"display"`
	CourseCode       string         `json:"course_code"`
	SubjectArea      string         `json:"subject_area"`
	RequiresApproval bool           `json:"requires_approval"`
	ApprovalStatus   ApprovalStatus `json:"approval_status"`
	TeacherEmail     string         `json:"teacher_email"`
}

// ScheduleItems groups a schedule's enriched selections by category.
type ScheduleItems struct {
	Academic []ScheduleItem `json:"academic"`
	Elective []ScheduleItem `json:"elective"`
}

// ScheduleDetail is the getSchedule response shape.
type ScheduleDetail struct {
	Schedule  Schedule      `json:"schedule"`
	Items     ScheduleItems `json:"schedule_items"`
	CanSubmit bool          `json:"can_submit"`
}

// ApprovalCounts summarises outstanding gatekeeper work for one schedule.
type ApprovalCounts struct {
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// RosterFilter is the counselor's active filter over the student roster.
// Name and Course match as case-insensitive substrings; Grade matches exactly.
type RosterFilter struct {
	Name   string `json:"name" form:"name"`
	Grade  string `json:"grade" form:"grade"`
	Course string `json:"course" form:"course"`
}

// RosterEntry is one row of the counselor roster listing.
type RosterEntry struct {
	StudentID           string   `json:"student_id"`
	StudentName         string   `json:"student_name"`
	GradeLevel          string   `json:"grade_level"`
	AcademicCourses     []string `json:"academic_courses"`
	TopElective         string   `json:"top_elective"`
	Scheduled           bool     `json:"scheduled"`
	Reviewed            bool     `json:"reviewed"`
	PendingApprovals    int      `json:"pending_approvals"`
	RejectedApprovals   int      `json:"rejected_approvals"`
	SpecialInstructions string   `json:"special_instructions"`
}

// Direction selects the neighbor to resolve during counselor navigation.
type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
)
