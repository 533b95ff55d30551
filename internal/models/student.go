package models

import "time"

// Student represents a learner eligible to build a schedule.
type Student struct {
	ID         string    `db:"id" json:"student_id"`
	FullName   string    `db:"full_name" json:"student_name"`
	GradeLevel string    `db:"grade_level" json:"grade_level"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
