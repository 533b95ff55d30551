package workflow

import (
	"regexp"
	"strings"

	"github.com/westfield-hs/scheduler-api/internal/models"
)

// Category routes a selection into one of the two schedule collections.
type Category string

const (
	// CategoryAcademic is the fixed-enrollment collection: unordered, capped
	// at the academic capacity.
	CategoryAcademic Category = "academic"
	// CategoryElective is the ranked-choice collection: ordered, position is
	// priority, capped at the elective capacity.
	CategoryElective Category = "elective"
)

// Valid reports whether c names a known category.
func (c Category) Valid() bool {
	return c == CategoryAcademic || c == CategoryElective
}

// Classifier decides which category a course's subject area routes to.
//
// Classification is a heuristic over free-text subject areas, not a
// structural invariant, so it stays pluggable.
type Classifier func(subjectArea string) Category

// DefaultClassifier routes subject areas containing "cte" or "elective"
// (case-insensitive) to ranked-choice and everything else to
// fixed-enrollment. A subject like "Elective Arts" therefore lands in
// ranked-choice.
func DefaultClassifier(subjectArea string) Category {
	subject := strings.ToLower(subjectArea)
	if strings.Contains(subject, "cte") || strings.Contains(subject, "elective") {
		return CategoryElective
	}
	return CategoryAcademic
}

var codePattern = regexp.MustCompile(`\(([^()]+)\)\s*$`)

// ExtractCode recovers the course code from a stored display label of the
// form "Course Name (CODE)". Bare codes (short, no spaces) pass through;
// anything else is returned trimmed as-is.
func ExtractCode(display string) string {
	s := strings.TrimSpace(display)
	if s == "" {
		return ""
	}
	if m := codePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// DefaultStatus is the approval status a fresh selection starts with.
func DefaultStatus(requiresApproval bool) models.ApprovalStatus {
	if requiresApproval {
		return models.ApprovalPending
	}
	return models.ApprovalApproved
}
