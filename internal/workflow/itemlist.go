package workflow

import "github.com/westfield-hs/scheduler-api/internal/models"

// Limits are the per-category capacities, supplied once from configuration.
type Limits struct {
	MaxAcademic int
	MaxElective int
}

// ItemList maintains the two course collections for one editing session.
// Mutations that would violate capacity or uniqueness are silent no-ops; the
// boolean return only tells the caller whether anything changed.
type ItemList struct {
	limits   Limits
	classify Classifier
	academic []models.ScheduleItem
	elective []models.ScheduleItem
}

// NewItemList constructs an empty list pair. A nil classifier falls back to
// DefaultClassifier.
func NewItemList(limits Limits, classify Classifier) *ItemList {
	if classify == nil {
		classify = DefaultClassifier
	}
	return &ItemList{limits: limits, classify: classify}
}

// Add routes the course through the classifier and appends it to the inferred
// category. It is a no-op when that category is at capacity or already holds
// the course code. New items start pending when the course is
// approval-gated, otherwise approved.
func (l *ItemList) Add(course models.Course) bool {
	item := models.ScheduleItem{
		Display:          course.DisplayLabel(),
		CourseCode:       course.Code,
		SubjectArea:      course.SubjectArea,
		RequiresApproval: course.RequiresApproval,
		ApprovalStatus:   DefaultStatus(course.RequiresApproval),
		TeacherEmail:     course.TeacherEmail,
	}
	return l.AddItem(item, l.classify(course.SubjectArea))
}

// AddItem appends a prebuilt item to an explicit category, applying the same
// capacity and uniqueness rules as Add. Used when loading persisted
// selections whose category is already known.
func (l *ItemList) AddItem(item models.ScheduleItem, category Category) bool {
	target := &l.academic
	capacity := l.limits.MaxAcademic
	if category == CategoryElective {
		target = &l.elective
		capacity = l.limits.MaxElective
	}

	if len(*target) >= capacity {
		return false
	}
	for _, existing := range *target {
		if existing.CourseCode == item.CourseCode {
			return false
		}
	}

	*target = append(*target, item)
	return true
}

// Remove drops the item at index from the given category. Out-of-range
// indexes are a no-op.
func (l *ItemList) Remove(category Category, index int) bool {
	target := &l.academic
	if category == CategoryElective {
		target = &l.elective
	}
	if index < 0 || index >= len(*target) {
		return false
	}
	*target = append((*target)[:index], (*target)[index+1:]...)
	return true
}

// MoveUp swaps the elective at index with its predecessor. Reordering is
// only meaningful for the ranked-choice category; index 0 is a no-op.
func (l *ItemList) MoveUp(index int) bool {
	if index <= 0 || index >= len(l.elective) {
		return false
	}
	l.elective[index-1], l.elective[index] = l.elective[index], l.elective[index-1]
	return true
}

// MoveDown swaps the elective at index with its successor. The last index is
// a no-op.
func (l *ItemList) MoveDown(index int) bool {
	if index < 0 || index >= len(l.elective)-1 {
		return false
	}
	l.elective[index], l.elective[index+1] = l.elective[index+1], l.elective[index]
	return true
}

// Academic returns a copy of the fixed-enrollment collection.
func (l *ItemList) Academic() []models.ScheduleItem {
	return copyItems(l.academic)
}

// Elective returns a copy of the ranked-choice collection in priority order.
func (l *ItemList) Elective() []models.ScheduleItem {
	return copyItems(l.elective)
}

// Labels flattens a category to its display labels, preserving order.
func (l *ItemList) Labels(category Category) []string {
	source := l.academic
	if category == CategoryElective {
		source = l.elective
	}
	labels := make([]string, len(source))
	for i, item := range source {
		labels[i] = item.Display
	}
	return labels
}

// Codes flattens a category to its course codes, preserving order.
func (l *ItemList) Codes(category Category) []string {
	source := l.academic
	if category == CategoryElective {
		source = l.elective
	}
	codes := make([]string, len(source))
	for i, item := range source {
		codes[i] = item.CourseCode
	}
	return codes
}

// Clear empties both collections.
func (l *ItemList) Clear() {
	l.academic = nil
	l.elective = nil
}

func copyItems(items []models.ScheduleItem) []models.ScheduleItem {
	out := make([]models.ScheduleItem, len(items))
	copy(out, items)
	return out
}
