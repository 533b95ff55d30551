package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westfield-hs/scheduler-api/internal/models"
)

func academicCourse(code string) models.Course {
	return models.Course{Code: code, Name: "Course " + code, SubjectArea: "Math"}
}

func electiveCourse(code string) models.Course {
	return models.Course{Code: code, Name: "Course " + code, SubjectArea: "Elective"}
}

func TestItemListAddRoutesByClassifier(t *testing.T) {
	list := NewItemList(Limits{MaxAcademic: 7, MaxElective: 5}, DefaultClassifier)

	assert.True(t, list.Add(academicCourse("ALG1")))
	assert.True(t, list.Add(electiveCourse("ART1")))
	assert.True(t, list.Add(models.Course{Code: "WELD1", Name: "Welding", SubjectArea: "CTE"}))

	assert.Len(t, list.Academic(), 1)
	assert.Len(t, list.Elective(), 2)
}

func TestItemListAddDuplicateIsNoOp(t *testing.T) {
	list := NewItemList(Limits{MaxAcademic: 7, MaxElective: 5}, DefaultClassifier)

	require.True(t, list.Add(academicCourse("ALG1")))
	assert.False(t, list.Add(academicCourse("ALG1")))
	assert.Len(t, list.Academic(), 1)

	// Same code may exist in the other category.
	assert.True(t, list.AddItem(models.ScheduleItem{CourseCode: "ALG1", Display: "Course ALG1"}, CategoryElective))
}

func TestItemListCapacityIsEnforced(t *testing.T) {
	list := NewItemList(Limits{MaxAcademic: 2, MaxElective: 3}, DefaultClassifier)

	assert.True(t, list.Add(electiveCourse("E1")))
	assert.True(t, list.Add(electiveCourse("E2")))
	assert.True(t, list.Add(electiveCourse("E3")))
	assert.False(t, list.Add(electiveCourse("E4")))

	codes := list.Codes(CategoryElective)
	assert.Equal(t, []string{"E1", "E2", "E3"}, codes)

	assert.True(t, list.Add(academicCourse("A1")))
	assert.True(t, list.Add(academicCourse("A2")))
	assert.False(t, list.Add(academicCourse("A3")))
	assert.Len(t, list.Academic(), 2)
}

func TestItemListApprovalStatusDefaults(t *testing.T) {
	list := NewItemList(Limits{MaxAcademic: 7, MaxElective: 5}, DefaultClassifier)

	gated := academicCourse("CHEM1")
	gated.RequiresApproval = true
	require.True(t, list.Add(gated))
	require.True(t, list.Add(academicCourse("ALG1")))

	items := list.Academic()
	assert.Equal(t, models.ApprovalPending, items[0].ApprovalStatus)
	assert.Equal(t, models.ApprovalApproved, items[1].ApprovalStatus)
}

func TestItemListRemove(t *testing.T) {
	list := NewItemList(Limits{MaxAcademic: 7, MaxElective: 5}, DefaultClassifier)
	list.Add(electiveCourse("E1"))
	list.Add(electiveCourse("E2"))

	assert.True(t, list.Remove(CategoryElective, 0))
	assert.Equal(t, []string{"E2"}, list.Codes(CategoryElective))

	assert.False(t, list.Remove(CategoryElective, 5))
	assert.False(t, list.Remove(CategoryElective, -1))
	assert.Equal(t, []string{"E2"}, list.Codes(CategoryElective))
}

func TestItemListMoveBoundariesAreNoOps(t *testing.T) {
	list := NewItemList(Limits{MaxAcademic: 7, MaxElective: 5}, DefaultClassifier)
	list.Add(electiveCourse("E1"))
	list.Add(electiveCourse("E2"))
	list.Add(electiveCourse("E3"))

	assert.False(t, list.MoveUp(0))
	assert.False(t, list.MoveDown(2))
	assert.Equal(t, []string{"E1", "E2", "E3"}, list.Codes(CategoryElective))
}

func TestItemListMoveUpThenDownRestoresOrder(t *testing.T) {
	list := NewItemList(Limits{MaxAcademic: 7, MaxElective: 5}, DefaultClassifier)
	list.Add(electiveCourse("E1"))
	list.Add(electiveCourse("E2"))
	list.Add(electiveCourse("E3"))

	assert.True(t, list.MoveDown(0))
	assert.Equal(t, []string{"E2", "E1", "E3"}, list.Codes(CategoryElective))

	assert.True(t, list.MoveUp(1))
	assert.Equal(t, []string{"E1", "E2", "E3"}, list.Codes(CategoryElective))
}

func TestItemListCapacityScenario(t *testing.T) {
	// MAX_ELECTIVE_CHOICES = 3; adding E1..E4 keeps [E1 E2 E3], then a
	// down/up round trip restores the original priority order.
	list := NewItemList(Limits{MaxAcademic: 7, MaxElective: 3}, DefaultClassifier)

	for _, code := range []string{"E1", "E2", "E3"} {
		require.True(t, list.Add(electiveCourse(code)))
	}
	require.False(t, list.Add(electiveCourse("E4")))
	require.Equal(t, []string{"E1", "E2", "E3"}, list.Codes(CategoryElective))

	require.True(t, list.MoveDown(0))
	require.Equal(t, []string{"E2", "E1", "E3"}, list.Codes(CategoryElective))

	require.True(t, list.MoveUp(1))
	require.Equal(t, []string{"E1", "E2", "E3"}, list.Codes(CategoryElective))
}

func TestDefaultClassifier(t *testing.T) {
	cases := map[string]Category{
		"Math":          CategoryAcademic,
		"ELA":           CategoryAcademic,
		"Science":       CategoryAcademic,
		"CTE":           CategoryElective,
		"cte pathways":  CategoryElective,
		"Elective":      CategoryElective,
		"Elective Arts": CategoryElective,
		"":              CategoryAcademic,
	}
	for subject, want := range cases {
		assert.Equal(t, want, DefaultClassifier(subject), "subject %q", subject)
	}
}

func TestExtractCode(t *testing.T) {
	assert.Equal(t, "ALG1", ExtractCode("Algebra I (ALG1)"))
	assert.Equal(t, "ALG1", ExtractCode("ALG1"))
	assert.Equal(t, "W-2", ExtractCode("Weird (Nested) Name (W-2)"))
	assert.Equal(t, "", ExtractCode("  "))
}
