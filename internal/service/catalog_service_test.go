package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/westfield-hs/scheduler-api/internal/models"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
)

func newCatalogFixture(t *testing.T) (*CatalogService, *memCourses, *memApprovals) {
	t.Helper()
	courses := &memCourses{byCode: map[string]models.Course{
		"ALG1":    {Code: "ALG1", Name: "Algebra I", SubjectArea: "Mathematics", GradeMin: 9, GradeMax: 12},
		"CHEM-AP": {Code: "CHEM-AP", Name: "AP Chemistry", SubjectArea: "Science", GradeMin: 10, GradeMax: 12, RequiresApproval: true, TeacherEmail: "curie@whs.edu"},
	}}
	approvals := newMemApprovals()
	cache := NewCacheService(nil, nil, 0, zap.NewNop(), false)
	return NewCatalogService(courses, approvals, cache, nil, zap.NewNop()), courses, approvals
}

func TestCatalogCreateRejectsDuplicateCode(t *testing.T) {
	svc, _, _ := newCatalogFixture(t)

	_, err := svc.Create(context.Background(), CourseInput{
		Code: "ALG1", Name: "Algebra Again", SubjectArea: "Mathematics", GradeMin: 9, GradeMax: 12,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCatalogCreateValidatesGradeRange(t *testing.T) {
	svc, _, _ := newCatalogFixture(t)

	_, err := svc.Create(context.Background(), CourseInput{
		Code: "GEO1", Name: "Geometry", SubjectArea: "Mathematics", GradeMin: 10, GradeMax: 9,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCatalogUpdateDescriptionOwnership(t *testing.T) {
	svc, courses, _ := newCatalogFixture(t)
	ctx := context.Background()

	owner := &models.JWTClaims{UserID: "t1", Email: "curie@whs.edu", Role: models.RoleTeacher}
	require.NoError(t, svc.UpdateDescription(ctx, owner, "CHEM-AP", "Lab-based college-level chemistry."))
	assert.Equal(t, "Lab-based college-level chemistry.", courses.byCode["CHEM-AP"].Description)

	other := &models.JWTClaims{UserID: "t2", Email: "bohr@whs.edu", Role: models.RoleTeacher}
	err := svc.UpdateDescription(ctx, other, "CHEM-AP", "Mine now.")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	counselor := &models.JWTClaims{UserID: "c1", Email: "counselor@whs.edu", Role: models.RoleCounselor}
	require.NoError(t, svc.UpdateDescription(ctx, counselor, "CHEM-AP", "Counselor edit."))
}

func TestCatalogUpdateDescriptionWordCap(t *testing.T) {
	svc, _, _ := newCatalogFixture(t)
	owner := &models.JWTClaims{UserID: "t1", Email: "curie@whs.edu", Role: models.RoleTeacher}

	long := strings.Repeat("word ", 101)
	err := svc.UpdateDescription(context.Background(), owner, "CHEM-AP", long)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	ok := strings.Repeat("word ", 100)
	require.NoError(t, svc.UpdateDescription(context.Background(), owner, "CHEM-AP", strings.TrimSpace(ok)))
}

func TestCatalogDeleteDropsApprovalRows(t *testing.T) {
	svc, courses, approvals := newCatalogFixture(t)
	ctx := context.Background()

	require.NoError(t, approvals.SetStatus(ctx, &models.Approval{StudentID: "stu-1", CourseCode: "CHEM-AP", Status: models.ApprovalPending, TeacherEmail: "curie@whs.edu"}))
	require.NoError(t, approvals.SetStatus(ctx, &models.Approval{StudentID: "stu-2", CourseCode: "CHEM-AP", Status: models.ApprovalApproved, TeacherEmail: "curie@whs.edu"}))

	require.NoError(t, svc.Delete(ctx, "CHEM-AP"))
	_, ok := courses.byCode["CHEM-AP"]
	assert.False(t, ok)

	rows, err := approvals.MapForStudent(ctx, "stu-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
	rows, err = approvals.MapForStudent(ctx, "stu-2")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCatalogDeleteUnknownCourse(t *testing.T) {
	svc, _, _ := newCatalogFixture(t)

	err := svc.Delete(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
