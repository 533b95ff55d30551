package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/westfield-hs/scheduler-api/internal/models"
	"github.com/westfield-hs/scheduler-api/internal/workflow"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
)

type approvalDecisionRepository interface {
	SetStatus(ctx context.Context, approval *models.Approval) error
	ListPending(ctx context.Context) ([]models.PendingApproval, error)
	CountsForStudent(ctx context.Context, studentID string) (models.ApprovalCounts, error)
	MapAll(ctx context.Context) (map[string]map[string]models.Approval, error)
}

type approvalCourseRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
}

type approvalScheduleRepository interface {
	FindByStudent(ctx context.Context, studentID string) (*models.Schedule, error)
	ListAll(ctx context.Context) ([]models.Schedule, error)
}

// ApprovalService serves the gatekeeper workflow: teachers dispose of gated
// selections for their own courses, counselors see the pending queue.
type ApprovalService struct {
	approvals approvalDecisionRepository
	courses   approvalCourseRepository
	schedules approvalScheduleRepository
	audit     auditRecorder
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewApprovalService constructs an ApprovalService.
func NewApprovalService(approvals approvalDecisionRepository, courses approvalCourseRepository, schedules approvalScheduleRepository, audit auditRecorder, metrics *MetricsService, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{approvals: approvals, courses: courses, schedules: schedules, audit: audit, metrics: metrics, logger: logger}
}

// SetDecision records a gatekeeper disposition for one (student, course)
// selection. Teachers may only dispose of their own courses; counselors and
// admins may dispose of any.
func (s *ApprovalService) SetDecision(ctx context.Context, actor *models.JWTClaims, studentID, courseCode string, status models.ApprovalStatus, note string) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown approval status %q", status))
	}

	course, err := s.courses.FindByCode(ctx, courseCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.RequiresApproval {
		return appErrors.Clone(appErrors.ErrValidation, "course does not require approval")
	}
	if actor.Role == models.RoleTeacher && course.TeacherEmail != actor.Email {
		return appErrors.Clone(appErrors.ErrForbidden, "course belongs to another teacher")
	}

	schedule, err := s.schedules.FindByStudent(ctx, studentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if !scheduleSelects(schedule, courseCode) {
		return appErrors.Clone(appErrors.ErrNotFound, "course is not on the student's schedule")
	}

	approval := &models.Approval{
		StudentID:    studentID,
		CourseCode:   courseCode,
		Status:       status,
		TeacherEmail: course.TeacherEmail,
		Note:         note,
	}
	if err := s.approvals.SetStatus(ctx, approval); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}

	s.metrics.RecordApprovalDecision(string(status))
	s.recordAudit(ctx, actor, studentID, approval)
	return nil
}

// PendingQueue lists every undecided gated selection for the counselor view.
func (s *ApprovalService) PendingQueue(ctx context.Context) ([]models.PendingApproval, error) {
	pending, err := s.approvals.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending approvals")
	}
	return pending, nil
}

// Counts summarises outstanding gatekeeper work for one student.
func (s *ApprovalService) Counts(ctx context.Context, studentID string) (models.ApprovalCounts, error) {
	counts, err := s.approvals.CountsForStudent(ctx, studentID)
	if err != nil {
		return models.ApprovalCounts{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count approvals")
	}
	return counts, nil
}

// TeacherRoster groups, per course the teacher owns, the students whose
// stored selections include that course. Membership is derived from the
// stored labels, so ungated courses appear with an implicit approved status.
func (s *ApprovalService) TeacherRoster(ctx context.Context, teacherEmail string) ([]models.CourseRoster, error) {
	courses, err := s.courses.List(ctx, models.CourseFilter{TeacherEmail: teacherEmail})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if len(courses) == 0 {
		return []models.CourseRoster{}, nil
	}

	schedules, err := s.schedules.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	approvalMap, err := s.approvals.MapAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approvals")
	}

	rosters := make([]models.CourseRoster, 0, len(courses))
	for _, course := range courses {
		roster := models.CourseRoster{Course: course, Students: []models.RosterStudent{}}
		for _, schedule := range schedules {
			if !scheduleSelects(&schedule, course.Code) {
				continue
			}
			student := models.RosterStudent{
				StudentID:      schedule.StudentID,
				StudentName:    schedule.StudentName,
				GradeLevel:     schedule.GradeLevel,
				ApprovalStatus: models.ApprovalApproved,
			}
			if course.RequiresApproval {
				student.ApprovalStatus = models.ApprovalPending
				if row, ok := approvalMap[schedule.StudentID][course.Code]; ok {
					student.ApprovalStatus = row.Status
				}
			}
			roster.Students = append(roster.Students, student)
		}
		rosters = append(rosters, roster)
	}
	return rosters, nil
}

func (s *ApprovalService) recordAudit(ctx context.Context, actor *models.JWTClaims, studentID string, approval *models.Approval) {
	if s.audit == nil {
		return
	}
	raw, _ := json.Marshal(approval)
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionApprovalSet,
		Resource:   "approval",
		ResourceID: &studentID,
		NewValues:  raw,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record approval audit log", zap.Error(err))
	}
}

// scheduleSelects reports whether any stored label in either category
// resolves to the given course code.
func scheduleSelects(schedule *models.Schedule, courseCode string) bool {
	if schedule == nil {
		return false
	}
	for _, label := range schedule.AcademicCourses {
		if workflow.ExtractCode(label) == courseCode {
			return true
		}
	}
	for _, label := range schedule.ElectiveCourses {
		if workflow.ExtractCode(label) == courseCode {
			return true
		}
	}
	return false
}
