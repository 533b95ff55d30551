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

type scheduleStore interface {
	FindByStudent(ctx context.Context, studentID string) (*models.Schedule, error)
	Upsert(ctx context.Context, schedule *models.Schedule) error
	SetReviewed(ctx context.Context, studentID string, reviewed bool) error
	Delete(ctx context.Context, studentID string) error
}

type scheduleCourseRepository interface {
	MapByCodes(ctx context.Context, codes []string) (map[string]models.Course, error)
}

type scheduleApprovalRepository interface {
	MapForStudent(ctx context.Context, studentID string) (map[string]models.Approval, error)
	DeleteUnselected(ctx context.Context, studentID string, selectedCodes []string) error
	EnsurePending(ctx context.Context, rows []models.Approval) error
	DeleteByStudent(ctx context.Context, studentID string) error
}

type scheduleSettingsRepository interface {
	GradeLocks(ctx context.Context) (models.GradeLockMap, error)
}

type scheduleStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ScheduleService owns the durable per-student schedule record: reads enrich
// stored labels with catalog and approval context, writes enforce capacity
// and submission locks and reconcile the gatekeeper rows.
type ScheduleService struct {
	schedules   scheduleStore
	courses     scheduleCourseRepository
	approvals   scheduleApprovalRepository
	settings    scheduleSettingsRepository
	students    scheduleStudentRepository
	audit       auditRecorder
	metrics     *MetricsService
	logger      *zap.Logger
	limits      workflow.Limits
	classify    workflow.Classifier
	clearOnEdit bool
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(
	schedules scheduleStore,
	courses scheduleCourseRepository,
	approvals scheduleApprovalRepository,
	settings scheduleSettingsRepository,
	students scheduleStudentRepository,
	audit auditRecorder,
	metrics *MetricsService,
	logger *zap.Logger,
	limits workflow.Limits,
	clearOnEdit bool,
) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		schedules:   schedules,
		courses:     courses,
		approvals:   approvals,
		settings:    settings,
		students:    students,
		audit:       audit,
		metrics:     metrics,
		logger:      logger,
		limits:      limits,
		classify:    workflow.DefaultClassifier,
		clearOnEdit: clearOnEdit,
	}
}

// GetSchedule loads a student's schedule with enriched items. Reading also
// reconciles approval rows so gatekeepers only ever see rows for currently
// selected gated courses.
func (s *ScheduleService) GetSchedule(ctx context.Context, studentID string) (*models.ScheduleDetail, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	schedule, err := s.schedules.FindByStudent(ctx, studentID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
		}
		schedule = &models.Schedule{StudentID: studentID}
	}
	// The student roster is authoritative for identity fields.
	schedule.StudentName = student.FullName
	schedule.GradeLevel = student.GradeLevel

	items, gated, err := s.enrich(ctx, studentID, schedule)
	if err != nil {
		return nil, err
	}

	if err := s.reconcileApprovals(ctx, studentID, gated); err != nil {
		return nil, err
	}

	locks, err := s.settings.GradeLocks(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade locks")
	}

	return &models.ScheduleDetail{
		Schedule:  *schedule,
		Items:     items,
		CanSubmit: locks.CanSubmit(student.GradeLevel),
	}, nil
}

// Save validates and persists the full schedule payload. Students are subject
// to the per-grade submission lock; counselors and admins always write.
func (s *ScheduleService) Save(ctx context.Context, actor *models.JWTClaims, payload workflow.SavePayload) error {
	student, err := s.students.FindByID(ctx, payload.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if actor.Role == models.RoleStudent {
		locks, err := s.settings.GradeLocks(ctx)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade locks")
		}
		if !locks.CanSubmit(student.GradeLevel) {
			return appErrors.Clone(appErrors.ErrSubmissionLocked, "")
		}
	}

	if err := s.validatePayload(payload); err != nil {
		return err
	}

	existing, err := s.schedules.FindByStudent(ctx, payload.StudentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	schedule := &models.Schedule{
		StudentID:           payload.StudentID,
		StudentName:         student.FullName,
		GradeLevel:          student.GradeLevel,
		AcademicCourses:     payload.AcademicCourses,
		ElectiveCourses:     payload.ElectiveCourses,
		SpecialInstructions: payload.SpecialInstructions,
	}
	if existing != nil {
		schedule.ID = existing.ID
		schedule.CreatedAt = existing.CreatedAt
	}
	if err := s.schedules.Upsert(ctx, schedule); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule")
	}

	_, gated, err := s.enrich(ctx, payload.StudentID, schedule)
	if err != nil {
		return err
	}
	if err := s.reconcileApprovals(ctx, payload.StudentID, gated); err != nil {
		return err
	}

	if s.clearOnEdit && existing != nil && existing.Reviewed && payloadChanged(existing, schedule) {
		if err := s.schedules.SetReviewed(ctx, payload.StudentID, false); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear sign-off")
		}
	}

	s.recordAudit(ctx, actor, models.AuditActionScheduleSave, payload.StudentID, schedule)
	return nil
}

// Reset removes the schedule row and every approval row for the student.
func (s *ScheduleService) Reset(ctx context.Context, actor *models.JWTClaims, studentID string) error {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if err := s.schedules.Delete(ctx, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset schedule")
	}
	if err := s.approvals.DeleteByStudent(ctx, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear approvals")
	}

	s.recordAudit(ctx, actor, models.AuditActionScheduleReset, studentID, nil)
	return nil
}

// SignOff marks the schedule reviewed. Signing off an unscheduled student
// first creates the empty schedule row.
func (s *ScheduleService) SignOff(ctx context.Context, actor *models.JWTClaims, studentID string) error {
	err := s.schedules.SetReviewed(ctx, studentID, true)
	if errors.Is(err, sql.ErrNoRows) {
		student, ferr := s.students.FindByID(ctx, studentID)
		if ferr != nil {
			if errors.Is(ferr, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return appErrors.Wrap(ferr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		empty := &models.Schedule{
			StudentID:   studentID,
			StudentName: student.FullName,
			GradeLevel:  student.GradeLevel,
		}
		if uerr := s.schedules.Upsert(ctx, empty); uerr != nil {
			return appErrors.Wrap(uerr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule for sign-off")
		}
		err = s.schedules.SetReviewed(ctx, studentID, true)
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign off schedule")
	}

	s.metrics.RecordSignOff()
	s.recordAudit(ctx, actor, models.AuditActionSignOff, studentID, nil)
	return nil
}

// Limits exposes the configured capacity limits.
func (s *ScheduleService) Limits() workflow.Limits { return s.limits }

// enrich resolves each stored label against the catalog and approval rows.
// It returns the projected items and the gated approval rows the current
// selection requires.
func (s *ScheduleService) enrich(ctx context.Context, studentID string, schedule *models.Schedule) (models.ScheduleItems, []models.Approval, error) {
	labels := make([]string, 0, len(schedule.AcademicCourses)+len(schedule.ElectiveCourses))
	labels = append(labels, schedule.AcademicCourses...)
	labels = append(labels, schedule.ElectiveCourses...)

	codes := make([]string, 0, len(labels))
	for _, label := range labels {
		codes = append(codes, workflow.ExtractCode(label))
	}

	courseMap, err := s.courses.MapByCodes(ctx, codes)
	if err != nil {
		return models.ScheduleItems{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve courses")
	}
	approvalMap, err := s.approvals.MapForStudent(ctx, studentID)
	if err != nil {
		return models.ScheduleItems{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approvals")
	}

	var gated []models.Approval
	build := func(labels []string) []models.ScheduleItem {
		items := make([]models.ScheduleItem, 0, len(labels))
		for _, label := range labels {
			code := workflow.ExtractCode(label)
			item := models.ScheduleItem{
				Display:        label,
				CourseCode:     code,
				ApprovalStatus: models.ApprovalApproved,
			}
			if course, ok := courseMap[code]; ok {
				item.SubjectArea = course.SubjectArea
				item.RequiresApproval = course.RequiresApproval
				item.TeacherEmail = course.TeacherEmail
				if course.RequiresApproval {
					item.ApprovalStatus = models.ApprovalPending
					if row, ok := approvalMap[code]; ok {
						item.ApprovalStatus = row.Status
					}
					gated = append(gated, models.Approval{
						StudentID:    studentID,
						CourseCode:   code,
						Status:       models.ApprovalPending,
						TeacherEmail: course.TeacherEmail,
					})
				}
			}
			items = append(items, item)
		}
		return items
	}

	items := models.ScheduleItems{
		Academic: build(schedule.AcademicCourses),
		Elective: build(schedule.ElectiveCourses),
	}
	return items, gated, nil
}

// reconcileApprovals aligns approval rows with the current gated selections:
// rows for deselected courses are dropped, new gated selections get a pending
// row, existing dispositions are untouched.
func (s *ScheduleService) reconcileApprovals(ctx context.Context, studentID string, gated []models.Approval) error {
	selected := make([]string, 0, len(gated))
	for _, row := range gated {
		selected = append(selected, row.CourseCode)
	}
	if err := s.approvals.DeleteUnselected(ctx, studentID, selected); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prune approvals")
	}
	if len(gated) == 0 {
		return nil
	}
	if err := s.approvals.EnsurePending(ctx, gated); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pending approvals")
	}
	return nil
}

func (s *ScheduleService) validatePayload(payload workflow.SavePayload) error {
	if len(payload.AcademicCourses) > s.limits.MaxAcademic {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("academic selections exceed the limit of %d", s.limits.MaxAcademic))
	}
	if len(payload.ElectiveCourses) > s.limits.MaxElective {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("elective choices exceed the limit of %d", s.limits.MaxElective))
	}
	if code, dup := firstDuplicateCode(payload.AcademicCourses); dup {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate academic selection %q", code))
	}
	if code, dup := firstDuplicateCode(payload.ElectiveCourses); dup {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate elective choice %q", code))
	}
	return nil
}

func (s *ScheduleService) recordAudit(ctx context.Context, actor *models.JWTClaims, action, studentID string, payload interface{}) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "schedule",
		ResourceID: &studentID,
	}
	if actor != nil {
		log.UserID = &actor.UserID
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			log.NewValues = raw
		}
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record schedule audit log", zap.Error(err))
	}
}

func firstDuplicateCode(labels []string) (string, bool) {
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		code := workflow.ExtractCode(label)
		if _, ok := seen[code]; ok {
			return code, true
		}
		seen[code] = struct{}{}
	}
	return "", false
}

func payloadChanged(before, after *models.Schedule) bool {
	if before.SpecialInstructions != after.SpecialInstructions {
		return true
	}
	if !equalLabels(before.AcademicCourses, after.AcademicCourses) {
		return true
	}
	return !equalLabels(before.ElectiveCourses, after.ElectiveCourses)
}

func equalLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
