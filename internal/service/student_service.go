package service

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/westfield-hs/scheduler-api/internal/models"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
)

type studentDirectoryRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

// StudentInput is the enrollment payload.
type StudentInput struct {
	FullName   string `json:"full_name" validate:"required"`
	GradeLevel string `json:"grade_level" validate:"required"`
}

// StudentService serves the enrollment directory behind the counselor roster:
// the full student list in enrollment order, and new enrollments.
type StudentService struct {
	students  studentDirectoryRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(students studentDirectoryRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, audit: audit, validator: validate, logger: logger}
}

// Directory returns every enrolled student in enrollment order, the same
// stable ordering the counselor roster walk uses.
func (s *StudentService) Directory(ctx context.Context) ([]models.Student, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Enroll adds a student to the roster.
func (s *StudentService) Enroll(ctx context.Context, actor *models.JWTClaims, input StudentInput) (*models.Student, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := &models.Student{FullName: input.FullName, GradeLevel: input.GradeLevel}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}

	if s.audit != nil {
		raw, _ := json.Marshal(student)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionStudentEnroll,
			Resource:   "student",
			ResourceID: &student.ID,
			NewValues:  raw,
		}); err != nil {
			s.logger.Warn("failed to record enrollment audit log", zap.Error(err))
		}
	}
	return student, nil
}
