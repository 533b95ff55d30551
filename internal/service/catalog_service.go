package service

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/westfield-hs/scheduler-api/internal/models"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
)

const (
	catalogCachePattern = "catalog:*"

	// maxDescriptionWords caps the free-text course description.
	maxDescriptionWords = 100
)

type catalogApprovalRepository interface {
	DeleteByCourse(ctx context.Context, courseCode string) error
}

type catalogCourseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	UpdateDescription(ctx context.Context, code, description string) error
	Delete(ctx context.Context, code string) error
}

// CourseInput is the admin create/update payload for a catalog course.
type CourseInput struct {
	Code             string `json:"code" validate:"required"`
	Name             string `json:"name" validate:"required"`
	SubjectArea      string `json:"subject_area" validate:"required"`
	Level            string `json:"level"`
	Description      string `json:"description"`
	TeacherName      string `json:"teacher_name"`
	TeacherEmail     string `json:"teacher_email" validate:"omitempty,email"`
	Room             string `json:"room"`
	GradeMin         int    `json:"grade_min" validate:"required,min=1"`
	GradeMax         int    `json:"grade_max" validate:"required,gtefield=GradeMin"`
	RequiresApproval bool   `json:"requires_approval"`
}

// CatalogService serves course catalog search and administration.
type CatalogService struct {
	courses   catalogCourseRepository
	approvals catalogApprovalRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs a CatalogService. approvals may be nil when no
// approval cleanup is wanted.
func NewCatalogService(courses catalogCourseRepository, approvals catalogApprovalRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{courses: courses, approvals: approvals, cache: cache, validator: validate, logger: logger}
}

// Search returns catalog courses matching the filter, cached per filter shape.
func (s *CatalogService) Search(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	key := catalogCacheKey(filter)
	var cached []models.Course
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	if err := s.cache.Set(ctx, key, courses, 0); err != nil {
		s.logger.Debug("catalog cache write failed", zap.Error(err))
	}
	return courses, nil
}

// Get returns a single course by code.
func (s *CatalogService) Get(ctx context.Context, code string) (*models.Course, error) {
	course, err := s.courses.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a new catalog course.
func (s *CatalogService) Create(ctx context.Context, input CourseInput) (*models.Course, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.courses.FindByCode(ctx, input.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}

	course := courseFromInput(input)
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx)
	return course, nil
}

// Update replaces a course's catalog fields.
func (s *CatalogService) Update(ctx context.Context, code string, input CourseInput) (*models.Course, error) {
	input.Code = code
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := courseFromInput(input)
	if err := s.courses.Update(ctx, course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidate(ctx)
	return course, nil
}

// UpdateDescription lets the owning teacher rewrite a course description.
// Counselors and admins may edit any description.
func (s *CatalogService) UpdateDescription(ctx context.Context, actor *models.JWTClaims, code, description string) error {
	course, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	if actor.Role == models.RoleTeacher && course.TeacherEmail != actor.Email {
		return appErrors.Clone(appErrors.ErrForbidden, "course belongs to another teacher")
	}
	if words := len(strings.Fields(description)); words > maxDescriptionWords {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("description exceeds %d words", maxDescriptionWords))
	}

	if err := s.courses.UpdateDescription(ctx, code, description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update description")
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a course from the catalog along with its approval rows.
// Stored schedule labels referring to the code are left in place; they
// surface as unknown selections.
func (s *CatalogService) Delete(ctx context.Context, code string) error {
	if _, err := s.Get(ctx, code); err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, code); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	if s.approvals != nil {
		if err := s.approvals.DeleteByCourse(ctx, code); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear course approvals")
		}
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, catalogCachePattern); err != nil {
		s.logger.Debug("catalog cache invalidation failed", zap.Error(err))
	}
}

func courseFromInput(input CourseInput) *models.Course {
	return &models.Course{
		Code:             input.Code,
		Name:             input.Name,
		SubjectArea:      input.SubjectArea,
		Level:            input.Level,
		Description:      input.Description,
		TeacherName:      input.TeacherName,
		TeacherEmail:     input.TeacherEmail,
		Room:             input.Room,
		GradeMin:         input.GradeMin,
		GradeMax:         input.GradeMax,
		RequiresApproval: input.RequiresApproval,
	}
}

func catalogCacheKey(filter models.CourseFilter) string {
	raw, _ := json.Marshal(filter)
	sum := sha1.Sum(raw)
	return fmt.Sprintf("catalog:search:%s", hex.EncodeToString(sum[:8]))
}
