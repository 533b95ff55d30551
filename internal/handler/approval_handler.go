package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/westfield-hs/scheduler-api/internal/models"
	"github.com/westfield-hs/scheduler-api/internal/service"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
	"github.com/westfield-hs/scheduler-api/pkg/response"
)

// ApprovalHandler serves the gatekeeper workflow endpoints.
type ApprovalHandler struct {
	approvals *service.ApprovalService
	roster    *service.RosterService
}

// NewApprovalHandler creates a new handler.
func NewApprovalHandler(approvals *service.ApprovalService, roster *service.RosterService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals, roster: roster}
}

// DecisionPayload is the gatekeeper disposition request body.
type DecisionPayload struct {
	Status models.ApprovalStatus `json:"status" binding:"required"`
	Note   string                `json:"note"`
}

// SetDecision godoc
// @Summary Record a gatekeeper decision
// @Description Teachers dispose of gated selections for their own courses; counselors and admins for any course
// @Tags Approvals
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseCode path string true "Course code"
// @Param payload body DecisionPayload true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /approvals/{studentId}/{courseCode} [put]
func (h *ApprovalHandler) SetDecision(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload DecisionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	studentID := c.Param("studentId")
	courseCode := c.Param("courseCode")
	if err := h.approvals.SetDecision(c.Request.Context(), claims, studentID, courseCode, payload.Status, payload.Note); err != nil {
		response.Error(c, err)
		return
	}
	if h.roster != nil {
		h.roster.Invalidate(c.Request.Context())
	}

	// The response always carries a fresh read of the caller's roster view so
	// clients never render an optimistic disposition.
	if claims.Role == models.RoleTeacher {
		rosters, err := h.approvals.TeacherRoster(c.Request.Context(), claims.Email)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, gin.H{
			"student_id":  studentID,
			"course_code": courseCode,
			"status":      payload.Status,
			"roster":      rosters,
		}, nil)
		return
	}

	pending, err := h.approvals.PendingQueue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"student_id":  studentID,
		"course_code": courseCode,
		"status":      payload.Status,
		"pending":     pending,
	}, nil)
}

// Pending godoc
// @Summary List pending approvals
// @Description Every undecided gated selection across all students
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /approvals/pending [get]
func (h *ApprovalHandler) Pending(c *gin.Context) {
	pending, err := h.approvals.PendingQueue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pending, nil)
}

// TeacherRoster godoc
// @Summary Per-course student roster for the current teacher
// @Description Groups, per course the teacher owns, the students whose schedules select it
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/roster [get]
func (h *ApprovalHandler) TeacherRoster(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	rosters, err := h.approvals.TeacherRoster(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rosters, nil)
}
