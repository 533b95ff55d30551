package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/westfield-hs/scheduler-api/internal/service"
	"github.com/westfield-hs/scheduler-api/internal/workflow"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
	"github.com/westfield-hs/scheduler-api/pkg/response"
)

// ScheduleHandler serves the per-student schedule record.
type ScheduleHandler struct {
	schedules *service.ScheduleService
	approvals *service.ApprovalService
	roster    *service.RosterService
}

// NewScheduleHandler creates a new handler.
func NewScheduleHandler(schedules *service.ScheduleService, approvals *service.ApprovalService, roster *service.RosterService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, approvals: approvals, roster: roster}
}

// SavePayload is the schedule write request body.
type SavePayload struct {
	AcademicCourses     []string `json:"academic_courses"`
	ElectiveCourses     []string `json:"elective_courses"`
	SpecialInstructions string   `json:"special_instructions"`
}

// Get godoc
// @Summary Get a student's schedule
// @Description Returns the stored schedule enriched with catalog and approval context
// @Tags Schedules
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{studentId}/schedule [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	detail, err := h.schedules.GetSchedule(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Save godoc
// @Summary Save a student's schedule
// @Description Replaces both course lists and the special instructions. Students are subject to the per-grade submission lock.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param payload body SavePayload true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{studentId}/schedule [put]
func (h *ScheduleHandler) Save(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var body SavePayload
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}

	payload := workflow.SavePayload{
		StudentID:           c.Param("studentId"),
		AcademicCourses:     body.AcademicCourses,
		ElectiveCourses:     body.ElectiveCourses,
		SpecialInstructions: body.SpecialInstructions,
	}
	if err := h.schedules.Save(c.Request.Context(), claims, payload); err != nil {
		response.Error(c, err)
		return
	}
	if h.roster != nil {
		h.roster.Invalidate(c.Request.Context())
	}

	detail, err := h.schedules.GetSchedule(c.Request.Context(), payload.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Reset godoc
// @Summary Reset a student's schedule
// @Description Removes the schedule and every approval row for the student
// @Tags Schedules
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{studentId}/schedule [delete]
func (h *ScheduleHandler) Reset(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.schedules.Reset(c.Request.Context(), claims, c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	if h.roster != nil {
		h.roster.Invalidate(c.Request.Context())
	}
	response.NoContent(c)
}

// SignOff godoc
// @Summary Sign off a student's schedule
// @Description Marks the schedule reviewed; signing off an unscheduled student creates the empty record first
// @Tags Schedules
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{studentId}/schedule/signoff [post]
func (h *ScheduleHandler) SignOff(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	studentID := c.Param("studentId")
	if err := h.schedules.SignOff(c.Request.Context(), claims, studentID); err != nil {
		response.Error(c, err)
		return
	}
	if h.roster != nil {
		h.roster.Invalidate(c.Request.Context())
	}
	response.JSON(c, http.StatusOK, gin.H{"student_id": studentID, "reviewed": true}, nil)
}

// ApprovalCounts godoc
// @Summary Approval counts for a student
// @Description Summarises outstanding gatekeeper work on the student's gated selections
// @Tags Schedules
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/schedule/approvals [get]
func (h *ScheduleHandler) ApprovalCounts(c *gin.Context) {
	counts, err := h.approvals.Counts(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}
