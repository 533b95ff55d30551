package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/westfield-hs/scheduler-api/internal/models"
	"github.com/westfield-hs/scheduler-api/internal/service"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
	"github.com/westfield-hs/scheduler-api/pkg/response"
)

// RosterHandler serves the counselor roster listing.
type RosterHandler struct {
	roster *service.RosterService
}

// NewRosterHandler creates a new handler.
func NewRosterHandler(roster *service.RosterService) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// List godoc
// @Summary List the student roster
// @Description Filtered roster in enrollment order with schedule and approval status per student
// @Tags Roster
// @Produce json
// @Param name query string false "Student name (substring match)"
// @Param grade query string false "Grade level (exact match)"
// @Param course query string false "Course name or code selected anywhere on the schedule"
// @Success 200 {object} response.Envelope
// @Router /roster [get]
func (h *RosterHandler) List(c *gin.Context) {
	var filter models.RosterFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid roster filter"))
		return
	}

	entries, err := h.roster.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Adjacent godoc
// @Summary Resolve the adjacent student in the filtered roster
// @Description Returns the student before or after the given one within the filtered ordering; an empty neighbor_id means the roster edge
// @Tags Roster
// @Produce json
// @Param studentId path string true "Student ID"
// @Param direction query string true "next or previous"
// @Param name query string false "Student name (substring match)"
// @Param grade query string false "Grade level (exact match)"
// @Param course query string false "Course name or code selected anywhere on the schedule"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /roster/{studentId}/adjacent [get]
func (h *RosterHandler) Adjacent(c *gin.Context) {
	var filter models.RosterFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid roster filter"))
		return
	}

	direction := models.Direction(c.Query("direction"))
	neighbor, err := h.roster.Adjacent(c.Request.Context(), c.Param("studentId"), direction, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"neighbor_id": neighbor}, nil)
}
