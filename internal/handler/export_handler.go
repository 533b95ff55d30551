package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/westfield-hs/scheduler-api/internal/models"
	"github.com/westfield-hs/scheduler-api/internal/service"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
	"github.com/westfield-hs/scheduler-api/pkg/response"
)

// ExportHandler serves roster and schedule document downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// RosterCSV godoc
// @Summary Download the roster as CSV
// @Tags Exports
// @Produce text/csv
// @Param name query string false "Student name (substring match)"
// @Param grade query string false "Grade level (exact match)"
// @Param course query string false "Course name or code selected anywhere on the schedule"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/roster.csv [get]
func (h *ExportHandler) RosterCSV(c *gin.Context) {
	var filter models.RosterFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid roster filter"))
		return
	}

	payload, filename, err := h.exports.RosterCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// SchedulePDF godoc
// @Summary Download a student's schedule card as PDF
// @Tags Exports
// @Produce application/pdf
// @Param studentId path string true "Student ID"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{studentId}/schedule.pdf [get]
func (h *ExportHandler) SchedulePDF(c *gin.Context) {
	payload, filename, err := h.exports.SchedulePDF(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
