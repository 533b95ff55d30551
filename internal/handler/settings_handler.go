package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/westfield-hs/scheduler-api/internal/service"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
	"github.com/westfield-hs/scheduler-api/pkg/response"
)

// SettingsHandler serves the per-grade submission switches.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler creates a new handler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GradeLockPayload is the submission switch request body.
type GradeLockPayload struct {
	Open *bool `json:"open" binding:"required"`
}

// GradeLocks godoc
// @Summary Get the per-grade submission switches
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/grade-locks [get]
func (h *SettingsHandler) GradeLocks(c *gin.Context) {
	locks, err := h.settings.GradeLocks(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, locks, nil)
}

// SetGradeLock godoc
// @Summary Open or close submissions for a grade
// @Tags Settings
// @Accept json
// @Produce json
// @Param grade path string true "Grade level"
// @Param payload body GradeLockPayload true "Switch payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/grade-locks/{grade} [put]
func (h *SettingsHandler) SetGradeLock(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload GradeLockPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade lock payload"))
		return
	}

	grade := c.Param("grade")
	if err := h.settings.SetGradeLock(c.Request.Context(), claims, grade, *payload.Open); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"grade_level": grade, "open": *payload.Open}, nil)
}
