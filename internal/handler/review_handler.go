package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/westfield-hs/scheduler-api/internal/models"
	"github.com/westfield-hs/scheduler-api/internal/service"
	"github.com/westfield-hs/scheduler-api/internal/workflow"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
	"github.com/westfield-hs/scheduler-api/pkg/response"
)

// ReviewHandler serves the counselor review session endpoints. Every route
// operates on the calling counselor's own session.
type ReviewHandler struct {
	reviews *service.ReviewService
}

// NewReviewHandler creates a new handler.
func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Open godoc
// @Summary Open a review session on a student
// @Description Starts (or replaces) the counselor's editor session on the given student
// @Tags Review
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /review/open/{studentId} [post]
func (h *ReviewHandler) Open(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	state, err := h.reviews.Open(c.Request.Context(), claims, c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// State godoc
// @Summary Current review session state
// @Tags Review
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /review/state [get]
func (h *ReviewHandler) State(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, h.reviews.State(claims), nil)
}

// AddCourse godoc
// @Summary Add a course to the working schedule
// @Description Resolves the code against the catalog and routes it by subject area. Duplicate and at-capacity adds are no-ops.
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body map[string]string true "Course code payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /review/courses [post]
func (h *ReviewHandler) AddCourse(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		CourseCode string `json:"course_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "course code required"))
		return
	}

	state, added, err := h.reviews.AddCourse(c.Request.Context(), claims, payload.CourseCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"state": state, "added": added}, nil)
}

// RemoveItem godoc
// @Summary Remove a working schedule item
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body map[string]interface{} true "Category and index payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /review/courses/remove [post]
func (h *ReviewHandler) RemoveItem(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Category workflow.Category `json:"category" binding:"required"`
		Index    int               `json:"index"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "category and index required"))
		return
	}

	state, removed, err := h.reviews.RemoveItem(claims, payload.Category, payload.Index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"state": state, "removed": removed}, nil)
}

// MoveElective godoc
// @Summary Shift an elective's priority
// @Description Moves the elective at index one position toward the front (previous) or back (next). Boundary moves are no-ops.
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body map[string]interface{} true "Index and direction payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /review/electives/move [post]
func (h *ReviewHandler) MoveElective(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Index     int              `json:"index"`
		Direction models.Direction `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "index and direction required"))
		return
	}

	state, moved, err := h.reviews.MoveElective(claims, payload.Index, payload.Direction)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"state": state, "moved": moved}, nil)
}

// SetNotes godoc
// @Summary Replace the working special instructions
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body map[string]string true "Notes payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /review/notes [put]
func (h *ReviewHandler) SetNotes(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Notes string `json:"special_instructions"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notes payload"))
		return
	}

	state, err := h.reviews.SetNotes(claims, payload.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Commit godoc
// @Summary Persist the working schedule
// @Tags Review
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /review/commit [post]
func (h *ReviewHandler) Commit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	state, err := h.reviews.Commit(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Reset godoc
// @Summary Hard-reset the open student's schedule
// @Description Deletes the stored schedule and approvals, then reloads the session empty
// @Tags Review
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /review/reset [post]
func (h *ReviewHandler) Reset(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	state, err := h.reviews.Reset(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// SignOffPayload controls the review sign-off behavior.
type SignOffPayload struct {
	Confirm bool `json:"confirm"`
	Advance bool `json:"advance"`
}

// SignOff godoc
// @Summary Sign off the open student
// @Description Unsaved edits require confirm, which commits them first. With advance set, the walk moves to the next student in the filtered ordering; an empty next_student_id means the roster end was reached.
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body SignOffPayload true "Sign-off payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /review/signoff [post]
func (h *ReviewHandler) SignOff(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload SignOffPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sign-off payload"))
		return
	}

	state, next, err := h.reviews.SignOff(c.Request.Context(), claims, payload.Confirm, payload.Advance)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"state": state, "next_student_id": next}, nil)
}

// Navigate godoc
// @Summary Move to the adjacent student
// @Description Unsaved edits require confirm and are discarded, never committed. An empty student_id means the roster edge.
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body map[string]interface{} true "Direction and confirm payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /review/navigate [post]
func (h *ReviewHandler) Navigate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Direction models.Direction `json:"direction" binding:"required"`
		Confirm   bool             `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "direction required"))
		return
	}

	state, neighbor, err := h.reviews.Navigate(c.Request.Context(), claims, payload.Direction, payload.Confirm)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"state": state, "student_id": neighbor}, nil)
}

// SetFilter godoc
// @Summary Replace the roster filter for navigation
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body models.RosterFilter true "Filter payload"
// @Success 200 {object} response.Envelope
// @Router /review/filter [put]
func (h *ReviewHandler) SetFilter(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.RosterFilter
	if err := c.ShouldBindJSON(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid filter payload"))
		return
	}

	response.JSON(c, http.StatusOK, h.reviews.SetFilter(claims, filter), nil)
}

// Discard godoc
// @Summary Discard the working state
// @Description Drops unsaved edits and closes the session without persisting anything
// @Tags Review
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /review/discard [post]
func (h *ReviewHandler) Discard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, h.reviews.Discard(claims), nil)
}
