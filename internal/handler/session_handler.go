package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oazco/profiler-backend/internal/model"
	"github.com/oazco/profiler-backend/internal/repository"
	"github.com/oazco/profiler-backend/internal/response"
	"github.com/oazco/profiler-backend/internal/service"
	"github.com/oazco/profiler-backend/internal/validator"
)

// SessionHandler handles the assessment session endpoints.
type SessionHandler struct {
	assessments *service.AssessmentService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(assessments *service.AssessmentService) *SessionHandler {
	return &SessionHandler{assessments: assessments}
}

// StartSession godoc
// POST /api/v1/sessions
// Creates a session and returns its access token.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.assessments.StartSession(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// NextItem godoc
// GET /api/v1/sessions/:id/next
// Returns the next question, or the reason the assessment is over.
func (h *SessionHandler) NextItem(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	result, err := h.assessments.NextItem(c.Request.Context(), sessionID)
	if err != nil {
		failAssessmentError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// SubmitResponse godoc
// POST /api/v1/sessions/:id/responses
// Grades and records one answer.
func (h *SessionHandler) SubmitResponse(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req model.SubmitResponseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.assessments.SubmitResponse(c.Request.Context(), sessionID, &req)
	if err != nil {
		failAssessmentError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Finalize godoc
// POST /api/v1/sessions/:id/finalize
// Completes the session and returns its results.
func (h *SessionHandler) Finalize(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	results, err := h.assessments.Finalize(c.Request.Context(), sessionID)
	if err != nil {
		failAssessmentError(c, err)
		return
	}

	response.Success(c, http.StatusOK, results)
}

// Results godoc
// GET /api/v1/sessions/:id/results
// Returns the results of a completed session.
func (h *SessionHandler) Results(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	results, err := h.assessments.Results(c.Request.Context(), sessionID)
	if err != nil {
		failAssessmentError(c, err)
		return
	}

	response.Success(c, http.StatusOK, results)
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// failAssessmentError maps service errors to API error codes.
func failAssessmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrSessionCompleted):
		response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
	case errors.Is(err, service.ErrSessionNotCompleted):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotCompleted)
	case errors.Is(err, service.ErrItemAlreadyAnswered):
		response.Fail(c, http.StatusConflict, response.ErrItemAlreadyAnswered)
	case errors.Is(err, service.ErrAssessmentComplete):
		response.Fail(c, http.StatusConflict, response.ErrAssessmentComplete)
	case errors.Is(err, service.ErrNoItemsAvailable):
		response.Fail(c, http.StatusConflict, response.ErrNoItemsAvailable)
	case errors.Is(err, service.ErrItemVariantMismatch):
		response.Fail(c, http.StatusBadRequest, response.ErrItemVariantMismatch)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
