package handler

import (
	"net/http"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/service"
	"go.opentelemetry.io/otel/trace"
)

// CoachingHandler serves LLM coaching for an active transition.
type CoachingHandler struct {
	service service.CoachingService
}

func NewCoachingHandler(service service.CoachingService) *CoachingHandler {
	return &CoachingHandler{service: service}
}

// Generate handles GET /v1/children/{childId}/transition/coaching
// @Summary Get LLM coaching for the transition
// @Description Combines transition progress, push readiness, recent statistics and the next recommendation into parent-facing guidance.
// @Tags transition
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Success 200 {object} domain.CoachingResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem "Child or active transition not found"
// @Failure 409 {object} problem.Problem "Transition already completed"
// @Failure 500 {object} problem.Problem "Server error"
// @Failure 502 {object} problem.Problem "LLM request failed"
// @Failure 503 {object} problem.Problem "LLM service unavailable"
// @Router /children/{childId}/transition/coaching [get]
func (h *CoachingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Generate(r.Context(), id)
	if err != nil {
		writeError(w, err, noTransition, "Failed to generate coaching")
		return
	}

	// Fall back to the request span so feedback can still be linked
	if result.TraceID == "" {
		if sc := trace.SpanFromContext(r.Context()).SpanContext(); sc.IsValid() {
			result.TraceID = sc.TraceID().String()
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// Feedback handles POST /v1/children/{childId}/transition/coaching/feedback
// @Summary Rate a coaching response
// @Description Submit a 1-5 rating and optional comment for a previous coaching response.
// @Tags transition
// @Accept json
// @Param childId path string true "Child ID" format(uuid)
// @Param request body domain.CoachingFeedbackRequest true "Feedback"
// @Success 204 "Feedback submitted"
// @Failure 400 {object} problem.Problem "Invalid request"
// @Failure 404 {object} problem.Problem "Child not found"
// @Failure 422 {object} problem.Problem "Invalid fields"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /children/{childId}/transition/coaching/feedback [post]
func (h *CoachingHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	var req domain.CoachingFeedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.Feedback(r.Context(), id, &req); err != nil {
		writeError(w, err, "Child not found", "Failed to record feedback")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
