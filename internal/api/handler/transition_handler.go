package handler

import (
	"net/http"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/service"
)

const noTransition = "No transition for child"

type TransitionHandler struct {
	service service.TransitionService
}

func NewTransitionHandler(service service.TransitionService) *TransitionHandler {
	return &TransitionHandler{service: service}
}

// Start handles POST /v1/children/{childId}/transition
// @Summary Start a 2-to-1 nap transition
// @Description Begins the transition with a single nap at 11:30 (or the given start time). A target of 4 weeks or less selects the fast-track pace.
// @Tags transition
// @Accept json
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Param request body domain.StartTransitionRequest false "Transition options"
// @Success 201 {object} domain.TransitionResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem "Child not found"
// @Failure 409 {object} problem.Problem "A transition is already in progress"
// @Failure 422 {object} problem.Problem "Start nap time out of range"
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/transition [post]
func (h *TransitionHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	var req domain.StartTransitionRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	resp, err := h.service.Start(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Child not found", "Failed to start transition")
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/children/{childId}/transition
// @Summary Get transition progress
// @Description Returns the active transition, or the most recent completed one, with phase, percent complete and next milestone.
// @Tags transition
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Success 200 {object} domain.TransitionResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/transition [get]
func (h *TransitionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, noTransition, "Failed to get transition")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Progress handles PATCH /v1/children/{childId}/transition
// @Summary Progress the transition
// @Description Push the nap later, advance the week, edit notes or complete. Completing switches the child to a ONE_NAP schedule.
// @Tags transition
// @Accept json
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Param request body domain.TransitionPatch true "Changes"
// @Success 200 {object} domain.TransitionResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem "No active transition"
// @Failure 409 {object} problem.Problem "Transition already completed"
// @Failure 422 {object} problem.Problem "Nap moved earlier, past the goal, or week moved backwards"
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/transition [patch]
func (h *TransitionHandler) Progress(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	var patch domain.TransitionPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	resp, err := h.service.Progress(r.Context(), id, &patch)
	if err != nil {
		writeError(w, err, "No active transition", "Failed to update transition")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Cancel handles DELETE /v1/children/{childId}/transition
// @Summary Cancel the active transition
// @Tags transition
// @Param childId path string true "Child ID" format(uuid)
// @Success 204 "Transition cancelled"
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem "No active transition"
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/transition [delete]
func (h *TransitionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	if err := h.service.Cancel(r.Context(), id); err != nil {
		writeError(w, err, "No active transition", "Failed to cancel transition")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PushReadiness handles GET /v1/children/{childId}/transition/push-readiness
// @Summary Check whether to push the nap later
// @Description Analyses the last 7 days of naps against the transition's pace and last push.
// @Tags transition
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Success 200 {object} domain.NapPushRecommendation
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem "No active transition"
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/transition/push-readiness [get]
func (h *TransitionHandler) PushReadiness(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.PushReadiness(r.Context(), id)
	if err != nil {
		writeError(w, err, "No active transition", "Failed to analyse push readiness")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// ApplyPush handles POST /v1/children/{childId}/transition/push
// @Summary Apply the suggested nap push
// @Description Moves the nap to the suggested time when the readiness analysis says to push.
// @Tags transition
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Success 200 {object} domain.TransitionResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem "No active transition"
// @Failure 409 {object} problem.Problem "Not ready to push"
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/transition/push [post]
func (h *TransitionHandler) ApplyPush(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.ApplyPush(r.Context(), id)
	if err != nil {
		writeError(w, err, "No active transition", "Failed to push nap")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
