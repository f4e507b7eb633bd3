package handler

import (
	"net/http"
	"strconv"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/service"
	"github.com/blaisecz/nap-planner/pkg/problem"
	"github.com/go-chi/chi/v5"
)

type ScheduleHandler struct {
	service service.ScheduleService
}

func NewScheduleHandler(service service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// Get handles GET /v1/children/{childId}/schedule
// @Summary Get the active schedule
// @Description Returns the child's active schedule with its expanded nap windows
// @Tags schedule
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Success 200 {object} domain.ScheduleResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem "Child or schedule not found"
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/schedule [get]
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	cfg, err := h.service.GetActive(r.Context(), id)
	if err != nil {
		writeError(w, err, "No active schedule for child", "Failed to get schedule")
		return
	}

	writeJSON(w, http.StatusOK, cfg.ToResponse())
}

// Replace handles PUT /v1/children/{childId}/schedule
// @Summary Replace the active schedule
// @Description Validates the full configuration and makes it the child's only active schedule
// @Tags schedule
// @Accept json
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Param request body domain.ScheduleRequest true "Schedule configuration"
// @Success 200 {object} domain.ScheduleResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem "Child not found"
// @Failure 422 {object} problem.Problem "Schedule invariants violated"
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/schedule [put]
func (h *ScheduleHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	var req domain.ScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cfg, err := h.service.Replace(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Child not found", "Failed to replace schedule")
		return
	}

	writeJSON(w, http.StatusOK, cfg.ToResponse())
}

// NapWindow handles GET /v1/children/{childId}/schedule/naps/{napNumber}
// @Summary Get one nap window
// @Tags schedule
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Param napNumber path integer true "Nap number" minimum(1) maximum(3)
// @Success 200 {object} domain.NapWindow
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem "Schedule or nap not configured"
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/schedule/naps/{napNumber} [get]
func (h *ScheduleHandler) NapWindow(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}
	napNumber, err := strconv.Atoi(chi.URLParam(r, "napNumber"))
	if err != nil || napNumber < 1 || napNumber > 3 {
		problem.BadRequest("napNumber must be 1, 2 or 3").Write(w)
		return
	}

	window, err := h.service.NapWindow(r.Context(), id, napNumber)
	if err != nil {
		writeError(w, err, "Nap is not configured", "Failed to get nap window")
		return
	}

	writeJSON(w, http.StatusOK, window)
}
