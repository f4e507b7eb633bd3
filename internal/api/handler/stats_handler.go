package handler

import (
	"fmt"
	"net/http"

	"github.com/blaisecz/nap-planner/internal/service"
	"github.com/blaisecz/nap-planner/pkg/problem"
)

// StatsHandler serves rolling statistics and the next-sleep recommendation.
type StatsHandler struct {
	stats           service.StatsService
	recommendations service.RecommendationService
}

func NewStatsHandler(stats service.StatsService, recommendations service.RecommendationService) *StatsHandler {
	return &StatsHandler{stats: stats, recommendations: recommendations}
}

// Stats handles GET /v1/children/{childId}/stats
// @Summary Get rolling sleep statistics
// @Description Aggregate completed sessions over a trailing window in the child's timezone.
// @Tags planning
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Param window_days query integer false "Number of days to aggregate" default(7) minimum(1) maximum(90)
// @Success 200 {object} domain.AggregateStats
// @Failure 400 {object} problem.Problem "Invalid query parameters"
// @Failure 404 {object} problem.Problem "Child not found"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /children/{childId}/stats [get]
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	windowDays, err := parseIntParam(r, "window_days", service.DefaultStatsWindowDays)
	if err != nil || windowDays < 1 || windowDays > service.MaxStatsWindowDays {
		problem.BadRequest(fmt.Sprintf("window_days must be between 1 and %d", service.MaxStatsWindowDays)).Write(w)
		return
	}

	stats, err := h.stats.Aggregate(r.Context(), id, windowDays)
	if err != nil {
		writeError(w, err, "Child not found", "Failed to compute statistics")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Recommendation handles GET /v1/children/{childId}/recommendation
// @Summary Get the next sleep recommendation
// @Description What to do next (NAP, BEDTIME, WAIT or WAKE) with earliest, latest and target times, plus crib status of any session in progress.
// @Tags planning
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Success 200 {object} domain.RecommendationResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem "Child or schedule not found"
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/recommendation [get]
func (h *StatsHandler) Recommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	resp, err := h.recommendations.Next(r.Context(), id)
	if err != nil {
		writeError(w, err, "Child or active schedule not found", "Failed to compute recommendation")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
