package handler

import (
	"net/http"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/service"
)

type ChildHandler struct {
	service service.ChildService
}

func NewChildHandler(service service.ChildService) *ChildHandler {
	return &ChildHandler{service: service}
}

// Create handles POST /v1/children
// @Summary Register a child
// @Description Create a child with the timezone used for schedule wall-clock times
// @Tags children
// @Accept json
// @Produce json
// @Param request body domain.CreateChildRequest true "Child creation request"
// @Success 201 {object} domain.ChildResponse
// @Failure 400 {object} problem.Problem
// @Failure 422 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /children [post]
func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateChildRequest
	if !decodeBody(w, r, &req) {
		return
	}

	child, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Child not found", "Failed to create child")
		return
	}

	writeJSON(w, http.StatusCreated, child.ToResponse())
}

// GetByID handles GET /v1/children/{childId}
// @Summary Get child by ID
// @Tags children
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Success 200 {object} domain.ChildResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /children/{childId} [get]
func (h *ChildHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	child, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "Child not found", "Failed to get child")
		return
	}

	writeJSON(w, http.StatusOK, child.ToResponse())
}
