package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/service"
	"github.com/blaisecz/nap-planner/pkg/pagination"
	"github.com/blaisecz/nap-planner/pkg/problem"
	"github.com/google/uuid"
)

type SessionHandler struct {
	service service.SleepSessionService
}

func NewSessionHandler(service service.SleepSessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// PutDown handles POST /v1/children/{childId}/sessions
// @Summary Put the child down
// @Description Start a nap or night sleep in PENDING state. Use client_request_id for safe retries (idempotency). Returns 200 if duplicate request, 201 if new.
// @Tags sessions
// @Accept json
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Param request body domain.CreateSessionRequest true "Put-down data"
// @Success 201 {object} domain.SleepSessionResponse "New session started"
// @Success 200 {object} domain.SleepSessionResponse "Existing session returned (idempotent duplicate)"
// @Failure 400 {object} problem.Problem "Invalid request body or parameters"
// @Failure 404 {object} problem.Problem "Child not found"
// @Failure 409 {object} problem.Problem "Another session is still in progress"
// @Failure 422 {object} problem.Problem "Put-down time in the future"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /children/{childId}/sessions [post]
func (h *SessionHandler) PutDown(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	var req domain.CreateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, isExisting, err := h.service.PutDown(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Child not found", "Failed to start session")
		return
	}

	status := http.StatusCreated
	if isExisting {
		status = http.StatusOK // idempotent duplicate
	}
	writeJSON(w, status, session.ToResponse())
}

// Get handles GET /v1/children/{childId}/sessions/{sessionId}
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Param sessionId path string true "Session ID" format(uuid)
// @Success 200 {object} domain.SleepSessionResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/sessions/{sessionId} [get]
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	cid, sid, ok := sessionIDs(w, r)
	if !ok {
		return
	}

	session, err := h.service.Get(r.Context(), cid, sid)
	if err != nil {
		writeError(w, err, "Session not found", "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, session.ToResponse())
}

// ApplyEvent handles POST /v1/children/{childId}/sessions/{sessionId}/events
// @Summary Record a session event
// @Description Advance the session: fell_asleep (PENDING to ASLEEP), woke_up (ASLEEP to AWAKE), out_of_crib (AWAKE to COMPLETED)
// @Tags sessions
// @Accept json
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Param sessionId path string true "Session ID" format(uuid)
// @Param request body domain.SessionEventRequest true "Event"
// @Success 200 {object} domain.SleepSessionResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem "Session not found"
// @Failure 409 {object} problem.Problem "Event not allowed in the current state"
// @Failure 422 {object} problem.Problem "Timestamp out of order or in the future"
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/sessions/{sessionId}/events [post]
func (h *SessionHandler) ApplyEvent(w http.ResponseWriter, r *http.Request) {
	cid, sid, ok := sessionIDs(w, r)
	if !ok {
		return
	}

	var req domain.SessionEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.service.ApplyEvent(r.Context(), cid, sid, &req)
	if err != nil {
		writeError(w, err, "Session not found", "Failed to apply event")
		return
	}

	writeJSON(w, http.StatusOK, session.ToResponse())
}

// Correct handles PATCH /v1/children/{childId}/sessions/{sessionId}
// @Summary Correct session timestamps
// @Description Overwrite timestamps already reached by the session; ordering must still hold afterwards
// @Tags sessions
// @Accept json
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Param sessionId path string true "Session ID" format(uuid)
// @Param request body domain.SessionCorrection true "Corrections"
// @Success 200 {object} domain.SleepSessionResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem "Session not found"
// @Failure 409 {object} problem.Problem "Timestamp not yet reached"
// @Failure 422 {object} problem.Problem "Timestamps out of order"
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/sessions/{sessionId} [patch]
func (h *SessionHandler) Correct(w http.ResponseWriter, r *http.Request) {
	cid, sid, ok := sessionIDs(w, r)
	if !ok {
		return
	}

	var req domain.SessionCorrection
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.service.Correct(r.Context(), cid, sid, &req)
	if err != nil {
		writeError(w, err, "Session not found", "Failed to correct session")
		return
	}

	writeJSON(w, http.StatusOK, session.ToResponse())
}

// CribStatus handles GET /v1/children/{childId}/sessions/{sessionId}/crib
// @Summary Check the minimum crib time rule
// @Tags sessions
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Param sessionId path string true "Session ID" format(uuid)
// @Success 200 {object} domain.CribCompliance
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem "Session not found"
// @Failure 500 {object} problem.Problem
// @Router /children/{childId}/sessions/{sessionId}/crib [get]
func (h *SessionHandler) CribStatus(w http.ResponseWriter, r *http.Request) {
	cid, sid, ok := sessionIDs(w, r)
	if !ok {
		return
	}

	status, err := h.service.CribStatus(r.Context(), cid, sid)
	if err != nil {
		writeError(w, err, "Session not found", "Failed to check crib time")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// List handles GET /v1/children/{childId}/sessions
// @Summary List sessions
// @Description Fetch paginated sleep history, newest put-down first. Filter by date range and type.
// @Tags sessions
// @Produce json
// @Param childId path string true "Child ID" format(uuid)
// @Param from query string false "Start of date range (RFC3339)" format(date-time) example(2024-01-01T00:00:00Z)
// @Param to query string false "End of date range (RFC3339)" format(date-time) example(2024-01-31T23:59:59Z)
// @Param type query string false "Session type" Enums(NAP, NIGHT_SLEEP)
// @Param limit query integer false "Results per page (1-100)" default(20) minimum(1) maximum(100)
// @Param cursor query string false "Cursor from previous response's next_cursor"
// @Success 200 {object} domain.SleepSessionListResponse "Sessions with pagination"
// @Failure 400 {object} problem.Problem "Invalid child ID"
// @Failure 404 {object} problem.Problem "Child not found"
// @Failure 422 {object} problem.Problem "Invalid query parameters"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /children/{childId}/sessions [get]
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(w, r)
	if !ok {
		return
	}

	filter, fieldErrors := parseListFilter(r)
	if fieldErrors != nil {
		problem.ValidationError("Invalid query parameters", fieldErrors).Write(w)
		return
	}

	response, err := h.service.List(r.Context(), id, filter)
	if err != nil {
		writeError(w, err, "Child not found", "Failed to list sessions")
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func sessionIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	cid, ok := childID(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	sid, ok := uuidParam(w, r, "sessionId", "Invalid session ID format")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return cid, sid, true
}

func parseListFilter(r *http.Request) (domain.SessionFilter, []problem.FieldError) {
	var filter domain.SessionFilter
	var fieldErrors []problem.FieldError
	q := r.URL.Query()

	parseTime := func(name string) *time.Time {
		raw := q.Get(name)
		if raw == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fieldErrors = append(fieldErrors, problem.FieldError{
				Field:   name,
				Message: "must be a valid RFC3339 timestamp",
			})
			return nil
		}
		return &t
	}
	filter.From = parseTime("from")
	filter.To = parseTime("to")

	if typ := q.Get("type"); typ != "" {
		st := domain.SessionType(typ)
		if st != domain.SessionNap && st != domain.SessionNightSleep {
			fieldErrors = append(fieldErrors, problem.FieldError{
				Field:   "type",
				Message: "must be one of: NAP, NIGHT_SLEEP",
			})
		} else {
			filter.Type = &st
		}
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > pagination.MaxLimit {
			fieldErrors = append(fieldErrors, problem.FieldError{
				Field:   "limit",
				Message: "must be an integer between 1 and 100",
			})
		} else {
			filter.Limit = limit
		}
	}

	filter.Cursor = q.Get("cursor")
	if _, err := pagination.DecodeCursor(filter.Cursor); err != nil {
		fieldErrors = append(fieldErrors, problem.FieldError{
			Field:   "cursor",
			Message: "is not a valid cursor",
		})
	}

	if len(fieldErrors) > 0 {
		return filter, fieldErrors
	}
	return filter, nil
}
