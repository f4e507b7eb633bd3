package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/blaisecz/nap-planner/internal/api/validation"
	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/llm"
	"github.com/blaisecz/nap-planner/pkg/problem"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto a problem response. notFound is the
// detail used for domain.ErrNotFound, fallback the detail for anything
// unexpected.
func writeError(w http.ResponseWriter, err error, notFound, fallback string) {
	var validationErrs domain.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		fields := make([]problem.FieldError, len(validationErrs))
		for i, e := range validationErrs {
			fields[i] = problem.FieldError{Field: e.Field, Message: e.Message}
		}
		problem.ValidationError("Schedule violates one or more constraints", fields).Write(w)
	case errors.Is(err, domain.ErrNotFound):
		problem.NotFound(notFound).Write(w)
	case errors.Is(err, domain.ErrSessionActive):
		problem.Conflict(err.Error()).Write(w)
	case errors.Is(err, domain.ErrConflict):
		problem.Conflict(err.Error()).Write(w)
	case errors.Is(err, domain.ErrInvalidState):
		problem.InvalidState(err.Error()).Write(w)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		problem.InvalidArgument(err.Error()).Write(w)
	case errors.Is(err, domain.ErrFormat), errors.Is(err, domain.ErrInvalidInput):
		problem.BadRequest(err.Error()).Write(w)
	case errors.Is(err, llm.ErrOpenAIUnavailable):
		problem.ServiceUnavailable("Coaching is not configured").Write(w)
	case errors.Is(err, llm.ErrOpenAIRequest), errors.Is(err, llm.ErrOpenAIResponse):
		problem.BadGateway("Failed to generate coaching from the LLM").Write(w)
	default:
		problem.InternalError(fallback).Write(w)
	}
}

// decodeBody reads a JSON body into dst and validates it. It writes the
// problem response and returns false when the body is unusable.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		problem.BadRequest("Invalid JSON body").Write(w)
		return false
	}
	if fieldErrors := validation.Validate(dst); fieldErrors != nil {
		problem.ValidationError("Request body contains invalid fields", fieldErrors).Write(w)
		return false
	}
	return true
}

// decodeOptionalBody is decodeBody for endpoints where the body may be
// omitted. An empty body, chunked or not, leaves dst at its zero value.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		problem.BadRequest("Invalid JSON body").Write(w)
		return false
	}
	if fieldErrors := validation.Validate(dst); fieldErrors != nil {
		problem.ValidationError("Request body contains invalid fields", fieldErrors).Write(w)
		return false
	}
	return true
}

func childID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return uuidParam(w, r, "childId", "Invalid child ID format")
}

func uuidParam(w http.ResponseWriter, r *http.Request, name, detail string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		problem.BadRequest(detail).Write(w)
		return uuid.Nil, false
	}
	return id, true
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultValue int) (int, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(val)
}
