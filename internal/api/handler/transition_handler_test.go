package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/google/uuid"
)

func transitionRequest(method, body string, childID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", bytes.NewBufferString(body))
	}
	return withURLParams(req, map[string]string{"childId": childID.String()})
}

func TestTransitionHandler_Start(t *testing.T) {
	childID := uuid.New()

	tests := []struct {
		name           string
		body           string
		err            error
		wantStatusCode int
		wantNapTime    string
	}{
		{"defaults without body", "", nil, http.StatusCreated, ""},
		{"custom start", `{"start_nap_time": "12:00", "target_weeks": 4}`, nil, http.StatusCreated, "12:00"},
		{"malformed nap time", `{"start_nap_time": "noon"}`, nil, http.StatusUnprocessableEntity, ""},
		{"already in progress", `{}`, fmt.Errorf("%w: a transition is already in progress", domain.ErrInvalidState), http.StatusConflict, ""},
		{"outside allowed range", `{"start_nap_time": "10:00"}`, domain.ErrInvalidArgument, http.StatusUnprocessableEntity, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *domain.StartTransitionRequest
			service := &MockTransitionService{
				startFunc: func(ctx context.Context, id uuid.UUID, req *domain.StartTransitionRequest) (*domain.TransitionResponse, error) {
					got = req
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.TransitionResponse{Transition: &domain.ScheduleTransition{ChildID: id}}, nil
				},
			}
			handler := NewTransitionHandler(service)
			rec := httptest.NewRecorder()

			handler.Start(rec, transitionRequest(http.MethodPost, tt.body, childID))

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("Start() status = %d, want %d, body: %s", rec.Code, tt.wantStatusCode, rec.Body.String())
			}
			if tt.wantStatusCode == http.StatusCreated && got.StartNapTime != tt.wantNapTime {
				t.Errorf("StartNapTime = %q, want %q", got.StartNapTime, tt.wantNapTime)
			}
		})
	}
}

func TestTransitionHandler_Start_EmptyChunkedBody(t *testing.T) {
	childID := uuid.New()
	var got *domain.StartTransitionRequest
	service := &MockTransitionService{
		startFunc: func(ctx context.Context, id uuid.UUID, req *domain.StartTransitionRequest) (*domain.TransitionResponse, error) {
			got = req
			return &domain.TransitionResponse{Transition: &domain.ScheduleTransition{ChildID: id}}, nil
		},
	}
	handler := NewTransitionHandler(service)

	for _, body := range []string{"", "  \n"} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		// Transfer-Encoding: chunked leaves the length unknown.
		req.ContentLength = -1
		req = withURLParams(req, map[string]string{"childId": childID.String()})
		rec := httptest.NewRecorder()

		handler.Start(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("Start(%q) status = %d, want 201, body: %s", body, rec.Code, rec.Body.String())
		}
		if got == nil || *got != (domain.StartTransitionRequest{}) {
			t.Errorf("Start(%q) passed %+v, want defaults", body, got)
		}
	}
}

func TestTransitionHandler_Progress(t *testing.T) {
	childID := uuid.New()

	tests := []struct {
		name           string
		body           string
		err            error
		wantStatusCode int
	}{
		{"push nap", `{"new_nap_time": "12:15"}`, nil, http.StatusOK},
		{"complete", `{"complete": true}`, nil, http.StatusOK},
		{"bad nap time", `{"new_nap_time": "12:75"}`, nil, http.StatusUnprocessableEntity},
		{"nap earlier", `{"new_nap_time": "11:00"}`, domain.ErrInvalidArgument, http.StatusUnprocessableEntity},
		{"no active transition", `{"complete": true}`, domain.ErrNotFound, http.StatusNotFound},
		{"invalid JSON", `{`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockTransitionService{
				progressFunc: func(ctx context.Context, id uuid.UUID, patch *domain.TransitionPatch) (*domain.TransitionResponse, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					tr := &domain.ScheduleTransition{ChildID: id, CurrentNapTime: "12:00"}
					if patch.NewNapTime != nil {
						tr.CurrentNapTime = *patch.NewNapTime
					}
					return &domain.TransitionResponse{Transition: tr, Progress: domain.TransitionProgress{Completed: patch.Complete}}, nil
				},
			}
			handler := NewTransitionHandler(service)
			rec := httptest.NewRecorder()

			handler.Progress(rec, transitionRequest(http.MethodPatch, tt.body, childID))

			if rec.Code != tt.wantStatusCode {
				t.Errorf("Progress() status = %d, want %d, body: %s", rec.Code, tt.wantStatusCode, rec.Body.String())
			}
		})
	}
}

func TestTransitionHandler_Cancel(t *testing.T) {
	childID := uuid.New()

	rec := httptest.NewRecorder()
	NewTransitionHandler(&MockTransitionService{}).Cancel(rec, transitionRequest(http.MethodDelete, "", childID))
	if rec.Code != http.StatusNoContent {
		t.Errorf("Cancel() status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	service := &MockTransitionService{cancelFunc: func(ctx context.Context, id uuid.UUID) error { return domain.ErrNotFound }}
	NewTransitionHandler(service).Cancel(rec, transitionRequest(http.MethodDelete, "", childID))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Cancel() status = %d, want 404", rec.Code)
	}
}

func TestTransitionHandler_PushReadinessAndApply(t *testing.T) {
	childID := uuid.New()
	service := &MockTransitionService{
		readinessFunc: func(ctx context.Context, id uuid.UUID) (*domain.NapPushRecommendation, error) {
			return &domain.NapPushRecommendation{ShouldPush: true, CurrentNapTime: "11:45", SuggestedNewTime: "12:00", PushMinutes: 15}, nil
		},
		pushFunc: func(ctx context.Context, id uuid.UUID) (*domain.TransitionResponse, error) {
			return nil, fmt.Errorf("%w: not ready to push", domain.ErrInvalidState)
		},
	}
	handler := NewTransitionHandler(service)

	rec := httptest.NewRecorder()
	handler.PushReadiness(rec, transitionRequest(http.MethodGet, "", childID))
	if rec.Code != http.StatusOK {
		t.Fatalf("PushReadiness() status = %d", rec.Code)
	}
	var readiness domain.NapPushRecommendation
	if err := json.NewDecoder(rec.Body).Decode(&readiness); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if readiness.SuggestedNewTime != "12:00" {
		t.Errorf("SuggestedNewTime = %q", readiness.SuggestedNewTime)
	}

	rec = httptest.NewRecorder()
	handler.ApplyPush(rec, transitionRequest(http.MethodPost, "", childID))
	if rec.Code != http.StatusConflict {
		t.Errorf("ApplyPush() status = %d, want 409", rec.Code)
	}
}
