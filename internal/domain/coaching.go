package domain

import "github.com/google/uuid"

// CoachingOutput contains the structured output from the LLM.
// @Description LLM-generated coaching for the current transition.
type CoachingOutput struct {
	// Summary of where the transition stands (2-3 sentences)
	Summary string `json:"summary" example:"Mia is settling into the 12:00 nap..."`
	// Observations about recent naps (3-6 items)
	Observations []string `json:"observations" example:"[\"Five of the last six naps reached 90 minutes\"]"`
	// Practical next steps (3-5 items)
	Guidance []string `json:"guidance" example:"[\"Keep the nap at 12:00 for three more days\"]"`
}

// CoachingContext is the context object sent to the LLM.
// @Description Context data for LLM coaching generation.
type CoachingContext struct {
	ChildName      string                `json:"child_name"`
	Schedule       *ScheduleConfig       `json:"schedule,omitempty"`
	Stats          AggregateStats        `json:"stats"`
	Progress       TransitionProgress    `json:"progress"`
	PushReadiness  NapPushRecommendation `json:"push_readiness"`
	Recommendation *Recommendation       `json:"next_recommendation,omitempty"`
}

// CoachingResponse is the response for the coaching endpoint.
// @Description Transition progress, push readiness and LLM coaching.
type CoachingResponse struct {
	ChildID       uuid.UUID             `json:"child_id"`
	Progress      TransitionProgress    `json:"progress"`
	PushReadiness NapPushRecommendation `json:"push_readiness"`
	Coaching      CoachingOutput        `json:"coaching"`
	// Trace ID for feedback (optional, only present when tracing is enabled)
	TraceID string `json:"trace_id,omitempty" example:"4bf92f3577b34da6a3ce929d0e0e4736"`
}

// CoachingFeedbackRequest is the request body for coaching feedback.
// @Description Rating for a previous coaching response.
type CoachingFeedbackRequest struct {
	// Trace ID from the coaching response
	TraceID string `json:"trace_id" validate:"required,max=128" example:"4bf92f3577b34da6a3ce929d0e0e4736"`
	// Rating score (1-5)
	Score int `json:"score" validate:"required,min=1,max=5" example:"4"`
	// Optional comment
	Comment string `json:"comment,omitempty" validate:"omitempty,max=2000" example:"Helpful, we pushed the nap today"`
}
