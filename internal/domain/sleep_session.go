package domain

import (
	"fmt"
	"time"

	"github.com/blaisecz/nap-planner/internal/timeutil"
	"github.com/google/uuid"
)

// SessionType represents the category of sleep session.
// @Description Type of sleep: NAP for daytime naps, NIGHT_SLEEP for overnight sleep.
type SessionType string

const (
	SessionNap        SessionType = "NAP"
	SessionNightSleep SessionType = "NIGHT_SLEEP"
)

// SessionState is the position of a session in its lifecycle.
// @Description PENDING (in crib, awake) -> ASLEEP -> AWAKE (woke, still in crib) -> COMPLETED (out of crib).
type SessionState string

const (
	StatePending   SessionState = "PENDING"
	StateAsleep    SessionState = "ASLEEP"
	StateAwake     SessionState = "AWAKE"
	StateCompleted SessionState = "COMPLETED"
)

// SessionEvent advances a session one state forward.
type SessionEvent string

const (
	EventFellAsleep SessionEvent = "fell_asleep"
	EventWokeUp     SessionEvent = "woke_up"
	EventOutOfCrib  SessionEvent = "out_of_crib"
)

// GoodNapMinutes is the sleep length at which a nap counts as a good nap.
const GoodNapMinutes = 90

type SleepSession struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ChildID         uuid.UUID    `gorm:"type:uuid;not null;index:idx_sleep_sessions_child_created" json:"child_id"`
	SessionType     SessionType  `gorm:"type:varchar(16);not null" json:"session_type"`
	NapNumber       *int         `gorm:"type:smallint" json:"nap_number,omitempty"`
	State           SessionState `gorm:"type:varchar(16);not null;index" json:"state"`
	PutDownAt       *time.Time   `json:"put_down_at,omitempty"`
	AsleepAt        *time.Time   `json:"asleep_at,omitempty"`
	WokeUpAt        *time.Time   `json:"woke_up_at,omitempty"`
	OutOfCribAt     *time.Time   `json:"out_of_crib_at,omitempty"`
	CryingMinutes   int          `gorm:"not null;default:0" json:"crying_minutes"`
	TotalMinutes    *int         `json:"total_minutes,omitempty"`
	SleepMinutes    *int         `json:"sleep_minutes,omitempty"`
	Notes           string       `gorm:"type:text" json:"notes,omitempty"`
	LocalTimezone   string       `gorm:"type:varchar(64);not null;default:'UTC'" json:"local_timezone"`
	ClientRequestID *string      `gorm:"type:varchar(255);uniqueIndex:idx_child_client_request,where:client_request_id IS NOT NULL" json:"client_request_id,omitempty"`
	CreatedAt       time.Time    `gorm:"autoCreateTime;index:idx_sleep_sessions_child_created" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	Child Child `gorm:"foreignKey:ChildID;constraint:OnDelete:CASCADE" json:"-"`
}

func (SleepSession) TableName() string {
	return "sleep_sessions"
}

// IsNap reports whether the session is a daytime nap.
func (s *SleepSession) IsNap() bool {
	return s.SessionType == SessionNap
}

// StartedAt is when the session began: put-down time, or creation time for
// legacy records without one.
func (s *SleepSession) StartedAt() time.Time {
	if s.PutDownAt != nil {
		return *s.PutDownAt
	}
	return s.CreatedAt
}

// EndedAt is when the child left the crib, falling back to wake-up time.
func (s *SleepSession) EndedAt() *time.Time {
	if s.OutOfCribAt != nil {
		return s.OutOfCribAt
	}
	return s.WokeUpAt
}

// Apply advances the session by one event. Events must follow
// PENDING -> ASLEEP -> AWAKE -> COMPLETED without skipping, and timestamps
// must not move backwards.
func (s *SleepSession) Apply(event SessionEvent, at time.Time) error {
	var (
		from SessionState
		to   SessionState
		prev *time.Time
		slot **time.Time
	)
	switch event {
	case EventFellAsleep:
		from, to, prev, slot = StatePending, StateAsleep, s.PutDownAt, &s.AsleepAt
	case EventWokeUp:
		from, to, prev, slot = StateAsleep, StateAwake, s.AsleepAt, &s.WokeUpAt
	case EventOutOfCrib:
		from, to, prev, slot = StateAwake, StateCompleted, s.WokeUpAt, &s.OutOfCribAt
	default:
		return fmt.Errorf("%w: unknown session event %q", ErrInvalidArgument, event)
	}

	if s.State != from {
		return fmt.Errorf("%w: cannot apply %s to a session in state %s", ErrInvalidState, event, s.State)
	}
	if prev != nil && at.Before(*prev) {
		return fmt.Errorf("%w: %s at %s precedes the previous timestamp %s",
			ErrInvalidArgument, event, at.Format(time.RFC3339), prev.Format(time.RFC3339))
	}

	t := at.UTC()
	*slot = &t
	s.State = to
	if to == StateCompleted {
		s.computeDerived()
	}
	return nil
}

// SessionCorrection overwrites individual timestamps of a session.
// @Description Timestamp corrections; ordering put_down <= asleep <= woke_up <= out_of_crib must hold afterwards.
type SessionCorrection struct {
	PutDownAt     *time.Time `json:"put_down_at,omitempty" example:"2024-03-01T12:30:00Z"`
	AsleepAt      *time.Time `json:"asleep_at,omitempty" example:"2024-03-01T12:42:00Z"`
	WokeUpAt      *time.Time `json:"woke_up_at,omitempty" example:"2024-03-01T14:10:00Z"`
	OutOfCribAt   *time.Time `json:"out_of_crib_at,omitempty" example:"2024-03-01T14:20:00Z"`
	CryingMinutes *int       `json:"crying_minutes,omitempty" validate:"omitempty,min=0,max=600" example:"5"`
	Notes         *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// Correct applies a correction. Only timestamps already reached by the
// session's state may be set, and the resulting timestamps must stay ordered.
// The session is left untouched on error.
func (s *SleepSession) Correct(c SessionCorrection) error {
	next := *s
	set := func(dst **time.Time, v *time.Time, minState SessionState, name string) error {
		if v == nil {
			return nil
		}
		if stateRank(next.State) < stateRank(minState) {
			return fmt.Errorf("%w: %s cannot be set while session is %s", ErrInvalidState, name, next.State)
		}
		t := v.UTC()
		*dst = &t
		return nil
	}
	if err := set(&next.PutDownAt, c.PutDownAt, StatePending, "put_down_at"); err != nil {
		return err
	}
	if err := set(&next.AsleepAt, c.AsleepAt, StateAsleep, "asleep_at"); err != nil {
		return err
	}
	if err := set(&next.WokeUpAt, c.WokeUpAt, StateAwake, "woke_up_at"); err != nil {
		return err
	}
	if err := set(&next.OutOfCribAt, c.OutOfCribAt, StateCompleted, "out_of_crib_at"); err != nil {
		return err
	}
	if c.CryingMinutes != nil {
		next.CryingMinutes = *c.CryingMinutes
	}
	if c.Notes != nil {
		next.Notes = *c.Notes
	}

	if err := next.checkOrdering(); err != nil {
		return err
	}
	if next.State == StateCompleted {
		next.computeDerived()
	}
	*s = next
	return nil
}

func (s *SleepSession) checkOrdering() error {
	stamps := []*time.Time{s.PutDownAt, s.AsleepAt, s.WokeUpAt, s.OutOfCribAt}
	var last *time.Time
	for _, ts := range stamps {
		if ts == nil {
			continue
		}
		if last != nil && ts.Before(*last) {
			return fmt.Errorf("%w: session timestamps must satisfy put_down <= asleep <= woke_up <= out_of_crib", ErrInvalidArgument)
		}
		last = ts
	}
	return nil
}

func stateRank(s SessionState) int {
	switch s {
	case StatePending:
		return 0
	case StateAsleep:
		return 1
	case StateAwake:
		return 2
	case StateCompleted:
		return 3
	}
	return -1
}

func (s *SleepSession) computeDerived() {
	if s.PutDownAt != nil && s.OutOfCribAt != nil {
		total := timeutil.MinutesBetween(*s.PutDownAt, *s.OutOfCribAt)
		s.TotalMinutes = &total
	}
	if s.AsleepAt != nil && s.WokeUpAt != nil {
		sleep := timeutil.MinutesBetween(*s.AsleepAt, *s.WokeUpAt)
		if s.TotalMinutes != nil && sleep > *s.TotalMinutes {
			sleep = *s.TotalMinutes
		}
		s.SleepMinutes = &sleep
	}
}

// SleptMinutes returns recorded sleep minutes, or 0 when unknown.
func (s *SleepSession) SleptMinutes() int {
	if s.SleepMinutes == nil {
		return 0
	}
	return *s.SleepMinutes
}

// AwakeInCribMinutes is the quiet-awake span from waking to leaving the crib.
func (s *SleepSession) AwakeInCribMinutes() int {
	if s.WokeUpAt == nil || s.OutOfCribAt == nil {
		return 0
	}
	return timeutil.MinutesBetween(*s.WokeUpAt, *s.OutOfCribAt)
}

// QualifiedRestMinutes credits sleep fully and awake-in-crib time at half.
func (s *SleepSession) QualifiedRestMinutes() float64 {
	return float64(s.SleptMinutes()) + float64(s.AwakeInCribMinutes())/2
}

// IsGoodNap reports whether a completed nap slept at least GoodNapMinutes.
func (s *SleepSession) IsGoodNap() bool {
	return s.IsNap() && s.State == StateCompleted && s.SleptMinutes() >= GoodNapMinutes
}

// CreateSessionRequest is the request body for putting a child down.
// @Description Starts a session in PENDING state at put_down_at.
type CreateSessionRequest struct {
	// NAP or NIGHT_SLEEP
	SessionType SessionType `json:"session_type" validate:"required,oneof=NAP NIGHT_SLEEP" example:"NAP" enums:"NAP,NIGHT_SLEEP"`
	// Nap number within the day (naps only)
	NapNumber *int `json:"nap_number,omitempty" validate:"omitempty,min=1,max=3" example:"1"`
	// Put-down time (RFC3339)
	PutDownAt time.Time `json:"put_down_at" validate:"required" example:"2024-03-01T12:30:00Z"`
	// Optional notes
	Notes string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	// Optional client-generated ID for idempotent requests (max 255 chars)
	ClientRequestID *string `json:"client_request_id,omitempty" validate:"omitempty,max=255" example:"client-uuid-12345"`
}

// SessionEventRequest is the request body for advancing a session.
// @Description Lifecycle event with the time it happened.
type SessionEventRequest struct {
	Event SessionEvent `json:"event" validate:"required,oneof=fell_asleep woke_up out_of_crib" example:"fell_asleep" enums:"fell_asleep,woke_up,out_of_crib"`
	At    time.Time    `json:"at" validate:"required" example:"2024-03-01T12:42:00Z"`
}

// SleepSessionResponse is the response body for session endpoints.
// @Description Sleep session with derived minutes and local put-down time.
type SleepSessionResponse struct {
	ID                   uuid.UUID    `json:"id"`
	ChildID              uuid.UUID    `json:"child_id"`
	SessionType          SessionType  `json:"session_type"`
	NapNumber            *int         `json:"nap_number,omitempty"`
	State                SessionState `json:"state"`
	PutDownAt            *time.Time   `json:"put_down_at,omitempty"`
	AsleepAt             *time.Time   `json:"asleep_at,omitempty"`
	WokeUpAt             *time.Time   `json:"woke_up_at,omitempty"`
	OutOfCribAt          *time.Time   `json:"out_of_crib_at,omitempty"`
	CryingMinutes        int          `json:"crying_minutes"`
	TotalMinutes         *int         `json:"total_minutes,omitempty"`
	SleepMinutes         *int         `json:"sleep_minutes,omitempty"`
	QualifiedRestMinutes float64      `json:"qualified_rest_minutes"`
	Notes                string       `json:"notes,omitempty"`
	ClientRequestID      *string      `json:"client_request_id,omitempty"`
	LocalTimezone        string       `json:"local_timezone"`
	LocalPutDownAt       *time.Time   `json:"local_put_down_at,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
}

func (s *SleepSession) ToResponse() SleepSessionResponse {
	loc := time.UTC
	if s.LocalTimezone != "" {
		if l, err := time.LoadLocation(s.LocalTimezone); err == nil {
			loc = l
		}
	}

	resp := SleepSessionResponse{
		ID:                   s.ID,
		ChildID:              s.ChildID,
		SessionType:          s.SessionType,
		NapNumber:            s.NapNumber,
		State:                s.State,
		PutDownAt:            s.PutDownAt,
		AsleepAt:             s.AsleepAt,
		WokeUpAt:             s.WokeUpAt,
		OutOfCribAt:          s.OutOfCribAt,
		CryingMinutes:        s.CryingMinutes,
		TotalMinutes:         s.TotalMinutes,
		SleepMinutes:         s.SleepMinutes,
		QualifiedRestMinutes: s.QualifiedRestMinutes(),
		Notes:                s.Notes,
		ClientRequestID:      s.ClientRequestID,
		LocalTimezone:        s.LocalTimezone,
		CreatedAt:            s.CreatedAt,
	}
	if s.PutDownAt != nil {
		local := s.PutDownAt.In(loc)
		resp.LocalPutDownAt = &local
	}
	return resp
}

// SleepSessionListResponse is the response body for listing sessions.
// @Description Paginated list of sleep sessions.
type SleepSessionListResponse struct {
	// Array of session records
	Data []SleepSessionResponse `json:"data"`
	// Pagination metadata
	Pagination PaginationResponse `json:"pagination"`
}

// PaginationResponse contains pagination metadata.
// @Description Cursor-based pagination info.
type PaginationResponse struct {
	// Cursor for fetching the next page (empty if no more pages)
	NextCursor string `json:"next_cursor,omitempty" example:"eyJpZCI6IjU1MGU4NDAwLWUyOWItNDFkNC1hNzE2LTQ0NjY1NTQ0MDAwMCJ9"`
	// True if more results are available
	HasMore bool `json:"has_more" example:"true"`
}

// SessionFilter contains filter parameters for listing sessions
type SessionFilter struct {
	From   *time.Time
	To     *time.Time
	Type   *SessionType
	Limit  int
	Cursor string
}
