package domain

import (
	"time"

	"github.com/google/uuid"
)

// SleepAction is what the caregiver should do next.
// @Description NAP or BEDTIME to put the child down, WAIT until a window opens, WAKE at the wake deadline.
type SleepAction string

const (
	ActionNap     SleepAction = "NAP"
	ActionBedtime SleepAction = "BEDTIME"
	ActionWait    SleepAction = "WAIT"
	ActionWake    SleepAction = "WAKE"
)

// Recommendation is the next sleep action and its time window.
// @Description Next recommended sleep action with earliest/latest/target times.
type Recommendation struct {
	Action SleepAction `json:"action" example:"NAP"`
	// For WAIT, the action being waited for
	NextAction        SleepAction `json:"next_action,omitempty" example:"NAP"`
	NapNumber         int         `json:"nap_number,omitempty" example:"1"`
	Earliest          time.Time   `json:"earliest"`
	Latest            time.Time   `json:"latest"`
	Target            time.Time   `json:"target"`
	Reason            string      `json:"reason" example:"Awake 150 min; wake window is 150-180 min"`
	Overtired         bool        `json:"overtired" example:"false"`
	SleepDebtAdjusted bool        `json:"sleep_debt_adjusted" example:"false"`
	ElapsedMinutes    int         `json:"elapsed_minutes" example:"150"`
}

// NapSummary is one completed nap of the current day.
type NapSummary struct {
	NapNumber    int `json:"nap_number"`
	SleepMinutes int `json:"sleep_minutes"`
}

// AggregateStats summarises completed sessions over a trailing window.
// @Description Rolling statistics over completed sleep sessions.
type AggregateStats struct {
	WindowDays                int          `json:"window_days" example:"7"`
	AsOf                      time.Time    `json:"as_of"`
	TotalSessions             int          `json:"total_sessions" example:"20"`
	CompletedNapCount         int          `json:"completed_nap_count" example:"13"`
	AverageSleepMinutes       float64      `json:"average_sleep_minutes" example:"84.5"`
	GoodNapCount              int          `json:"good_nap_count" example:"5"`
	QualifiedRestMinutesToday float64      `json:"qualified_rest_minutes_today" example:"102.5"`
	SessionsStartedToday      int          `json:"sessions_started_today" example:"1"`
	NapsToday                 int          `json:"naps_today" example:"1"`
	DaySleepMinutesToday      int          `json:"day_sleep_minutes_today" example:"95"`
	TodayNaps                 []NapSummary `json:"today_naps"`
	// Median morning wake time from night sleeps (HH:mm), empty without data
	TypicalMorningWake string `json:"typical_morning_wake,omitempty" example:"06:45"`
}

// CribCompliance reports progress against the minimum-crib-time rule.
// @Description Elapsed in-crib minutes against the required minimum.
type CribCompliance struct {
	Compliant        bool `json:"compliant" example:"false"`
	MinutesInCrib    int  `json:"minutes_in_crib" example:"55"`
	RemainingMinutes int  `json:"remaining_minutes" example:"35"`
	RequiredMinutes  int  `json:"required_minutes" example:"90"`
}

// RecommendationResponse is the response for the recommendation endpoint.
// @Description Next action plus crib status of any in-progress session.
type RecommendationResponse struct {
	ChildID        uuid.UUID       `json:"child_id"`
	GeneratedAt    time.Time       `json:"generated_at"`
	Recommendation Recommendation  `json:"recommendation"`
	Stats          AggregateStats  `json:"stats"`
	ActiveSession  *uuid.UUID      `json:"active_session_id,omitempty"`
	CribCompliance *CribCompliance `json:"crib_compliance,omitempty"`
}
