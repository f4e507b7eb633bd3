package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransitionPhase is the stage of a two-nap to one-nap transition.
// @Description week1_2 (first 14 days), week2_plus (pushing nap later), final (goal reached).
type TransitionPhase string

const (
	PhaseWeek1To2  TransitionPhase = "week1_2"
	PhaseWeek2Plus TransitionPhase = "week2_plus"
	PhaseFinal     TransitionPhase = "final"
)

// TransitionPace is selected once at start from the target length.
// @Description standard (about 6 weeks) or fast_track (4 weeks or less).
type TransitionPace string

const (
	PaceStandard  TransitionPace = "standard"
	PaceFastTrack TransitionPace = "fast_track"
)

// ScheduleTransition tracks one child's move from two naps to one. At most
// one incomplete transition exists per child.
type ScheduleTransition struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ChildID        uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:idx_transition_active_child,where:completed_at IS NULL" json:"child_id"`
	FromType       ScheduleType `gorm:"type:varchar(16);not null" json:"from_type"`
	ToType         ScheduleType `gorm:"type:varchar(16);not null" json:"to_type"`
	StartedAt      time.Time    `gorm:"not null" json:"started_at"`
	CurrentWeek    int          `gorm:"not null;default:1" json:"current_week"`
	TargetWeeks    int          `gorm:"not null;default:6" json:"target_weeks"`
	StartNapTime   string       `gorm:"type:varchar(5);not null" json:"start_nap_time"`
	CurrentNapTime string       `gorm:"type:varchar(5);not null" json:"current_nap_time"`
	LastPushedAt   *time.Time   `json:"last_pushed_at,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	Notes          string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	Child Child `gorm:"foreignKey:ChildID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ScheduleTransition) TableName() string {
	return "schedule_transitions"
}

// IsActive reports whether the transition has not been completed.
func (t *ScheduleTransition) IsActive() bool {
	return t.CompletedAt == nil
}

// StartTransitionRequest is the request body for starting a transition.
// @Description Begins a 2-nap to 1-nap transition.
type StartTransitionRequest struct {
	FromType ScheduleType `json:"from_type" validate:"omitempty,oneof=THREE_NAP TWO_NAP ONE_NAP TRANSITION" example:"TWO_NAP"`
	ToType   ScheduleType `json:"to_type" validate:"omitempty,oneof=THREE_NAP TWO_NAP ONE_NAP TRANSITION" example:"ONE_NAP"`
	// Initial single-nap time; defaults to 11:30
	StartNapTime string `json:"start_nap_time,omitempty" validate:"omitempty,hhmm" example:"11:30"`
	// Target length in weeks; 4 or less selects the fast-track pace
	TargetWeeks int    `json:"target_weeks,omitempty" validate:"omitempty,min=1,max=12" example:"6"`
	Notes       string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// TransitionPatch is the request body for progressing a transition.
// @Description Push the nap later, advance the week, edit notes or complete.
type TransitionPatch struct {
	NewNapTime  *string `json:"new_nap_time,omitempty" validate:"omitempty,hhmm" example:"12:00"`
	CurrentWeek *int    `json:"current_week,omitempty" validate:"omitempty,min=1,max=52" example:"3"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Complete    bool    `json:"complete,omitempty" example:"false"`
}

// MutationOp is the kind of write the persistence layer must apply.
type MutationOp string

const (
	MutationCreate MutationOp = "create"
	MutationUpdate MutationOp = "update"
	MutationDelete MutationOp = "delete"
)

// TransitionMutation is an instruction for the persistence layer. When
// ReplaceSchedule is set the transition update and the schedule replacement
// must be applied atomically.
type TransitionMutation struct {
	Op              MutationOp
	Transition      *ScheduleTransition
	ReplaceSchedule bool
}

// Milestone is the next checkpoint of a transition.
// @Description Next transition checkpoint.
type Milestone struct {
	Date        time.Time `json:"date" example:"2024-03-15T00:00:00Z"`
	Description string    `json:"description" example:"Begin pushing nap later"`
}

// TransitionProgress is the read-only view of a transition at a point in time.
// @Description Phase, pace, progress toward the goal nap time and next milestone.
type TransitionProgress struct {
	TransitionID    uuid.UUID       `json:"transition_id"`
	Phase           TransitionPhase `json:"phase" example:"week2_plus"`
	Pace            TransitionPace  `json:"pace" example:"standard"`
	CurrentWeek     int             `json:"current_week" example:"3"`
	TargetWeeks     int             `json:"target_weeks" example:"6"`
	DaysSinceStart  int             `json:"days_since_start" example:"17"`
	CurrentNapTime  string          `json:"current_nap_time" example:"12:00"`
	GoalNapTime     string          `json:"goal_nap_time" example:"12:30"`
	PercentComplete int             `json:"percent_complete" example:"50"`
	Recommendations []string        `json:"recommendations"`
	NextMilestone   *Milestone      `json:"next_milestone,omitempty"`
	Completed       bool            `json:"completed"`
}

// NapPushRecommendation is the result of the push-readiness analysis.
// @Description Whether to push the single nap later, and by how much.
type NapPushRecommendation struct {
	ShouldPush          bool     `json:"should_push" example:"true"`
	CurrentNapTime      string   `json:"current_nap_time" example:"11:45"`
	SuggestedNewTime    string   `json:"suggested_new_time,omitempty" example:"12:00"`
	PushMinutes         int      `json:"push_minutes" example:"15"`
	DaysSinceLastPush   int      `json:"days_since_last_push" example:"4"`
	DaysUntilEligible   int      `json:"days_until_eligible" example:"0"`
	GoodNapCount        int      `json:"good_nap_count" example:"5"`
	TotalNaps           int      `json:"total_naps" example:"6"`
	AverageNapMinutes   float64  `json:"average_nap_minutes" example:"94.5"`
	CribCompliantNaps   int      `json:"crib_compliant_naps" example:"6"`
	Reason              string   `json:"reason" example:"Baby is handling the current nap time well"`
	ReadinessIndicators []string `json:"readiness_indicators"`
}

// TransitionResponse wraps a transition record with its current progress.
type TransitionResponse struct {
	Transition *ScheduleTransition `json:"transition"`
	Progress   TransitionProgress  `json:"progress"`
}
