package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/blaisecz/nap-planner/internal/timeutil"
	"github.com/google/uuid"
)

// ScheduleType identifies the shape of a child's day.
// @Description Schedule type: number of naps, or an in-progress 2-to-1 transition.
type ScheduleType string

const (
	ScheduleThreeNap       ScheduleType = "THREE_NAP"
	ScheduleTwoNap         ScheduleType = "TWO_NAP"
	ScheduleOneNap         ScheduleType = "ONE_NAP"
	ScheduleTypeTransition ScheduleType = "TRANSITION"
)

const (
	DefaultMinimumCribMinutes = 60
	MinMinimumCribMinutes     = 30
	MaxMinimumCribMinutes     = 180
	DefaultReminderMinutes    = 15
)

// NapBounds returns the allowed number of configured naps for the type.
func (t ScheduleType) NapBounds() (min, max int, ok bool) {
	switch t {
	case ScheduleThreeNap:
		return 3, 3, true
	case ScheduleTwoNap:
		return 2, 2, true
	case ScheduleOneNap:
		return 1, 1, true
	case ScheduleTypeTransition:
		return 1, 2, true
	}
	return 0, 0, false
}

// ScheduleConfig is the full, immutable sleep schedule for a child. A new
// configuration replaces the previous one wholesale; at most one is active.
//
// Wake window N is the awake span before nap N. The wake window before bedtime
// is window napCount+1 when configured, otherwise the last configured window.
type ScheduleConfig struct {
	ID       uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ChildID  uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:idx_schedule_active_child,where:is_active" json:"child_id"`
	Type     ScheduleType `gorm:"type:varchar(16);not null" json:"type"`
	IsActive bool         `gorm:"not null;default:true" json:"is_active"`

	WakeWindow1Min int  `gorm:"not null" json:"wake_window_1_min"`
	WakeWindow1Max int  `gorm:"not null" json:"wake_window_1_max"`
	WakeWindow2Min *int `json:"wake_window_2_min,omitempty"`
	WakeWindow2Max *int `json:"wake_window_2_max,omitempty"`
	WakeWindow3Min *int `json:"wake_window_3_min,omitempty"`
	WakeWindow3Max *int `json:"wake_window_3_max,omitempty"`

	Nap1Earliest    string `gorm:"type:varchar(5);not null" json:"nap_1_earliest"`
	Nap1LatestStart string `gorm:"type:varchar(5);not null" json:"nap_1_latest_start"`
	Nap1MaxDuration int    `gorm:"not null" json:"nap_1_max_duration"`
	Nap1EndBy       string `gorm:"type:varchar(5);not null" json:"nap_1_end_by"`

	Nap2Earliest    *string `gorm:"type:varchar(5)" json:"nap_2_earliest,omitempty"`
	Nap2LatestStart *string `gorm:"type:varchar(5)" json:"nap_2_latest_start,omitempty"`
	Nap2MaxDuration *int    `json:"nap_2_max_duration,omitempty"`
	Nap2EndBy       *string `gorm:"type:varchar(5)" json:"nap_2_end_by,omitempty"`

	Nap3Earliest    *string `gorm:"type:varchar(5)" json:"nap_3_earliest,omitempty"`
	Nap3LatestStart *string `gorm:"type:varchar(5)" json:"nap_3_latest_start,omitempty"`
	Nap3MaxDuration *int    `json:"nap_3_max_duration,omitempty"`
	Nap3EndBy       *string `gorm:"type:varchar(5)" json:"nap_3_end_by,omitempty"`

	BedtimeEarliest  string `gorm:"type:varchar(5);not null" json:"bedtime_earliest"`
	BedtimeLatest    string `gorm:"type:varchar(5);not null" json:"bedtime_latest"`
	BedtimeGoalStart string `gorm:"type:varchar(5);not null" json:"bedtime_goal_start"`
	BedtimeGoalEnd   string `gorm:"type:varchar(5);not null" json:"bedtime_goal_end"`

	WakeTimeEarliest string `gorm:"type:varchar(5);not null" json:"wake_time_earliest"`
	WakeTimeLatest   string `gorm:"type:varchar(5);not null" json:"wake_time_latest"`

	DaySleepCap            int `gorm:"not null" json:"day_sleep_cap"`
	MinimumCribMinutes     int `gorm:"not null;default:60" json:"minimum_crib_minutes"`
	NapReminderMinutes     int `gorm:"not null;default:15" json:"nap_reminder_minutes"`
	BedtimeReminderMinutes int `gorm:"not null;default:15" json:"bedtime_reminder_minutes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ScheduleConfig) TableName() string {
	return "schedule_configs"
}

// Clone returns a deep copy; no optional field shares memory with c.
func (c *ScheduleConfig) Clone() *ScheduleConfig {
	if c == nil {
		return nil
	}
	out := *c
	for _, p := range []**int{
		&out.WakeWindow2Min, &out.WakeWindow2Max, &out.WakeWindow3Min, &out.WakeWindow3Max,
		&out.Nap2MaxDuration, &out.Nap3MaxDuration,
	} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	for _, p := range []**string{
		&out.Nap2Earliest, &out.Nap2LatestStart, &out.Nap2EndBy,
		&out.Nap3Earliest, &out.Nap3LatestStart, &out.Nap3EndBy,
	} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	return &out
}

// NapWindow is the wall-clock window of a single nap.
// @Description Time bounds for one configured nap.
type NapWindow struct {
	NapNumber   int    `json:"nap_number" example:"1"`
	Earliest    string `json:"earliest" example:"11:30"`
	LatestStart string `json:"latest_start" example:"13:00"`
	MaxDuration int    `json:"max_duration" example:"150"`
	EndBy       string `json:"end_by" example:"15:30"`
}

// WakeWindow is an awake span in minutes.
type WakeWindow struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// NapCount returns how many naps are configured.
func (c *ScheduleConfig) NapCount() int {
	n := 1
	if c.Nap2Earliest != nil {
		n++
		if c.Nap3Earliest != nil {
			n++
		}
	}
	return n
}

// NapWindowFor returns the window for napNumber, or false when that nap is
// not configured for this schedule.
func (c *ScheduleConfig) NapWindowFor(napNumber int) (NapWindow, bool) {
	switch napNumber {
	case 1:
		return NapWindow{
			NapNumber:   1,
			Earliest:    c.Nap1Earliest,
			LatestStart: c.Nap1LatestStart,
			MaxDuration: c.Nap1MaxDuration,
			EndBy:       c.Nap1EndBy,
		}, true
	case 2:
		return napWindowFromOptional(2, c.Nap2Earliest, c.Nap2LatestStart, c.Nap2MaxDuration, c.Nap2EndBy)
	case 3:
		if c.Nap2Earliest == nil {
			return NapWindow{}, false
		}
		return napWindowFromOptional(3, c.Nap3Earliest, c.Nap3LatestStart, c.Nap3MaxDuration, c.Nap3EndBy)
	}
	return NapWindow{}, false
}

func napWindowFromOptional(n int, earliest, latest *string, maxDuration *int, endBy *string) (NapWindow, bool) {
	if earliest == nil || latest == nil || maxDuration == nil || endBy == nil {
		return NapWindow{}, false
	}
	return NapWindow{
		NapNumber:   n,
		Earliest:    *earliest,
		LatestStart: *latest,
		MaxDuration: *maxDuration,
		EndBy:       *endBy,
	}, true
}

// WakeWindowFor returns wake window n (1..3).
func (c *ScheduleConfig) WakeWindowFor(n int) (WakeWindow, bool) {
	switch n {
	case 1:
		return WakeWindow{Min: c.WakeWindow1Min, Max: c.WakeWindow1Max}, true
	case 2:
		if c.WakeWindow2Min != nil && c.WakeWindow2Max != nil {
			return WakeWindow{Min: *c.WakeWindow2Min, Max: *c.WakeWindow2Max}, true
		}
	case 3:
		if c.WakeWindow3Min != nil && c.WakeWindow3Max != nil {
			return WakeWindow{Min: *c.WakeWindow3Min, Max: *c.WakeWindow3Max}, true
		}
	}
	return WakeWindow{}, false
}

// BedtimeWakeWindow returns the awake span expected before bedtime.
func (c *ScheduleConfig) BedtimeWakeWindow() WakeWindow {
	for n := c.NapCount() + 1; n > 1; n-- {
		if w, ok := c.WakeWindowFor(n); ok {
			return w
		}
	}
	w, _ := c.WakeWindowFor(1)
	return w
}

// ValidationError describes one violated schedule invariant.
// @Description A single schedule validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the result of ScheduleConfig.Validate. It unwraps to
// ErrValidation.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Field + ": " + e.Message
	}
	return "schedule validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() error {
	return ErrValidation
}

// Validate checks every schedule invariant in one pass. A nil result means
// the configuration is valid.
func (c *ScheduleConfig) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// parse returns -1 for malformed values so pair checks can be skipped.
	parse := func(field, value string) int {
		m, err := timeutil.ParseTimeToMinutes(value)
		if err != nil {
			add(field, "must be a valid HH:mm time")
			return -1
		}
		return m
	}
	ordered := func(lowField string, low int, highField string, high int) {
		if low >= 0 && high >= 0 && low > high {
			add(lowField, "must not be later than %s", highField)
		}
	}

	minNaps, maxNaps, ok := c.Type.NapBounds()
	if !ok {
		add("type", "must be one of THREE_NAP, TWO_NAP, ONE_NAP, TRANSITION")
	} else if n := c.NapCount(); n < minNaps || n > maxNaps {
		add("type", "%s requires %d-%d configured naps, got %d", c.Type, minNaps, maxNaps, n)
	}
	if c.Nap2Earliest == nil && c.Nap3Earliest != nil {
		add("nap_3_earliest", "nap 3 requires nap 2")
	}

	for n := 1; n <= 3; n++ {
		w, ok := c.WakeWindowFor(n)
		if !ok {
			if n == 2 && (c.WakeWindow2Min != nil) != (c.WakeWindow2Max != nil) {
				add("wake_window_2", "min and max must be set together")
			}
			if n == 3 && (c.WakeWindow3Min != nil) != (c.WakeWindow3Max != nil) {
				add("wake_window_3", "min and max must be set together")
			}
			continue
		}
		if w.Min <= 0 {
			add(fmt.Sprintf("wake_window_%d_min", n), "must be positive")
		}
		if w.Min > w.Max {
			add(fmt.Sprintf("wake_window_%d_min", n), "must not exceed wake_window_%d_max", n)
		}
	}

	for n := 1; n <= 3; n++ {
		win, ok := c.NapWindowFor(n)
		if !ok {
			if n > 1 && c.hasPartialNap(n) {
				add(fmt.Sprintf("nap_%d", n), "earliest, latest_start, max_duration and end_by must be set together")
			}
			continue
		}
		prefix := fmt.Sprintf("nap_%d_", n)
		earliest := parse(prefix+"earliest", win.Earliest)
		latest := parse(prefix+"latest_start", win.LatestStart)
		endBy := parse(prefix+"end_by", win.EndBy)
		ordered(prefix+"earliest", earliest, prefix+"latest_start", latest)
		ordered(prefix+"latest_start", latest, prefix+"end_by", endBy)
		if win.MaxDuration <= 0 {
			add(prefix+"max_duration", "must be positive")
		}
		if n <= c.NapCount() {
			if _, ok := c.WakeWindowFor(n); !ok {
				add(fmt.Sprintf("wake_window_%d", n), "is required for nap %d", n)
			}
		}
	}

	bedEarliest := parse("bedtime_earliest", c.BedtimeEarliest)
	bedLatest := parse("bedtime_latest", c.BedtimeLatest)
	goalStart := parse("bedtime_goal_start", c.BedtimeGoalStart)
	goalEnd := parse("bedtime_goal_end", c.BedtimeGoalEnd)
	ordered("bedtime_earliest", bedEarliest, "bedtime_latest", bedLatest)
	ordered("bedtime_goal_start", goalStart, "bedtime_goal_end", goalEnd)

	wakeEarliest := parse("wake_time_earliest", c.WakeTimeEarliest)
	wakeLatest := parse("wake_time_latest", c.WakeTimeLatest)
	ordered("wake_time_earliest", wakeEarliest, "wake_time_latest", wakeLatest)

	if c.DaySleepCap <= 0 {
		add("day_sleep_cap", "must be positive")
	}
	if c.MinimumCribMinutes < MinMinimumCribMinutes || c.MinimumCribMinutes > MaxMinimumCribMinutes {
		add("minimum_crib_minutes", "must be between %d and %d", MinMinimumCribMinutes, MaxMinimumCribMinutes)
	}
	if c.NapReminderMinutes < 0 {
		add("nap_reminder_minutes", "must not be negative")
	}
	if c.BedtimeReminderMinutes < 0 {
		add("bedtime_reminder_minutes", "must not be negative")
	}

	return errs
}

func (c *ScheduleConfig) hasPartialNap(n int) bool {
	switch n {
	case 2:
		return c.Nap2Earliest != nil || c.Nap2LatestStart != nil || c.Nap2MaxDuration != nil || c.Nap2EndBy != nil
	case 3:
		return c.Nap3Earliest != nil || c.Nap3LatestStart != nil || c.Nap3MaxDuration != nil || c.Nap3EndBy != nil
	}
	return false
}

// ScheduleRequest is the request body for replacing the active schedule.
// @Description Full schedule configuration; replaces the active schedule wholesale.
type ScheduleRequest struct {
	Type ScheduleType `json:"type" validate:"required,oneof=THREE_NAP TWO_NAP ONE_NAP TRANSITION" example:"TWO_NAP" enums:"THREE_NAP,TWO_NAP,ONE_NAP,TRANSITION"`

	WakeWindow1Min int  `json:"wake_window_1_min" validate:"required,min=1" example:"150"`
	WakeWindow1Max int  `json:"wake_window_1_max" validate:"required,min=1" example:"180"`
	WakeWindow2Min *int `json:"wake_window_2_min,omitempty" validate:"omitempty,min=1" example:"180"`
	WakeWindow2Max *int `json:"wake_window_2_max,omitempty" validate:"omitempty,min=1" example:"210"`
	WakeWindow3Min *int `json:"wake_window_3_min,omitempty" validate:"omitempty,min=1" example:"210"`
	WakeWindow3Max *int `json:"wake_window_3_max,omitempty" validate:"omitempty,min=1" example:"240"`

	Nap1Earliest    string `json:"nap_1_earliest" validate:"required,hhmm" example:"09:00"`
	Nap1LatestStart string `json:"nap_1_latest_start" validate:"required,hhmm" example:"10:00"`
	Nap1MaxDuration int    `json:"nap_1_max_duration" validate:"required,min=1" example:"90"`
	Nap1EndBy       string `json:"nap_1_end_by" validate:"required,hhmm" example:"11:30"`

	Nap2Earliest    *string `json:"nap_2_earliest,omitempty" validate:"omitempty,hhmm" example:"13:30"`
	Nap2LatestStart *string `json:"nap_2_latest_start,omitempty" validate:"omitempty,hhmm" example:"14:30"`
	Nap2MaxDuration *int    `json:"nap_2_max_duration,omitempty" validate:"omitempty,min=1" example:"90"`
	Nap2EndBy       *string `json:"nap_2_end_by,omitempty" validate:"omitempty,hhmm" example:"16:00"`

	Nap3Earliest    *string `json:"nap_3_earliest,omitempty" validate:"omitempty,hhmm"`
	Nap3LatestStart *string `json:"nap_3_latest_start,omitempty" validate:"omitempty,hhmm"`
	Nap3MaxDuration *int    `json:"nap_3_max_duration,omitempty" validate:"omitempty,min=1"`
	Nap3EndBy       *string `json:"nap_3_end_by,omitempty" validate:"omitempty,hhmm"`

	BedtimeEarliest  string `json:"bedtime_earliest" validate:"required,hhmm" example:"18:30"`
	BedtimeLatest    string `json:"bedtime_latest" validate:"required,hhmm" example:"19:30"`
	BedtimeGoalStart string `json:"bedtime_goal_start" validate:"required,hhmm" example:"19:00"`
	BedtimeGoalEnd   string `json:"bedtime_goal_end" validate:"required,hhmm" example:"19:15"`

	WakeTimeEarliest string `json:"wake_time_earliest" validate:"required,hhmm" example:"06:30"`
	WakeTimeLatest   string `json:"wake_time_latest" validate:"required,hhmm" example:"07:30"`

	DaySleepCap            int  `json:"day_sleep_cap" validate:"required,min=1" example:"180"`
	MinimumCribMinutes     *int `json:"minimum_crib_minutes,omitempty" validate:"omitempty,min=30,max=180" example:"60"`
	NapReminderMinutes     *int `json:"nap_reminder_minutes,omitempty" validate:"omitempty,min=0" example:"15"`
	BedtimeReminderMinutes *int `json:"bedtime_reminder_minutes,omitempty" validate:"omitempty,min=0" example:"15"`
}

// ToConfig builds an active schedule for childID, applying defaults for
// omitted optional fields.
func (r *ScheduleRequest) ToConfig(childID uuid.UUID) *ScheduleConfig {
	cfg := &ScheduleConfig{
		ChildID:                childID,
		Type:                   r.Type,
		IsActive:               true,
		WakeWindow1Min:         r.WakeWindow1Min,
		WakeWindow1Max:         r.WakeWindow1Max,
		WakeWindow2Min:         r.WakeWindow2Min,
		WakeWindow2Max:         r.WakeWindow2Max,
		WakeWindow3Min:         r.WakeWindow3Min,
		WakeWindow3Max:         r.WakeWindow3Max,
		Nap1Earliest:           r.Nap1Earliest,
		Nap1LatestStart:        r.Nap1LatestStart,
		Nap1MaxDuration:        r.Nap1MaxDuration,
		Nap1EndBy:              r.Nap1EndBy,
		Nap2Earliest:           r.Nap2Earliest,
		Nap2LatestStart:        r.Nap2LatestStart,
		Nap2MaxDuration:        r.Nap2MaxDuration,
		Nap2EndBy:              r.Nap2EndBy,
		Nap3Earliest:           r.Nap3Earliest,
		Nap3LatestStart:        r.Nap3LatestStart,
		Nap3MaxDuration:        r.Nap3MaxDuration,
		Nap3EndBy:              r.Nap3EndBy,
		BedtimeEarliest:        r.BedtimeEarliest,
		BedtimeLatest:          r.BedtimeLatest,
		BedtimeGoalStart:       r.BedtimeGoalStart,
		BedtimeGoalEnd:         r.BedtimeGoalEnd,
		WakeTimeEarliest:       r.WakeTimeEarliest,
		WakeTimeLatest:         r.WakeTimeLatest,
		DaySleepCap:            r.DaySleepCap,
		MinimumCribMinutes:     DefaultMinimumCribMinutes,
		NapReminderMinutes:     DefaultReminderMinutes,
		BedtimeReminderMinutes: DefaultReminderMinutes,
	}
	if r.MinimumCribMinutes != nil {
		cfg.MinimumCribMinutes = *r.MinimumCribMinutes
	}
	if r.NapReminderMinutes != nil {
		cfg.NapReminderMinutes = *r.NapReminderMinutes
	}
	if r.BedtimeReminderMinutes != nil {
		cfg.BedtimeReminderMinutes = *r.BedtimeReminderMinutes
	}
	return cfg
}

// ScheduleResponse is the response body for schedule endpoints.
// @Description Active schedule with expanded nap windows.
type ScheduleResponse struct {
	*ScheduleConfig
	// Configured nap windows in order
	NapWindows []NapWindow `json:"nap_windows"`
	// Awake span expected before bedtime
	BedtimeWakeWindow WakeWindow `json:"bedtime_wake_window"`
}

func (c *ScheduleConfig) ToResponse() ScheduleResponse {
	resp := ScheduleResponse{
		ScheduleConfig:    c,
		BedtimeWakeWindow: c.BedtimeWakeWindow(),
	}
	for n := 1; n <= c.NapCount(); n++ {
		if w, ok := c.NapWindowFor(n); ok {
			resp.NapWindows = append(resp.NapWindows, w)
		}
	}
	return resp
}
