package service

import "time"

// Clock supplies the current time. Services read it once per operation and
// pass the instant to the planner explicitly.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
