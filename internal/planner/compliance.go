package planner

import (
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/timeutil"
)

// CheckCompliance measures in-crib time against requiredMinutes. In-crib time
// runs from put-down to out-of-crib, or to now while the session is still in
// progress.
func CheckCompliance(session *domain.SleepSession, requiredMinutes int, now time.Time) domain.CribCompliance {
	result := domain.CribCompliance{RequiredMinutes: requiredMinutes}
	if session != nil && session.PutDownAt != nil {
		end := now
		if session.OutOfCribAt != nil {
			end = *session.OutOfCribAt
		}
		result.MinutesInCrib = max(0, timeutil.MinutesBetween(*session.PutDownAt, end))
	}
	result.Compliant = result.MinutesInCrib >= requiredMinutes
	result.RemainingMinutes = max(0, requiredMinutes-result.MinutesInCrib)
	return result
}
