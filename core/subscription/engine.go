package subscription

import (
	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound             = errors.New("subscription not found")
	ErrSessionLimitExceeded = errors.New("not enough sessions left on subscription")
	ErrInvalidSessionCounts = errors.New("used sessions cannot exceed total sessions")
)

// ApplyUsage consumes n sessions from sub. The counters never leave the
// 0 <= used <= total range: usage past the limit fails outright, it is not
// clamped.
func ApplyUsage(sub Subscription, n int) (Subscription, error) {
	if n < 1 {
		return Subscription{}, ErrInvalidSessionCounts
	}
	if sub.UsedSessions+n > sub.TotalSessions {
		return Subscription{}, ErrSessionLimitExceeded
	}
	sub.UsedSessions += n
	return sub, nil
}

// ApplyPatch updates the session counters from an UpdateSubscription. A nil
// counter keeps its current value; validation runs against the effective
// pair, so lowering the total below already-used sessions fails even when
// used itself is untouched.
func ApplyPatch(sub Subscription, us UpdateSubscription) (Subscription, error) {
	total, used := sub.TotalSessions, sub.UsedSessions
	if us.TotalSessions != nil {
		total = *us.TotalSessions
	}
	if us.UsedSessions != nil {
		used = *us.UsedSessions
	}
	if total < 0 || used < 0 || used > total {
		return Subscription{}, ErrInvalidSessionCounts
	}
	sub.TotalSessions = total
	sub.UsedSessions = used
	return sub, nil
}
