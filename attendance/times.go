package attendance

import "time"

// Clock abstracts "now" so that status derivation and the live
// checkout path can be tested at fixed instants.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// DayKey returns the calendar day the instant falls on in the given
// timezone, in YYYY-MM-DD form. This is the join key for per-day
// records, so two instants belong to the same attendance day exactly
// when their keys are equal.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// ComputeCheckout returns checkIn plus the work duration in minutes.
func ComputeCheckout(checkIn time.Time, durationMinutes int) time.Time {
	return checkIn.Add(time.Duration(durationMinutes) * time.Minute)
}

// ResolveLocation loads the IANA timezone, falling back to the given
// default and finally to UTC when neither name resolves.
func ResolveLocation(timezone, fallback string) *time.Location {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			return loc
		}
	}
	if fallback != "" {
		if loc, err := time.LoadLocation(fallback); err == nil {
			return loc
		}
	}
	return time.UTC
}
