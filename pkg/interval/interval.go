package interval

import "time"

// Interval is a span of time. The booking overlap test treats it as
// half-open [Start, End); the slot generator's containment test treats
// its endpoints as inclusive. Both semantics live here so the two
// call sites cannot drift apart.
type Interval struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// IsValid reports whether the interval has positive length.
func (i Interval) IsValid() bool {
	return i.End.After(i.Start)
}

// Overlaps is the half-open overlap test: intervals that merely touch
// at an endpoint do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Within reports whether t falls inside i with both endpoints
// inclusive: Start <= t <= End. The slot generator uses this for its
// conflict checks, so a candidate slot that starts or ends exactly on
// an existing appointment's boundary counts as a conflict.
func Within(t time.Time, i Interval) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

// Subtract removes b from a and returns the zero, one or two
// remaining pieces in chronological order.
func Subtract(a, b Interval) []Interval {
	if !Overlaps(a, b) {
		return []Interval{a}
	}

	var out []Interval
	if b.Start.After(a.Start) {
		out = append(out, Interval{Start: a.Start, End: b.Start})
	}
	if b.End.Before(a.End) {
		out = append(out, Interval{Start: b.End, End: a.End})
	}
	return out
}
