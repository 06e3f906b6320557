package callmetrics

import "time"

// Timing is the latency span of a call as epoch milliseconds. Either end may be missing when
// the transport did not record it.
type Timing struct {
	StartMillis *int64
	EndMillis   *int64
}

// Millis returns end minus start. It reports false when either timestamp is missing or the
// span is negative.
func (t Timing) Millis() (int64, bool) {
	if t.StartMillis == nil || t.EndMillis == nil {
		return 0, false
	}
	d := *t.EndMillis - *t.StartMillis
	if d < 0 {
		return 0, false
	}
	return d, true
}

// Known reports whether both timestamps were recorded.
func (t Timing) Known() bool {
	return t.StartMillis != nil && t.EndMillis != nil
}

// TimingFromTimes builds a Timing from wall clock times. Zero times are treated as not
// recorded.
func TimingFromTimes(start, end time.Time) *Timing {
	t := &Timing{}
	if !start.IsZero() {
		t.StartMillis = ptr(start.UnixMilli())
	}
	if !end.IsZero() {
		t.EndMillis = ptr(end.UnixMilli())
	}
	return t
}
