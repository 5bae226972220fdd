package domain

import (
	"errors"
	"time"
)

// ErrNoSlot is returned when no candidate satisfies the day and window
// constraints within the search horizon. Creation-time validation rejects
// empty day sets and inverted windows, so hitting this indicates a
// misconfigured row rather than a normal scheduling state.
var ErrNoSlot = errors.New("no valid fire slot within horizon")

// maxSlotSearch bounds the rescheduling loop; one step per examined day or
// period is enough to cover a year of excluded days.
const maxSlotSearch = 365

// InWindow reports whether local time (minutes since midnight) falls
// inside [fromM, toM].
func InWindow(localM, fromM, toM int) bool {
	return localM >= fromM && localM <= toM
}

// NextFireAfter computes the next fire timestamp for a periodic reminder.
//
// The candidate starts at base + period. A base that already sits outside
// the window is clamped to the nearest window start first, so a reminder
// created before the window opens fires at the opening, not period minutes
// later. The loop then repairs day and window violations by clamping, not
// by adding periods, which keeps the recurrence from drifting across day
// boundaries:
//
//   - excluded day: advance to 00:00 of the next day;
//   - before window start: clamp forward to the window start that day;
//   - after window end: roll to the window start of the next day and
//     re-check the day restriction there.
func NextFireAfter(base time.Time, periodMinutes int, window *Window, days DaySet) (time.Time, error) {
	if periodMinutes <= 0 {
		return time.Time{}, ErrBadPeriod
	}

	cand := base.Add(time.Duration(periodMinutes) * time.Minute)
	if window != nil {
		switch bm := minutesOf(base); {
		case bm < window.FromM:
			cand = atMinutes(base, window.FromM)
		case bm > window.ToM:
			cand = atMinutes(nextDay(base), window.FromM)
		}
	}

	for i := 0; i < maxSlotSearch; i++ {
		if !days.Empty() && !days.Has(WeekdayIndex(cand)) {
			cand = nextDay(cand)
			continue
		}
		if window != nil {
			switch m := minutesOf(cand); {
			case m < window.FromM:
				cand = atMinutes(cand, window.FromM)
				continue
			case m > window.ToM:
				cand = atMinutes(nextDay(cand), window.FromM)
				continue
			}
		}
		return cand, nil
	}
	return time.Time{}, ErrNoSlot
}

// minutesOf returns t's minutes since local midnight.
func minutesOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// atMinutes returns t's calendar day at the given minutes since midnight.
func atMinutes(t time.Time, mins int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), mins/60, mins%60, 0, 0, t.Location())
}

// nextDay returns 00:00 of the day after t. AddDate is used instead of
// adding 24h so DST transitions keep the wall-clock date arithmetic honest.
func nextDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}
