package domain

import "time"

// Tick is a snapshot of the wall clock taken once per scheduling cycle,
// truncated to the minute, in the bot's configured zone.
type Tick struct {
	HHMM    string // "15:04"
	Date    string // "2006-01-02"
	Weekday int    // Mon=0 .. Sun=6
	Now     time.Time
}

// NewTick builds a Tick from a local wall-clock time.
func NewTick(now time.Time) Tick {
	now = now.Truncate(time.Minute)
	return Tick{
		HHMM:    now.Format("15:04"),
		Date:    now.Format("2006-01-02"),
		Weekday: WeekdayIndex(now),
		Now:     now,
	}
}

// WeekdayIndex maps time.Weekday (Sun=0) to the Mon=0..Sun=6 convention.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Due is one reminder the scheduling loop must dispatch this tick.
// Snooze fires bypass same-day suppression and only consume the snooze
// marker; Periodic fires go through the rescheduler instead of mark-sent.
type Due struct {
	Reminder Reminder
	Snooze   bool
	Periodic bool
}

// Evaluate decides which reminders fire on the given tick. The three input
// slices come from the store's candidate queries:
//
//   - timeMatched: non-periodic reminders with TimeHHMM == tick.HHMM and
//     LastSentDate != tick.Date; kind filters are applied here.
//   - snoozed: reminders of any kind with SnoozeUntil <= tick.Now.
//   - periodic: periodic reminders with NextFireAt <= tick.Now.
//
// Results are concatenated; no ordering is guaranteed across users. A
// reminder that is both snoozed and periodic in the same tick is a single
// logical fire: the caller clears the snooze before advancing NextFireAt.
func Evaluate(tick Tick, timeMatched, snoozed, periodic []Reminder) []Due {
	var due []Due
	for _, r := range timeMatched {
		if !matchesKind(r, tick) {
			continue
		}
		due = append(due, Due{Reminder: r})
	}
	for _, r := range snoozed {
		due = append(due, Due{Reminder: r, Snooze: true})
	}
	for _, r := range periodic {
		due = append(due, Due{Reminder: r, Periodic: true})
	}
	return due
}

// matchesKind applies the schedule-kind filter of the time-match pass.
func matchesKind(r Reminder, tick Tick) bool {
	switch r.Kind {
	case KindOnce:
		return r.DateOnce == tick.Date
	case KindWeekday:
		return tick.Weekday <= 4
	case KindWeekend:
		return tick.Weekday >= 5
	case KindWeekdays:
		return allowsDay(r.Weekdays, tick.Weekday)
	default:
		return true
	}
}

// allowsDay applies the persisted day restriction. An unparseable or empty
// set is treated as no restriction: reminders are user-entered-adjacent
// data, and a corrupt row must not silence the reminder or kill the loop.
func allowsDay(csv string, weekday int) bool {
	set, err := DecodeDaySet(csv)
	if err != nil || set.Empty() {
		return true
	}
	return set.Has(weekday)
}
