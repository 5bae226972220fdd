package domain

import "time"

// Kind selects the scheduling rule of a reminder. Exactly one rule is
// active per reminder; the selector fields below it are validated at
// creation time.
type Kind string

const (
	KindOnce     Kind = "once"     // fires on DateOnce only
	KindDaily    Kind = "daily"    // fires every day at TimeHHMM
	KindWeekday  Kind = "weekday"  // Mon-Fri
	KindWeekend  Kind = "weekend"  // Sat-Sun
	KindWeekdays Kind = "weekdays" // explicit day set
	KindPeriodic Kind = "periodic" // interval-based, optional daily window
)

// DaySet is a bitmask of weekday indices, Mon=0 .. Sun=6.
type DaySet uint8

// Has reports whether day d (Mon=0..Sun=6) is a member.
func (s DaySet) Has(d int) bool { return d >= 0 && d <= 6 && s&(1<<uint(d)) != 0 }

// With returns the set with day d added.
func (s DaySet) With(d int) DaySet {
	if d < 0 || d > 6 {
		return s
	}
	return s | 1<<uint(d)
}

// Empty reports whether no day is set. An empty set means no restriction.
func (s DaySet) Empty() bool { return s == 0 }

// Window is a daily active interval for periodic reminders, expressed as
// minutes since midnight. FromM <= ToM (validated at creation).
type Window struct {
	FromM int
	ToM   int
}

// Reminder is one scheduled notification.
//
// TimeHHMM is empty for periodic reminders; NextFireAt drives those
// instead. Weekdays keeps the persisted CSV form so the evaluator can
// apply its fail-open policy on malformed data (see allowsDay).
type Reminder struct {
	ID            int64
	UserID        int64
	Kind          Kind
	TimeHHMM      string
	Text          string
	DateOnce      string // YYYY-MM-DD, kind=once only
	Weekdays      string // CSV of day indices, kind=weekdays; optional day restriction for periodic
	PeriodMinutes int    // kind=periodic only, > 0
	Window        *Window
	LastSentDate  string
	SnoozeUntil   *time.Time
	NextFireAt    *time.Time
	CreatedAt     time.Time
}

// Message is one turn of a stored conversation.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}
