package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadTime   = errors.New("invalid time, expected HH:MM")
	ErrBadDate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrBadDaySet = errors.New("invalid weekday set")
	ErrBadPeriod = errors.New("period must be a positive number of minutes")
	ErrBadWindow = errors.New("invalid window, expected HH:MM-HH:MM")
	ErrEmptyText = errors.New("reminder text is empty")
)

// dayTokens maps two-letter weekday abbreviations to indices (Mon=0).
var dayTokens = map[string]int{
	"mo": 0, "tu": 1, "we": 2, "th": 3, "fr": 4, "sa": 5, "su": 6,
}

// ParseHHMM parses a 24-hour "HH:MM" string into minutes since midnight.
func ParseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, ErrBadTime
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, ErrBadTime
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, ErrBadTime
	}
	return h*60 + m, nil
}

// NormalizeHHMM parses and reformats a time-of-day as zero-padded "HH:MM".
func NormalizeHHMM(s string) (string, error) {
	m, err := ParseHHMM(s)
	if err != nil {
		return "", err
	}
	return FormatMinutes(m), nil
}

// ParseDate validates a "YYYY-MM-DD" calendar date.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", ErrBadDate
	}
	return t.Format("2006-01-02"), nil
}

// ParseDaySet parses user-entered weekday tokens ("mo,we,fr") into a DaySet.
// Every token must be known and the resulting set must be non-empty.
func ParseDaySet(s string) (DaySet, error) {
	var set DaySet
	for _, tok := range strings.Split(strings.ToLower(strings.TrimSpace(s)), ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		d, ok := dayTokens[tok]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrBadDaySet, tok)
		}
		set = set.With(d)
	}
	if set.Empty() {
		return 0, ErrBadDaySet
	}
	return set, nil
}

// ParsePeriod parses a period like "30m", "2h", "90" (bare minutes) into minutes.
func ParsePeriod(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, ErrBadPeriod
	}
	mult := 1
	switch {
	case strings.HasSuffix(s, "m"):
		s = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "h"):
		s = strings.TrimSuffix(s, "h")
		mult = 60
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, ErrBadPeriod
	}
	return n * mult, nil
}

// ParseWindow parses "HH:MM-HH:MM" (also accepts the en dash) into a Window.
func ParseWindow(s string) (*Window, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "–", "-"))
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return nil, ErrBadWindow
	}
	from, err := ParseHHMM(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: from: %v", ErrBadWindow, err)
	}
	to, err := ParseHHMM(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: to: %v", ErrBadWindow, err)
	}
	if from >= to {
		return nil, fmt.Errorf("%w: start must precede end", ErrBadWindow)
	}
	return &Window{FromM: from, ToM: to}, nil
}

// EncodeDaySet renders a DaySet as the persisted CSV of indices ("0,2,4").
func EncodeDaySet(s DaySet) string {
	var parts []string
	for d := 0; d <= 6; d++ {
		if s.Has(d) {
			parts = append(parts, strconv.Itoa(d))
		}
	}
	return strings.Join(parts, ",")
}

// DecodeDaySet parses the persisted CSV of indices back into a DaySet.
// This is the strict form used at write time; the evaluator applies its
// fail-open policy through allowsDay instead.
func DecodeDaySet(s string) (DaySet, error) {
	var set DaySet
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		d, err := strconv.Atoi(tok)
		if err != nil || d < 0 || d > 6 {
			return 0, fmt.Errorf("%w: %q", ErrBadDaySet, tok)
		}
		set = set.With(d)
	}
	return set, nil
}

// FormatMinutes returns "HH:MM" for minutes since midnight.
func FormatMinutes(mins int) string {
	if mins < 0 {
		mins = 0
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// DayNames renders a DaySet for display ("Mo,We,Fr").
func DayNames(s DaySet) string {
	names := [7]string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}
	var parts []string
	for d := 0; d <= 6; d++ {
		if s.Has(d) {
			parts = append(parts, names[d])
		}
	}
	return strings.Join(parts, ",")
}

// ValidateTZ checks that tz is a valid IANA location.
func ValidateTZ(tz string) (*time.Location, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// Validate checks creation-time invariants of a reminder: exactly one
// schedule selector is active and every selector field is well-formed.
// Invalid reminders are never persisted.
func (r *Reminder) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyText
	}
	switch r.Kind {
	case KindOnce:
		if _, err := ParseDate(r.DateOnce); err != nil {
			return err
		}
		if _, err := ParseHHMM(r.TimeHHMM); err != nil {
			return err
		}
	case KindDaily, KindWeekday, KindWeekend:
		if _, err := ParseHHMM(r.TimeHHMM); err != nil {
			return err
		}
	case KindWeekdays:
		if _, err := ParseHHMM(r.TimeHHMM); err != nil {
			return err
		}
		set, err := DecodeDaySet(r.Weekdays)
		if err != nil {
			return err
		}
		if set.Empty() {
			return ErrBadDaySet
		}
	case KindPeriodic:
		if r.PeriodMinutes <= 0 {
			return ErrBadPeriod
		}
		if r.Window != nil && r.Window.FromM >= r.Window.ToM {
			return ErrBadWindow
		}
		if r.Weekdays != "" {
			set, err := DecodeDaySet(r.Weekdays)
			if err != nil {
				return err
			}
			if set.Empty() {
				return ErrBadDaySet
			}
		}
	default:
		return fmt.Errorf("unknown reminder kind %q", r.Kind)
	}
	return nil
}
