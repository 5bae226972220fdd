package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/domain"
)

func parseAt(t *testing.T, args string) (*domain.Reminder, error) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	// Tuesday 20:45
	now := time.Date(2025, 5, 6, 20, 45, 0, 0, loc)
	return parseRemindSpec(args, 42, now)
}

func TestParseRemindSpec_Daily(t *testing.T) {
	rem, err := parseAt(t, "13:00 обед с командой")
	require.NoError(t, err)
	assert.Equal(t, domain.KindDaily, rem.Kind)
	assert.Equal(t, "13:00", rem.TimeHHMM)
	assert.Equal(t, "обед с командой", rem.Text)
	assert.Equal(t, int64(42), rem.UserID)
}

func TestParseRemindSpec_NormalizesTime(t *testing.T) {
	rem, err := parseAt(t, "9:5 зарядка")
	require.NoError(t, err)
	assert.Equal(t, "09:05", rem.TimeHHMM)
}

func TestParseRemindSpec_Once(t *testing.T) {
	rem, err := parseAt(t, "2025-06-01 09:00 сдать отчёт")
	require.NoError(t, err)
	assert.Equal(t, domain.KindOnce, rem.Kind)
	assert.Equal(t, "2025-06-01", rem.DateOnce)
	assert.Equal(t, "09:00", rem.TimeHHMM)
	assert.Equal(t, "сдать отчёт", rem.Text)
}

func TestParseRemindSpec_ExplicitDays(t *testing.T) {
	rem, err := parseAt(t, "09:00 mo,we,fr зарядка")
	require.NoError(t, err)
	assert.Equal(t, domain.KindWeekdays, rem.Kind)
	assert.Equal(t, "0,2,4", rem.Weekdays)
	assert.Equal(t, "зарядка", rem.Text)
}

func TestParseRemindSpec_WeekdayAndWeekend(t *testing.T) {
	rem, err := parseAt(t, "weekdays 09:30 стендап")
	require.NoError(t, err)
	assert.Equal(t, domain.KindWeekday, rem.Kind)
	assert.Equal(t, "09:30", rem.TimeHHMM)

	rem, err = parseAt(t, "weekend 11:00 пробежка")
	require.NoError(t, err)
	assert.Equal(t, domain.KindWeekend, rem.Kind)
}

func TestParseRemindSpec_PeriodicWithWindow(t *testing.T) {
	rem, err := parseAt(t, "every 30m 09:00-21:00 пить воду")
	require.NoError(t, err)
	assert.Equal(t, domain.KindPeriodic, rem.Kind)
	assert.Equal(t, 30, rem.PeriodMinutes)
	require.NotNil(t, rem.Window)
	assert.Equal(t, 9*60, rem.Window.FromM)
	assert.Equal(t, 21*60, rem.Window.ToM)
	assert.Equal(t, "пить воду", rem.Text)

	// created at 20:45, outside a 30-minute step before window close:
	// next fire rolls to the window start of the next day
	require.NotNil(t, rem.NextFireAt)
	assert.Equal(t, "2025-05-07 09:00", rem.NextFireAt.Format("2006-01-02 15:04"))
}

func TestParseRemindSpec_PeriodicNoWindow(t *testing.T) {
	rem, err := parseAt(t, "every 2h проверить почту")
	require.NoError(t, err)
	assert.Equal(t, 120, rem.PeriodMinutes)
	assert.Nil(t, rem.Window)
	require.NotNil(t, rem.NextFireAt)
	assert.Equal(t, "2025-05-06 22:45", rem.NextFireAt.Format("2006-01-02 15:04"))
}

func TestParseRemindSpec_Errors(t *testing.T) {
	for _, args := range []string{
		"",
		"обед",
		"25:00 обед",
		"13:00",
		"2025-06-01 09:00",
		"every обед",
		"every 0m пить воду",
		"every 30m 21:00-09:00 пить воду",
	} {
		_, err := parseAt(t, args)
		assert.Error(t, err, "args: %q", args)
	}
}

func TestParseRemindSpec_UnknownDayTokensAreText(t *testing.T) {
	// A first word that is not a valid day set belongs to the text.
	rem, err := parseAt(t, "13:00 позвонить маме")
	require.NoError(t, err)
	assert.Equal(t, domain.KindDaily, rem.Kind)
	assert.Equal(t, "позвонить маме", rem.Text)
}

func TestLooksLikeWindow(t *testing.T) {
	assert.True(t, looksLikeWindow("09:00-21:00"))
	assert.True(t, looksLikeWindow("09:00–21:00"))
	assert.False(t, looksLikeWindow("пить-воду"))
	assert.False(t, looksLikeWindow("09:00"))
}
