package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/domain"
)

// handleRemind either parses a one-shot /remind spec or starts the
// two-step wizard when called without arguments.
func (r *Router) handleRemind(ctx context.Context, userID, chatID int64, args string) {
	if args == "" {
		if !r.sessions.begin(userID) {
			r.sendText(chatID, busyWizardText)
			return
		}
		r.sendText(chatID, askTimeText)
		return
	}

	rem, err := parseRemindSpec(args, userID, time.Now().In(r.loc))
	if err != nil {
		r.sendText(chatID, remindUsageText)
		return
	}
	if _, err := r.repo.AddReminder(ctx, rem); err != nil {
		r.log.Error("add reminder failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, replyFailedText)
		return
	}
	r.sendText(chatID, createdText(rem))
}

// parseRemindSpec parses the argument forms of /remind:
//
//	HH:MM text                      daily
//	YYYY-MM-DD HH:MM text           once
//	HH:MM mo,we,fr text             explicit weekdays
//	weekdays HH:MM text             Mon-Fri
//	weekend HH:MM text              Sat-Sun
//	every 30m [09:00-21:00] text    periodic, optional window
func parseRemindSpec(args string, userID int64, now time.Time) (*domain.Reminder, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return nil, domain.ErrEmptyText
	}

	rem := &domain.Reminder{UserID: userID}

	switch strings.ToLower(fields[0]) {
	case "every":
		period, err := domain.ParsePeriod(fields[1])
		if err != nil {
			return nil, err
		}
		rem.Kind = domain.KindPeriodic
		rem.PeriodMinutes = period
		rest := fields[2:]
		if len(rest) > 0 && looksLikeWindow(rest[0]) {
			w, err := domain.ParseWindow(rest[0])
			if err != nil {
				return nil, err
			}
			rem.Window = w
			rest = rest[1:]
		}
		rem.Text = strings.Join(rest, " ")
		if err := rem.Validate(); err != nil {
			return nil, err
		}
		next, err := domain.NextFireAfter(now, rem.PeriodMinutes, rem.Window, 0)
		if err != nil {
			return nil, err
		}
		rem.NextFireAt = &next
		return rem, nil

	case "weekdays":
		rem.Kind = domain.KindWeekday
		return finishTimed(rem, fields[1], fields[2:])

	case "weekend":
		rem.Kind = domain.KindWeekend
		return finishTimed(rem, fields[1], fields[2:])
	}

	if date, err := domain.ParseDate(fields[0]); err == nil {
		if len(fields) < 3 {
			return nil, domain.ErrEmptyText
		}
		rem.Kind = domain.KindOnce
		rem.DateOnce = date
		return finishTimed(rem, fields[1], fields[2:])
	}

	// HH:MM-first forms: daily, or explicit day set after the time.
	hhmm, err := domain.NormalizeHHMM(fields[0])
	if err != nil {
		return nil, err
	}
	rem.TimeHHMM = hhmm

	rest := fields[1:]
	if set, err := domain.ParseDaySet(rest[0]); err == nil {
		if len(rest) < 2 {
			return nil, domain.ErrEmptyText
		}
		rem.Kind = domain.KindWeekdays
		rem.Weekdays = domain.EncodeDaySet(set)
		rest = rest[1:]
	} else {
		rem.Kind = domain.KindDaily
	}
	rem.Text = strings.Join(rest, " ")
	if err := rem.Validate(); err != nil {
		return nil, err
	}
	return rem, nil
}

// finishTimed fills the time and text of a time-of-day reminder.
func finishTimed(rem *domain.Reminder, rawTime string, rest []string) (*domain.Reminder, error) {
	hhmm, err := domain.NormalizeHHMM(rawTime)
	if err != nil {
		return nil, err
	}
	rem.TimeHHMM = hhmm
	rem.Text = strings.Join(rest, " ")
	if err := rem.Validate(); err != nil {
		return nil, err
	}
	return rem, nil
}

// looksLikeWindow distinguishes a "HH:MM-HH:MM" window token from the
// start of the reminder text.
func looksLikeWindow(tok string) bool {
	tok = strings.ReplaceAll(tok, "–", "-")
	i := strings.Index(tok, "-")
	return i > 0 && strings.Contains(tok[:i], ":") && strings.Contains(tok[i+1:], ":")
}

// parseWizardTime validates and normalizes the wizard's time answer.
func parseWizardTime(text string) (string, error) {
	return domain.NormalizeHHMM(text)
}

// dailyReminder builds the reminder the wizard creates.
func dailyReminder(userID int64, hhmm, text string) *domain.Reminder {
	return &domain.Reminder{
		UserID:   userID,
		Kind:     domain.KindDaily,
		TimeHHMM: hhmm,
		Text:     strings.TrimSpace(text),
	}
}

func (r *Router) handleList(ctx context.Context, userID, chatID int64) {
	reminders, err := r.repo.ListReminders(ctx, userID)
	if err != nil {
		r.log.Error("list reminders failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, replyFailedText)
		return
	}
	if len(reminders) == 0 {
		r.sendText(chatID, emptyListText)
		return
	}
	r.sendText(chatID, renderList(reminders))
}

func (r *Router) handleDelete(ctx context.Context, userID, chatID int64, args string) {
	pos, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || pos <= 0 {
		r.sendText(chatID, "Формат: /delete <номер>")
		return
	}
	deleted, err := r.repo.DeleteReminder(ctx, userID, int64(pos))
	if err != nil {
		r.log.Error("delete reminder failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, replyFailedText)
		return
	}
	if !deleted {
		r.sendText(chatID, notFoundText)
		return
	}
	r.sendText(chatID, deletedText)
}
