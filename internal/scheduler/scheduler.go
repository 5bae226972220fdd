package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/domain"
	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/store"
)

// Sender is the minimal delivery interface the scheduler needs.
// telegram.Router implements it; SendReminder attaches snooze actions.
type Sender interface {
	SendMessage(chatID int64, text string) error
	SendReminder(chatID int64, text string, reminderID int64) error
}

// Scheduler polls the store on a fixed interval and dispatches due
// reminders. A single sequential loop runs the ticks, so at most one
// evaluation-dispatch cycle is ever in flight.
type Scheduler struct {
	repo     store.Repo
	log      *zap.Logger
	sender   Sender
	loc      *time.Location
	interval time.Duration

	lastMinute string // last "date hh:mm" the time-match pass was evaluated for
}

// New creates a Scheduler. The interval must not exceed one minute or
// time-of-day matches could be skipped entirely; New clamps it.
func New(repo store.Repo, log *zap.Logger, sender Sender, loc *time.Location, interval time.Duration) *Scheduler {
	if interval <= 0 || interval > time.Minute {
		interval = 30 * time.Second
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		repo:     repo,
		log:      log,
		sender:   sender,
		loc:      loc,
		interval: interval,
	}
}

// Run starts the loop until ctx is canceled. Per-tick errors are logged
// and never terminate the loop.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx, time.Now().In(s.loc))
		}
	}
}

// tick performs one scheduling cycle: evaluate, dispatch, update state.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	t := domain.NewTick(now)

	var timeMatched []domain.Reminder
	minute := t.Date + " " + t.HHMM
	if minute != s.lastMinute {
		s.lastMinute = minute
		var err error
		timeMatched, err = s.repo.TimeMatchCandidates(ctx, t.HHMM, t.Date)
		if err != nil {
			s.log.Error("time-match query failed", zap.Error(err))
		}
	}

	snoozed, err := s.repo.SnoozeCandidates(ctx, t.Now)
	if err != nil {
		s.log.Error("snooze query failed", zap.Error(err))
	}
	periodic, err := s.repo.PeriodicCandidates(ctx, t.Now)
	if err != nil {
		s.log.Error("periodic query failed", zap.Error(err))
	}

	for _, due := range domain.Evaluate(t, timeMatched, snoozed, periodic) {
		s.dispatch(ctx, t, due)
	}
}

// dispatch delivers one due reminder and records the outcome. A failed
// delivery leaves the row untouched so the reminder is retried on its
// next natural matching condition; one user's failure never aborts the
// tick for the rest.
func (s *Scheduler) dispatch(ctx context.Context, t domain.Tick, due domain.Due) {
	r := due.Reminder

	chatID, ok, err := s.repo.ChatID(ctx, r.UserID)
	if err != nil {
		s.log.Error("chat lookup failed", zap.Error(err), zap.Int64("userID", r.UserID))
		return
	}
	if !ok {
		s.log.Debug("no chat binding, skipping", zap.Int64("userID", r.UserID), zap.Int64("reminderID", r.ID))
		return
	}

	if err := s.sender.SendReminder(chatID, r.Text, r.ID); err != nil {
		s.log.Error("send failed", zap.Error(err), zap.Int64("chatID", chatID), zap.Int64("reminderID", r.ID))
		return
	}

	switch {
	case due.Snooze:
		if err := s.repo.ClearSnooze(ctx, r.UserID, r.ID); err != nil {
			s.log.Error("clear snooze failed", zap.Error(err), zap.Int64("reminderID", r.ID))
		}

	case due.Periodic:
		next, err := s.nextFire(t.Now, r)
		if err != nil {
			s.log.Error("reschedule failed, leaving reminder untouched",
				zap.Error(err), zap.Int64("reminderID", r.ID))
			return
		}
		if err := s.repo.BumpNextFire(ctx, r.UserID, r.ID, next); err != nil {
			s.log.Error("bump next fire failed", zap.Error(err), zap.Int64("reminderID", r.ID))
		}

	default:
		if err := s.repo.MarkSent(ctx, r.UserID, r.ID, t.Date); err != nil {
			s.log.Error("mark sent failed", zap.Error(err), zap.Int64("reminderID", r.ID))
			return
		}
		// One-shot reminders are spent after delivery; archive them
		// instead of leaving inert rows behind.
		if r.Kind == domain.KindOnce {
			if err := s.repo.DeleteByID(ctx, r.UserID, r.ID); err != nil {
				s.log.Error("archive one-shot failed", zap.Error(err), zap.Int64("reminderID", r.ID))
			}
		}
	}
}

// nextFire computes the next periodic fire from the tick time.
func (s *Scheduler) nextFire(now time.Time, r domain.Reminder) (time.Time, error) {
	days, err := domain.DecodeDaySet(r.Weekdays)
	if err != nil {
		// Fail open on corrupt day restrictions, same policy as the
		// evaluator: the interval still applies, the restriction does not.
		days = 0
	}
	return domain.NextFireAfter(now, r.PeriodMinutes, r.Window, days)
}
