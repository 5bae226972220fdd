package store

import (
	"context"
	"time"

	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/domain"
)

// Repo defines storage operations for users, reminders, profile fields
// and dialog history. All mutations are point or set-scoped updates; no
// operation requires loading a user's full reminder set to modify one row.
type Repo interface {
	// users / chat binding
	BindChat(ctx context.Context, userID, chatID int64) error
	ChatID(ctx context.Context, userID int64) (int64, bool, error)

	// reminders
	AddReminder(ctx context.Context, r *domain.Reminder) (int64, error)
	ListReminders(ctx context.Context, userID int64) ([]domain.Reminder, error)
	DeleteReminder(ctx context.Context, userID, id int64) (bool, error)
	MarkSent(ctx context.Context, userID, id int64, date string) error
	SetSnooze(ctx context.Context, userID, id int64, until time.Time) error
	ClearSnooze(ctx context.Context, userID, id int64) error
	BumpNextFire(ctx context.Context, userID, id int64, next time.Time) error
	DeleteByID(ctx context.Context, userID, id int64) error

	// due-candidate queries for the scheduling loop
	TimeMatchCandidates(ctx context.Context, hhmm, date string) ([]domain.Reminder, error)
	SnoozeCandidates(ctx context.Context, now time.Time) ([]domain.Reminder, error)
	PeriodicCandidates(ctx context.Context, now time.Time) ([]domain.Reminder, error)

	// profile
	SetProfileField(ctx context.Context, userID int64, name, value string) error
	Profile(ctx context.Context, userID int64) (map[string]string, error)

	// dialog history
	AppendMessage(ctx context.Context, userID int64, role, content string) error
	History(ctx context.Context, userID int64, limit int) ([]domain.Message, error)
	ClearHistory(ctx context.Context, userID int64) error

	Close() error
}
