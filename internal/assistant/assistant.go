// Package assistant composes LLM instructions from stored per-user state
// and relays dialog turns to the completion endpoint.
package assistant

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/domain"
	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/store"
)

// Completer generates a reply from instructions plus dialog history.
// llm.Client implements it.
type Completer interface {
	Complete(ctx context.Context, instructions string, history []domain.Message) (string, error)
}

// Assistant is the conversation orchestrator.
type Assistant struct {
	repo         store.Repo
	llm          Completer
	log          *zap.Logger
	loc          *time.Location
	historyLimit int
	logDialog    bool
}

// New creates an Assistant.
func New(repo store.Repo, llm Completer, log *zap.Logger, loc *time.Location, historyLimit int, logDialog bool) *Assistant {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &Assistant{
		repo:         repo,
		llm:          llm,
		log:          log,
		loc:          loc,
		historyLimit: historyLimit,
		logDialog:    logDialog,
	}
}

// Reply records the user's message, generates a reply with enriched
// instructions and records the assistant's side of the exchange.
func (a *Assistant) Reply(ctx context.Context, userID int64, text string) (string, error) {
	a.record(ctx, userID, "user", text)

	history, err := a.repo.History(ctx, userID, a.historyLimit)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	if len(history) == 0 {
		// Dialog logging may be off; the model still needs the message.
		history = []domain.Message{{Role: "user", Content: text}}
	}

	reply, err := a.llm.Complete(ctx, a.instructions(ctx, userID, time.Now().In(a.loc)), history)
	if err != nil {
		return "", err
	}

	a.record(ctx, userID, "assistant", reply)
	return reply, nil
}

// Record stores an assistant-authored message (welcome, help) so the
// model sees it as part of the dialog later.
func (a *Assistant) Record(ctx context.Context, userID int64, role, content string) {
	a.record(ctx, userID, role, content)
}

func (a *Assistant) record(ctx context.Context, userID int64, role, content string) {
	if !a.logDialog {
		return
	}
	if err := a.repo.AppendMessage(ctx, userID, role, content); err != nil {
		a.log.Error("append message failed", zap.Error(err), zap.Int64("userID", userID))
	}
}

// instructions builds the per-request system prompt: base prompt, current
// local time, profile digest and reminder digest.
func (a *Assistant) instructions(ctx context.Context, userID int64, now time.Time) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	weekdays := [7]string{"понедельник", "вторник", "среда", "четверг", "пятница", "суббота", "воскресенье"}
	fmt.Fprintf(&b, "\n\nСейчас %s, %s.",
		now.Format("2006-01-02 15:04"), weekdays[domain.WeekdayIndex(now)])

	if profile, err := a.repo.Profile(ctx, userID); err != nil {
		a.log.Error("load profile failed", zap.Error(err), zap.Int64("userID", userID))
	} else if len(profile) > 0 {
		b.WriteString("\n\nО пользователе:")
		names := make([]string, 0, len(profile))
		for name := range profile {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "\n- %s: %s", name, profile[name])
		}
	}

	if reminders, err := a.repo.ListReminders(ctx, userID); err != nil {
		a.log.Error("load reminders failed", zap.Error(err), zap.Int64("userID", userID))
	} else if len(reminders) > 0 {
		b.WriteString("\n\nАктивные напоминания пользователя:")
		for _, r := range reminders {
			b.WriteString("\n- " + describeReminder(r))
		}
	}

	return b.String()
}

// describeReminder renders one reminder for the instruction digest.
func describeReminder(r domain.Reminder) string {
	switch r.Kind {
	case domain.KindOnce:
		return fmt.Sprintf("%s %s — %s", r.DateOnce, r.TimeHHMM, r.Text)
	case domain.KindWeekday:
		return fmt.Sprintf("%s по будням — %s", r.TimeHHMM, r.Text)
	case domain.KindWeekend:
		return fmt.Sprintf("%s по выходным — %s", r.TimeHHMM, r.Text)
	case domain.KindWeekdays:
		days, err := domain.DecodeDaySet(r.Weekdays)
		if err != nil {
			return fmt.Sprintf("%s — %s", r.TimeHHMM, r.Text)
		}
		return fmt.Sprintf("%s (%s) — %s", r.TimeHHMM, domain.DayNames(days), r.Text)
	case domain.KindPeriodic:
		if r.Window != nil {
			return fmt.Sprintf("каждые %d мин с %s до %s — %s", r.PeriodMinutes,
				domain.FormatMinutes(r.Window.FromM), domain.FormatMinutes(r.Window.ToM), r.Text)
		}
		return fmt.Sprintf("каждые %d мин — %s", r.PeriodMinutes, r.Text)
	default:
		return fmt.Sprintf("ежедневно в %s — %s", r.TimeHHMM, r.Text)
	}
}
