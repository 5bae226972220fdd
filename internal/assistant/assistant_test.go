package assistant

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/domain"
	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/store"
)

// capturingCompleter records what the assistant sends to the model.
type capturingCompleter struct {
	instructions string
	history      []domain.Message
	reply        string
}

func (c *capturingCompleter) Complete(_ context.Context, instructions string, history []domain.Message) (string, error) {
	c.instructions = instructions
	c.history = history
	return c.reply, nil
}

func newTestAssistant(t *testing.T, logDialog bool) (*Assistant, store.Repo, *capturingCompleter) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	repo, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "a.db"), loc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	llm := &capturingCompleter{reply: "ок!"}
	return New(repo, llm, zap.NewNop(), loc, 50, logDialog), repo, llm
}

func TestReply_RecordsBothSides(t *testing.T) {
	a, repo, llm := newTestAssistant(t, true)
	ctx := context.Background()

	reply, err := a.Reply(ctx, 1, "привет")
	require.NoError(t, err)
	assert.Equal(t, "ок!", reply)

	// user turn reached the model
	require.NotEmpty(t, llm.history)
	assert.Equal(t, "user", llm.history[len(llm.history)-1].Role)

	msgs, err := repo.History(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
}

func TestReply_DialogLoggingOff(t *testing.T) {
	a, repo, llm := newTestAssistant(t, false)
	ctx := context.Background()

	_, err := a.Reply(ctx, 1, "привет")
	require.NoError(t, err)

	// nothing persisted, but the model still saw the message
	msgs, err := repo.History(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	require.Len(t, llm.history, 1)
	assert.Equal(t, "привет", llm.history[0].Content)
}

func TestInstructions_IncludeProfileAndReminders(t *testing.T) {
	a, repo, llm := newTestAssistant(t, true)
	ctx := context.Background()

	require.NoError(t, repo.SetProfileField(ctx, 1, "city", "Moscow"))
	_, err := repo.AddReminder(ctx, &domain.Reminder{
		UserID: 1, Kind: domain.KindDaily, TimeHHMM: "13:00", Text: "обед",
	})
	require.NoError(t, err)
	_, err = repo.AddReminder(ctx, &domain.Reminder{
		UserID: 1, Kind: domain.KindPeriodic, PeriodMinutes: 30,
		Window: &domain.Window{FromM: 9 * 60, ToM: 21 * 60}, Text: "вода",
	})
	require.NoError(t, err)

	_, err = a.Reply(ctx, 1, "что у меня по планам?")
	require.NoError(t, err)

	assert.True(t, strings.Contains(llm.instructions, "city: Moscow"), "profile digest missing")
	assert.True(t, strings.Contains(llm.instructions, "обед"), "reminder digest missing")
	assert.True(t, strings.Contains(llm.instructions, "каждые 30 мин"), "periodic digest missing")
	assert.True(t, strings.Contains(llm.instructions, "Vibe Checker"), "system prompt missing")
}
