package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/store"
)

// Replier generates an assistant reply for a free-form user message.
// assistant.Assistant implements it.
type Replier interface {
	Reply(ctx context.Context, userID int64, text string) (string, error)
	Record(ctx context.Context, userID int64, role, content string)
}

// Transcriber converts a voice message to text. llm.Client implements it.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Router wires Telegram updates to handlers and holds the reminder
// creation wizard state.
type Router struct {
	bot         *tgbotapi.BotAPI
	log         *zap.Logger
	repo        store.Repo
	assistant   Replier
	transcriber Transcriber
	loc         *time.Location
	sessions    *sessionStore
}

// NewRouter creates a Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, assistant Replier, transcriber Transcriber, loc *time.Location) *Router {
	return &Router{
		bot:         bot,
		log:         log,
		repo:        repo,
		assistant:   assistant,
		transcriber: transcriber,
		loc:         loc,
		sessions:    newSessionStore(sessionTTL, maxSessions),
	}
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		r.handleMessage(ctx, upd.Message)
		return
	}
	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, upd.CallbackQuery)
		return
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	// Every inbound message refreshes the delivery binding so the
	// scheduling loop knows where to send.
	if err := r.repo.BindChat(ctx, userID, chatID); err != nil {
		r.log.Error("bind chat failed", zap.Error(err), zap.Int64("userID", userID))
	}

	if msg.Voice != nil {
		r.handleVoice(ctx, userID, chatID, msg.Voice)
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		r.handleStart(ctx, userID, chatID, msg.From.FirstName)
	case strings.HasPrefix(text, "/help"):
		r.handleHelp(ctx, userID, chatID)
	case strings.HasPrefix(text, "/clear"):
		r.handleClear(ctx, userID, chatID)
	case strings.HasPrefix(text, "/remind"):
		r.handleRemind(ctx, userID, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/remind")))
	case strings.HasPrefix(text, "/list"):
		r.handleList(ctx, userID, chatID)
	case strings.HasPrefix(text, "/delete"):
		r.handleDelete(ctx, userID, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/delete")))
	case strings.HasPrefix(text, "/snooze"):
		r.handleSnooze(ctx, userID, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/snooze")))
	default:
		r.handleFreeForm(ctx, userID, chatID, text)
	}
}

func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}
	data := cb.Data

	switch {
	case strings.HasPrefix(data, "snooze:"):
		r.handleSnoozeCallback(ctx, cb.From.ID, cb.Message.Chat.ID, data, cb.ID)
	default:
		r.log.Debug("unknown callback", zap.String("data", data))
	}
}

// --- scheduler.Sender ---

// SendMessage sends a plain text message to the given chat.
func (r *Router) SendMessage(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendReminder delivers a reminder with snooze action buttons attached.
func (r *Router) SendReminder(chatID int64, text string, reminderID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔔 "+text)
	msg.ReplyMarkup = snoozeKeyboard(reminderID)
	_, err := r.bot.Send(msg)
	return err
}
