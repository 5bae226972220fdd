package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (r *Router) handleStart(ctx context.Context, userID, chatID int64, firstName string) {
	if err := r.repo.ClearHistory(ctx, userID); err != nil {
		r.log.Error("clear history failed", zap.Error(err), zap.Int64("userID", userID))
	}
	text := welcomeText(firstName)
	r.sendText(chatID, text)
	r.assistant.Record(ctx, userID, "assistant", text)
}

func (r *Router) handleHelp(ctx context.Context, userID, chatID int64) {
	r.sendText(chatID, helpText)
	r.assistant.Record(ctx, userID, "assistant", helpText)
}

func (r *Router) handleClear(ctx context.Context, userID, chatID int64) {
	if err := r.repo.ClearHistory(ctx, userID); err != nil {
		r.log.Error("clear history failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, replyFailedText)
		return
	}
	r.sendText(chatID, clearedText)
}

// handleFreeForm feeds a plain text message either to the reminder
// creation wizard or to the assistant.
func (r *Router) handleFreeForm(ctx context.Context, userID, chatID int64, text string) {
	if text == "" {
		return
	}

	if sess := r.sessions.get(userID); sess != nil {
		r.handleWizardStep(ctx, userID, chatID, sess, text)
		return
	}

	r.sendTyping(chatID)
	reply, err := r.assistant.Reply(ctx, userID, text)
	if err != nil {
		r.log.Error("assistant reply failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, replyFailedText)
		return
	}
	r.sendText(chatID, reply)
}

func (r *Router) handleWizardStep(ctx context.Context, userID, chatID int64, sess *session, text string) {
	switch sess.step {
	case stepTime:
		hhmm, err := parseWizardTime(text)
		if err != nil {
			r.sendText(chatID, badTimeText)
			return
		}
		r.sessions.advance(userID, hhmm)
		r.sendText(chatID, askTextText)
	case stepText:
		rem := dailyReminder(userID, sess.timeHHMM, text)
		if _, err := r.repo.AddReminder(ctx, rem); err != nil {
			r.log.Error("add reminder failed", zap.Error(err), zap.Int64("userID", userID))
			r.sessions.end(userID)
			r.sendText(chatID, replyFailedText)
			return
		}
		r.sessions.end(userID)
		r.sendText(chatID, createdText(rem))
	}
}

// handleVoice downloads the voice file from Telegram, transcribes it and
// hands the text to the assistant.
func (r *Router) handleVoice(ctx context.Context, userID, chatID int64, voice *tgbotapi.Voice) {
	r.sendText(chatID, voiceProgressText)

	audio, err := r.downloadFile(ctx, voice.FileID)
	if err != nil {
		r.log.Error("voice download failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, voiceFailedText)
		return
	}

	text, err := r.transcriber.Transcribe(ctx, audio, voice.FileID+".ogg")
	if err != nil {
		r.log.Error("voice transcription failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, voiceFailedText)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		r.sendText(chatID, voiceFailedText)
		return
	}

	r.sendText(chatID, "Ваше сообщение: "+text)
	r.handleFreeForm(ctx, userID, chatID, text)
}

func (r *Router) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := r.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(r.bot.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (r *Router) handleSnooze(ctx context.Context, userID, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		r.sendText(chatID, "Формат: /snooze <номер> <минуты>")
		return
	}
	pos, err1 := strconv.Atoi(fields[0])
	minutes, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || pos <= 0 || minutes <= 0 {
		r.sendText(chatID, "Формат: /snooze <номер> <минуты>")
		return
	}

	reminders, err := r.repo.ListReminders(ctx, userID)
	if err != nil {
		r.log.Error("list reminders failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, replyFailedText)
		return
	}
	if pos > len(reminders) {
		r.sendText(chatID, notFoundText)
		return
	}

	until := time.Now().In(r.loc).Add(time.Duration(minutes) * time.Minute)
	if err := r.repo.SetSnooze(ctx, userID, reminders[pos-1].ID, until); err != nil {
		r.log.Error("set snooze failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, replyFailedText)
		return
	}
	r.sendText(chatID, snoozedText(minutes))
}

// handleSnoozeCallback postpones a just-delivered reminder via its
// inline keyboard. Data format: snooze:<id>:<minutes>.
func (r *Router) handleSnoozeCallback(ctx context.Context, userID, chatID int64, data, callbackID string) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return
	}
	id, err1 := strconv.ParseInt(parts[1], 10, 64)
	minutes, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || minutes <= 0 {
		return
	}

	until := time.Now().In(r.loc).Add(time.Duration(minutes) * time.Minute)
	if err := r.repo.SetSnooze(ctx, userID, id, until); err != nil {
		r.log.Error("set snooze failed", zap.Error(err),
			zap.Int64("userID", userID), zap.Int64("reminderID", id))
		r.answerCallback(callbackID, replyFailedText)
		return
	}

	r.answerCallback(callbackID, snoozedText(minutes))
	r.sendText(chatID, snoozedText(minutes))
}

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Error("send message failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) sendTyping(chatID int64) {
	if _, err := r.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		r.log.Debug("chat action failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) answerCallback(callbackID, text string) {
	if _, err := r.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		r.log.Debug("answer callback failed", zap.Error(err))
	}
}
