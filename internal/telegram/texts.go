package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/domain"
)

const helpText = `Я — Vibe Checker, твой помощник по делам и продуктивности.

Просто пиши мне текстом или голосом: помогу спланировать день, разобраться с задачами и не забыть о важном.

Команды:
/remind — создать напоминание
/list — список напоминаний
/delete <номер> — удалить напоминание
/snooze <номер> <минуты> — отложить напоминание
/clear — очистить историю диалога
/help — эта справка

Форматы /remind:
/remind 13:00 обед — каждый день
/remind 2025-06-01 09:00 сдать отчёт — один раз
/remind 09:00 mo,we,fr зарядка — по выбранным дням
/remind weekdays 09:30 стендап — по будням
/remind weekend 11:00 пробежка — по выходным
/remind every 30m 09:00-21:00 пить воду — периодически`

const (
	remindUsageText = "Не понял формат. Примеры:\n" +
		"/remind 13:00 обед\n" +
		"/remind 2025-06-01 09:00 сдать отчёт\n" +
		"/remind 09:00 mo,we,fr зарядка\n" +
		"/remind weekdays 09:30 стендап\n" +
		"/remind every 30m 09:00-21:00 пить воду"
	askTimeText       = "Во сколько напомнить? Напиши время в формате ЧЧ:ММ, например 13:00."
	askTextText       = "О чём напомнить?"
	busyWizardText    = "Сейчас не получается начать диалог создания. Попробуй сразу: /remind 13:00 обед"
	badTimeText       = "Не похоже на время. Напиши в формате ЧЧ:ММ, например 09:30."
	emptyListText     = "Пока нет ни одного напоминания. Создай первое: /remind 13:00 обед"
	deletedText       = "Удалил напоминание."
	notFoundText      = "Не нашёл такое напоминание. Посмотри номера в /list."
	clearedText       = "История диалога очищена. Начнём с чистого листа!"
	voiceProgressText = "Обрабатываю голосовое сообщение..."
	voiceFailedText   = "Не получилось распознать голосовое сообщение, попробуй ещё раз."
	replyFailedText   = "Что-то пошло не так, попробуй ещё раз чуть позже."
)

func welcomeText(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "друг"
	}
	return fmt.Sprintf(`Привет, %s! Я — Vibe Checker 🙌

Помогаю планировать дела, держать фокус и ничего не забывать.
Расскажи, что у тебя сегодня по планам, или создай напоминание: /remind 13:00 обед

Полный список команд — /help`, name)
}

func createdText(r *domain.Reminder) string {
	return "Готово! Буду напоминать: " + describeForUser(r)
}

func snoozedText(minutes int) string {
	return fmt.Sprintf("Отложил на %d мин.", minutes)
}

// describeForUser renders a reminder for command replies and /list.
func describeForUser(r *domain.Reminder) string {
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

func renderList(reminders []domain.Reminder) string {
	var b strings.Builder
	b.WriteString("Твои напоминания:")
	for i := range reminders {
		fmt.Fprintf(&b, "\n%d. %s", i+1, describeForUser(&reminders[i]))
	}
	b.WriteString("\n\nУдалить: /delete <номер>")
	return b.String()
}

// snoozeKeyboard builds the postpone buttons attached to every delivered
// reminder. Callback data: snooze:<id>:<minutes>.
func snoozeKeyboard(reminderID int64) tgbotapi.InlineKeyboardMarkup {
	row := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("+10 мин", fmt.Sprintf("snooze:%d:10", reminderID)),
		tgbotapi.NewInlineKeyboardButtonData("+30 мин", fmt.Sprintf("snooze:%d:30", reminderID)),
		tgbotapi.NewInlineKeyboardButtonData("+1 час", fmt.Sprintf("snooze:%d:60", reminderID)),
	)
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
