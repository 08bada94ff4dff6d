package bot

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender отправляет сообщения в Telegram. Реализуется *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// deliver отправляет подготовленный результат в чат. Ошибка доставки -
// только предупреждение: уже зафиксированную запись она не откатывает.
func (b *Bot) deliver(result CommandResult) {
	msg := tgbotapi.NewMessage(result.ChatID, result.Text)
	if result.Keyboard != nil {
		msg.ReplyMarkup = *result.Keyboard
	}
	if result.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}

	if _, err := b.api.Send(msg); err != nil {
		slog.Warn("failed to send message",
			"chat_id", result.ChatID,
			"status", string(result.Status),
			"error", err)
	}
}

func (b *Bot) sendChart(chatID int64, name string, png []byte) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: png})
	if _, err := b.api.Send(photo); err != nil {
		slog.Warn("failed to send chart", "chat_id", chatID, "error", err)
	}
}

// answerCallback отвечает на callback, чтобы убрать loading indicator
func (b *Bot) answerCallback(id string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, "")); err != nil {
		slog.Warn("failed to answer callback", "error", err)
	}
}
