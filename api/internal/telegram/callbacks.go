package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	cbNewInspection = "new_inspection"
	cbRetry         = "retry"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if _, err := r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil { // ack
		r.log().Debug("callback ack", zap.Error(err))
	}
	if cb.Message == nil {
		return
	}
	switch cb.Data {
	case cbNewInspection, cbRetry:
		r.reset(cb.Message.Chat.ID)
	}
}
