package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"patrol-ai/api/internal/session"
)

// Bot is the part of *tgbotapi.BotAPI the router talks to.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Router struct {
	Bot      Bot
	Sessions *session.Manager
	Log      *zap.Logger

	// Fetch downloads a Telegram file; download is used when nil.
	Fetch func(ctx context.Context, url string) ([]byte, error)
}

func sessionKey(chatID int64) string {
	return "chat:" + strconv.FormatInt(chatID, 10)
}

func (r *Router) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.HandleCommand(*upd.Message)
		return
	}
	if fileID, mime, ok := imageOf(upd.Message); ok {
		r.acceptPhoto(ctx, upd.Message.Chat.ID, fileID, mime)
	}
	// anything else carries no image and is ignored
}

func (r *Router) HandleCommand(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, introText)
	case "reset":
		r.reset(cid)
	}
}

func (r *Router) reset(chatID int64) {
	ctl := r.Sessions.Get(sessionKey(chatID))
	if err := ctl.Reset(); err != nil {
		r.send(chatID, busyText)
		return
	}
	r.send(chatID, idleText)
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		r.log().Warn("telegram send", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// sendHTML posts an HTML message. If Telegram rejects it, the same text is
// sent again without markup so the user still gets an answer.
func (r *Router) sendHTML(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = kb
	_, err := r.Bot.Send(msg)
	if err == nil {
		return
	}
	r.log().Warn("telegram send html", zap.Int64("chat_id", chatID), zap.Error(err))

	plain := tgbotapi.NewMessage(chatID, truncate(stripHTML(text), maxMessageRunes))
	plain.ReplyMarkup = kb
	if _, err := r.Bot.Send(plain); err != nil {
		r.log().Warn("telegram send", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func imageOf(m *tgbotapi.Message) (fileID, mime string, ok bool) {
	if len(m.Photo) > 0 {
		// largest size comes last
		return m.Photo[len(m.Photo)-1].FileID, "image/jpeg", true
	}
	if d := m.Document; d != nil && strings.HasPrefix(strings.ToLower(d.MimeType), "image/") {
		return d.FileID, d.MimeType, true
	}
	return "", "", false
}
