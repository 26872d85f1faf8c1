package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"patrol-ai/api/internal/inspect"
	"patrol-ai/api/internal/session"
)

const maxDownload = 20 << 20 // Bot API getFile limit

func (r *Router) acceptPhoto(ctx context.Context, chatID int64, fileID, mime string) {
	ctl := r.Sessions.Get(sessionKey(chatID))
	if ctl.Snapshot().State.Busy() {
		r.send(chatID, busyText)
		return
	}

	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.log().Error("get file", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendHTML(chatID, esc(inspect.MsgAnalysisFailed), makeRetryKeyboard())
		return
	}
	fetch := r.Fetch
	if fetch == nil {
		fetch = download
	}
	data, err := fetch(ctx, url)
	if err != nil {
		r.log().Error("download", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendHTML(chatID, esc(inspect.MsgAnalysisFailed), makeRetryKeyboard())
		return
	}

	a, err := ctl.Select(session.CapturedImage{Data: data, MIME: mime})
	switch {
	case errors.Is(err, session.ErrNoImage):
		return
	case errors.Is(err, session.ErrBusy):
		r.send(chatID, busyText)
		return
	case err != nil:
		r.log().Error("select", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	r.send(chatID, loadingText)
	go r.deliver(chatID, a)
}

// deliver posts the settled state of a to the chat.
func (r *Router) deliver(chatID int64, a *session.Analysis) {
	snap := a.Wait()
	switch snap.State {
	case session.StateResult:
		if snap.Result != nil {
			r.sendHTML(chatID, FormatResult(*snap.Result), makeNewInspectionKeyboard())
		}
	case session.StateError:
		r.sendHTML(chatID, FormatError(snap.ErrorMessage), makeRetryKeyboard())
	}
}

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownload))
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
