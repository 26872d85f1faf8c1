package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"patrol-ai/api/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Message is the only frame the page receives.
type Message struct {
	Type      string        `json:"type"` // "settled"
	State     session.State `json:"state"`
	Timestamp time.Time     `json:"timestamp"`
}

// Watch tells the loading page when its analysis settles, then closes.
// Without a pending analysis the current state is sent right away.
func (h *Handle) Watch(w http.ResponseWriter, r *http.Request) {
	ctl, ok := h.existing(r)
	if !ok {
		http.Error(w, "no session", http.StatusNotFound)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Info("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	state := ctl.Snapshot().State
	if a := ctl.Pending(); a != nil {
		select {
		case <-a.Done():
			state = a.Wait().State
		case <-gone:
			return
		}
	}

	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(Message{Type: "settled", State: state, Timestamp: time.Now()}); err != nil {
		h.log.Info("websocket write", zap.Error(err))
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}
