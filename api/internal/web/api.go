package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"patrol-ai/api/internal/session"
	"patrol-ai/api/internal/util"
)

type selectReq struct {
	Image    string `json:"image"`               // base64 or data:URI
	MimeType string `json:"mime_type,omitempty"` // optional, sniffed when empty
}

func (h *Handle) State(w http.ResponseWriter, r *http.Request) {
	ctl := h.mgr.Get(h.sessionKey(w, r))
	writeJSON(w, http.StatusOK, ctl.Snapshot())
}

func (h *Handle) SelectJSON(w http.ResponseWriter, r *http.Request) {
	ctl := h.mgr.Get(h.sessionKey(w, r))

	var req selectReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpload)).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	var img session.CapturedImage
	if strings.TrimSpace(req.Image) != "" {
		data, hint, err := util.DecodeBase64MaybeDataURL(req.Image)
		if err != nil {
			http.Error(w, "bad base64", http.StatusBadRequest)
			return
		}
		img = session.CapturedImage{Data: data, MIME: util.PickMIME(req.MimeType, hint, data)}
	}

	_, err := ctl.Select(img)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, ctl.Snapshot())
	case errors.Is(err, session.ErrNoImage):
		writeJSON(w, http.StatusOK, ctl.Snapshot())
	case errors.Is(err, session.ErrBusy):
		writeJSON(w, http.StatusConflict, ctl.Snapshot())
	default:
		h.log.Error("select", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handle) ResetJSON(w http.ResponseWriter, r *http.Request) {
	ctl := h.mgr.Get(h.sessionKey(w, r))
	code := http.StatusOK
	if err := ctl.Reset(); err != nil {
		code = http.StatusConflict
	}
	writeJSON(w, code, ctl.Snapshot())
}
