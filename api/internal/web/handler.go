package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"patrol-ai/api/internal/httpserver"
	"patrol-ai/api/internal/session"
)

const (
	cookieName = "patrol_session"
	maxUpload  = 25 << 20
)

// Handle serves the inspection page and its endpoints.
type Handle struct {
	mgr  *session.Manager
	log  *zap.Logger
	page *template.Template
}

func New(mgr *session.Manager, log *zap.Logger) *Handle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handle{
		mgr:  mgr,
		log:  log,
		page: template.Must(template.ParseFS(templateFS, "templates/page.html")),
	}
}

func (h *Handle) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /select", h.Select)
	mux.HandleFunc("POST /reset", h.Reset)
	mux.HandleFunc("GET /preview/{id}", h.Preview)
	mux.HandleFunc("GET /ws", h.Watch)
	mux.HandleFunc("GET /api/state", h.State)
	mux.HandleFunc("POST /api/select", h.SelectJSON)
	mux.HandleFunc("POST /api/reset", h.ResetJSON)
	mux.HandleFunc("GET /healthz", httpserver.Healthz("ok"))
	return mux
}

// sessionKey returns the caller's session key, issuing a cookie on first visit.
func (h *Handle) sessionKey(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(cookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return "web:" + id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((12 * time.Hour).Seconds()),
	})
	return "web:" + id
}

// existing returns the caller's controller without creating a session.
func (h *Handle) existing(r *http.Request) (*session.Controller, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil, false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return nil, false
	}
	return h.mgr.Lookup("web:" + id.String())
}

func (h *Handle) Index(w http.ResponseWriter, r *http.Request) {
	ctl := h.mgr.Get(h.sessionKey(w, r))
	h.render(w, http.StatusOK, ctl.Snapshot())
}

func (h *Handle) Select(w http.ResponseWriter, r *http.Request) {
	ctl := h.mgr.Get(h.sessionKey(w, r))

	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(8 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.log.Info("bad upload", zap.Error(err))
		http.Error(w, "bad upload", http.StatusBadRequest)
		return
	}
	img, err := readUpload(r)
	if err != nil {
		h.log.Info("bad upload", zap.Error(err))
		http.Error(w, "bad upload", http.StatusBadRequest)
		return
	}

	_, err = ctl.Select(img)
	switch {
	case errors.Is(err, session.ErrNoImage):
		// nothing picked: stay where we are
	case errors.Is(err, session.ErrBusy):
		h.render(w, http.StatusConflict, ctl.Snapshot())
		return
	case err != nil:
		h.log.Error("select", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func readUpload(r *http.Request) (session.CapturedImage, error) {
	if r.MultipartForm == nil {
		return session.CapturedImage{}, nil
	}
	f, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return session.CapturedImage{}, nil
	}
	if err != nil {
		return session.CapturedImage{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return session.CapturedImage{}, err
	}
	return session.CapturedImage{Data: data, MIME: hdr.Header.Get("Content-Type")}, nil
}

func (h *Handle) Reset(w http.ResponseWriter, r *http.Request) {
	ctl := h.mgr.Get(h.sessionKey(w, r))
	if err := ctl.Reset(); err != nil {
		h.render(w, http.StatusConflict, ctl.Snapshot())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handle) Preview(w http.ResponseWriter, r *http.Request) {
	ctl, ok := h.existing(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	p, ok := ctl.Preview(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	ct := p.MIME
	if !strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "image/svg") {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(p.Data)
}

func (h *Handle) render(w http.ResponseWriter, code int, snap session.Snapshot) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := h.page.Execute(w, newPageView(snap, time.Now())); err != nil {
		h.log.Error("render", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
