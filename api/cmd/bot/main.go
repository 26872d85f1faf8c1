package main

import (
	"context"
	"encoding/hex"
	"errors"
	"hash/fnv"
	"log"
	"net"
	"net/http"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"patrol-ai/api/internal/app"
	"patrol-ai/api/internal/httpserver"
	"patrol-ai/api/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer deps.Close()
	cfg, lg := deps.Config, deps.Log

	if cfg.TelegramBotToken == "" {
		lg.Fatal("TELEGRAM_BOT_TOKEN is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		lg.Fatal("telegram", zap.Error(err))
	}
	bot.Debug = false

	r := &telegram.Router{Bot: bot, Sessions: deps.Sessions, Log: lg}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", httpserver.Healthz("ok"))

	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		if err := registerWebhook(ctx, bot, mux, r, webhookURL, lg); err != nil {
			lg.Fatal("webhook", zap.Error(err))
		}
	} else {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			lg.Warn("delete webhook", zap.Error(err))
		}
		go runPolling(ctx, bot, lg, func(upd tgbotapi.Update) { r.HandleUpdate(ctx, upd) })
	}

	if err := httpserver.Run(ctx, cfg.Addr(), mux, lg); err != nil {
		lg.Error("http server", zap.Error(err))
	}
}

// ---------------- Modes -----------------

func registerWebhook(ctx context.Context, bot *tgbotapi.BotAPI, mux *http.ServeMux, r *telegram.Router, baseURL string, lg *zap.Logger) error {
	// secret path derived from the token
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	mux.HandleFunc("POST "+path, func(w http.ResponseWriter, req *http.Request) {
		upd, err := bot.HandleUpdate(req)
		if err != nil {
			lg.Info("webhook update", zap.Error(err))
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
		go r.HandleUpdate(ctx, *upd)
	})
	lg.Info("webhook registered", zap.String("path", path))
	return nil
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 from Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func clampDelay(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, lg *zap.Logger, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for ctx.Err() == nil {
		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := clampDelay(retryDelayFromError(err), baseDelay, maxDelay)
			lg.Warn("polling error", zap.Error(err), zap.Duration("retry_in", d))
			if !sleepCtx(ctx, d) {
				break
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 && !sleepCtx(ctx, 200*time.Millisecond) {
			break
		}
	}
	lg.Info("polling stopped")
}

// ---------------- Helpers -----------------

// shortHash names the webhook path after the token without exposing it.
func shortHash(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}
