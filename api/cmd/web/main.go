package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"patrol-ai/api/internal/app"
	"patrol-ai/api/internal/httpserver"
	"patrol-ai/api/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer deps.Close()

	h := web.New(deps.Sessions, deps.Log)
	if err := httpserver.Run(ctx, deps.Config.Addr(), h.Routes(), deps.Log); err != nil {
		deps.Log.Error("http server", zap.Error(err))
	}
}
