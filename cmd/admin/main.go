package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"checklist-api/internal/app"
	"checklist-api/internal/controller"
	"checklist-api/internal/core/config"
	"checklist-api/internal/core/logger"
	"checklist-api/internal/core/server"
	"checklist-api/internal/transport/http/handler"
	"checklist-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := app.NewLogger(cfg)
	defer cleanup()
	defer logger.RedirectStdLog(log, zap.InfoLevel)()

	ctx := context.Background()

	// 建表由 api 进程或 checklistctl migrate 负责
	stores, err := app.OpenStores(ctx, cfg, log, false)
	if err != nil {
		log.Fatal("open store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer stores.Close(ctx)

	sessions, err := app.NewSessions(ctx, cfg)
	if err != nil {
		log.Fatal("open sessions", zap.Error(err))
	}

	r := router.NewAdminEngine(
		router.Deps{Log: log, JWT: app.NewJWTer(cfg), Sessions: sessions, Limits: cfg.Limits},
		handler.AdminHandler{Users: controller.NewUserController(stores.Repos.Users)},
	)

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 5*time.Second, 10*time.Second, 60*time.Second, log)

	host4human := cfg.App.Admin.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	go func() {
		if err := server.StartHTTP(srv, log); err != nil {
			log.Fatal("admin api start FAILED", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	if err := server.Shutdown(srv, 10*time.Second); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("admin api stopped gracefully")
}
