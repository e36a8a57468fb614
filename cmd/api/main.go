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
	"checklist-api/internal/core/auth"
	"checklist-api/internal/core/config"
	"checklist-api/internal/core/logger"
	"checklist-api/internal/core/server"
	"checklist-api/internal/transport/http/handler"
	"checklist-api/internal/transport/http/router"
	"checklist-api/internal/transport/ws"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := app.NewLogger(cfg)
	defer cleanup()
	defer logger.RedirectStdLog(log, zap.InfoLevel)()

	ctx := context.Background()

	// 存储（失败直接 Fatal）
	stores, err := app.OpenStores(ctx, cfg, log, cfg.DB.AutoMigrate)
	if err != nil {
		log.Fatal("open store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer stores.Close(ctx)

	sessions, err := app.NewSessions(ctx, cfg)
	if err != nil {
		log.Fatal("open sessions", zap.Error(err))
	}
	jwter := app.NewJWTer(cfg)

	// 控制器 → 处理器，全部显式注入
	repos := stores.Repos
	checklists := controller.NewChecklistController(repos.Checklists)
	items := controller.NewItemController(repos.Items)
	users := controller.NewUserController(repos.Users)
	hub := ws.NewHub(handler.MembersOf(checklists), log)
	defer hub.Close()

	r := router.NewAPIEngine(
		router.Deps{Log: log, JWT: jwter, Sessions: sessions, Limits: cfg.Limits},
		handler.AuthHandler{Strategy: auth.NewLocalStrategy(repos.Users, log), Users: users, Sessions: sessions, JWT: jwter},
		handler.ChecklistHandler{Checklists: checklists, Items: items, Users: users, Events: hub},
		handler.WSHandler{Hub: hub},
	)

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
		log,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("user api starting",
		zap.String("addr", addr),
		zap.String("store", stores.Backend),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	go func() {
		if err := server.StartHTTP(srv, log); err != nil {
			log.Fatal("user api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	if err := server.Shutdown(srv, 10*time.Second); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("user api stopped gracefully")
}
