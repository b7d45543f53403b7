package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/ally"
	"github.com/xela07ax/instavibe/internal/infra"
	"github.com/xela07ax/instavibe/internal/repository/postgres"
	"github.com/xela07ax/instavibe/internal/web/handler"
	"github.com/xela07ax/instavibe/internal/web/server"
	"github.com/xela07ax/instavibe/internal/web/service"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Database.URL == "" {
		logger.Fatal("database.url (or DATABASE_URL env) is required")
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Хранилище. Недоступная база не валит старт:
	// читающие эндпоинты ответят 500, записывающие — 503
	repo := postgres.NewSocialRepo(cfg.Database.URL, cfg.Database.MaxConns)
	pingCtx, pingCancel := context.WithTimeout(appCtx, 5*time.Second)
	if err := repo.Ping(pingCtx); err != nil {
		logger.Warn("database unreachable at startup", zap.Error(err))
	}
	pingCancel()

	// 3. Сервисный слой
	socialService := service.NewSocialService(repo, logger)

	var apiKeys *service.APIKeyService
	if cfg.Auth.APIKeysEnabled {
		apiKeys = service.NewAPIKeyService(repo, logger)
		if err := apiKeys.Refresh(appCtx); err != nil {
			logger.Warn("initial service key load failed", zap.Error(err))
		}
		go apiKeys.StartRefresher(appCtx, time.Minute)
	}

	// 4. Фасад IntrovertAlly поверх оркестратора
	orchClient := ally.NewOrchestratorClient(cfg.Ally.OrchestratorURL, cfg.Ally.StreamTimeout)
	allyFacade := ally.New(orchClient, logger)

	// 5. Хендлеры и сервер
	socialHandler := handler.NewSocialHandler(socialService, logger)
	allyHandler := handler.NewAllyHandler(allyFacade, logger)
	webServer := server.NewWebServer(cfg, logger, socialService, apiKeys, socialHandler, allyHandler)

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     webServer,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout не ставим: /api/ally/* стримят NDJSON дольше
		// фиксированного лимита
	}

	// 6. Запуск и graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("web service started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("web service stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("web service exited properly")
}
