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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/infra"
	"github.com/xela07ax/instavibe/internal/infra/auth"
	"github.com/xela07ax/instavibe/internal/journal"
	"github.com/xela07ax/instavibe/internal/orchestrate"
	"github.com/xela07ax/instavibe/internal/repository/postgres"
	"github.com/xela07ax/instavibe/pkg/a2a"
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

	// Контекст для управления жизненным циклом фоновых горутин
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Хранилище сессий: Redis, при недоступности — деградация в память
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	var sessions orchestrate.SessionStore
	pingCtx, pingCancel := context.WithTimeout(appCtx, 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, falling back to in-memory sessions", zap.Error(err))
		sessions = orchestrate.NewMemorySessionStore()
		rdb = nil
	} else {
		sessions = orchestrate.NewRedisSessionStore(rdb)
	}
	pingCancel()

	// 3. Транспорт A2A: HTTP клиент под rate limiter, circuit breaker и ретраями
	transport := orchestrate.NewReliabilityWrapper(a2a.NewClient(cfg.Agent.CallTimeout), cfg.Reliability)

	// 4. Реестр удаленных агентов + стартовая регистрация
	registry := orchestrate.NewRegistry(a2a.NewClient(10*time.Second), transport, logger)
	registry.Bootstrap(appCtx, cfg.Agent.RemoteAddressList())

	// Runtime-регистрация новых агентов через Pub/Sub
	if rdb != nil {
		listener := orchestrate.NewRegisterListener(rdb, registry, logger)
		go listener.Start(appCtx)
	}

	// 5. Метрики
	reg := prometheus.NewRegistry()
	metrics := orchestrate.NewMetrics(reg)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		logger.Info("metrics endpoint started", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// 6. Журнал делегированных задач (пакетная запись в Postgres)
	var taskJournal *journal.TaskJournal
	var recorder journal.Recorder
	if cfg.Database.URL != "" {
		taskJournal = journal.NewTaskJournal(postgres.NewJournalRepo(cfg.Database.URL), logger)
		taskJournal.Start()
		recorder = taskJournal
	}

	// 7. Ядро: HostAgent + LLM runner
	artifacts, err := orchestrate.NewFSArtifactStore("./artifacts", logger)
	if err != nil {
		logger.Fatal("failed to init artifact store", zap.Error(err))
	}
	host := orchestrate.NewHostAgent(registry, sessions, artifacts, metrics, recorder, logger)

	llmCfg := openai.DefaultConfig(cfg.Agent.OpenAIKey)
	if cfg.Agent.OpenAIBaseURL != "" {
		llmCfg.BaseURL = cfg.Agent.OpenAIBaseURL
	}
	runner := orchestrate.NewRunner(openai.NewClientWithConfig(llmCfg), host, cfg.Agent, logger)

	// 8. Опциональная защита периметра (RS256)
	var validator auth.TokenValidator
	if len(cfg.Auth.PublicKey) > 0 {
		pubKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
		if err != nil {
			logger.Fatal("failed to parse auth public key", zap.Error(err))
		}
		validator = auth.NewBaseValidator(pubKey)
		logger.Info("bearer token protection enabled")
	}

	// 9. HTTP сервер и graceful shutdown
	apiServer := orchestrate.NewServer(cfg, logger, runner, host, validator)
	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     apiServer,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout не ставим: /run держит NDJSON-поток дольше любого
		// разумного фиксированного лимита
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("orchestrate service started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("orchestrate service stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if taskJournal != nil {
		taskJournal.Stop()
	}
	logger.Info("orchestrate service exited properly")
}
