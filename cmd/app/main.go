package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-api/internal/config"
	"github.com/BuzzLyutic/kanban-api/internal/export"
	"github.com/BuzzLyutic/kanban-api/internal/handler"
	"github.com/BuzzLyutic/kanban-api/internal/notify"
	"github.com/BuzzLyutic/kanban-api/internal/repo"
	"github.com/BuzzLyutic/kanban-api/internal/repo/memory"
	"github.com/BuzzLyutic/kanban-api/internal/repo/postgres"
	"github.com/BuzzLyutic/kanban-api/internal/service"
	"github.com/BuzzLyutic/kanban-api/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	// Хранилище: PostgreSQL, если задан DATABASE_URL, иначе в памяти
	var store repo.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to Database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			logger.Fatal("Failed to ping the Database", zap.Error(err))
		}
		logger.Info("Successfully connected to the Database!")
		store = postgres.New(pool)
	} else {
		logger.Warn("DATABASE_URL is empty, boards are kept in memory")
		store = memory.New()
	}

	// События: hub для локальных SSE-клиентов, Redis между инстансами
	hub := notify.NewHub(logger, cfg.SSEBuffer)
	var sink notify.Publisher = hub

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		client := redis.NewClient(opts)
		defer client.Close()

		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("Failed to ping Redis", zap.Error(err))
		}
		relay := notify.NewRedisRelay(client, cfg.EventsChannel, hub, logger)
		go relay.Run(relayCtx)
		sink = relay
		logger.Info("Relaying events through Redis", zap.String("channel", cfg.EventsChannel))
	}

	workerPool := worker.NewPool(logger, cfg.DispatchWorkers, cfg.DispatchBuffer, 5*time.Second)
	workerPool.Start(context.Background())
	dispatcher := notify.NewDispatcher(workerPool, sink, logger)

	sender := export.NewWebhookSender(cfg.ExportWebhookURL, cfg.ExportTimeout, cfg.ExportMaxRetries, logger)
	boardService := service.NewBoardService(store, dispatcher, logger, service.WithExporter(sender))
	boardHandler := handler.NewBoardHandler(boardService, hub, cfg.SSEHeartbeat, logger)

	srv := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(boardHandler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(hub.Close)

	go func() {
		logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
	workerPool.Stop()
	stopRelay()
	if err := tp.Shutdown(ctx); err != nil {
		logger.Error("Tracer shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped successfully!")
}
