// cmd/leadbot/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"autolead-bot/internal/classifier"
	"autolead-bot/internal/common/auth"
	"autolead-bot/internal/common/config"
	"autolead-bot/internal/common/logger"
	"autolead-bot/internal/dialog"
	"autolead-bot/internal/leads"
	"autolead-bot/internal/store"
	"autolead-bot/internal/transport/telegram"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting leadbot...",
		zap.String("environment", cfg.App.Environment),
	)

	// --- Conversation store ---
	var conversations store.ConversationStore
	if cfg.Store.Backend == "redis" {
		var redisStore *store.RedisStore
		err = retryWithBackoff(func() error {
			var err error
			redisStore, err = store.NewRedisStore(cfg.Store.Redis)
			return err
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisStore.Close()
		conversations = redisStore
		zapLog.Info("Redis conversation store connected")
	} else {
		conversations = store.NewMemoryStore()
		zapLog.Info("Using in-memory conversation store")
	}

	// --- Lead sinks ---
	var sinks []leads.Sink
	if cfg.Leads.FilePath != "" {
		sinks = append(sinks, leads.NewFileSink(cfg.Leads.FilePath))
	}
	if cfg.Leads.Postgres.Enabled {
		var pgSink *leads.PostgresSink
		err = retryWithBackoff(func() error {
			var err error
			pgSink, err = leads.NewPostgresSink(cfg.Leads.Postgres.DSN)
			return err
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pgSink.Close()
		sinks = append(sinks, pgSink)
		zapLog.Info("PostgreSQL lead sink connected")
	}
	sink := leads.NewMultiSink(sinks...)

	// --- Classifier ---
	tokens := auth.NewTokenManager(cfg.GigaChat, log)
	clf := classifier.New(cfg.GigaChat, tokens, log)

	machine := dialog.NewMachine(conversations, clf, sink, log)

	// --- Telegram bot ---
	var bot *telegram.Bot
	err = retryWithBackoff(func() error {
		var err error
		bot, err = telegram.NewBot(cfg.Telegram, machine, log)
		return err
	}, 5, 2*time.Second, zapLog, "Telegram bot initialization")
	if err != nil {
		zapLog.Fatal("telegram bot failed after retries", zap.Error(err))
	}

	// --- Health & Metrics Server ---
	if cfg.Metrics.Enabled {
		go func() {
			http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "healthy",
					"time":   time.Now().Format(time.RFC3339),
				})
			})
			http.Handle("/metrics", promhttp.Handler())
			zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
				zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Run until shutdown signal ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		zapLog.Info("Shutdown signal received, stopping bot...")
		cancel()
	}()

	if err := bot.Run(ctx); err != nil && err != context.Canceled {
		zapLog.Error("bot stopped with error", zap.Error(err))
	}

	zapLog.Info("Leadbot stopped gracefully")
}
