package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aimedguru/backend/internal/ai"
	"github.com/aimedguru/backend/internal/auth"
	"github.com/aimedguru/backend/internal/chat"
	"github.com/aimedguru/backend/internal/config"
	"github.com/aimedguru/backend/internal/db"
	"github.com/aimedguru/backend/internal/httpapi"
	"github.com/aimedguru/backend/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	client := db.Connect(cfg.MongoURI)
	database := client.Database(cfg.MongoDB)

	idxCtx, idxCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.EnsureIndexes(idxCtx, database); err != nil {
		logger.Fatalf("ensure indexes: %v", err)
	}
	idxCancel()

	var cache *chat.HistoryCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cache = chat.NewHistoryCache(rdb, cfg.HistoryCacheTTL)
		logger.Infof("history cache enabled addr=%s", cfg.RedisAddr)
	}

	// Provider registry (single upstream today, routed by name)
	reg := ai.NewRegistry()
	reg.Register("gemini", func(ctx context.Context, model string) (ai.StreamProvider, error) {
		_ = ctx
		if model == "" {
			model = cfg.GeminiModel
		}
		return ai.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, model), nil
	})

	provider, err := reg.Get(context.Background(), "gemini", cfg.GeminiModel)
	if err != nil {
		logger.Fatalf("provider: %v", err)
	}

	chatSvc := chat.NewService(chat.NewMongoStore(database), provider, cache, cfg.MaxOutputTokens)
	authSvc := auth.NewService(auth.NewMongoUserStore(database))

	r := httpapi.NewRouter(cfg, authSvc, chatSvc)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Infof("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Infof("server shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	if err := client.Disconnect(shutCtx); err != nil {
		logger.Errorf("mongo disconnect: %v", err)
	}
}
