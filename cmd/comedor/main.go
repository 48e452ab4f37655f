// Package main запускает веб-клиент университетских столовых.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/comedor-utm/internal/api"
	"github.com/mmeshcher/comedor-utm/internal/config"
	"github.com/mmeshcher/comedor-utm/internal/handler"
	"github.com/mmeshcher/comedor-utm/internal/metrics"
	"github.com/mmeshcher/comedor-utm/internal/middleware"
	"github.com/mmeshcher/comedor-utm/internal/repository"
	"github.com/mmeshcher/comedor-utm/internal/session"
	"github.com/mmeshcher/comedor-utm/internal/view"
)

const sweepInterval = time.Minute

type sessionBackend interface {
	session.Backend
	Close() error
}

func openBackend(cfg *config.Config) (sessionBackend, error) {
	switch cfg.SessionStore {
	case config.StorePostgres:
		return repository.NewPostgresRepository(cfg.DatabaseURI)
	case config.StoreRedis:
		return repository.NewRedisRepository(cfg.RedisAddress, cfg.SessionTTL)
	case config.StoreMemory:
		return repository.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	backend, err := openBackend(cfg)
	if err != nil {
		sugar.Fatalw("session store initialization error", "store", cfg.SessionStore, "error", err.Error())
	}
	defer backend.Close()

	m := metrics.New()
	client := api.NewClient(cfg.APIURL, cfg.RequestTimeout).WithObserver(m)
	forms := view.NewForms()

	if cfg.SessionSecret == "" {
		sugar.Warn("SESSION_SECRET is not set, session cookies will not survive a restart")
	}
	sessions := middleware.NewSessionMiddleware(cfg.SessionSecret, cfg.SessionTTL)

	h := handler.NewHandler(client, backend, forms, logger, sessions, m)
	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Очистка заброшенных сессий и форм
	g.Go(func() error {
		purger, _ := backend.(session.Purger)
		session.StartSweeper(ctx, purger, sweepInterval, cfg.SessionTTL, logger, func() {
			if n := forms.Prune(); n > 0 {
				logger.Debug("pruned idle forms", zap.Int("count", n))
			}
		})
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting comedor server",
			"addr", cfg.RunAddress,
			"api", cfg.APIURL,
			"store", cfg.SessionStore,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
