package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Purger удаляет записи сессий, не изменявшиеся с момента before.
type Purger interface {
	PurgeIdle(ctx context.Context, before time.Time) (int64, error)
}

// StartSweeper запускает фоновое удаление заброшенных сессий и блокируется до отмены ctx.
// Это только очистка хранилища: действительность токена проверяет бэкенд.
func StartSweeper(ctx context.Context, p Purger, interval, ttl time.Duration, logger *zap.Logger, hooks ...func()) {
	if p == nil || interval <= 0 || ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeIdle(ctx, time.Now().Add(-ttl))
			if err != nil {
				logger.Warn("purge idle sessions error", zap.Error(err))
			} else if n > 0 {
				logger.Info("purged idle sessions", zap.Int64("count", n))
			}
			for _, hook := range hooks {
				hook()
			}
		}
	}
}
