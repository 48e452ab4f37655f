// Package repository содержит хранилища серверных сессий клиента столовых.
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/comedor-utm/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresRepository хранит сессии в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{100 * time.Millisecond, 300 * time.Millisecond, 500 * time.Millisecond}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(delays) {
			break
		}

		timer := time.NewTimer(delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure ||
			pgErr.Code == pgerrcode.DeadlockDetected ||
			pgerrcode.IsConnectionException(pgErr.Code)
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Load возвращает сессию id или пустую сессию, если записи нет.
// Чтение продлевает жизнь сессии: updated_at сдвигается на текущий момент.
func (r *PostgresRepository) Load(ctx context.Context, id string) (model.Session, error) {
	var (
		token    string
		userJSON []byte
	)

	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE sessions SET updated_at = now() WHERE id = $1 RETURNING token, user_json`,
			id,
		).Scan(&token, &userJSON)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, nil
		}
		return model.Session{}, fmt.Errorf("select session: %w", err)
	}

	s := model.Session{Token: token}
	if len(userJSON) > 0 {
		var u model.UserProfile
		if err := json.Unmarshal(userJSON, &u); err != nil {
			return model.Session{}, fmt.Errorf("decode session user: %w", err)
		}
		s.User = &u
	}

	return s, nil
}

// Save записывает токен и профиль одной строкой, поэтому они видны только вместе.
func (r *PostgresRepository) Save(ctx context.Context, id string, s model.Session) error {
	var userJSON []byte
	if s.User != nil {
		b, err := json.Marshal(s.User)
		if err != nil {
			return fmt.Errorf("encode session user: %w", err)
		}
		userJSON = b
	}

	err := r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO sessions (id, token, user_json, updated_at)
			 VALUES ($1, $2, $3, now())
			 ON CONFLICT (id) DO UPDATE
			 SET token = EXCLUDED.token, user_json = EXCLUDED.user_json, updated_at = now()`,
			id, s.Token, userJSON,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	return nil
}

// Delete удаляет сессию id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	err := r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeIdle удаляет сессии, к которым не обращались с момента before.
func (r *PostgresRepository) PurgeIdle(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.withRetry(ctx, func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE updated_at < $1`, before)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}
