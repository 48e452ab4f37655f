// Package session хранит состояние аутентификации клиента: токен и профиль пользователя.
package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/comedor-utm/internal/model"
)

// ErrEmptyToken возвращается при попытке сохранить сессию без токена.
var ErrEmptyToken = errors.New("session token is empty")

// Backend описывает хранилище сессий, используемое Store.
// Save обязан записывать токен и профиль атомарно.
// Load для отсутствующей сессии возвращает пустую сессию без ошибки.
type Backend interface {
	Load(ctx context.Context, id string) (model.Session, error)
	Save(ctx context.Context, id string, s model.Session) error
	Delete(ctx context.Context, id string) error
}

// Store — сессия одного клиента, единственный владелец токена и профиля.
// Срок действия токена не отслеживается: токен считается действительным,
// пока бэкенд не ответит 401/403.
type Store struct {
	backend Backend
	id      string
	logger  *zap.Logger
}

// NewStore создаёт сессию id поверх backend.
func NewStore(backend Backend, id string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		id:      id,
		logger:  logger,
	}
}

// ID возвращает идентификатор сессии.
func (s *Store) ID() string {
	return s.id
}

// Set сохраняет токен и профиль пользователя.
func (s *Store) Set(ctx context.Context, token string, user model.UserProfile) error {
	if token == "" {
		return ErrEmptyToken
	}

	u := user
	if err := s.backend.Save(ctx, s.id, model.Session{Token: token, User: &u}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get возвращает текущую сессию. Ошибки хранилища не пробрасываются:
// они логируются, а вызывающий получает пустую сессию.
func (s *Store) Get(ctx context.Context) model.Session {
	sess, err := s.backend.Load(ctx, s.id)
	if err != nil {
		s.logger.Warn("load session error", zap.Error(err), zap.String("session", s.id))
		return model.Session{}
	}
	return sess
}

// Clear удаляет токен и профиль.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Token реализует api.TokenSource.
func (s *Store) Token(ctx context.Context) string {
	return s.Get(ctx).Token
}
