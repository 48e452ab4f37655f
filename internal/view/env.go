package view

import (
	"context"

	"go.uber.org/zap"

	"github.com/mmeshcher/comedor-utm/internal/api"
	"github.com/mmeshcher/comedor-utm/internal/guard"
	"github.com/mmeshcher/comedor-utm/internal/session"
)

// Имена форм в реестре Forms.
const (
	formLogin       = "login"
	formRegister    = "register"
	formReservation = "reservation"
	formTopUp       = "topup"
)

// Env — зависимости контроллеров представлений одной сессии.
type Env struct {
	client  *api.Client
	session *session.Store
	forms   *Forms
	logger  *zap.Logger
}

// NewEnv связывает клиент API с сессией store: токен берётся из неё на каждый запрос.
func NewEnv(client *api.Client, store *session.Store, forms *Forms, logger *zap.Logger) *Env {
	if forms == nil {
		forms = NewForms()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Env{
		client:  client.WithTokens(store),
		session: store,
		forms:   forms,
		logger:  logger.With(zap.String("session", store.ID())),
	}
}

func (e *Env) form(name string) *Form {
	return e.forms.For(e.session.ID(), name)
}

// expired очищает сессию, если бэкенд отверг токен, и сообщает об этом.
func (e *Env) expired(ctx context.Context, err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	e.logger.Info("backend rejected session token, clearing session", zap.Error(err))
	if clearErr := e.session.Clear(ctx); clearErr != nil {
		e.logger.Error("clear session error", zap.Error(clearErr))
	}
	return true
}

// Logout очищает сессию и возвращает путь страницы входа.
func (e *Env) Logout(ctx context.Context) (string, error) {
	e.forms.Drop(e.session.ID())
	if err := e.session.Clear(ctx); err != nil {
		return "", err
	}
	return guard.LoginPath, nil
}
