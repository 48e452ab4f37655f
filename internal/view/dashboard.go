package view

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/comedor-utm/internal/api"
	"github.com/mmeshcher/comedor-utm/internal/guard"
	"github.com/mmeshcher/comedor-utm/internal/model"
)

// DashboardView — кабинет пользователя.
// User — профиль из сессии; баланс загружается отдельно, так как закэшированное
// значение saldo устаревает после резервирований.
type DashboardView struct {
	Redirect  string                        `json:"redirect,omitempty"`
	User      *model.UserProfile            `json:"user,omitempty"`
	Faculties Resource[[]model.Faculty]     `json:"faculties"`
	History   Resource[[]model.Reservation] `json:"history"`
	Balance   Resource[model.Amount]        `json:"balance"`
}

// Dashboard загружает факультеты, историю и баланс тремя независимыми запросами.
// Ошибка одного запроса не отменяет остальные.
func (e *Env) Dashboard(ctx context.Context) *DashboardView {
	v := &DashboardView{
		Faculties: Loading[[]model.Faculty](),
		History:   Loading[[]model.Reservation](),
		Balance:   Loading[model.Amount](),
	}

	sess := e.session.Get(ctx)
	if d := guard.Evaluate(guard.Authenticated, sess); !d.Allow {
		v.Redirect = d.Redirect
		return v
	}
	if sess.User == nil {
		e.logger.Warn("session without user profile, clearing session")
		if err := e.session.Clear(ctx); err != nil {
			e.logger.Error("clear session error", zap.Error(err))
		}
		v.Redirect = guard.LoginPath
		return v
	}
	v.User = sess.User
	userID := sess.User.ID

	var (
		faculties    []model.Faculty
		history      []model.Reservation
		profile      *model.UserProfile
		facultiesErr error
		historyErr   error
		profileErr   error
	)

	var g errgroup.Group
	g.Go(func() error {
		faculties, facultiesErr = e.client.Faculties(ctx)
		return nil
	})
	g.Go(func() error {
		history, historyErr = e.client.Reservations(ctx, userID)
		return nil
	})
	g.Go(func() error {
		profile, profileErr = e.client.User(ctx, userID)
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{facultiesErr, historyErr, profileErr} {
		if e.expired(ctx, err) {
			v.Redirect = guard.LoginPath
			v.User = nil
			return v
		}
	}

	if facultiesErr != nil {
		e.logger.Warn("fetch faculties error", zap.Error(facultiesErr))
	}
	if historyErr != nil {
		e.logger.Warn("fetch reservations error", zap.Error(historyErr), zap.Int64("userID", userID))
	}
	if profileErr != nil {
		e.logger.Warn("fetch balance error", zap.Error(profileErr), zap.Int64("userID", userID))
	}

	v.Faculties = List(faculties, facultiesErr, api.UserMessage(facultiesErr, "No se pudieron cargar las facultades"))
	v.History = List(history, historyErr, api.UserMessage(historyErr, "No se pudo cargar el historial"))

	var saldo model.Amount
	if profile != nil {
		saldo = profile.Saldo
	}
	v.Balance = Value(saldo, profileErr, 0, api.UserMessage(profileErr, "No se pudo cargar el saldo"))

	return v
}
