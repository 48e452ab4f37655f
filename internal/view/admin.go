package view

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/comedor-utm/internal/api"
	"github.com/mmeshcher/comedor-utm/internal/guard"
	"github.com/mmeshcher/comedor-utm/internal/model"
	"github.com/mmeshcher/comedor-utm/internal/validation"
)

// AdminView — панель администратора столовой для пополнения баланса.
type AdminView struct {
	env *Env

	Redirect string                        `json:"redirect,omitempty"`
	Users    Resource[[]model.UserProfile] `json:"usuarios"`
	UserID   string                        `json:"user_id"`
	Monto    string                        `json:"monto"`
	Form     FormStatus                    `json:"form"`
}

// Admin открывает панель и загружает список пользователей.
func (e *Env) Admin(ctx context.Context) *AdminView {
	v := &AdminView{
		env:   e,
		Users: Loading[[]model.UserProfile](),
		Form:  e.form(formTopUp).Status(),
	}

	if d := guard.Evaluate(guard.RequireRole(model.RoleAdminComedor), e.session.Get(ctx)); !d.Allow {
		v.Redirect = d.Redirect
		return v
	}

	v.loadUsers(ctx)
	return v
}

func (v *AdminView) loadUsers(ctx context.Context) {
	users, err := v.env.client.Users(ctx)
	if err != nil {
		if v.env.expired(ctx, err) {
			v.Redirect = guard.LoginPath
			return
		}
		v.env.logger.Warn("fetch users error", zap.Error(err))
	}
	v.Users = List(users, err, api.UserMessage(err, "Error al obtener usuarios"))
}

// TopUp пополняет баланс пользователя userID на сумму monto.
// После успеха список пользователей загружается заново, а поля формы очищаются.
func (v *AdminView) TopUp(ctx context.Context, userID, monto string) error {
	if v.Redirect != "" {
		return nil
	}

	v.UserID = userID
	v.Monto = monto

	form := v.env.form(formTopUp)
	if err := form.Begin(); err != nil {
		v.Form = form.Status()
		return err
	}

	err := validation.Required("Selecciona un usuario y un monto.",
		validation.Field{Name: "id", Value: userID},
		validation.Field{Name: "monto", Value: monto},
	)
	var (
		id     int64
		amount float64
	)
	if err == nil {
		id, err = validation.ID("id", userID)
	}
	if err == nil {
		amount, err = validation.PositiveAmount("monto", monto)
	}
	if err != nil {
		v.Form = form.Fail(err.Error())
		return nil
	}

	resp, err := v.env.client.TopUp(ctx, id, amount)
	if err != nil {
		if v.env.expired(ctx, err) {
			form.Reset()
			v.Form = form.Status()
			v.Redirect = guard.LoginPath
			return nil
		}
		v.env.logger.Info("top-up rejected", zap.Error(err), zap.Int64("userID", id))
		v.Form = form.Fail(api.UserMessage(err, "Error al recargar"))
		return nil
	}

	name := resp.Usuario
	if name == "" {
		name = fmt.Sprintf("usuario #%d", id)
	}

	v.UserID = ""
	v.Monto = ""
	v.loadUsers(ctx)
	v.Form = form.Succeed(fmt.Sprintf("Recarga de $%s realizada a %s", model.Amount(amount), name))
	return nil
}
