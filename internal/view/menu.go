package view

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/comedor-utm/internal/api"
	"github.com/mmeshcher/comedor-utm/internal/guard"
	"github.com/mmeshcher/comedor-utm/internal/model"
)

// MenuView — дневное меню столовой.
//
// Items — слабый кэш: после успешного резервирования остаток блюда уменьшается
// только локально и не сверяется с бэкендом до следующей полной загрузки
// представления.
type MenuView struct {
	env *Env

	CafeteriaID int64                      `json:"comedor_id"`
	Redirect    string                     `json:"redirect,omitempty"`
	Cafeteria   Resource[*model.Cafeteria] `json:"comedor"`
	Items       Resource[[]model.MenuItem] `json:"menu"`
	Form        FormStatus                 `json:"form"`
}

// Menu загружает сведения о столовой и её дневное меню независимыми запросами.
func (e *Env) Menu(ctx context.Context, cafeteriaID int64) *MenuView {
	v := &MenuView{
		env:         e,
		CafeteriaID: cafeteriaID,
		Cafeteria:   Loading[*model.Cafeteria](),
		Items:       Loading[[]model.MenuItem](),
		Form:        e.form(formReservation).Status(),
	}

	if d := guard.Evaluate(guard.Authenticated, e.session.Get(ctx)); !d.Allow {
		v.Redirect = d.Redirect
		return v
	}

	var (
		info    *model.Cafeteria
		items   []model.MenuItem
		infoErr error
		menuErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		info, infoErr = e.client.Cafeteria(ctx, cafeteriaID)
		return nil
	})
	g.Go(func() error {
		items, menuErr = e.client.TodayMenu(ctx, cafeteriaID)
		return nil
	})
	_ = g.Wait()

	if e.expired(ctx, infoErr) || e.expired(ctx, menuErr) {
		v.Redirect = guard.LoginPath
		return v
	}
	if infoErr != nil {
		e.logger.Warn("fetch cafeteria error", zap.Error(infoErr), zap.Int64("cafeteriaID", cafeteriaID))
	}
	if menuErr != nil {
		e.logger.Warn("fetch menu error", zap.Error(menuErr), zap.Int64("cafeteriaID", cafeteriaID))
	}

	v.Cafeteria = Item(info, infoErr, api.UserMessage(infoErr, "No se pudo cargar el comedor"))
	v.Items = List(items, menuErr, api.UserMessage(menuErr, "No se pudo cargar el menú"))
	return v
}

// Reserve резервирует блюдо menuID для пользователя сессии.
// Проверка баланса по закэшированному профилю лишь отсекает заведомо
// невозможные заказы; окончательное решение принимает бэкенд.
func (v *MenuView) Reserve(ctx context.Context, menuID int64) error {
	sess := v.env.session.Get(ctx)
	if d := guard.Evaluate(guard.RequireRole(model.RoleEstudiante), sess); !d.Allow {
		v.Redirect = d.Redirect
		return nil
	}

	form := v.env.form(formReservation)
	if err := form.Begin(); err != nil {
		v.Form = form.Status()
		return err
	}

	idx := v.indexOf(menuID)
	if idx < 0 {
		v.Form = form.Fail("El plato no está disponible en el menú de hoy")
		return nil
	}
	item := v.Items.Data[idx]

	if item.SoldOut() {
		v.Form = form.Fail("Plato agotado")
		return nil
	}
	if sess.User.Saldo < item.Precio {
		v.Form = form.Fail("Saldo insuficiente")
		return nil
	}

	if err := v.env.client.Reserve(ctx, sess.User.ID, item.ID); err != nil {
		if v.env.expired(ctx, err) {
			form.Reset()
			v.Form = form.Status()
			v.Redirect = guard.LoginPath
			return nil
		}
		v.env.logger.Info("reservation rejected", zap.Error(err), zap.Int64("menuID", item.ID))
		v.Form = form.Fail(api.UserMessage(err, "Error al procesar"))
		return nil
	}

	v.Items.Data[idx].CantidadDisponible--
	v.Form = form.Succeed("¡Reserva exitosa! Retira tu plato.")
	return nil
}

func (v *MenuView) indexOf(menuID int64) int {
	if v.Items.State != StatePopulated {
		return -1
	}
	for i, it := range v.Items.Data {
		if it.ID == menuID {
			return i
		}
	}
	return -1
}
