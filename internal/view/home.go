package view

import (
	"context"

	"github.com/mmeshcher/comedor-utm/internal/guard"
	"github.com/mmeshcher/comedor-utm/internal/model"
)

// HomeView — стартовая страница.
type HomeView struct {
	User *model.UserProfile `json:"user,omitempty"`
	Next string             `json:"next"`
}

// Home показывает сохранённого пользователя и следующую страницу.
func (e *Env) Home(ctx context.Context) *HomeView {
	sess := e.session.Get(ctx)
	if !sess.Authenticated() || sess.User == nil {
		return &HomeView{Next: guard.LoginPath}
	}
	return &HomeView{User: sess.User, Next: guard.Landing(sess.User.Rol)}
}
