package view

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/comedor-utm/internal/api"
	"github.com/mmeshcher/comedor-utm/internal/guard"
	"github.com/mmeshcher/comedor-utm/internal/model"
)

// CafeteriaCard — столовая в списке факультета. У закрытой столовой нет ссылки на меню.
type CafeteriaCard struct {
	model.Cafeteria
	MenuPath string `json:"menu_path,omitempty"`
}

// CafeteriasView — столовые факультета.
type CafeteriasView struct {
	FacultyID  int64                     `json:"facultad_id"`
	Redirect   string                    `json:"redirect,omitempty"`
	Cafeterias Resource[[]CafeteriaCard] `json:"cafeterias"`
}

// MenuPath возвращает путь меню столовой id.
func MenuPath(id int64) string {
	return fmt.Sprintf("/comedor/%d", id)
}

// Cafeterias загружает столовые факультета facultyID.
func (e *Env) Cafeterias(ctx context.Context, facultyID int64) *CafeteriasView {
	v := &CafeteriasView{
		FacultyID:  facultyID,
		Cafeterias: Loading[[]CafeteriaCard](),
	}

	if d := guard.Evaluate(guard.Authenticated, e.session.Get(ctx)); !d.Allow {
		v.Redirect = d.Redirect
		return v
	}

	cafeterias, err := e.client.CafeteriasByFaculty(ctx, facultyID)
	if err != nil {
		if e.expired(ctx, err) {
			v.Redirect = guard.LoginPath
			return v
		}
		e.logger.Warn("fetch cafeterias error", zap.Error(err), zap.Int64("facultyID", facultyID))
	}

	cards := make([]CafeteriaCard, 0, len(cafeterias))
	for _, c := range cafeterias {
		card := CafeteriaCard{Cafeteria: c}
		if c.Abierto {
			card.MenuPath = MenuPath(c.ID)
		}
		cards = append(cards, card)
	}

	v.Cafeterias = List(cards, err, api.UserMessage(err, "Error al cargar comedores"))
	return v
}
