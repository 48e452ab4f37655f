package view

import (
	"context"

	"go.uber.org/zap"

	"github.com/mmeshcher/comedor-utm/internal/api"
	"github.com/mmeshcher/comedor-utm/internal/guard"
	"github.com/mmeshcher/comedor-utm/internal/model"
	"github.com/mmeshcher/comedor-utm/internal/validation"
)

// RegisterInput — значения полей формы регистрации.
type RegisterInput struct {
	Nombre     string `json:"nombre"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FacultadID string `json:"facultad_id"`
}

// RegisterView — страница регистрации со списком факультетов.
type RegisterView struct {
	env *Env

	Faculties Resource[[]model.Faculty] `json:"faculties"`
	Form      FormStatus                `json:"form"`
	Redirect  string                    `json:"redirect,omitempty"`
}

// RegisterPage открывает страницу регистрации и загружает факультеты.
func (e *Env) RegisterPage(ctx context.Context) *RegisterView {
	v := &RegisterView{
		env:       e,
		Faculties: Loading[[]model.Faculty](),
		Form:      e.form(formRegister).Status(),
	}

	faculties, err := e.client.Faculties(ctx)
	if err != nil {
		e.logger.Warn("fetch faculties error", zap.Error(err))
	}
	v.Faculties = List(faculties, err, api.UserMessage(err, "No se pudieron cargar las facultades"))
	return v
}

// Submit отправляет форму регистрации; новая учётная запись всегда получает роль estudiante.
func (v *RegisterView) Submit(ctx context.Context, in RegisterInput) error {
	form := v.env.form(formRegister)
	if err := form.Begin(); err != nil {
		v.Form = form.Status()
		return err
	}

	err := validation.Required("Completa todos los campos",
		validation.Field{Name: "nombre", Value: in.Nombre},
		validation.Field{Name: "email", Value: in.Email},
		validation.Field{Name: "password", Value: in.Password},
		validation.Field{Name: "facultad_id", Value: in.FacultadID},
	)
	if err == nil {
		err = validation.Email("email", in.Email)
	}
	var facultyID int64
	if err == nil {
		facultyID, err = validation.ID("facultad_id", in.FacultadID)
	}
	if err != nil {
		v.Form = form.Fail(err.Error())
		return nil
	}

	err = v.env.client.Register(ctx, api.RegisterRequest{
		Nombre:     in.Nombre,
		Email:      in.Email,
		Password:   in.Password,
		FacultadID: facultyID,
		Rol:        model.RoleEstudiante,
	})
	if err != nil {
		v.env.logger.Info("register rejected", zap.Error(err))
		v.Form = form.Fail(api.UserMessage(err, "Error al crear cuenta"))
		return nil
	}

	v.Form = form.Succeed("Cuenta creada con éxito")
	v.Redirect = guard.LoginPath
	return nil
}
