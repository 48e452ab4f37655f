package view

import (
	"context"

	"go.uber.org/zap"

	"github.com/mmeshcher/comedor-utm/internal/api"
	"github.com/mmeshcher/comedor-utm/internal/guard"
	"github.com/mmeshcher/comedor-utm/internal/validation"
)

// LoginMode — вариант формы входа.
type LoginMode string

const (
	ModeEstudiante LoginMode = "estudiante"
	ModeAdmin      LoginMode = "admin"
)

// LoginInput — значения полей формы входа.
type LoginInput struct {
	Mode      LoginMode `json:"mode"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	AdminID   string    `json:"adminId"`
	AdminName string    `json:"adminName"`
}

// LoginView — страница входа.
type LoginView struct {
	env *Env

	Mode     LoginMode  `json:"mode"`
	Form     FormStatus `json:"form"`
	Redirect string     `json:"redirect,omitempty"`
}

// LoginPage открывает страницу входа.
func (e *Env) LoginPage(_ context.Context) *LoginView {
	return &LoginView{
		env:  e,
		Mode: ModeEstudiante,
		Form: e.form(formLogin).Status(),
	}
}

// Submit отправляет форму входа. При неудаче сессия не изменяется.
func (v *LoginView) Submit(ctx context.Context, in LoginInput) error {
	form := v.env.form(formLogin)
	if err := form.Begin(); err != nil {
		v.Form = form.Status()
		return err
	}

	if in.Mode != ModeAdmin {
		in.Mode = ModeEstudiante
	}
	v.Mode = in.Mode

	if err := validateLogin(in); err != nil {
		v.Form = form.Fail(err.Error())
		return nil
	}

	var (
		resp *api.LoginResponse
		err  error
	)
	switch in.Mode {
	case ModeAdmin:
		resp, err = v.env.client.LoginAdmin(ctx, api.AdminCredentials{AdminID: in.AdminID, AdminName: in.AdminName})
	default:
		resp, err = v.env.client.Login(ctx, api.Credentials{Email: in.Email, Password: in.Password})
	}
	if err != nil {
		v.env.logger.Info("login rejected", zap.Error(err))
		v.Form = form.Fail(api.UserMessage(err, "Credenciales incorrectas"))
		return nil
	}

	if err := v.env.session.Set(ctx, resp.Token, resp.User); err != nil {
		v.env.logger.Error("store session error", zap.Error(err))
		v.Form = form.Fail("No se pudo iniciar la sesión")
		return nil
	}

	v.Form = form.Succeed("¡Bienvenido, " + resp.User.Nombre + "!")
	v.Redirect = guard.Landing(resp.User.Rol)
	return nil
}

func validateLogin(in LoginInput) error {
	if in.Mode == ModeAdmin {
		return validation.Required("Ingresa el ID y el usuario de administrador",
			validation.Field{Name: "adminId", Value: in.AdminID},
			validation.Field{Name: "adminName", Value: in.AdminName},
		)
	}

	err := validation.Required("Ingresa tu correo y contraseña",
		validation.Field{Name: "email", Value: in.Email},
		validation.Field{Name: "password", Value: in.Password},
	)
	if err != nil {
		return err
	}
	return validation.Email("email", in.Email)
}
