// Package guard решает, может ли текущая сессия открыть представление.
package guard

import (
	"github.com/mmeshcher/comedor-utm/internal/model"
)

// Пути, на которые перенаправляет охранник.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	AdminPath     = "/admin-panel"
)

type requirementKind int

const (
	kindAnonymous requirementKind = iota
	kindAuthenticated
	kindRole
)

// Requirement описывает требование представления к сессии.
type Requirement struct {
	kind requirementKind
	role model.Role
}

var (
	// Anonymous — представление доступно всем.
	Anonymous = Requirement{kind: kindAnonymous}
	// Authenticated — нужен токен.
	Authenticated = Requirement{kind: kindAuthenticated}
)

// RequireRole — нужен токен и профиль с ролью role.
func RequireRole(role model.Role) Requirement {
	return Requirement{kind: kindRole, role: role}
}

// Decision — результат проверки: разрешить или перенаправить.
type Decision struct {
	Allow    bool
	Redirect string
}

var allow = Decision{Allow: true}

func redirect(path string) Decision {
	return Decision{Redirect: path}
}

// Evaluate проверяет сессию s против требования req.
// Неверная роль не отличается от отсутствия входа: оба случая ведут на /login.
func Evaluate(req Requirement, s model.Session) Decision {
	switch req.kind {
	case kindAnonymous:
		return allow
	case kindAuthenticated:
		if !s.Authenticated() {
			return redirect(LoginPath)
		}
		return allow
	case kindRole:
		if !s.Authenticated() || s.User == nil || s.User.Rol != req.role {
			return redirect(LoginPath)
		}
		return allow
	default:
		return redirect(LoginPath)
	}
}

// Landing возвращает страницу, на которую попадает пользователь после входа.
func Landing(role model.Role) string {
	switch role {
	case model.RoleAdminComedor:
		return AdminPath
	case model.RoleEstudiante, model.RoleAdmin:
		return DashboardPath
	default:
		return LoginPath
	}
}
