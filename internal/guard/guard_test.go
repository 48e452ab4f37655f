package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmeshcher/comedor-utm/internal/model"
)

func sessionWith(token string, role model.Role) model.Session {
	return model.Session{Token: token, User: &model.UserProfile{ID: 1, Rol: role}}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		req     Requirement
		session model.Session
		want    Decision
	}{
		{
			name:    "anonymous view without session",
			req:     Anonymous,
			session: model.Session{},
			want:    Decision{Allow: true},
		},
		{
			name:    "authenticated view without token",
			req:     Authenticated,
			session: model.Session{User: &model.UserProfile{ID: 1}},
			want:    Decision{Redirect: LoginPath},
		},
		{
			name:    "authenticated view with token",
			req:     Authenticated,
			session: sessionWith("t", model.RoleEstudiante),
			want:    Decision{Allow: true},
		},
		{
			name:    "admin view with student role",
			req:     RequireRole(model.RoleAdminComedor),
			session: sessionWith("t", model.RoleEstudiante),
			want:    Decision{Redirect: LoginPath},
		},
		{
			name:    "admin view without token",
			req:     RequireRole(model.RoleAdminComedor),
			session: model.Session{},
			want:    Decision{Redirect: LoginPath},
		},
		{
			name:    "admin view with matching role",
			req:     RequireRole(model.RoleAdminComedor),
			session: sessionWith("t", model.RoleAdminComedor),
			want:    Decision{Allow: true},
		},
		{
			name:    "role view with token but no profile",
			req:     RequireRole(model.RoleEstudiante),
			session: model.Session{Token: "t"},
			want:    Decision{Redirect: LoginPath},
		},
		{
			name:    "generic admin is not cafeteria admin",
			req:     RequireRole(model.RoleAdminComedor),
			session: sessionWith("t", model.RoleAdmin),
			want:    Decision{Redirect: LoginPath},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.req, tt.session))
		})
	}
}

func TestLanding(t *testing.T) {
	assert.Equal(t, AdminPath, Landing(model.RoleAdminComedor))
	assert.Equal(t, DashboardPath, Landing(model.RoleEstudiante))
	assert.Equal(t, DashboardPath, Landing(model.RoleAdmin))
	assert.Equal(t, LoginPath, Landing(""))
}
