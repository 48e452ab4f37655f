package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/comedor-utm/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware веб-клиента.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.Middleware)
		r.Use(custommiddleware.GzipMiddleware)
		r.Use(custommiddleware.Logger(h.logger))

		r.Get("/", h.Home)

		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Get("/register", h.RegisterPage)
		r.Post("/register", h.Register)

		r.Get("/dashboard", h.Dashboard)
		r.Get("/comedores/{facultadId}", h.Cafeterias)

		r.Route("/comedor/{comedorId}", func(r chi.Router) {
			r.Get("/", h.Menu)
			r.Post("/reservas", h.Reserve)
		})

		r.Route("/admin-panel", func(r chi.Router) {
			r.Get("/", h.Admin)
			r.Post("/recargas", h.TopUp)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
