// Package handler содержит HTTP-обработчики веб-клиента столовых:
// каждое представление отдаётся JSON-документом, переходы выполняются через 303 See Other.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/comedor-utm/internal/api"
	"github.com/mmeshcher/comedor-utm/internal/middleware"
	"github.com/mmeshcher/comedor-utm/internal/session"
	"github.com/mmeshcher/comedor-utm/internal/view"
)

const maxBodySize = 1 << 20

// Handler реализует HTTP-обработчики представлений.
type Handler struct {
	client   *api.Client
	backend  session.Backend
	forms    *view.Forms
	logger   *zap.Logger
	sessions *middleware.SessionMiddleware
	metrics  MetricsProvider
}

// MetricsProvider — метрики HTTP-слоя; nil отключает /metrics.
type MetricsProvider interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(client *api.Client, backend session.Backend, forms *view.Forms, logger *zap.Logger,
	sessions *middleware.SessionMiddleware, metrics MetricsProvider) *Handler {
	if forms == nil {
		forms = view.NewForms()
	}
	return &Handler{
		client:   client,
		backend:  backend,
		forms:    forms,
		logger:   logger,
		sessions: sessions,
		metrics:  metrics,
	}
}

func (h *Handler) env(r *http.Request) *view.Env {
	id, _ := middleware.GetSessionIDFromContext(r.Context())
	store := session.NewStore(h.backend, id, h.logger)
	return view.NewEnv(h.client, store, h.forms, h.logger)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// render отдаёт представление или выполняет переход.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, to string, v any) {
	if to != "" {
		redirect(w, r, to)
		return
	}
	h.writeJSON(w, http.StatusOK, v)
}

// submitted отвечает на отправку формы.
func (h *Handler) submitted(w http.ResponseWriter, r *http.Request, err error, to string, form view.FormStatus, v any) {
	switch {
	case errors.Is(err, view.ErrInFlight):
		h.writeJSON(w, http.StatusConflict, v)
	case err != nil:
		h.logger.Error("form submission error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	case to != "":
		redirect(w, r, to)
	case form.Phase == view.PhaseFailure:
		h.writeJSON(w, http.StatusUnprocessableEntity, v)
	default:
		h.writeJSON(w, http.StatusOK, v)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v)
}

// field — значение поля формы, присланное строкой или числом.
type field string

func (f *field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = field(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = field(n.String())
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Home отдаёт стартовую страницу с сохранённым пользователем и ссылкой дальше.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	v := h.env(r).Home(r.Context())
	h.writeJSON(w, http.StatusOK, v)
}

// LoginPage отдаёт страницу входа.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	v := h.env(r).LoginPage(r.Context())
	h.writeJSON(w, http.StatusOK, v)
}

// Login обрабатывает отправку формы входа.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in view.LoginInput
	if err := decode(w, r, &in); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	v := h.env(r).LoginPage(r.Context())
	err := v.Submit(r.Context(), in)
	h.submitted(w, r, err, v.Redirect, v.Form, v)
}

// Logout очищает сессию и перенаправляет на страницу входа.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	to, err := h.env(r).Logout(r.Context())
	if err != nil {
		h.logger.Error("logout error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	redirect(w, r, to)
}

// RegisterPage отдаёт страницу регистрации.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	v := h.env(r).RegisterPage(r.Context())
	h.writeJSON(w, http.StatusOK, v)
}

type registerRequest struct {
	Nombre     string `json:"nombre"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FacultadID field  `json:"facultad_id"`
}

// Register обрабатывает отправку формы регистрации.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	v := h.env(r).RegisterPage(r.Context())
	err := v.Submit(r.Context(), view.RegisterInput{
		Nombre:     req.Nombre,
		Email:      req.Email,
		Password:   req.Password,
		FacultadID: string(req.FacultadID),
	})
	h.submitted(w, r, err, v.Redirect, v.Form, v)
}

// Dashboard отдаёт кабинет пользователя.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	v := h.env(r).Dashboard(r.Context())
	h.render(w, r, v.Redirect, v)
}

// Cafeterias отдаёт столовые факультета.
func (h *Handler) Cafeterias(w http.ResponseWriter, r *http.Request) {
	facultyID, ok := pathID(r, "facultadId")
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	v := h.env(r).Cafeterias(r.Context(), facultyID)
	h.render(w, r, v.Redirect, v)
}

// Menu отдаёт дневное меню столовой.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	cafeteriaID, ok := pathID(r, "comedorId")
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	v := h.env(r).Menu(r.Context(), cafeteriaID)
	h.render(w, r, v.Redirect, v)
}

type reserveRequest struct {
	MenuID field `json:"menu_id"`
}

// Reserve резервирует блюдо из меню столовой.
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	cafeteriaID, ok := pathID(r, "comedorId")
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	var req reserveRequest
	if err := decode(w, r, &req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	menuID, err := strconv.ParseInt(string(req.MenuID), 10, 64)
	if err != nil || menuID <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	v := h.env(r).Menu(r.Context(), cafeteriaID)
	if v.Redirect != "" {
		redirect(w, r, v.Redirect)
		return
	}

	err = v.Reserve(r.Context(), menuID)
	h.submitted(w, r, err, v.Redirect, v.Form, v)
}

// Admin отдаёт панель администратора столовой.
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	v := h.env(r).Admin(r.Context())
	h.render(w, r, v.Redirect, v)
}

type topUpRequest struct {
	ID    field `json:"id"`
	Monto field `json:"monto"`
}

// TopUp пополняет баланс пользователя.
func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req topUpRequest
	if err := decode(w, r, &req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	v := h.env(r).Admin(r.Context())
	if v.Redirect != "" {
		redirect(w, r, v.Redirect)
		return
	}

	err := v.TopUp(r.Context(), string(req.ID), string(req.Monto))
	h.submitted(w, r, err, v.Redirect, v.Form, v)
}
