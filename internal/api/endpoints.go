package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mmeshcher/comedor-utm/internal/model"
)

// RegisterRequest — тело запроса регистрации.
type RegisterRequest struct {
	Nombre     string     `json:"nombre"`
	Email      string     `json:"email"`
	Password   string     `json:"password"`
	FacultadID int64      `json:"facultad_id"`
	Rol        model.Role `json:"rol"`
}

// Credentials — вход студента.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminCredentials — административный вход.
type AdminCredentials struct {
	AdminID   string `json:"adminId"`
	AdminName string `json:"adminName"`
	IsAdmin   bool   `json:"is_admin"`
}

// LoginResponse — ответ на успешный вход.
type LoginResponse struct {
	Token string            `json:"token"`
	User  model.UserProfile `json:"user"`
}

// ReservationRequest — тело запроса резервирования.
type ReservationRequest struct {
	UsuarioID int64 `json:"usuario_id"`
	MenuID    int64 `json:"menu_id"`
}

// TopUpRequest — тело запроса пополнения баланса.
type TopUpRequest struct {
	ID    int64   `json:"id"`
	Monto float64 `json:"monto"`
}

// TopUpResponse — ответ на пополнение баланса.
type TopUpResponse struct {
	Message string `json:"message"`
	Usuario string `json:"usuario"`
}

// Register создаёт учётную запись.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.call(ctx, "auth.register", http.MethodPost, "/api/auth/register", req, nil)
}

// Login выполняет вход студента по email и паролю.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.call(ctx, "auth.login", http.MethodPost, "/api/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LoginAdmin выполняет административный вход.
func (c *Client) LoginAdmin(ctx context.Context, creds AdminCredentials) (*LoginResponse, error) {
	creds.IsAdmin = true
	var resp LoginResponse
	if err := c.call(ctx, "auth.login_admin", http.MethodPost, "/api/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Faculties возвращает список факультетов.
func (c *Client) Faculties(ctx context.Context) ([]model.Faculty, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "facultades.list", http.MethodGet, "/api/facultades", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[model.Faculty](raw)
}

// CafeteriasByFaculty возвращает столовые факультета.
func (c *Client) CafeteriasByFaculty(ctx context.Context, facultyID int64) ([]model.Cafeteria, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/api/comedores/facultad/%d", facultyID)
	if err := c.call(ctx, "comedores.by_facultad", http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[model.Cafeteria](raw)
}

// Cafeteria возвращает сведения о столовой.
func (c *Client) Cafeteria(ctx context.Context, id int64) (*model.Cafeteria, error) {
	var resp model.Cafeteria
	path := fmt.Sprintf("/api/comedores/%d", id)
	if err := c.call(ctx, "comedores.get", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TodayMenu возвращает дневное меню столовой.
func (c *Client) TodayMenu(ctx context.Context, cafeteriaID int64) ([]model.MenuItem, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/api/menu-dia/comedor/%d", cafeteriaID)
	if err := c.call(ctx, "menu_dia.by_comedor", http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[model.MenuItem](raw)
}

// Reserve создаёт резервирование блюда для пользователя.
func (c *Client) Reserve(ctx context.Context, userID, menuID int64) error {
	req := ReservationRequest{UsuarioID: userID, MenuID: menuID}
	return c.call(ctx, "reservas.create", http.MethodPost, "/api/reservas", req, nil)
}

// Reservations возвращает историю резервирований пользователя.
func (c *Client) Reservations(ctx context.Context, userID int64) ([]model.Reservation, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/api/reservas/usuario/%d", userID)
	if err := c.call(ctx, "reservas.by_usuario", http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[model.Reservation](raw)
}

// User возвращает профиль пользователя с актуальным балансом.
func (c *Client) User(ctx context.Context, id int64) (*model.UserProfile, error) {
	var resp model.UserProfile
	path := fmt.Sprintf("/api/usuarios/%d", id)
	if err := c.call(ctx, "usuarios.get", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Users возвращает всех пользователей. Требует административного токена.
func (c *Client) Users(ctx context.Context) ([]model.UserProfile, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "usuarios.list", http.MethodGet, "/api/usuarios", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[model.UserProfile](raw)
}

// TopUp пополняет баланс пользователя id на сумму amount.
func (c *Client) TopUp(ctx context.Context, id int64, amount float64) (*TopUpResponse, error) {
	var resp TopUpResponse
	req := TopUpRequest{ID: id, Monto: amount}
	if err := c.call(ctx, "usuarios.saldo", http.MethodPut, "/api/usuarios/saldo", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
