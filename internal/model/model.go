// Package model содержит доменные сущности клиента университетских столовых.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Role описывает роль пользователя, выданную бэкендом.
type Role string

const (
	RoleEstudiante   Role = "estudiante"
	RoleAdminComedor Role = "admin_comedor"
	RoleAdmin        Role = "admin"
)

// ParseRole преобразует строку в известную роль.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(s)); r {
	case RoleEstudiante, RoleAdminComedor, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// UnmarshalJSON принимает только известные роли; неизвестная роль
// превращается в пустую, у которой нет доступа ни к одному защищённому представлению.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode role: %w", err)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		*r = ""
		return nil
	}
	*r = parsed
	return nil
}

// Amount — денежная сумма. Бэкенд отдаёт её то числом, то строкой.
type Amount float64

// UnmarshalJSON разбирает число, строку с числом или null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode amount: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse amount %q: %w", s, err)
		}
		*a = Amount(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	*a = Amount(v)
	return nil
}

// String форматирует сумму с двумя знаками после запятой.
func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', 2, 64)
}

// UserProfile — профиль пользователя, возвращаемый при входе.
type UserProfile struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
	Rol    Role   `json:"rol"`
	Saldo  Amount `json:"saldo"`
}

// Session хранит токен и закэшированный профиль пользователя.
// Поле Saldo в профиле может устареть: резервирования меняют баланс на сервере.
type Session struct {
	Token string       `json:"token,omitempty"`
	User  *UserProfile `json:"user,omitempty"`
}

// Authenticated сообщает, есть ли в сессии токен.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Faculty — факультет, объединяющий столовые.
type Faculty struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// Cafeteria — столовая факультета.
type Cafeteria struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Ubicacion   string `json:"ubicacion"`
	Descripcion string `json:"descripcion"`
	Abierto     bool   `json:"abierto"`
}

// MenuItem — блюдо дневного меню с ограниченным остатком.
type MenuItem struct {
	ID                 int64  `json:"id"`
	Nombre             string `json:"nombre"`
	Descripcion        string `json:"descripcion"`
	Precio             Amount `json:"precio"`
	CantidadDisponible int    `json:"cantidad_disponible"`
}

// SoldOut сообщает, что блюдо закончилось.
func (m MenuItem) SoldOut() bool {
	return m.CantidadDisponible <= 0
}

// ReservationStatus описывает статус резервирования.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pendiente"
	ReservationCollected ReservationStatus = "retirado"
)

// Reservation — запись истории резервирований пользователя.
type Reservation struct {
	ID           int64             `json:"id"`
	PlatoNombre  string            `json:"plato_nombre"`
	FechaReserva string            `json:"fecha_reserva"`
	PrecioTotal  Amount            `json:"precio_total"`
	Estado       ReservationStatus `json:"estado"`
}
