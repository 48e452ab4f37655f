package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind различает сбой соединения и ответ сервера с ошибкой.
type ErrorKind int

const (
	// KindConnection — ответ от сервера не получен.
	KindConnection ErrorKind = iota
	// KindServer — сервер ответил статусом вне диапазона 2xx.
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection_failure"
	case KindServer:
		return "server_error"
	default:
		return "unknown"
	}
}

const (
	// ConnectionMessage показывается пользователю при сбое соединения.
	ConnectionMessage      = "Error de conexión con el servidor."
	genericServerMessage   = "Error al procesar la solicitud"
	invalidResponseMessage = "Respuesta inválida del servidor"
)

// Error описывает неуспешное обращение к бэкенду.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConnection:
		if e.Err != nil {
			return fmt.Sprintf("connection failure: %v", e.Err)
		}
		return "connection failure"
	default:
		return fmt.Sprintf("server error %d: %s", e.Status, e.MessageOr(genericServerMessage))
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MessageOr возвращает текст для пользователя: сообщение сервера,
// fallback при его отсутствии или стандартный текст сбоя соединения.
func (e *Error) MessageOr(fallback string) string {
	if e.Kind == KindConnection {
		return ConnectionMessage
	}
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

// Unauthorized сообщает, что бэкенд отверг токен.
func (e *Error) Unauthorized() bool {
	return e.Kind == KindServer && (e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

// UserMessage извлекает текст для пользователя из произвольной ошибки.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.MessageOr(fallback)
	}
	return fallback
}

// IsUnauthorized сообщает, что err — отказ бэкенда в авторизации.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}
