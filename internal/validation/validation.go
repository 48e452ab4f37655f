// Package validation содержит проверки форм, выполняемые до обращения к бэкенду.
package validation

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Error — ошибка валидации формы с текстом для пользователя.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Field — именованное значение поля формы.
type Field struct {
	Name  string
	Value string
}

// Required проверяет, что все поля заполнены. message — текст ошибки.
func Required(message string, fields ...Field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			return &Error{Field: f.Name, Message: message}
		}
	}
	return nil
}

// Email выполняет грубую проверку формата адреса.
func Email(field, value string) error {
	value = strings.TrimSpace(value)
	at := strings.LastIndex(value, "@")
	if at <= 0 || at == len(value)-1 || strings.ContainsFunc(value, unicode.IsSpace) {
		return &Error{Field: field, Message: "Correo electrónico inválido"}
	}
	if !strings.Contains(value[at+1:], ".") {
		return &Error{Field: field, Message: "Correo electrónico inválido"}
	}
	return nil
}

// ID разбирает положительный целочисленный идентификатор.
func ID(field, value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, &Error{Field: field, Message: "Identificador inválido"}
	}
	return id, nil
}

// PositiveAmount разбирает положительную денежную сумму. Допускается запятая как разделитель.
func PositiveAmount(field, value string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	amount, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, &Error{Field: field, Message: "El monto debe ser mayor que cero"}
	}
	return math.Round(amount*100) / 100, nil
}
