// Package view содержит контроллеры представлений клиента столовых:
// каждый загружает свои данные через api.Client и хранит локальное состояние.
package view

// State — стадия жизненного цикла загружаемых данных представления.
type State string

const (
	StateLoading   State = "loading"
	StatePopulated State = "populated"
	StateEmpty     State = "empty"
	StateErrored   State = "errored"
)

// Resource — данные представления вместе со стадией загрузки.
// В состоянии errored Data содержит значение по умолчанию, и представление
// продолжает отрисовываться.
type Resource[T any] struct {
	State State  `json:"state"`
	Data  T      `json:"data"`
	Error string `json:"error,omitempty"`
}

// Loading возвращает ресурс, запрос которого ещё не завершён.
func Loading[T any]() Resource[T] {
	return Resource[T]{State: StateLoading}
}

// List переводит результат загрузки коллекции в конечное состояние.
func List[T any](items []T, err error, message string) Resource[[]T] {
	if err != nil {
		return Resource[[]T]{State: StateErrored, Data: []T{}, Error: message}
	}
	if len(items) == 0 {
		return Resource[[]T]{State: StateEmpty, Data: []T{}}
	}
	return Resource[[]T]{State: StatePopulated, Data: items}
}

// Item переводит результат загрузки одного объекта в конечное состояние.
func Item[T any](v *T, err error, message string) Resource[*T] {
	if err != nil {
		return Resource[*T]{State: StateErrored, Error: message}
	}
	if v == nil {
		return Resource[*T]{State: StateEmpty}
	}
	return Resource[*T]{State: StatePopulated, Data: v}
}

// Value переводит результат загрузки скаляра; при ошибке остаётся def.
func Value[T any](v T, err error, def T, message string) Resource[T] {
	if err != nil {
		return Resource[T]{State: StateErrored, Data: def, Error: message}
	}
	return Resource[T]{State: StatePopulated, Data: v}
}
