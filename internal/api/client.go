// Package api предоставляет клиент HTTP API сервиса университетских столовых.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseSize = 4 << 20

// TokenSource отдаёт bearer-токен текущей сессии или пустую строку.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Observer получает сведения о каждом обращении к бэкенду.
type Observer interface {
	ObserveBackendCall(endpoint, outcome string, elapsed time.Duration)
}

// Client инкапсулирует HTTP-взаимодействие с бэкендом столовых.
// Клиент никогда не повторяет запросы и не изменяет сессию.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	observer   Observer
}

// NewClient создаёт клиент бэкенда по указанному адресу.
// Нулевой timeout означает отсутствие ограничения на уровне клиента.
func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithTokens возвращает копию клиента, подставляющую токен из ts.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// WithObserver возвращает копию клиента, сообщающую о вызовах в o.
func (c *Client) WithObserver(o Observer) *Client {
	cp := *c
	cp.observer = o
	return &cp
}

// Do выполняет запрос method path с телом body и декодирует ответ в out.
// Ошибки всегда имеют тип *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.call(ctx, method+" "+path, method, path, body, out)
}

func (c *Client) call(ctx context.Context, endpoint, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveBackendCall(endpoint, outcomeOf(err), time.Since(start))
		}
	}()

	raw, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{
			Kind:    KindServer,
			Status:  http.StatusOK,
			Message: invalidResponseMessage,
			Err:     fmt.Errorf("decode response: %w", err),
		}
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c == nil || c.baseURL == "" {
		return nil, &Error{Kind: KindConnection, Err: errors.New("api client not configured")}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindConnection, Err: fmt.Errorf("encode body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Kind: KindConnection, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Message: serverMessage(raw),
		}
	}

	return raw, nil
}

func serverMessage(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}

// decodeList декодирует массив; любой другой JSON считается пустой коллекцией.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []T{}, nil
	}

	items := make([]T, 0)
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &Error{
			Kind:    KindServer,
			Status:  http.StatusOK,
			Message: invalidResponseMessage,
			Err:     fmt.Errorf("decode list: %w", err),
		}
	}
	return items, nil
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind.String()
	}
	return "error"
}
