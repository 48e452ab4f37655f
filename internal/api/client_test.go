package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmeshcher/comedor-utm/internal/model"
)

type staticToken string

func (s staticToken) Token(context.Context) string { return string(s) }

type recordingObserver struct {
	endpoints []string
	outcomes  []string
}

func (o *recordingObserver) ObserveBackendCall(endpoint, outcome string, _ time.Duration) {
	o.endpoints = append(o.endpoints, endpoint)
	o.outcomes = append(o.outcomes, outcome)
}

func TestLogin_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/auth/login" {
			t.Fatalf("path = %s, want /api/auth/login", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Fatalf("Authorization = %q, want empty", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Fatalf("Content-Type = %q, want application/json", got)
		}

		var creds Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if creds.Email != "a@utm.edu.ec" || creds.Password != "x" {
			t.Fatalf("unexpected credentials: %+v", creds)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"token":"tok","user":{"id":3,"nombre":"Ana","email":"a@utm.edu.ec","rol":"estudiante","saldo":"12.50"}}`)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, time.Second)

	resp, err := client.Login(context.Background(), Credentials{Email: "a@utm.edu.ec", Password: "x"})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if resp.Token != "tok" {
		t.Fatalf("token = %q, want tok", resp.Token)
	}
	if resp.User.Rol != model.RoleEstudiante || resp.User.Saldo != 12.5 {
		t.Fatalf("unexpected user: %+v", resp.User)
	}
}

func TestDo_AttachesBearerToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("Authorization = %q, want Bearer secret", got)
		}
		if got := r.Header.Get("Content-Type"); got != "" {
			t.Fatalf("Content-Type = %q, want empty for bodyless request", got)
		}
		_, _ = io.WriteString(w, `[{"id":1,"nombre":"FCI"}]`)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, time.Second).WithTokens(staticToken("secret"))

	faculties, err := client.Faculties(context.Background())
	if err != nil {
		t.Fatalf("Faculties error: %v", err)
	}
	if len(faculties) != 1 || faculties[0].Nombre != "FCI" {
		t.Fatalf("unexpected faculties: %+v", faculties)
	}
}

func TestDo_ServerErrorCarriesMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"Credenciales incorrectas"}`)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, time.Second)

	_, err := client.Login(context.Background(), Credentials{Email: "a@utm.edu.ec", Password: "x"})

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Kind != KindServer {
		t.Fatalf("kind = %v, want %v", apiErr.Kind, KindServer)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", apiErr.Status, http.StatusUnauthorized)
	}
	if got := apiErr.MessageOr("fallback"); got != "Credenciales incorrectas" {
		t.Fatalf("message = %q, want Credenciales incorrectas", got)
	}
	if !apiErr.Unauthorized() {
		t.Fatalf("expected Unauthorized() for 401")
	}
}

func TestDo_ServerErrorWithoutMessageUsesFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
	}))
	defer ts.Close()

	client := NewClient(ts.URL, time.Second)

	err := client.Reserve(context.Background(), 1, 2)
	if got := UserMessage(err, "Error al procesar"); got != "Error al procesar" {
		t.Fatalf("message = %q, want fallback", got)
	}
	if IsUnauthorized(err) {
		t.Fatalf("500 must not be treated as unauthorized")
	}
}

func TestDo_ConnectionFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	obs := &recordingObserver{}
	client := NewClient(url, time.Second).WithObserver(obs)

	_, err := client.Faculties(context.Background())

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Kind != KindConnection {
		t.Fatalf("kind = %v, want %v", apiErr.Kind, KindConnection)
	}
	if apiErr.Status != 0 {
		t.Fatalf("status = %d, want 0", apiErr.Status)
	}
	if got := apiErr.MessageOr("ignored"); got != ConnectionMessage {
		t.Fatalf("message = %q, want %q", got, ConnectionMessage)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != "connection_failure" {
		t.Fatalf("unexpected observed outcomes: %v", obs.outcomes)
	}
}

func TestDo_NoRetryOnFailure(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, time.Second)
	_ = client.Reserve(context.Background(), 1, 1)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDo_CanceledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(ts.URL, time.Second)
	_, err := client.Faculties(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled in chain", err)
	}
}

func TestListEndpoints_NonArrayIsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":"sin datos"}`)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, time.Second)

	menu, err := client.TodayMenu(context.Background(), 4)
	if err != nil {
		t.Fatalf("TodayMenu error: %v", err)
	}
	if menu == nil || len(menu) != 0 {
		t.Fatalf("menu = %#v, want empty non-nil slice", menu)
	}
}

func TestTopUp_Body(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/usuarios/saldo" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req TopUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.ID != 7 || req.Monto != 25.5 {
			t.Fatalf("unexpected body: %+v", req)
		}
		_, _ = io.WriteString(w, `{"message":"ok","usuario":"Juan"}`)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, time.Second).WithTokens(staticToken("admin"))

	resp, err := client.TopUp(context.Background(), 7, 25.5)
	if err != nil {
		t.Fatalf("TopUp error: %v", err)
	}
	if resp.Usuario != "Juan" || resp.Message != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestNewClient_AddsScheme(t *testing.T) {
	c := NewClient("localhost:3000/", 0)
	if c.baseURL != "http://localhost:3000" {
		t.Fatalf("baseURL = %q, want http://localhost:3000", c.baseURL)
	}
}
