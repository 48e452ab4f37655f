package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/comedor-utm/internal/api"
	"github.com/mmeshcher/comedor-utm/internal/metrics"
	"github.com/mmeshcher/comedor-utm/internal/middleware"
	"github.com/mmeshcher/comedor-utm/internal/repository"
	"github.com/mmeshcher/comedor-utm/internal/view"
)

type stubBackend struct {
	loginStatus int
	usersCalls  atomic.Int32
}

func (b *stubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/auth/login":
		if b.loginStatus != 0 && b.loginStatus != http.StatusOK {
			w.WriteHeader(b.loginStatus)
			_, _ = io.WriteString(w, `{"error":"Credenciales incorrectas"}`)
			return
		}
		var creds map[string]any
		_ = json.NewDecoder(r.Body).Decode(&creds)
		rol := "estudiante"
		if creds["email"] == "admin@utm.edu.ec" {
			rol = "admin_comedor"
		}
		_, _ = io.WriteString(w, `{"token":"tok","user":{"id":3,"nombre":"Ana","rol":"`+rol+`","saldo":10}}`)
	case r.URL.Path == "/api/facultades":
		_, _ = io.WriteString(w, `[{"id":1,"nombre":"FCI"}]`)
	case r.URL.Path == "/api/reservas/usuario/3":
		_, _ = io.WriteString(w, `[]`)
	case r.URL.Path == "/api/usuarios/3":
		_, _ = io.WriteString(w, `{"id":3,"saldo":"10.00"}`)
	case r.URL.Path == "/api/comedores/10":
		_, _ = io.WriteString(w, `{"id":10,"nombre":"Central","abierto":true}`)
	case r.URL.Path == "/api/menu-dia/comedor/10":
		_, _ = io.WriteString(w, `[{"id":1,"nombre":"Seco","precio":2.5,"cantidad_disponible":3}]`)
	case r.Method == http.MethodPost && r.URL.Path == "/api/reservas":
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodGet && r.URL.Path == "/api/usuarios":
		b.usersCalls.Add(1)
		_, _ = io.WriteString(w, `[{"id":7,"nombre":"Juan","rol":"estudiante","saldo":0}]`)
	case r.Method == http.MethodPut && r.URL.Path == "/api/usuarios/saldo":
		_, _ = io.WriteString(w, `{"message":"ok","usuario":"Juan"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"not found"}`)
	}
}

func newTestHandler(t *testing.T, backend http.Handler) *Handler {
	t.Helper()

	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	sessions := middleware.NewSessionMiddleware("test-secret", time.Hour)
	client := api.NewClient(ts.URL, time.Second)

	return NewHandler(client, repository.NewMemoryRepository(), view.NewForms(), logger, sessions, metrics.New())
}

type browser struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func (b *browser) do(method, path, body string) *http.Response {
	b.t.Helper()

	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if b.cookie != nil {
		r.AddCookie(b.cookie)
	}

	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, r)

	res := w.Result()
	for _, c := range res.Cookies() {
		b.cookie = c
	}
	return res
}

func (b *browser) sessionID() string {
	b.t.Helper()
	if b.cookie == nil {
		b.t.Fatalf("no session cookie")
	}
	id, _, _ := strings.Cut(b.cookie.Value, ".")
	return id
}

func decodeBody(t *testing.T, res *http.Response, v any) {
	t.Helper()
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestGuardedViewRedirectsToLogin(t *testing.T) {
	h := newTestHandler(t, &stubBackend{})
	b := &browser{t: t, router: h.SetupRouter()}

	for _, path := range []string{"/dashboard", "/comedores/1", "/comedor/10", "/admin-panel"} {
		res := b.do(http.MethodGet, path, "")
		res.Body.Close()

		if res.StatusCode != http.StatusSeeOther {
			t.Fatalf("%s: status = %d, want %d", path, res.StatusCode, http.StatusSeeOther)
		}
		if loc := res.Header.Get("Location"); loc != "/login" {
			t.Fatalf("%s: Location = %q, want /login", path, loc)
		}
	}
}

func TestHome_RendersStoredUser(t *testing.T) {
	h := newTestHandler(t, &stubBackend{})
	b := &browser{t: t, router: h.SetupRouter()}

	var anon view.HomeView
	res := b.do(http.MethodGet, "/", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("anonymous home: status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	decodeBody(t, res, &anon)
	if anon.User != nil || anon.Next != "/login" {
		t.Fatalf("anonymous home = %+v", anon)
	}

	res = b.do(http.MethodPost, "/login", `{"email":"a@utm.edu.ec","password":"pw"}`)
	res.Body.Close()

	var home view.HomeView
	res = b.do(http.MethodGet, "/", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("home: status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	decodeBody(t, res, &home)
	if home.User == nil || home.User.Nombre != "Ana" {
		t.Fatalf("home user = %+v", home.User)
	}
	if home.Next != "/dashboard" {
		t.Fatalf("home next = %q, want /dashboard", home.Next)
	}
}

func TestLoginThenDashboard(t *testing.T) {
	h := newTestHandler(t, &stubBackend{})
	b := &browser{t: t, router: h.SetupRouter()}

	res := b.do(http.MethodPost, "/login", `{"email":"ana@utm.edu.ec","password":"pw"}`)
	res.Body.Close()
	if res.StatusCode != http.StatusSeeOther || res.Header.Get("Location") != "/dashboard" {
		t.Fatalf("login: status = %d, Location = %q", res.StatusCode, res.Header.Get("Location"))
	}

	res = b.do(http.MethodGet, "/dashboard", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dashboard: status = %d", res.StatusCode)
	}

	var doc struct {
		User struct {
			Nombre string `json:"nombre"`
		} `json:"user"`
		Faculties struct {
			State string `json:"state"`
		} `json:"faculties"`
		History struct {
			State string `json:"state"`
		} `json:"history"`
		Balance struct {
			State string  `json:"state"`
			Data  float64 `json:"data"`
		} `json:"balance"`
	}
	decodeBody(t, res, &doc)

	if doc.User.Nombre != "Ana" {
		t.Fatalf("user = %q, want Ana", doc.User.Nombre)
	}
	if doc.Faculties.State != "populated" || doc.History.State != "empty" || doc.Balance.Data != 10 {
		t.Fatalf("unexpected dashboard document: %+v", doc)
	}

	res = b.do(http.MethodPost, "/logout", "")
	res.Body.Close()
	if res.Header.Get("Location") != "/login" {
		t.Fatalf("logout Location = %q", res.Header.Get("Location"))
	}

	res = b.do(http.MethodGet, "/dashboard", "")
	res.Body.Close()
	if res.StatusCode != http.StatusSeeOther {
		t.Fatalf("dashboard after logout: status = %d", res.StatusCode)
	}
}

func TestLoginFailure(t *testing.T) {
	h := newTestHandler(t, &stubBackend{loginStatus: http.StatusUnauthorized})
	b := &browser{t: t, router: h.SetupRouter()}

	res := b.do(http.MethodPost, "/login", `{"email":"ana@utm.edu.ec","password":"bad"}`)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnprocessableEntity)
	}

	var doc struct {
		Form view.FormStatus `json:"form"`
	}
	decodeBody(t, res, &doc)
	if doc.Form.Phase != view.PhaseFailure || doc.Form.Message != "Credenciales incorrectas" {
		t.Fatalf("form = %+v", doc.Form)
	}
}

func TestBadRequests(t *testing.T) {
	h := newTestHandler(t, &stubBackend{})
	b := &browser{t: t, router: h.SetupRouter()}

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{method: http.MethodPost, path: "/login", body: `{bad`, want: http.StatusBadRequest},
		{method: http.MethodGet, path: "/comedores/abc", want: http.StatusNotFound},
		{method: http.MethodPost, path: "/comedor/10/reservas", body: `{"menu_id":"x"}`, want: http.StatusBadRequest},
		{method: http.MethodDelete, path: "/login", want: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		res := b.do(tt.method, tt.path, tt.body)
		res.Body.Close()
		if res.StatusCode != tt.want {
			t.Fatalf("%s %s: status = %d, want %d", tt.method, tt.path, res.StatusCode, tt.want)
		}
	}
}

func TestReserve(t *testing.T) {
	h := newTestHandler(t, &stubBackend{})
	b := &browser{t: t, router: h.SetupRouter()}

	b.do(http.MethodPost, "/login", `{"email":"ana@utm.edu.ec","password":"pw"}`).Body.Close()

	res := b.do(http.MethodPost, "/comedor/10/reservas", `{"menu_id":1}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	var doc struct {
		Menu struct {
			Data []struct {
				ID                 int64 `json:"id"`
				CantidadDisponible int   `json:"cantidad_disponible"`
			} `json:"data"`
		} `json:"menu"`
		Form view.FormStatus `json:"form"`
	}
	decodeBody(t, res, &doc)

	if doc.Form.Phase != view.PhaseSuccess {
		t.Fatalf("form = %+v", doc.Form)
	}
	if len(doc.Menu.Data) != 1 || doc.Menu.Data[0].CantidadDisponible != 2 {
		t.Fatalf("menu = %+v", doc.Menu.Data)
	}
}

func TestReserve_InFlightConflict(t *testing.T) {
	h := newTestHandler(t, &stubBackend{})
	b := &browser{t: t, router: h.SetupRouter()}

	b.do(http.MethodPost, "/login", `{"email":"ana@utm.edu.ec","password":"pw"}`).Body.Close()

	if err := h.forms.For(b.sessionID(), "reservation").Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}

	res := b.do(http.MethodPost, "/comedor/10/reservas", `{"menu_id":"1"}`)
	res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
}

func TestTopUp(t *testing.T) {
	backend := &stubBackend{}
	h := newTestHandler(t, backend)
	b := &browser{t: t, router: h.SetupRouter()}

	res := b.do(http.MethodPost, "/login", `{"email":"admin@utm.edu.ec","password":"pw"}`)
	res.Body.Close()
	if res.Header.Get("Location") != "/admin-panel" {
		t.Fatalf("login Location = %q", res.Header.Get("Location"))
	}

	res = b.do(http.MethodPost, "/admin-panel/recargas", `{"id":7,"monto":"25.50"}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	var doc struct {
		UserID string          `json:"user_id"`
		Monto  string          `json:"monto"`
		Form   view.FormStatus `json:"form"`
	}
	decodeBody(t, res, &doc)

	if !strings.Contains(doc.Form.Message, "Juan") || !strings.Contains(doc.Form.Message, "25.50") {
		t.Fatalf("message = %q", doc.Form.Message)
	}
	if doc.UserID != "" || doc.Monto != "" {
		t.Fatalf("fields not reset: %+v", doc)
	}
	if backend.usersCalls.Load() != 2 {
		t.Fatalf("users fetched %d times, want 2", backend.usersCalls.Load())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t, &stubBackend{})
	router := h.SetupRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/login", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`comedor_http_requests_total`)) {
		t.Fatalf("metrics page misses request counter")
	}
}

func TestField_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  field
	}{
		{input: `7`, want: "7"},
		{input: `"7"`, want: "7"},
		{input: `25.5`, want: "25.5"},
		{input: `null`, want: ""},
	}

	for _, tt := range tests {
		var f field
		if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.input, err)
		}
		if f != tt.want {
			t.Fatalf("unmarshal %s = %q, want %q", tt.input, f, tt.want)
		}
	}
}
