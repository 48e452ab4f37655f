// Package middleware содержит HTTP middleware веб-клиента столовых.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const sessionIDKey contextKey = "sessionID"

const (
	sessionCookieName = "comedor_session"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

// SessionMiddleware привязывает браузер к серверной сессии через подписанный cookie.
// Сам cookie не содержит токена бэкенда, только идентификатор сессии.
type SessionMiddleware struct {
	secretKey []byte
	ttl       time.Duration
}

// NewSessionMiddleware создаёт middleware с ключом подписи secret.
// Пустой secret заменяется случайным ключом: cookie перестают быть валидными после перезапуска.
func NewSessionMiddleware(secret string, ttl time.Duration) *SessionMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("comedor-default-secret")
		}
	}
	if ttl <= 0 {
		ttl = sessionCookieTTL
	}

	return &SessionMiddleware{
		secretKey: key,
		ttl:       ttl,
	}
}

// Middleware извлекает идентификатор сессии из cookie или выдаёт новый
// и кладёт его в контекст запроса. Запрос без cookie не отклоняется.
// Cookie перевыпускается на каждый запрос, так что срок отсчитывается от последнего обращения.
func (s *SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			id string
			ok bool
		)
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			id, ok = s.parseCookie(cookie.Value)
		}
		if !ok {
			id = uuid.New().String()
		}
		s.setCookie(w, id)

		ctx := context.WithValue(r.Context(), sessionIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *SessionMiddleware) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id + "." + s.sign(id),
		Path:     "/",
		Expires:  time.Now().Add(s.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *SessionMiddleware) sign(id string) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *SessionMiddleware) parseCookie(value string) (string, bool) {
	id, signature, found := strings.Cut(value, ".")
	if !found {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	if !hmac.Equal([]byte(signature), []byte(s.sign(id))) {
		return "", false
	}
	return id, true
}

// GetSessionIDFromContext извлекает идентификатор сессии из контекста запроса.
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// WithSessionID кладёт идентификатор сессии в контекст.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}
