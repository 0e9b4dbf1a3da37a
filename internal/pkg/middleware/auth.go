package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gamma-omg/lexi-spell/internal/pkg/router"
)

type ctxKey struct{}

var userIDKey ctxKey

// TokenValidator checks a raw access token and returns the user id it was issued for.
type TokenValidator interface {
	Validate(raw string) (int64, error)
}

// TokenValidatorFunc adapts a function to TokenValidator.
type TokenValidatorFunc func(raw string) (int64, error)

func (f TokenValidatorFunc) Validate(raw string) (int64, error) {
	return f(raw)
}

// Auth accepts requests whose Authorization header carries a token accepted by tokens.
// The user id is stored in the request context.
func Auth(tokens TokenValidator) router.Middleware {
	return func(next http.Handler) http.Handler {
		return authMiddleware(next, tokens)
	}
}

func authMiddleware(next http.Handler, tokens TokenValidator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawToken := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if rawToken == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		uid, err := tokens.Validate(rawToken)
		if err != nil {
			authError("invalid access token", w, r, err)
			return
		}
		if uid <= 0 {
			authError("invalid token subject", w, r, nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), uid)))
	})
}

func authError(msg string, w http.ResponseWriter, r *http.Request, err error) {
	slog.Warn(msg,
		"error", err,
		"method", r.Method,
		"url", r.URL.String(),
		"remote_addr", r.RemoteAddr,
	)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

func WithUserID(ctx context.Context, uid int64) context.Context {
	return context.WithValue(ctx, userIDKey, uid)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	uid, ok := ctx.Value(userIDKey).(int64)
	return uid, ok
}
