package auth

import (
	"context"
	"net/http"

	"github.com/xela07ax/instavibe/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator — интерфейс проверки bearer-токенов для A2A эндпоинтов
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.CustomClaims, error)
}

// Тип для ключей контекста (избегаем коллизий со сторонними пакетами)
type ctxKey string

const (
	callerIDKey ctxKey = "caller_id"
	scopesKey   ctxKey = "caller_scopes"
)

// CallerID достает идентификатор вызывающего из контекста запроса.
func CallerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(callerIDKey).(string)
	return id, ok
}

// Scopes достает набор разрешений вызывающего.
func Scopes(ctx context.Context) (map[string]bool, bool) {
	s, ok := ctx.Value(scopesKey).(map[string]bool)
	return s, ok
}

func NewMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Прокидываем данные в контекст
			ctx := context.WithValue(r.Context(), scopesKey, claims.Scopes)
			ctx = context.WithValue(ctx, callerIDKey, claims.CallerID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
