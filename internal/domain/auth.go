package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims — полезная нагрузка bearer-токена для A2A эндпоинтов
// оркестратора. Scopes вида "tasks.send": true.
type CustomClaims struct {
	CallerID string          `json:"caller_id"`
	Scopes   map[string]bool `json:"scopes"`
	jwt.RegisteredClaims
}

// ServiceKey — сервисный API-ключ для write-эндпоинтов web API.
// В базе лежит только bcrypt-хэш, сам ключ показывается один раз при выдаче.
type ServiceKey struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	KeyHash   string    `json:"-"` // Никогда не отдаем наружу
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
