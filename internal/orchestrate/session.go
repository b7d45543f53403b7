package orchestrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/xela07ax/instavibe/internal/infra"
)

// Session — состояние одной беседы оркестратора. Никаких глобальных
// переменных: все мутабельное состояние живет в SessionStore под ключом
// session_id, мутации сериализуются per-session замком в HostAgent.
type Session struct {
	ID          string `json:"id"`
	TaskID      string `json:"task_id,omitempty"`
	ActiveAgent string `json:"active_agent,omitempty"`
	// Active true, пока последняя задача не дошла до терминального состояния
	Active bool `json:"active"`
}

// SessionStore — хранилище сессий. Get создает запись лениво.
type SessionStore interface {
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
}

// --- In-memory реализация (один процесс) ---

type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return Session{ID: id}, nil
	}
	return s, nil
}

func (m *MemorySessionStore) Save(_ context.Context, s Session) error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return nil
}

// --- Redis реализация (несколько реплик оркестратора) ---

type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (Session, error) {
	raw, err := r.rdb.Get(ctx, infra.SessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{ID: id}, nil
		}
		return Session{}, fmt.Errorf("redis: get session %s: %w", id, err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("redis: decode session %s: %w", id, err)
	}
	return s, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, s Session) error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("redis: encode session %s: %w", s.ID, err)
	}
	if err := r.rdb.Set(ctx, infra.SessionKey(s.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis: save session %s: %w", s.ID, err)
	}
	return nil
}
