package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/instavibe/internal/domain"
)

var ErrBadAPIKey = errors.New("invalid or inactive API key")

// APIKeyRepository читает сервисные ключи из хранилища
type APIKeyRepository interface {
	GetActiveServiceKeys(ctx context.Context) ([]domain.ServiceKey, error)
}

// APIKeyService проверяет ключи записывающих эндпоинтов. Хэши (bcrypt)
// кэшируются в памяти и периодически перечитываются из базы.
type APIKeyService struct {
	repo   APIKeyRepository
	logger *zap.Logger

	mu   sync.RWMutex
	keys []domain.ServiceKey
}

func NewAPIKeyService(repo APIKeyRepository, logger *zap.Logger) *APIKeyService {
	return &APIKeyService{
		repo:   repo,
		logger: logger.Named("apikey-service"),
	}
}

// Refresh перечитывает активные ключи из базы.
func (s *APIKeyService) Refresh(ctx context.Context) error {
	keys, err := s.repo.GetActiveServiceKeys(ctx)
	if err != nil {
		return fmt.Errorf("load service keys: %w", err)
	}

	s.mu.Lock()
	s.keys = keys
	s.mu.Unlock()

	s.logger.Info("service keys refreshed", zap.Int("count", len(keys)))
	return nil
}

// StartRefresher обновляет кэш ключей по таймеру до отмены контекста.
func (s *APIKeyService) StartRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("service key refresh failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Verify сверяет сырой ключ с bcrypt-хэшами активных ключей.
func (s *APIKeyService) Verify(rawKey string) (*domain.ServiceKey, error) {
	if rawKey == "" {
		return nil, ErrBadAPIKey
	}

	s.mu.RLock()
	keys := s.keys
	s.mu.RUnlock()

	for i := range keys {
		if !keys[i].Active {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(keys[i].KeyHash), []byte(rawKey)); err == nil {
			return &keys[i], nil
		}
	}
	return nil, ErrBadAPIKey
}
