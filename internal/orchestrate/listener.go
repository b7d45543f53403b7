package orchestrate

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/infra"
)

// RegisterListener подписывается на Redis-канал анонсов агентов и
// регистрирует их в реестре на лету. Payload сообщения — базовый адрес
// агента (карточка резолвится по /.well-known/agent.json).
type RegisterListener struct {
	rdb      *redis.Client
	registry *Registry
	logger   *zap.Logger
}

func NewRegisterListener(rdb *redis.Client, registry *Registry, logger *zap.Logger) *RegisterListener {
	return &RegisterListener{
		rdb:      rdb,
		registry: registry,
		logger:   logger.Named("register-listener"),
	}
}

// Start блокируется до отмены контекста. Запускать в отдельной горутине.
func (l *RegisterListener) Start(ctx context.Context) {
	// Канал должен совпадать с тем, что публикуют сами агенты
	pubsub := l.rdb.Subscribe(ctx, infra.RedisChanAgentRegister)
	defer pubsub.Close()

	ch := pubsub.Channel()
	l.logger.Info("agent register listener started",
		zap.String("channel", infra.RedisChanAgentRegister))

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				l.logger.Warn("agent register channel closed")
				return
			}

			address := msg.Payload
			l.logger.Info("received agent announcement", zap.String("address", address))

			if err := l.registry.Register(ctx, address); err != nil {
				// Анонс мог опередить готовность агента, не фатально
				l.logger.Warn("failed to register announced agent",
					zap.String("address", address),
					zap.Error(err))
			}

		case <-ctx.Done():
			l.logger.Info("agent register listener stopping by context")
			return
		}
	}
}
