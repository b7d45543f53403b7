package orchestrate

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/pkg/a2a"
)

// CardResolver резолвит адрес в карточку агента (well-known endpoint).
type CardResolver interface {
	ResolveCard(ctx context.Context, address string) (*a2a.AgentCard, error)
}

// TaskSender — транспорт tasks/send. Реализуется a2a.Client
// и ReliabilityWrapper поверх него.
type TaskSender interface {
	SendTask(ctx context.Context, endpoint string, params a2a.TaskSendParams) (*a2a.Task, error)
}

// AgentInfo — то, что видит LLM при выборе агента: имя и описание.
type AgentInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RemoteAgentConnection привязывает транспорт к одной карточке.
// Создается при регистрации и живет до конца процесса.
type RemoteAgentConnection struct {
	Card   a2a.AgentCard
	sender TaskSender
}

// SendTask отправляет задачу на endpoint из карточки.
func (c *RemoteAgentConnection) SendTask(ctx context.Context, params a2a.TaskSendParams) (*a2a.Task, error) {
	return c.sender.SendTask(ctx, c.Card.URL, params)
}

// Registry хранит соединения с удаленными агентами.
// Инвариант: ровно одно соединение на имя агента.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]*RemoteAgentConnection
	resolver CardResolver
	sender   TaskSender
	logger   *zap.Logger
}

func NewRegistry(resolver CardResolver, sender TaskSender, logger *zap.Logger) *Registry {
	return &Registry{
		conns:    make(map[string]*RemoteAgentConnection),
		resolver: resolver,
		sender:   sender,
		logger:   logger.Named("registry"),
	}
}

// Bootstrap регистрирует стартовый список адресов. Best-effort:
// падение одного адреса не мешает остальным и не валит запуск.
func (r *Registry) Bootstrap(ctx context.Context, addresses []string) {
	for _, addr := range addresses {
		if err := r.Register(ctx, addr); err != nil {
			r.logger.Warn("could not connect to remote agent",
				zap.String("address", addr),
				zap.Error(err))
		}
	}
	if len(r.ListAgents()) == 0 {
		r.logger.Warn("no remote agents could be resolved during startup")
	}
}

// Register резолвит карточку по адресу и сохраняет соединение под card.name.
func (r *Registry) Register(ctx context.Context, address string) error {
	card, err := r.resolver.ResolveCard(ctx, address)
	if err != nil {
		return err
	}
	r.RegisterCard(*card)
	r.logger.Info("connected to remote agent",
		zap.String("agent", card.Name),
		zap.String("address", address))
	return nil
}

// RegisterCard добавляет готовую карточку (runtime-регистрация через Pub/Sub).
// Повторная регистрация того же имени заменяет соединение.
func (r *Registry) RegisterCard(card a2a.AgentCard) {
	r.mu.Lock()
	r.conns[card.Name] = &RemoteAgentConnection{Card: card, sender: r.sender}
	r.mu.Unlock()
}

// Connection находит соединение по имени агента.
func (r *Registry) Connection(name string) (*RemoteAgentConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[name]
	return conn, ok
}

// ListAgents возвращает {name, description} по всем зарегистрированным
// агентам. Пустой список — валидный результат ("агентов нет"), не ошибка.
func (r *Registry) ListAgents() []AgentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]AgentInfo, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, AgentInfo{
			Name:        conn.Card.Name,
			Description: conn.Card.Description,
		})
	}
	return out
}
