package orchestrate

/*
Файл host_agent.go — ядро оркестратора. HostAgent выбирает, какому
удаленному агенту делегировать задачу, ведет состояние задачи в рамках
сессии и нормализует многочастные ответы (text/data/file) в плоский
список значений для LLM.

Жизненный цикл задачи: submitted → working → input-required /
completed / canceled / failed. Терминальные состояния гасят сессию и
обнуляют task_id — продолжение после них начинает новую задачу.
*/

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/journal"
	"github.com/xela07ax/instavibe/pkg/a2a"
)

// HostAgent владеет реестром агентов и состоянием сессий.
type HostAgent struct {
	registry  *Registry
	sessions  SessionStore
	artifacts ArtifactStore
	metrics   *Metrics
	journal   journal.Recorder // nil — журналирование выключено
	logger    *zap.Logger

	// Мьютекс на запись сессии: один send_task на сессию в моменте
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewHostAgent(registry *Registry, sessions SessionStore, artifacts ArtifactStore, metrics *Metrics, rec journal.Recorder, logger *zap.Logger) *HostAgent {
	return &HostAgent{
		registry:  registry,
		sessions:  sessions,
		artifacts: artifacts,
		metrics:   metrics,
		journal:   rec,
		logger:    logger.Named("host-agent"),
		locks:     make(map[string]*sync.Mutex),
	}
}

// record пишет исход делегирования в журнал, если он подключен
func (h *HostAgent) record(sessionID, agentName, taskID, state, errMsg string, started time.Time) {
	if h.journal == nil {
		return
	}
	h.journal.Record(journal.TaskRecord{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Agent:      agentName,
		TaskID:     taskID,
		State:      state,
		Error:      errMsg,
		DurationMs: time.Since(started).Milliseconds(),
	})
}

// Registry открывает реестр для сервера (runtime-регистрация карточек).
func (h *HostAgent) Registry() *Registry {
	return h.registry
}

// ListAgents — тул для LLM: доступные агенты с описаниями.
func (h *HostAgent) ListAgents() []AgentInfo {
	agents := h.registry.ListAgents()
	h.metrics.RegisteredAgents.Set(float64(len(agents)))
	return agents
}

func (h *HostAgent) sessionLock(sessionID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		h.locks[sessionID] = l
	}
	return l
}

// SendTask делегирует задачу удаленному агенту и возвращает плоский список
// значений ответа (строки и структурные данные). Блокирующий round-trip:
// параллельного fan-out по нескольким агентам здесь нет.
func (h *HostAgent) SendTask(ctx context.Context, sessionID, agentName, message string, actions *Actions) ([]any, error) {
	conn, ok := h.registry.Connection(agentName)
	if !ok {
		// Никакого сетевого вызова: ошибка до транспорта
		h.metrics.ErrorTotal.WithLabelValues("unknown_agent").Inc()
		return nil, fmt.Errorf("%w: %q, use list_remote_agents for valid names", ErrUnknownAgent, agentName)
	}
	if actions == nil {
		actions = &Actions{}
	}

	// Сериализуем мутации состояния в рамках одной сессии
	lock := h.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := h.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	sess.ActiveAgent = agentName

	// ID задачи и сессии обеспечивают континуальность между вызовами
	taskID := sess.TaskID
	if taskID == "" {
		taskID = uuid.New().String()
	}
	messageID := uuid.New().String()

	params := a2a.TaskSendParams{
		ID:        taskID,
		SessionID: sessionID,
		Message: a2a.Message{
			Role:  a2a.RoleUser,
			Parts: []a2a.Part{a2a.NewTextPart(message)},
			Metadata: map[string]any{
				"conversation_id": sessionID,
				"message_id":      messageID,
			},
		},
		AcceptedOutputModes: []string{"text", "text/plain", "image/png"},
		Metadata:            map[string]any{"conversation_id": sessionID},
	}

	h.logger.Info("delegating task",
		zap.String("agent", agentName),
		zap.String("task_id", taskID),
		zap.String("session_id", sessionID))

	start := time.Now()
	task, err := conn.SendTask(ctx, params)
	h.metrics.TaskDuration.WithLabelValues(agentName).Observe(time.Since(start).Seconds())
	if err != nil {
		h.metrics.ErrorTotal.WithLabelValues("transport").Inc()
		h.record(sessionID, agentName, taskID, "error", err.Error(), start)
		return nil, fmt.Errorf("send task to %q: %w", agentName, err)
	}

	// Битый или пустой объект задачи — типизированная ошибка, сессия гаснет
	if task == nil || task.Status.State == "" {
		sess.Active = false
		sess.TaskID = ""
		if err := h.sessions.Save(ctx, sess); err != nil {
			h.logger.Error("failed to save session", zap.Error(err))
		}
		h.metrics.ErrorTotal.WithLabelValues("invalid_task").Inc()
		h.record(sessionID, agentName, taskID, "error", ErrInvalidTask.Error(), start)
		return nil, fmt.Errorf("%w (agent %q)", ErrInvalidTask, agentName)
	}

	state := task.Status.State
	sess.Active = !state.Terminal()

	if text, ok := task.Status.Message.FirstText(); ok {
		h.logger.Info("task status",
			zap.String("agent", agentName),
			zap.String("state", string(state)),
			zap.String("message", text))
	}

	var response []any

	switch state {
	case a2a.TaskStateInputRequired:
		// Агенту нужен ввод: эскалируем к пользователю без суммаризации
		actions.Escalate = true
		actions.SkipSummarization = true
		response = append(response,
			fmt.Sprintf("The agent %q requires more input to proceed. Please provide further details.", agentName))
		if text, ok := task.Status.Message.FirstText(); ok {
			response = append(response, text)
		}
		sess.TaskID = taskID

	case a2a.TaskStateCanceled:
		sess.TaskID = ""
		h.saveSession(ctx, sess)
		h.metrics.TasksTotal.WithLabelValues(agentName, string(state)).Inc()
		h.record(sessionID, agentName, task.ID, string(state), statusReason(task), start)
		return nil, &TaskCanceledError{Agent: agentName, TaskID: task.ID, Reason: statusReason(task)}

	case a2a.TaskStateFailed:
		sess.TaskID = ""
		h.saveSession(ctx, sess)
		h.metrics.TasksTotal.WithLabelValues(agentName, string(state)).Inc()
		h.record(sessionID, agentName, task.ID, string(state), statusReason(task), start)
		return nil, &TaskFailedError{Agent: agentName, TaskID: task.ID, Reason: statusReason(task)}

	default:
		// submitted/working сохраняют континуальность, терминальные
		// состояния ее обрывают: свежий вызов начнет новую задачу
		if state.Terminal() {
			sess.TaskID = ""
		} else {
			sess.TaskID = taskID
		}
	}

	// Все части статусного сообщения и артефактов — в плоский результат
	if task.Status.Message != nil {
		response = append(response, ConvertParts(ctx, task.Status.Message.Parts, h.artifacts, actions, h.logger)...)
	}
	for _, artifact := range task.Artifacts {
		response = append(response, ConvertParts(ctx, artifact.Parts, h.artifacts, actions, h.logger)...)
	}

	h.saveSession(ctx, sess)
	h.metrics.TasksTotal.WithLabelValues(agentName, string(state)).Inc()
	h.record(sessionID, agentName, task.ID, string(state), "", start)
	return response, nil
}

func (h *HostAgent) saveSession(ctx context.Context, s Session) {
	if err := h.sessions.Save(ctx, s); err != nil {
		h.logger.Error("failed to save session",
			zap.String("session_id", s.ID),
			zap.Error(err))
	}
}

// statusReason достает причину из первой текстовой части статусного
// сообщения, иначе "Unknown".
func statusReason(task *a2a.Task) string {
	if text, ok := task.Status.Message.FirstText(); ok {
		return text
	}
	return "Unknown"
}
