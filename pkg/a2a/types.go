package a2a

import "time"

// TaskState — состояние жизненного цикла задачи у удаленного агента.
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateCanceled      TaskState = "canceled"
	TaskStateFailed        TaskState = "failed"
	TaskStateUnknown       TaskState = "unknown"
)

// Terminal — состояния без продолжения. Сессия после них считается неактивной,
// task_id не переносится на следующий вызов.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed, TaskStateUnknown:
		return true
	}
	return false
}

// Роли сообщений
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// AgentCapabilities описывает возможности удаленного агента.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming,omitempty"`
	PushNotifications      bool `json:"pushNotifications,omitempty"`
	StateTransitionHistory bool `json:"stateTransitionHistory,omitempty"`
}

// AgentSkill — отдельный навык агента из его карточки.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// AgentCard — дескриптор удаленного агента. Резолвится один раз при
// регистрации и дальше не меняется.
type AgentCard struct {
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	URL                string            `json:"url"`
	Version            string            `json:"version"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	DefaultInputModes  []string          `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string          `json:"defaultOutputModes,omitempty"`
	Skills             []AgentSkill      `json:"skills"`
}

// Message — одно сообщение диалога (от пользователя или агента).
type Message struct {
	Role     string         `json:"role"`
	Parts    []Part         `json:"parts"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FirstText возвращает текст первой текстовой части (для логов и reason-строк).
func (m *Message) FirstText() (string, bool) {
	if m == nil {
		return "", false
	}
	for _, p := range m.Parts {
		if p.Kind == PartKindText {
			return p.Text, true
		}
	}
	return "", false
}

// Artifact — результат работы задачи (может быть большим/структурированным).
type Artifact struct {
	Name     string         `json:"name,omitempty"`
	Parts    []Part         `json:"parts"`
	Index    int            `json:"index,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskStatus — текущий статус задачи плюс опциональное сообщение агента.
type TaskStatus struct {
	State     TaskState  `json:"state"`
	Message   *Message   `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Task — протокольное значение, которое возвращает удаленный агент.
type Task struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId,omitempty"`
	Status    TaskStatus     `json:"status"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TaskSendParams — параметры запроса tasks/send.
type TaskSendParams struct {
	ID                  string         `json:"id"`
	SessionID           string         `json:"sessionId"`
	Message             Message        `json:"message"`
	AcceptedOutputModes []string       `json:"acceptedOutputModes,omitempty"`
	Metadata            map[string]any `json:"metadata,omitempty"`
}
