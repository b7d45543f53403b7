package orchestrate

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAgent — имя агента не зарегистрировано. Сетевой вызов
	// при этом не выполняется.
	ErrUnknownAgent = errors.New("agent not found in registry")

	// ErrInvalidTask — удаленный агент вернул пустой или битый объект
	// задачи. Сессия помечается неактивной.
	ErrInvalidTask = errors.New("remote agent returned invalid task object")
)

// TaskCanceledError — задача отменена удаленным агентом.
// Reason извлекается best-effort из первой текстовой части статусного
// сообщения, иначе "Unknown".
type TaskCanceledError struct {
	Agent  string
	TaskID string
	Reason string
}

func (e *TaskCanceledError) Error() string {
	return fmt.Sprintf("agent %q task %s was canceled: %s", e.Agent, e.TaskID, e.Reason)
}

// TaskFailedError — задача завершилась ошибкой на стороне агента.
type TaskFailedError struct {
	Agent  string
	TaskID string
	Reason string
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("agent %q task %s failed: %s", e.Agent, e.TaskID, e.Reason)
}
