package a2a

import (
	"encoding/json"
	"fmt"
)

const (
	JSONRPCVersion = "2.0"

	MethodSendTask = "tasks/send"
	MethodGetTask  = "tasks/get"

	// Путь договоренности для карточки агента
	AgentCardPath = "/.well-known/agent.json"
)

// Стандартные коды JSON-RPC плюс серверный диапазон A2A
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeTaskNotFound   = -32001
)

// Request — конверт запроса. Params сериализуются на стороне вызывающего.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewSendTaskRequest собирает конверт tasks/send.
func NewSendTaskRequest(id string, params TaskSendParams) (*Request, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("a2a: marshal task params: %w", err)
	}
	return &Request{JSONRPC: JSONRPCVersion, ID: id, Method: MethodSendTask, Params: raw}, nil
}

// Error — объект ошибки в ответе.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Response — конверт ответа. Result разбирается вызывающим по методу.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}
