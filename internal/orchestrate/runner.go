package orchestrate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/infra"
)

// Имена тулов, доступных LLM
const (
	toolListRemoteAgents = "list_remote_agents"
	toolSendTask         = "send_task"
)

// JSON-схемы параметров тулов (OpenAI function calling)
const (
	listAgentsSchema = `{"type":"object","properties":{}}`
	sendTaskSchema   = `{
		"type": "object",
		"properties": {
			"agent_name": {"type": "string", "description": "Exact name of the remote agent from list_remote_agents."},
			"message": {"type": "string", "description": "Full task message for the remote agent, including all required parameters."}
		},
		"required": ["agent_name", "message"]
	}`
)

// Типы прогресс-событий
const (
	EventThought       = "thought"
	EventToolCall      = "tool_call"
	EventToolResult    = "tool_result"
	EventInputRequired = "input_required"
)

// Event — прогресс-событие выполнения. Терминальный текст в поток не
// попадает: он возвращается отдельным значением из Run.
type Event struct {
	Type    string `json:"type"`
	Author  string `json:"author,omitempty"`
	Content string `json:"content,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ChatCompleter — нужный срез клиента OpenAI, чтобы подменять его в тестах.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Runner гоняет tool-calling цикл: инструкция + тулы → LLM → вызовы
// list_remote_agents / send_task → финальный текст.
type Runner struct {
	llm       ChatCompleter
	host      *HostAgent
	model     string
	maxRounds int
	logger    *zap.Logger
}

func NewRunner(llm ChatCompleter, host *HostAgent, cfg infra.AgentConfig, logger *zap.Logger) *Runner {
	rounds := cfg.MaxToolRounds
	if rounds <= 0 {
		rounds = 8
	}
	return &Runner{
		llm:       llm,
		host:      host,
		model:     cfg.Model,
		maxRounds: rounds,
		logger:    logger.Named("runner"),
	}
}

func runnerTools() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolListRemoteAgents,
				Description: "List the currently registered remote agents with their descriptions.",
				Parameters:  json.RawMessage(listAgentsSchema),
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolSendTask,
				Description: "Delegate a task to a named remote agent and return its response.",
				Parameters:  json.RawMessage(sendTaskSchema),
			},
		},
	}
}

type sendTaskArgs struct {
	AgentName string `json:"agent_name"`
	Message   string `json:"message"`
}

// Run выполняет один пользовательский запрос в рамках сессии. Прогресс
// уходит в events (может быть nil), финальный текст — возврат функции.
func (r *Runner) Run(ctx context.Context, sessionID, message string, events chan<- Event) (string, error) {
	sess, err := r.host.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session %s: %w", sessionID, err)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: r.host.RootInstruction(sess)},
		{Role: openai.ChatMessageRoleUser, Content: message},
	}
	tools := runnerTools()

	for round := 0; round < r.maxRounds; round++ {
		resp, err := r.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    r.model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("chat completion: empty choices")
		}
		msg := resp.Choices[0].Message
		messages = append(messages, msg)

		if len(msg.ToolCalls) == 0 {
			// Финальный ответ, цикл закончен
			return msg.Content, nil
		}
		if msg.Content != "" {
			r.emit(ctx, events, Event{Type: EventThought, Author: "orchestrate", Content: msg.Content})
		}

		for _, call := range msg.ToolCalls {
			result := r.dispatchTool(ctx, sessionID, call, events)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
				Content:    result,
			})
		}
	}
	return "", fmt.Errorf("tool loop did not converge after %d rounds", r.maxRounds)
}

// dispatchTool исполняет один вызов тула. Ошибки тулов не валят цикл:
// они уходят обратно в LLM как {"error": ...}.
func (r *Runner) dispatchTool(ctx context.Context, sessionID string, call openai.ToolCall, events chan<- Event) string {
	r.emit(ctx, events, Event{Type: EventToolCall, Author: "orchestrate", Content: call.Function.Name})

	switch call.Function.Name {
	case toolListRemoteAgents:
		agents := r.host.ListAgents()
		out, err := json.Marshal(agents)
		if err != nil {
			return toolError(err)
		}
		r.emit(ctx, events, Event{Type: EventToolResult, Author: "orchestrate", Data: agents})
		return string(out)

	case toolSendTask:
		var args sendTaskArgs
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return toolError(fmt.Errorf("parse send_task arguments: %w", err))
		}
		actions := &Actions{}
		parts, err := r.host.SendTask(ctx, sessionID, args.AgentName, args.Message, actions)
		if err != nil {
			r.logger.Warn("send_task failed",
				zap.String("agent", args.AgentName),
				zap.Error(err))
			return toolError(err)
		}
		if actions.Escalate {
			r.emit(ctx, events, Event{Type: EventInputRequired, Author: args.AgentName, Content: joinText(parts)})
		}
		r.emit(ctx, events, Event{Type: EventToolResult, Author: args.AgentName, Data: parts})
		out, err := json.Marshal(parts)
		if err != nil {
			return toolError(err)
		}
		return string(out)

	default:
		return toolError(fmt.Errorf("unknown tool %q", call.Function.Name))
	}
}

func (r *Runner) emit(ctx context.Context, events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

func toolError(err error) string {
	out, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(out)
}

func joinText(parts []any) string {
	var sb strings.Builder
	for _, p := range parts {
		if s, ok := p.(string); ok {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(s)
		}
	}
	return sb.String()
}
