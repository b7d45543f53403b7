package orchestrate

import (
	"context"
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/infra"
	"github.com/xela07ax/instavibe/pkg/a2a"
)

// scriptedLLM выдает заранее заданные ответы по одному на раунд.
type scriptedLLM struct {
	responses []openai.ChatCompletionResponse
	requests  []openai.ChatCompletionRequest
}

func (s *scriptedLLM) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return openai.ChatCompletionResponse{}, assert.AnError
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func toolCallResponse(content, tool, arguments string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: content,
				ToolCalls: []openai.ToolCall{{
					ID:   "call-1",
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: tool, Arguments: arguments},
				}},
			},
		}},
	}
}

func textResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: content,
			},
		}},
	}
}

func newTestRunner(t *testing.T, llm ChatCompleter, sender TaskSender) *Runner {
	t.Helper()
	host, _ := newTestHost(t, sender)
	return NewRunner(llm, host, infra.AgentConfig{Model: "gpt-4o", MaxToolRounds: 4}, zap.NewNop())
}

func TestRunnerToolLoop(t *testing.T) {
	sender := &stubSender{respond: func(a2a.TaskSendParams) (*a2a.Task, error) {
		return taskWithState(a2a.TaskStateCompleted, "Plan is ready"), nil
	}}
	llm := &scriptedLLM{responses: []openai.ChatCompletionResponse{
		toolCallResponse("Let me check the agents.", toolListRemoteAgents, "{}"),
		toolCallResponse("", toolSendTask, `{"agent_name":"planner","message":"plan a night out"}`),
		textResponse("Here is your plan: Plan is ready"),
	}}
	runner := newTestRunner(t, llm, sender)

	events := make(chan Event, 16)
	final, err := runner.Run(context.Background(), "s-1", "plan something fun", events)
	require.NoError(t, err)
	assert.Equal(t, "Here is your plan: Plan is ready", final)
	assert.Equal(t, 1, sender.calls)

	close(events)
	var types []string
	for ev := range events {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, EventThought)
	assert.Contains(t, types, EventToolCall)
	assert.Contains(t, types, EventToolResult)
	assert.NotContains(t, types, EventInputRequired)

	// Результат send_task возвращается в LLM сообщением роли tool
	last := llm.requests[len(llm.requests)-1]
	var sawToolResult bool
	for _, m := range last.Messages {
		if m.Role == openai.ChatMessageRoleTool && m.Name == toolSendTask {
			sawToolResult = true
			var parts []any
			require.NoError(t, json.Unmarshal([]byte(m.Content), &parts))
			assert.Contains(t, parts, "Plan is ready")
		}
	}
	assert.True(t, sawToolResult)
}

func TestRunnerToolErrorGoesBackToLLM(t *testing.T) {
	llm := &scriptedLLM{responses: []openai.ChatCompletionResponse{
		toolCallResponse("", toolSendTask, `{"agent_name":"ghost","message":"hi"}`),
		textResponse("That agent does not exist."),
	}}
	runner := newTestRunner(t, llm, &stubSender{respond: func(a2a.TaskSendParams) (*a2a.Task, error) {
		return nil, assert.AnError
	}})

	final, err := runner.Run(context.Background(), "s-2", "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "That agent does not exist.", final)

	last := llm.requests[len(llm.requests)-1]
	var sawError bool
	for _, m := range last.Messages {
		if m.Role == openai.ChatMessageRoleTool {
			var payload map[string]string
			require.NoError(t, json.Unmarshal([]byte(m.Content), &payload))
			assert.Contains(t, payload["error"], "agent not found in registry")
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestRunnerInputRequiredEvent(t *testing.T) {
	sender := &stubSender{respond: func(a2a.TaskSendParams) (*a2a.Task, error) {
		return taskWithState(a2a.TaskStateInputRequired, "Which city?"), nil
	}}
	llm := &scriptedLLM{responses: []openai.ChatCompletionResponse{
		toolCallResponse("", toolSendTask, `{"agent_name":"planner","message":"plan"}`),
		textResponse("The planner needs to know the city."),
	}}
	runner := newTestRunner(t, llm, sender)

	events := make(chan Event, 16)
	_, err := runner.Run(context.Background(), "s-3", "plan", events)
	require.NoError(t, err)

	close(events)
	var inputRequired *Event
	for ev := range events {
		if ev.Type == EventInputRequired {
			inputRequired = &ev
			break
		}
	}
	require.NotNil(t, inputRequired)
	assert.Equal(t, "planner", inputRequired.Author)
	assert.Contains(t, inputRequired.Content, "Which city?")
}

func TestRunnerLoopDoesNotConverge(t *testing.T) {
	llm := &scriptedLLM{responses: []openai.ChatCompletionResponse{
		toolCallResponse("", toolListRemoteAgents, "{}"),
		toolCallResponse("", toolListRemoteAgents, "{}"),
		toolCallResponse("", toolListRemoteAgents, "{}"),
		toolCallResponse("", toolListRemoteAgents, "{}"),
		toolCallResponse("", toolListRemoteAgents, "{}"),
	}}
	host, _ := newTestHost(t, &stubSender{})
	runner := NewRunner(llm, host, infra.AgentConfig{Model: "gpt-4o", MaxToolRounds: 2}, zap.NewNop())

	_, err := runner.Run(context.Background(), "s-4", "loop forever", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not converge")
}
