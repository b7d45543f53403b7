package ally

/*
Фасад IntrovertAlly: превращает формы веб-приложения в промпты для
оркестратора и его поток событий — в прогресс для клиента. Два сценария:
генерация плана вечера (GeneratePlan) и постинг подтвержденного плана
(PostPlan). Прогресс уходит в канал, терминальный результат — возврат
функции.
*/

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/domain"
	"github.com/xela07ax/instavibe/internal/orchestrate"
)

type Ally struct {
	orch   *OrchestratorClient
	logger *zap.Logger
}

func New(orch *OrchestratorClient, logger *zap.Logger) *Ally {
	return &Ally{orch: orch, logger: logger.Named("ally")}
}

// PlanRequest — входные данные формы планирования.
type PlanRequest struct {
	UserName           string   `json:"user_name"`
	PlannedDate        string   `json:"planned_date"`
	LocationPreference string   `json:"location_n_preference"`
	Friends            []string `json:"selected_friends"`
}

// PostRequest — подтвержденный план плюс отредактированное приглашение.
type PostRequest struct {
	UserName      string           `json:"user_name"`
	Plan          domain.EventPlan `json:"confirmed_plan"`
	InviteMessage string           `json:"invite_message"`
	SessionUserID string           `json:"agent_session_user_id"`
}

func newSessionID() string {
	return "s_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// GeneratePlan прогоняет промпт планирования через оркестратор,
// аккумулирует текст ответа и парсит его в EventPlan.
func (a *Ally) GeneratePlan(ctx context.Context, req PlanRequest, events chan<- ProgressEvent) (*domain.EventPlan, error) {
	a.thought(ctx, events, fmt.Sprintf("Initiating plan for %s on %s regarding %q with friends: %s.",
		req.UserName, req.PlannedDate, req.LocationPreference, strings.Join(req.Friends, ", ")))

	sessionID := newSessionID()
	if err := a.orch.CreateSession(ctx, req.UserName, sessionID); err != nil {
		return nil, fmt.Errorf("establish session: %w", err)
	}

	a.thought(ctx, events, fmt.Sprintf("Sending detailed planning prompt to the orchestrator for %s's event.", req.UserName))

	var accumulated strings.Builder
	var streamErr string
	err := a.orch.Run(ctx, req.UserName, sessionID, planPrompt(req.UserName, req.PlannedDate, req.LocationPreference, req.Friends),
		func(ev orchestrate.Event) {
			switch ev.Type {
			case orchestrate.EventThought:
				a.thought(ctx, events, fmt.Sprintf("Agent: %q", ev.Content))
				accumulated.WriteString(ev.Content)
			case "text":
				accumulated.WriteString(ev.Content)
			case "error":
				streamErr = ev.Content
			default:
				a.forwardTool(ctx, events, ev)
			}
		})
	if err != nil {
		return nil, fmt.Errorf("agent interaction: %w", err)
	}
	if streamErr != "" {
		return nil, fmt.Errorf("agent interaction: %s", streamErr)
	}

	raw := extractJSONBlock(accumulated.String())
	if raw == "" {
		return nil, fmt.Errorf("agent returned no content")
	}

	var plan domain.EventPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		a.logger.Warn("plan output is not valid JSON", zap.String("raw", raw))
		return nil, fmt.Errorf("parse plan JSON: %w", err)
	}
	return &plan, nil
}

// PostPlan делегирует оркестратору создание события и пригласительного
// поста по подтвержденному плану.
func (a *Ally) PostPlan(ctx context.Context, req PostRequest, events chan<- ProgressEvent) error {
	a.thought(ctx, events, fmt.Sprintf("Initiating process to post event %q and invite for %s.",
		req.Plan.EventName, req.UserName))

	sessionUser := req.SessionUserID
	if sessionUser == "" {
		sessionUser = req.UserName
	}
	sessionID := newSessionID()
	if err := a.orch.CreateSession(ctx, sessionUser, sessionID); err != nil {
		return fmt.Errorf("establish session: %w", err)
	}

	a.thought(ctx, events, fmt.Sprintf("Sending posting instructions to the orchestrator for %s's event.", req.UserName))

	var streamErr string
	err := a.orch.Run(ctx, sessionUser, sessionID, postPrompt(req.UserName, req.Plan, req.InviteMessage),
		func(ev orchestrate.Event) {
			switch ev.Type {
			case orchestrate.EventThought, "text":
				if ev.Content != "" {
					a.thought(ctx, events, fmt.Sprintf("Agent: %q", ev.Content))
				}
			case "error":
				streamErr = ev.Content
			default:
				a.forwardTool(ctx, events, ev)
			}
		})
	if err != nil {
		return fmt.Errorf("agent interaction: %w", err)
	}
	if streamErr != "" {
		return fmt.Errorf("agent interaction: %s", streamErr)
	}
	return nil
}

func (a *Ally) thought(ctx context.Context, events chan<- ProgressEvent, text string) {
	if events == nil {
		return
	}
	select {
	case events <- ProgressEvent{Type: ProgressThought, Data: text}:
	case <-ctx.Done():
	}
}

// forwardTool переводит tool-события оркестратора в человекочитаемые thought-строки
func (a *Ally) forwardTool(ctx context.Context, events chan<- ProgressEvent, ev orchestrate.Event) {
	switch ev.Type {
	case orchestrate.EventToolCall:
		a.thought(ctx, events, fmt.Sprintf("Agent is using a tool: %s", ev.Content))
	case orchestrate.EventToolResult:
		a.thought(ctx, events, fmt.Sprintf("Agent received output from tool (author: %s).", ev.Author))
	case orchestrate.EventInputRequired:
		a.thought(ctx, events, fmt.Sprintf("Agent %s requires more input: %s", ev.Author, ev.Content))
	}
}

// extractJSONBlock снимает markdown-обертку ```json ... ``` если она есть.
func extractJSONBlock(s string) string {
	s = strings.TrimSpace(s)
	marker := "```json"
	idx := strings.Index(s, marker)
	if idx < 0 {
		return s
	}
	rest := s[idx+len(marker):]
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
