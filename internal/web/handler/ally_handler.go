package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/ally"
)

// AllyHandler стримит прогресс фасада IntrovertAlly клиенту как NDJSON:
// thought-события по мере работы, последней строкой — терминальное
// plan_complete/posting_finished или error.
type AllyHandler struct {
	ally   *ally.Ally
	logger *zap.Logger
}

func NewAllyHandler(a *ally.Ally, logger *zap.Logger) *AllyHandler {
	return &AllyHandler{ally: a, logger: logger.Named("ally-handler")}
}

// GeneratePlan POST /api/ally/plan
func (h *AllyHandler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req ally.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.UserName == "" || req.PlannedDate == "" || len(req.Friends) == 0 {
		writeError(w, http.StatusBadRequest, "user_name, planned_date and selected_friends are required")
		return
	}

	h.stream(w, r, func(events chan<- ally.ProgressEvent) ally.ProgressEvent {
		plan, err := h.ally.GeneratePlan(r.Context(), req, events)
		if err != nil {
			h.logger.Warn("plan generation failed", zap.Error(err))
			return ally.ProgressEvent{Type: ally.ProgressError, Data: map[string]string{"message": err.Error()}}
		}
		return ally.ProgressEvent{Type: ally.ProgressPlanComplete, Data: plan}
	})
}

// PostPlan POST /api/ally/post
func (h *AllyHandler) PostPlan(w http.ResponseWriter, r *http.Request) {
	var req ally.PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.UserName == "" || req.Plan.EventName == "" || req.InviteMessage == "" {
		writeError(w, http.StatusBadRequest, "user_name, confirmed_plan and invite_message are required")
		return
	}

	h.stream(w, r, func(events chan<- ally.ProgressEvent) ally.ProgressEvent {
		if err := h.ally.PostPlan(r.Context(), req, events); err != nil {
			h.logger.Warn("plan posting failed", zap.Error(err))
			return ally.ProgressEvent{Type: ally.ProgressError, Data: map[string]string{"message": err.Error()}}
		}
		return ally.ProgressEvent{Type: ally.ProgressPostingFinished, Data: map[string]any{
			"success": true,
			"message": "The agent has finished processing the event and post creation.",
		}}
	})
}

// stream гонит прогресс в ответ построчно и замыкает поток терминальным событием
func (h *AllyHandler) stream(w http.ResponseWriter, r *http.Request, run func(chan<- ally.ProgressEvent) ally.ProgressEvent) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	events := make(chan ally.ProgressEvent, 16)
	terminal := make(chan ally.ProgressEvent, 1)

	go func() {
		defer close(events)
		terminal <- run(events)
	}()

	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			h.logger.Warn("client stream broken", zap.Error(err))
			break
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	_ = enc.Encode(<-terminal)
	if flusher != nil {
		flusher.Flush()
	}
}
