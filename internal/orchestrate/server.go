package orchestrate

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/infra"
	"github.com/xela07ax/instavibe/internal/infra/auth"
	"github.com/xela07ax/instavibe/pkg/a2a"
)

// Server — HTTP-поверхность оркестратора: карточка агента, входящий
// JSON-RPC (tasks/send), запуск сессии для веб-фасада и создание сессий.
type Server struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	runner *Runner
	host   *HostAgent
	card   a2a.AgentCard

	// Опциональная защита RS256-токеном (nil — открытый периметр)
	authValidator auth.TokenValidator
}

func NewServer(cfg *infra.Config, logger *zap.Logger, runner *Runner, host *HostAgent, validator auth.TokenValidator) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		logger:        logger.Named("orchestrate-api"),
		cfg:           cfg,
		runner:        runner,
		host:          host,
		card:          buildCard(cfg),
		authValidator: validator,
	}

	s.routes()
	return s
}

// buildCard описывает оркестратор как самостоятельного A2A-агента
func buildCard(cfg *infra.Config) a2a.AgentCard {
	return a2a.AgentCard{
		Name:        "orchestrate",
		Description: "Orchestrates the decomposition of user requests into tasks performed by specialized remote agents.",
		URL:         cfg.Server.PublicURL,
		Version:     "1.0.0",
		Capabilities: a2a.AgentCapabilities{
			Streaming: false,
		},
		DefaultInputModes:  []string{"text", "text/plain"},
		DefaultOutputModes: []string{"text", "text/plain"},
		Skills: []a2a.AgentSkill{
			{
				ID:          "task_orchestration",
				Name:        "Task Orchestration",
				Description: "Routes user requests to the registered remote agents and aggregates their results.",
				Tags:        []string{"orchestration", "delegation"},
				Examples:    []string{"Plan a night out for me and my friends next Saturday."},
			},
		},
	}
}

func (s *Server) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		r.Get(a2a.AgentCardPath, s.handleAgentCard)
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// --- 3. РАБОЧИЙ ПЕРИМЕТР (токен — если сконфигурирован ключ) ---
	r.Group(func(r chi.Router) {
		if s.authValidator != nil {
			r.Use(auth.NewMiddleware(s.authValidator, s.logger))
		}

		r.Post("/", s.handleRPC)     // входящий A2A (tasks/send)
		r.Post("/run", s.handleRun)  // NDJSON-поток событий + финальный текст
		r.Post("/apps/orchestrate/users/{userID}/sessions/{sessionID}", s.handleCreateSession)
	})
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.card)
}

// handleRPC принимает JSON-RPC конверт от других агентов. Поддержан
// только tasks/send: оркестратор не хранит входящие задачи.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req a2a.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeRPCError(w, "", a2a.CodeParseError, "invalid JSON payload")
		return
	}
	if req.JSONRPC != a2a.JSONRPCVersion {
		s.writeRPCError(w, req.ID, a2a.CodeInvalidRequest, "unsupported jsonrpc version")
		return
	}
	if req.Method != a2a.MethodSendTask {
		s.writeRPCError(w, req.ID, a2a.CodeMethodNotFound, fmt.Sprintf("method %q is not supported", req.Method))
		return
	}

	var params a2a.TaskSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeRPCError(w, req.ID, a2a.CodeInvalidParams, "invalid tasks/send params")
		return
	}
	text, ok := params.Message.FirstText()
	if !ok {
		s.writeRPCError(w, req.ID, a2a.CodeInvalidParams, "message must contain a text part")
		return
	}

	final, err := s.runner.Run(r.Context(), params.SessionID, text, nil)

	task := a2a.Task{
		ID:        params.ID,
		SessionID: params.SessionID,
	}
	if err != nil {
		s.logger.Error("inbound task failed",
			zap.String("task_id", params.ID),
			zap.Error(err))
		task.Status = a2a.TaskStatus{
			State: a2a.TaskStateFailed,
			Message: &a2a.Message{
				Role:  a2a.RoleAgent,
				Parts: []a2a.Part{a2a.NewTextPart(err.Error())},
			},
		}
	} else {
		task.Status = a2a.TaskStatus{
			State: a2a.TaskStateCompleted,
			Message: &a2a.Message{
				Role:  a2a.RoleAgent,
				Parts: []a2a.Part{a2a.NewTextPart(final)},
			},
		}
	}

	result, err := json.Marshal(task)
	if err != nil {
		s.writeRPCError(w, req.ID, a2a.CodeInternalError, "marshal task")
		return
	}
	s.writeJSON(w, http.StatusOK, a2a.Response{
		JSONRPC: a2a.JSONRPCVersion,
		ID:      req.ID,
		Result:  result,
	})
}

type runRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// handleRun стримит прогресс выполнения построчно (NDJSON): каждое
// событие отдельной строкой, завершает поток событие type=text с
// финальным ответом.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.SessionID == "" || req.Message == "" {
		s.writeError(w, http.StatusBadRequest, "session_id and message are required")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	events := make(chan Event, 16)
	done := make(chan struct{})

	var final string
	var runErr error
	go func() {
		defer close(events)
		defer close(done)
		final, runErr = s.runner.Run(r.Context(), req.SessionID, req.Message, events)
	}()

	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			s.logger.Warn("client stream broken", zap.Error(err))
			break
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	<-done

	if runErr != nil {
		_ = enc.Encode(Event{Type: "error", Author: "orchestrate", Content: runErr.Error()})
	} else {
		_ = enc.Encode(Event{Type: "text", Author: "orchestrate", Content: final})
	}
	if flusher != nil {
		flusher.Flush()
	}
}

// handleCreateSession создает (или пере-инициализирует как пустую)
// сессию для пары user/session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	sessionID := chi.URLParam(r, "sessionID")
	if userID == "" || sessionID == "" {
		s.writeError(w, http.StatusBadRequest, "userID and sessionID are required")
		return
	}

	sess, err := s.host.sessions.Get(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("failed to load session", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "session storage unavailable")
		return
	}
	if err := s.host.sessions.Save(r.Context(), sess); err != nil {
		s.logger.Error("failed to save session", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "session storage unavailable")
		return
	}
	s.writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeRPCError(w http.ResponseWriter, id string, code int, msg string) {
	s.writeJSON(w, http.StatusOK, a2a.Response{
		JSONRPC: a2a.JSONRPCVersion,
		ID:      id,
		Error:   &a2a.Error{Code: code, Message: msg},
	})
}
