package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/infra"
	"github.com/xela07ax/instavibe/internal/web/handler"
	"github.com/xela07ax/instavibe/internal/web/service"
)

// WebServer — JSON API социальной части: лента, профили, события,
// записывающие эндпоинты под сервисным ключом и стримящий фасад ally.
type WebServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	social *service.SocialService

	// nil — записывающий периметр открыт (локальная разработка)
	apiKeys *service.APIKeyService

	socialHandler *handler.SocialHandler
	allyHandler   *handler.AllyHandler
}

func NewWebServer(
	cfg *infra.Config,
	logger *zap.Logger,
	social *service.SocialService,
	apiKeys *service.APIKeyService,
	socialH *handler.SocialHandler,
	allyH *handler.AllyHandler,
) *WebServer {
	s := &WebServer{
		router:        chi.NewRouter(),
		logger:        logger.Named("web-api"),
		cfg:           cfg,
		social:        social,
		apiKeys:       apiKeys,
		socialHandler: socialH,
		allyHandler:   allyH,
	}

	s.routes()
	return s
}

func (s *WebServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// --- 2. ПУБЛИЧНЫЕ ЧИТАЮЩИЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/api/feed", s.socialHandler.Feed)
		r.Get("/api/people/{personID}", s.socialHandler.Profile)
		r.Get("/api/events/{eventID}", s.socialHandler.Event)
	})

	// --- 3. ЗАПИСЫВАЮЩИЙ ПЕРИМЕТР (сервисный ключ) ---
	r.Group(func(r chi.Router) {
		if s.apiKeys != nil {
			r.Use(s.apiKeyMiddleware)
		}

		r.Post("/api/posts", s.socialHandler.CreatePost)
		r.Post("/api/events", s.socialHandler.CreateEvent)
		r.Post("/api/ally/plan", s.allyHandler.GeneratePlan)
		r.Post("/api/ally/post", s.allyHandler.PostPlan)
	})
}

// ServeHTTP позволяет использовать WebServer как стандартный http.Handler
func (s *WebServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// apiKeyMiddleware сверяет заголовок X-API-Key с bcrypt-хэшами активных ключей
func (s *WebServer) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := s.apiKeys.Verify(r.Header.Get("X-API-Key"))
		if err != nil {
			s.logger.Warn("rejected write request", zap.String("path", r.URL.Path))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "invalid or missing API key"}`))
			return
		}
		s.logger.Debug("write request authorized", zap.String("service", key.Name))
		next.ServeHTTP(w, r)
	})
}

func (s *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.social.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status": "degraded", "database": "unreachable"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status": "ok"}`))
}
