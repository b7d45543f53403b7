package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/web/service"
)

type SocialHandler struct {
	service *service.SocialService
	logger  *zap.Logger
}

func NewSocialHandler(s *service.SocialService, logger *zap.Logger) *SocialHandler {
	return &SocialHandler{service: s, logger: logger.Named("social-handler")}
}

// Feed GET /api/feed — посты и события главной ленты
func (h *SocialHandler) Feed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.service.Feed(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// Profile GET /api/people/{personID} — профиль, посты и друзья
func (h *SocialHandler) Profile(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")
	if personID == "" {
		writeError(w, http.StatusBadRequest, "personID is required")
		return
	}
	profile, err := h.service.Profile(r.Context(), personID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Event GET /api/events/{eventID} — детали события с локациями и участниками
func (h *SocialHandler) Event(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "eventID is required")
		return
	}
	details, err := h.service.EventDetails(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// CreatePost POST /api/posts
func (h *SocialHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in service.CreatePostInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	post, err := h.service.CreatePost(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":        "Post added successfully",
		"post_id":        post.ID,
		"author_id":      post.AuthorID,
		"author_name":    post.AuthorName,
		"text":           post.Text,
		"sentiment":      post.Sentiment,
		"post_timestamp": post.Timestamp,
	})
}

// CreateEvent POST /api/events
func (h *SocialHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in service.CreateEventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	created, err := h.service.CreateEvent(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Event and attendees added successfully",
		"event_id":    created.EventID,
		"event_name":  created.EventName,
		"description": created.Description,
		"event_date":  created.EventDate,
		"locations":   created.Locations,
		"attendees":   created.Attendees,
	})
}
