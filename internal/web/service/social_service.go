package service

/*
Сервисный слой веб-API: валидация входных данных, резолв имен в ID и
маппинг ответов хранилища в формы ответов. Все ошибки типизированы,
чтобы хендлеры однозначно выбирали HTTP-статус (400/404/500/503).
*/

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/domain"
)

// ErrUnavailable — база недоступна (503 на уровне HTTP)
var ErrUnavailable = errors.New("database connection not available")

// ValidationError — клиент прислал некорректные данные (400)
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError — сущность не найдена (404)
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// SocialRepository описывает требования сервиса к хранилищу
type SocialRepository interface {
	Ping(ctx context.Context) error
	GetAllPosts(ctx context.Context, limit int) ([]domain.Post, error)
	GetPostsByPerson(ctx context.Context, personID string) ([]domain.Post, error)
	GetPerson(ctx context.Context, personID string) (*domain.Person, error)
	GetPersonIDByName(ctx context.Context, name string) (string, error)
	GetFriends(ctx context.Context, personID string) ([]domain.Friend, error)
	AddPost(ctx context.Context, p *domain.Post) error
	GetEventsWithAttendees(ctx context.Context, limit int) ([]domain.EventWithAttendees, error)
	GetEventDetails(ctx context.Context, eventID string) (*domain.EventDetails, error)
	AddFullEvent(ctx context.Context, ev *domain.NewEvent) error
}

const (
	feedPostsLimit  = 50
	feedEventsLimit = 50
)

type SocialService struct {
	repo   SocialRepository
	logger *zap.Logger
}

func NewSocialService(repo SocialRepository, logger *zap.Logger) *SocialService {
	return &SocialService{
		repo:   repo,
		logger: logger.Named("social-service"),
	}
}

// Ping — проверка доступности базы для healthcheck.
func (s *SocialService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Feed — главная лента: свежие посты и события с участниками.
type Feed struct {
	Posts  []domain.Post               `json:"posts"`
	Events []domain.EventWithAttendees `json:"events"`
}

func (s *SocialService) Feed(ctx context.Context) (*Feed, error) {
	posts, err := s.repo.GetAllPosts(ctx, feedPostsLimit)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	events, err := s.repo.GetEventsWithAttendees(ctx, feedEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return &Feed{Posts: posts, Events: events}, nil
}

// Profile — страница человека: профиль, его посты и друзья.
type Profile struct {
	Person  *domain.Person  `json:"person"`
	Posts   []domain.Post   `json:"posts"`
	Friends []domain.Friend `json:"friends"`
}

func (s *SocialService) Profile(ctx context.Context, personID string) (*Profile, error) {
	person, err := s.repo.GetPerson(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("load person: %w", err)
	}
	if person == nil {
		return nil, &NotFoundError{Msg: fmt.Sprintf("person %q not found", personID)}
	}
	posts, err := s.repo.GetPostsByPerson(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("load person posts: %w", err)
	}
	friends, err := s.repo.GetFriends(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("load friends: %w", err)
	}
	return &Profile{Person: person, Posts: posts, Friends: friends}, nil
}

func (s *SocialService) EventDetails(ctx context.Context, eventID string) (*domain.EventDetails, error) {
	details, err := s.repo.GetEventDetails(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if details == nil {
		return nil, &NotFoundError{Msg: fmt.Sprintf("event %q not found", eventID)}
	}
	return details, nil
}

// CreatePostInput — тело POST /api/posts.
type CreatePostInput struct {
	AuthorName string  `json:"author_name"`
	Text       string  `json:"text"`
	Sentiment  *string `json:"sentiment"`
}

func (s *SocialService) CreatePost(ctx context.Context, in CreatePostInput) (*domain.Post, error) {
	if strings.TrimSpace(in.AuthorName) == "" {
		return nil, &ValidationError{Msg: "'author_name' must be a non-empty string"}
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, &ValidationError{Msg: "'text' must be a non-empty string"}
	}
	if err := s.repo.Ping(ctx); err != nil {
		s.logger.Error("database unreachable", zap.Error(err))
		return nil, ErrUnavailable
	}

	authorID, err := s.repo.GetPersonIDByName(ctx, in.AuthorName)
	if err != nil {
		return nil, fmt.Errorf("resolve author: %w", err)
	}
	if authorID == "" {
		return nil, &NotFoundError{Msg: fmt.Sprintf("author %q not found", in.AuthorName)}
	}

	post := &domain.Post{
		ID:         uuid.New().String(),
		AuthorID:   authorID,
		AuthorName: in.AuthorName,
		Text:       in.Text,
		Sentiment:  in.Sentiment,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.repo.AddPost(ctx, post); err != nil {
		return nil, fmt.Errorf("save post: %w", err)
	}
	return post, nil
}

// LocationInput — одна локация в теле POST /api/events.
type LocationInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     string   `json:"address"`
}

// CreateEventInput — тело POST /api/events.
type CreateEventInput struct {
	EventName     string          `json:"event_name"`
	Description   string          `json:"description"`
	EventDate     string          `json:"event_date"`
	Locations     []LocationInput `json:"locations"`
	AttendeeNames []string        `json:"attendee_names"`
}

// CreatedEvent — ответ 201 на создание события.
type CreatedEvent struct {
	EventID     string          `json:"event_id"`
	EventName   string          `json:"event_name"`
	Description string          `json:"description"`
	EventDate   string          `json:"event_date"`
	Locations   []LocationInput `json:"locations"`
	Attendees   []domain.Friend `json:"attendees"`
}

func (s *SocialService) CreateEvent(ctx context.Context, in CreateEventInput) (*CreatedEvent, error) {
	if err := validateEventInput(in); err != nil {
		return nil, err
	}
	eventDate, err := parseEventDate(in.EventDate)
	if err != nil {
		return nil, &ValidationError{Msg: "invalid timestamp format for 'event_date', use ISO 8601 (e.g. YYYY-MM-DDTHH:MM:SSZ)"}
	}
	if err := s.repo.Ping(ctx); err != nil {
		s.logger.Error("database unreachable", zap.Error(err))
		return nil, ErrUnavailable
	}

	// Все участники должны резолвиться до начала транзакции
	attendees := make([]domain.Friend, 0, len(in.AttendeeNames))
	attendeeIDs := make([]string, 0, len(in.AttendeeNames))
	for _, name := range in.AttendeeNames {
		id, err := s.repo.GetPersonIDByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve attendee: %w", err)
		}
		if id == "" {
			return nil, &NotFoundError{Msg: fmt.Sprintf("attendee %q not found", name)}
		}
		attendees = append(attendees, domain.Friend{ID: id, Name: name})
		attendeeIDs = append(attendeeIDs, id)
	}

	locations := make([]domain.Location, 0, len(in.Locations))
	for _, loc := range in.Locations {
		locations = append(locations, domain.Location{
			Name:        loc.Name,
			Description: loc.Description,
			Latitude:    loc.Latitude,
			Longitude:   loc.Longitude,
			Address:     loc.Address,
		})
	}

	newEvent := &domain.NewEvent{
		ID:          uuid.New().String(),
		Name:        in.EventName,
		Description: in.Description,
		Date:        eventDate,
		Locations:   locations,
		AttendeeIDs: attendeeIDs,
	}
	if err := s.repo.AddFullEvent(ctx, newEvent); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}

	return &CreatedEvent{
		EventID:     newEvent.ID,
		EventName:   in.EventName,
		Description: in.Description,
		EventDate:   eventDate.Format(time.RFC3339),
		Locations:   in.Locations,
		Attendees:   attendees,
	}, nil
}

func validateEventInput(in CreateEventInput) error {
	if strings.TrimSpace(in.EventName) == "" {
		return &ValidationError{Msg: "'event_name' must be a non-empty string"}
	}
	if strings.TrimSpace(in.EventDate) == "" {
		return &ValidationError{Msg: "'event_date' must be a non-empty string"}
	}
	if len(in.AttendeeNames) == 0 {
		return &ValidationError{Msg: "'attendee_names' must be a non-empty list of strings"}
	}
	for _, name := range in.AttendeeNames {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Msg: "each name in 'attendee_names' must be a non-empty string"}
		}
	}
	if len(in.Locations) == 0 {
		return &ValidationError{Msg: "'locations' list cannot be empty"}
	}
	for i, loc := range in.Locations {
		if strings.TrimSpace(loc.Name) == "" {
			return &ValidationError{Msg: fmt.Sprintf("location at index %d is missing 'name'", i)}
		}
		if loc.Latitude == nil || loc.Longitude == nil {
			return &ValidationError{Msg: fmt.Sprintf("location at index %d has invalid latitude/longitude, must be numbers", i)}
		}
	}
	return nil
}

// parseEventDate принимает ISO 8601; строка без зоны трактуется как UTC.
func parseEventDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
