package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/instavibe/internal/ally"
	"github.com/xela07ax/instavibe/internal/domain"
	"github.com/xela07ax/instavibe/internal/infra"
	"github.com/xela07ax/instavibe/internal/web/handler"
	"github.com/xela07ax/instavibe/internal/web/service"
)

// fakeRepo реализует ровно то, что нужно роутам в этих тестах.
type fakeRepo struct {
	pingErr   error
	idsByName map[string]string
	person    *domain.Person
}

func (f *fakeRepo) Ping(context.Context) error { return f.pingErr }

func (f *fakeRepo) GetAllPosts(context.Context, int) ([]domain.Post, error) {
	return []domain.Post{}, nil
}

func (f *fakeRepo) GetPostsByPerson(context.Context, string) ([]domain.Post, error) {
	return []domain.Post{}, nil
}

func (f *fakeRepo) GetPerson(context.Context, string) (*domain.Person, error) {
	return f.person, nil
}

func (f *fakeRepo) GetPersonIDByName(_ context.Context, name string) (string, error) {
	return f.idsByName[name], nil
}

func (f *fakeRepo) GetFriends(context.Context, string) ([]domain.Friend, error) {
	return []domain.Friend{}, nil
}

func (f *fakeRepo) AddPost(context.Context, *domain.Post) error { return nil }

func (f *fakeRepo) GetEventsWithAttendees(context.Context, int) ([]domain.EventWithAttendees, error) {
	return []domain.EventWithAttendees{}, nil
}

func (f *fakeRepo) GetEventDetails(context.Context, string) (*domain.EventDetails, error) {
	return nil, nil
}

func (f *fakeRepo) AddFullEvent(context.Context, *domain.NewEvent) error { return nil }

type fakeKeyRepo struct {
	keys []domain.ServiceKey
}

func (f *fakeKeyRepo) GetActiveServiceKeys(context.Context) ([]domain.ServiceKey, error) {
	return f.keys, nil
}

func newTestWebServer(t *testing.T, repo *fakeRepo, apiKeys *service.APIKeyService) *WebServer {
	t.Helper()
	logger := zap.NewNop()
	social := service.NewSocialService(repo, logger)
	orch := ally.NewOrchestratorClient("http://orchestrate:10000", time.Second)
	return NewWebServer(
		&infra.Config{},
		logger,
		social,
		apiKeys,
		handler.NewSocialHandler(social, logger),
		handler.NewAllyHandler(ally.New(orch, logger), logger),
	)
}

func TestHealthOK(t *testing.T) {
	srv := newTestWebServer(t, &fakeRepo{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestHealthDegraded(t *testing.T) {
	srv := newTestWebServer(t, &fakeRepo{pingErr: errors.New("refused")}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFeedIsPublic(t *testing.T) {
	srv := newTestWebServer(t, &fakeRepo{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProfileNotFoundStatus(t *testing.T) {
	srv := newTestWebServer(t, &fakeRepo{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/people/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestCreatePostValidationStatus(t *testing.T) {
	srv := newTestWebServer(t, &fakeRepo{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts",
		strings.NewReader(`{"author_name":"","text":"hi"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePostDatabaseDownStatus(t *testing.T) {
	srv := newTestWebServer(t, &fakeRepo{pingErr: errors.New("refused")}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts",
		strings.NewReader(`{"author_name":"Alice","text":"hi"}`)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Database connection not available")
}

func TestCreatePostCreatedStatus(t *testing.T) {
	srv := newTestWebServer(t, &fakeRepo{idsByName: map[string]string{"Alice": "p1"}}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts",
		strings.NewReader(`{"author_name":"Alice","text":"hi"}`)))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestWriteEndpointsRequireAPIKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sk-live-1"), bcrypt.MinCost)
	require.NoError(t, err)
	apiKeys := service.NewAPIKeyService(&fakeKeyRepo{keys: []domain.ServiceKey{
		{ID: "k1", Name: "ally-agent", KeyHash: string(hash), Active: true},
	}}, zap.NewNop())
	require.NoError(t, apiKeys.Refresh(context.Background()))

	srv := newTestWebServer(t, &fakeRepo{idsByName: map[string]string{"Alice": "p1"}}, apiKeys)

	// Без ключа — 401
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts",
		strings.NewReader(`{"author_name":"Alice","text":"hi"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// С неверным ключом — 401
	req := httptest.NewRequest(http.MethodPost, "/api/posts",
		strings.NewReader(`{"author_name":"Alice","text":"hi"}`))
	req.Header.Set("X-API-Key", "sk-wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// С верным ключом — проходит до хендлера
	req = httptest.NewRequest(http.MethodPost, "/api/posts",
		strings.NewReader(`{"author_name":"Alice","text":"hi"}`))
	req.Header.Set("X-API-Key", "sk-live-1")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Чтение ключа не требует
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAllyPlanValidationStatus(t *testing.T) {
	srv := newTestWebServer(t, &fakeRepo{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ally/plan",
		strings.NewReader(`{"user_name":""}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
