package ally

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/domain"
	"github.com/xela07ax/instavibe/internal/orchestrate"
)

// fakeOrchestrator имитирует сервис оркестратора: создание сессии и
// NDJSON-поток /run с заданными строками.
func fakeOrchestrator(t *testing.T, runLines []orchestrate.Event) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/apps/orchestrate/users/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"s"}`))
	})
	mux.HandleFunc("/run", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		for _, ev := range runLines {
			require.NoError(t, enc.Encode(ev))
		}
	})
	return httptest.NewServer(mux)
}

func newTestAlly(t *testing.T, runLines []orchestrate.Event) *Ally {
	t.Helper()
	srv := fakeOrchestrator(t, runLines)
	t.Cleanup(srv.Close)
	return New(NewOrchestratorClient(srv.URL, 5*time.Second), zap.NewNop())
}

func samplePlanJSON() string {
	return `{
		"friends_name_list": ["Alice", "Bob"],
		"event_name": "Jazz and Tapas Night",
		"event_date": "2026-09-05T19:00:00Z",
		"event_description": "A relaxed night of live jazz and shared plates.",
		"locations_and_activities": [{"name": "Blue Note", "latitude": 52.52, "longitude": 13.405, "address": null, "description": "Cozy jazz bar"}],
		"post_to_go_out": "Who is in for jazz on Saturday?"
	}`
}

func planRequest() PlanRequest {
	return PlanRequest{
		UserName:           "Diana",
		PlannedDate:        "2026-09-05",
		LocationPreference: "somewhere quiet with live music",
		Friends:            []string{"Alice", "Bob"},
	}
}

func TestGeneratePlanParsesFencedJSON(t *testing.T) {
	ally := newTestAlly(t, []orchestrate.Event{
		{Type: orchestrate.EventToolCall, Author: "orchestrate", Content: "send_task"},
		{Type: "text", Author: "orchestrate", Content: "```json\n" + samplePlanJSON() + "\n```"},
	})

	events := make(chan ProgressEvent, 32)
	plan, err := ally.GeneratePlan(context.Background(), planRequest(), events)
	require.NoError(t, err)
	assert.Equal(t, "Jazz and Tapas Night", plan.EventName)
	require.Len(t, plan.LocationsAndActivities, 1)
	assert.Equal(t, "Blue Note", plan.LocationsAndActivities[0].Name)
	assert.Equal(t, []string{"Alice", "Bob"}, plan.FriendsNameList)

	close(events)
	var sawToolThought bool
	for ev := range events {
		require.Equal(t, ProgressThought, ev.Type)
		if s, ok := ev.Data.(string); ok && s == "Agent is using a tool: send_task" {
			sawToolThought = true
		}
	}
	assert.True(t, sawToolThought)
}

func TestGeneratePlanBareJSON(t *testing.T) {
	ally := newTestAlly(t, []orchestrate.Event{
		{Type: "text", Content: samplePlanJSON()},
	})

	plan, err := ally.GeneratePlan(context.Background(), planRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Jazz and Tapas Night", plan.EventName)
}

func TestGeneratePlanStreamError(t *testing.T) {
	ally := newTestAlly(t, []orchestrate.Event{
		{Type: "error", Content: "tool loop did not converge after 8 rounds"},
	})

	_, err := ally.GeneratePlan(context.Background(), planRequest(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not converge")
}

func TestGeneratePlanMalformedOutput(t *testing.T) {
	ally := newTestAlly(t, []orchestrate.Event{
		{Type: "text", Content: "Sorry, I could not plan anything."},
	})

	_, err := ally.GeneratePlan(context.Background(), planRequest(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse plan JSON")
}

func TestPostPlan(t *testing.T) {
	ally := newTestAlly(t, []orchestrate.Event{
		{Type: orchestrate.EventThought, Content: "Creating the event now."},
		{Type: "text", Content: "Event and post created."},
	})

	var plan domain.EventPlan
	require.NoError(t, json.Unmarshal([]byte(samplePlanJSON()), &plan))

	events := make(chan ProgressEvent, 32)
	err := ally.PostPlan(context.Background(), PostRequest{
		UserName:      "Diana",
		Plan:          plan,
		InviteMessage: "Join us for jazz!",
	}, events)
	require.NoError(t, err)
}

func TestExtractJSONBlock(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prefix text ```json\n{\"a\":1}\n``` suffix", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  \n{\"a\":1}\n ", `{"a":1}`},
	}
	for i, c := range cases {
		assert.Equal(t, c.want, extractJSONBlock(c.in), fmt.Sprintf("case %d", i))
	}
}

func TestAttendeeNamesIncludesOrganizerOnce(t *testing.T) {
	got := attendeeNames([]string{"Alice", "Bob", "Diana"}, "Diana")
	assert.ElementsMatch(t, []string{"Alice", "Bob", "Diana"}, got)

	got = attendeeNames([]string{"Alice"}, "Diana")
	assert.ElementsMatch(t, []string{"Alice", "Diana"}, got)
}

func TestNewSessionIDShape(t *testing.T) {
	id := newSessionID()
	assert.True(t, len(id) > 10)
	assert.Equal(t, "s_", id[:2])
	assert.NotContains(t, id, "-")
}
