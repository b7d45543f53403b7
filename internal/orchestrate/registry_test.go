package orchestrate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/pkg/a2a"
)

type stubResolver struct {
	cards map[string]*a2a.AgentCard
}

func (s *stubResolver) ResolveCard(_ context.Context, address string) (*a2a.AgentCard, error) {
	card, ok := s.cards[address]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return card, nil
}

func TestListAgentsEmptyIsNotNil(t *testing.T) {
	r := NewRegistry(&stubResolver{}, &stubSender{}, zap.NewNop())
	agents := r.ListAgents()
	require.NotNil(t, agents)
	assert.Empty(t, agents)
}

func TestRegisterCardReplacesOnDuplicateName(t *testing.T) {
	r := NewRegistry(&stubResolver{}, &stubSender{}, zap.NewNop())
	r.RegisterCard(a2a.AgentCard{Name: "planner", URL: "http://old:10001"})
	r.RegisterCard(a2a.AgentCard{Name: "planner", URL: "http://new:10001"})

	agents := r.ListAgents()
	require.Len(t, agents, 1)

	conn, ok := r.Connection("planner")
	require.True(t, ok)
	assert.Equal(t, "http://new:10001", conn.Card.URL)
}

func TestBootstrapIsBestEffort(t *testing.T) {
	resolver := &stubResolver{cards: map[string]*a2a.AgentCard{
		"http://planner:10001": {Name: "planner", URL: "http://planner:10001"},
	}}
	r := NewRegistry(resolver, &stubSender{}, zap.NewNop())

	// Недоступный адрес не мешает остальным
	r.Bootstrap(context.Background(), []string{"http://down:10002", "http://planner:10001"})

	agents := r.ListAgents()
	require.Len(t, agents, 1)
	assert.Equal(t, "planner", agents[0].Name)
}

func TestConnectionUnknownName(t *testing.T) {
	r := NewRegistry(&stubResolver{}, &stubSender{}, zap.NewNop())
	_, ok := r.Connection("ghost")
	assert.False(t, ok)
}
