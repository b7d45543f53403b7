package orchestrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/pkg/a2a"
)

func TestRootInstructionListsAgents(t *testing.T) {
	host, _ := newTestHost(t, &stubSender{})
	host.Registry().RegisterCard(a2a.AgentCard{Name: "social", Description: "analyzes profiles"})

	got := host.RootInstruction(Session{ID: "s-1"})
	assert.Contains(t, got, `"name":"planner"`)
	assert.Contains(t, got, `"name":"social"`)
	assert.Contains(t, got, "Current active agent for this session: None")
	assert.NotContains(t, got, "__AGENTS__")
	assert.NotContains(t, got, "__ACTIVE_AGENT__")
}

func TestRootInstructionNoAgents(t *testing.T) {
	registry := NewRegistry(&stubResolver{}, &stubSender{}, zap.NewNop())
	host := NewHostAgent(registry, NewMemorySessionStore(), &memArtifacts{}, NewMetrics(nil), nil, zap.NewNop())

	got := host.RootInstruction(Session{ID: "s-1"})
	assert.Contains(t, got, "No remote agents are currently available.")
}

func TestRootInstructionActiveAgent(t *testing.T) {
	host, _ := newTestHost(t, &stubSender{})

	got := host.RootInstruction(Session{ID: "s-1", ActiveAgent: "planner", Active: true})
	assert.Contains(t, got, "Current active agent for this session: planner")

	// Погасшая сессия не показывает агента как активного
	got = host.RootInstruction(Session{ID: "s-1", ActiveAgent: "planner", Active: false})
	assert.Contains(t, got, "Current active agent for this session: None")
}
