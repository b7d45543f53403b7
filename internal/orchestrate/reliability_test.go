package orchestrate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/instavibe/internal/infra"
	"github.com/xela07ax/instavibe/pkg/a2a"
)

func testReliabilityConfig() infra.ReliabilityConfig {
	return infra.ReliabilityConfig{
		CBMaxRequests:  1,
		CBInterval:     time.Minute,
		CBTimeout:      time.Minute,
		Attempts:       3,
		AttemptTimeout: time.Second,
		RateLimit:      100,
		RateBurst:      10,
	}
}

// flakySender падает первые failures вызовов, потом отвечает успешно.
type flakySender struct {
	failures int
	calls    int
}

func (f *flakySender) SendTask(_ context.Context, _ string, params a2a.TaskSendParams) (*a2a.Task, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	return &a2a.Task{ID: params.ID, Status: a2a.TaskStatus{State: a2a.TaskStateCompleted}}, nil
}

func TestReliabilityWrapperRetriesTransientFailure(t *testing.T) {
	sender := &flakySender{failures: 2}
	w := NewReliabilityWrapper(sender, testReliabilityConfig())

	task, err := w.SendTask(context.Background(), "http://planner:10001", a2a.TaskSendParams{ID: "t-1"})
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "t-1", task.ID)
	assert.Equal(t, 3, sender.calls)
}

func TestReliabilityWrapperExhaustsAttempts(t *testing.T) {
	sender := &flakySender{failures: 10}
	w := NewReliabilityWrapper(sender, testReliabilityConfig())

	_, err := w.SendTask(context.Background(), "http://planner:10001", a2a.TaskSendParams{ID: "t-2"})
	require.Error(t, err)
	assert.Equal(t, 3, sender.calls)
}

func TestReliabilityWrapperPassesNilTaskThrough(t *testing.T) {
	w := NewReliabilityWrapper(&stubSender{respond: func(a2a.TaskSendParams) (*a2a.Task, error) {
		return nil, nil
	}}, testReliabilityConfig())

	task, err := w.SendTask(context.Background(), "http://planner:10001", a2a.TaskSendParams{ID: "t-3"})
	require.NoError(t, err)
	assert.Nil(t, task)
}
