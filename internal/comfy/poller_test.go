package comfy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/boat2moon/infinitetalk-comfyui-workflow/internal/contracts/comfy/v1"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/workflow"
)

// scriptedClient replays one History reply per call, repeating the last.
type scriptedClient struct {
	mu      sync.Mutex
	replies []historyReply
	calls   int
}

type historyReply struct {
	entry *v1.HistoryEntry
	err   error
}

func (c *scriptedClient) Submit(ctx context.Context, graph workflow.Graph) (string, error) {
	return "abc", nil
}

func (c *scriptedClient) History(ctx context.Context, id string) (*v1.HistoryEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.calls
	if i >= len(c.replies) {
		i = len(c.replies) - 1
	}
	c.calls++
	return c.replies[i].entry, c.replies[i].err
}

func completed() *v1.HistoryEntry {
	return &v1.HistoryEntry{Status: v1.Status{StatusStr: "success", Completed: true}}
}

func TestWaitCompletesImmediately(t *testing.T) {
	client := &scriptedClient{replies: []historyReply{{entry: completed()}}}

	res, err := NewPoller(client, time.Hour, time.Hour, nil).Wait(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, 1, res.Attempts)
}

func TestWaitOutputsWithoutCompletedFlag(t *testing.T) {
	entry := &v1.HistoryEntry{Outputs: map[string]v1.NodeOutput{"16": {}}}
	client := &scriptedClient{replies: []historyReply{{entry: entry}}}

	res, err := NewPoller(client, time.Millisecond, time.Second, nil).Wait(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
}

func TestWaitServerError(t *testing.T) {
	failed := &v1.HistoryEntry{Status: v1.Status{StatusStr: v1.StatusError}}
	client := &scriptedClient{replies: []historyReply{{}, {entry: failed}}}

	res, err := NewPoller(client, time.Millisecond, time.Second, nil).Wait(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, v1.StatusError, res.Status().StatusStr)
	assert.Equal(t, 2, res.Attempts)
}

func TestWaitTimesOut(t *testing.T) {
	pending := &v1.HistoryEntry{Status: v1.Status{StatusStr: "running"}}
	client := &scriptedClient{replies: []historyReply{{entry: pending}}}

	start := time.Now()
	res, err := NewPoller(client, 10*time.Millisecond, 50*time.Millisecond, nil).Wait(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, res.Outcome)
	assert.GreaterOrEqual(t, res.Elapsed, 50*time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)
	assert.GreaterOrEqual(t, res.Attempts, 2)
}

func TestWaitTimeoutShorterThanInterval(t *testing.T) {
	client := &scriptedClient{replies: []historyReply{{}}}

	start := time.Now()
	res, err := NewPoller(client, time.Hour, 20*time.Millisecond, nil).Wait(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, res.Outcome)
	assert.Nil(t, res.Entry)
	assert.Equal(t, 1, res.Attempts)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitRetriesTransientErrors(t *testing.T) {
	client := &scriptedClient{replies: []historyReply{
		{err: errors.Unavailable("comfyui")},
		{err: errors.New(errors.CodeMalformedResponse, "truncated")},
		{entry: completed()},
	}}

	res, err := NewPoller(client, time.Millisecond, time.Second, nil).Wait(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
}

func TestWaitPropagatesOtherErrors(t *testing.T) {
	client := &scriptedClient{replies: []historyReply{{err: errors.Internalf("bug")}}}

	res, err := NewPoller(client, time.Millisecond, time.Second, nil).Wait(context.Background(), "abc")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, errors.CodeInternal, errors.GetCode(err))
}

func TestWaitCanceled(t *testing.T) {
	client := &scriptedClient{replies: []historyReply{{}}}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewPoller(client, time.Hour, time.Hour, nil).Wait(ctx, "abc")
	assert.ErrorIs(t, err, context.Canceled)
}
