package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/models"
)

func TestProgressLifecycle(t *testing.T) {
	items := models.Items([]models.Subject{{Name: "s", Width: 1, Height: 1}}, []string{"a.wav", "b.wav"})
	p := NewProgress("run_1", items)

	snap := p.Snapshot()
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, RunRunning, snap.State)
	assert.Equal(t, ItemPending, snap.Items[0].State)

	p.begin(1)
	p.setFrames(1, 51)
	p.submitted(1, "abc")

	st, ok := p.Item(1)
	require.True(t, ok)
	assert.Equal(t, ItemRunning, st.State)
	assert.Equal(t, "abc", st.PromptID)
	assert.Equal(t, 51, st.Frames)
	assert.NotNil(t, st.StartedAt)
	assert.Equal(t, 1, p.Snapshot().Current)

	p.finish(1, ItemCompleted, []string{"x.mp4"}, "")
	p.begin(2)
	p.finish(2, ItemTimedOut, nil, "timed out")
	p.end(RunFinished, "")

	snap = p.Snapshot()
	assert.Equal(t, 1, snap.Succeeded)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, RunFinished, snap.State)
	assert.Equal(t, []string{"x.mp4"}, snap.Items[0].Outputs)
}

func TestProgressSnapshotIsCopy(t *testing.T) {
	items := models.Items([]models.Subject{{Name: "s"}}, []string{"a.wav"})
	p := NewProgress("run_1", items)
	p.finish(1, ItemCompleted, []string{"x.mp4"}, "")

	snap := p.Snapshot()
	snap.Items[0].Outputs[0] = "changed"
	snap.Items[0].State = ItemFailed

	st, _ := p.Item(1)
	assert.Equal(t, "x.mp4", st.Outputs[0])
	assert.Equal(t, ItemCompleted, st.State)
}

func TestProgressItemOutOfRange(t *testing.T) {
	p := NewProgress("run_1", nil)
	_, ok := p.Item(0)
	assert.False(t, ok)
	_, ok = p.Item(1)
	assert.False(t, ok)
	p.setFrames(5, 1)
}
