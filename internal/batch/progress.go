package batch

import (
	"sync"
	"time"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/models"
)

type ItemState string

const (
	ItemPending   ItemState = "pending"
	ItemProbing   ItemState = "probing"
	ItemRunning   ItemState = "running"
	ItemCompleted ItemState = "completed"
	ItemFailed    ItemState = "failed"
	ItemTimedOut  ItemState = "timed_out"
	ItemHalted    ItemState = "halted"
)

type RunState string

const (
	RunRunning  RunState = "running"
	RunFinished RunState = "finished"
	RunHalted   RunState = "halted"
)

type ItemStatus struct {
	models.Item
	Frames     int        `json:"frames,omitempty"`
	PromptID   string     `json:"prompt_id,omitempty"`
	State      ItemState  `json:"state"`
	Outputs    []string   `json:"outputs,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type Snapshot struct {
	RunID     string       `json:"run_id"`
	State     RunState     `json:"state"`
	Total     int          `json:"total"`
	Current   int          `json:"current"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	StartedAt time.Time    `json:"started_at"`
	Error     string       `json:"error,omitempty"`
	Items     []ItemStatus `json:"items"`
}

// Progress is the live state of a run, safe for concurrent readers.
type Progress struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewProgress(runID string, items []models.Item) *Progress {
	statuses := make([]ItemStatus, len(items))
	for i, it := range items {
		statuses[i] = ItemStatus{Item: it, State: ItemPending}
	}
	return &Progress{snap: Snapshot{
		RunID:     runID,
		State:     RunRunning,
		Total:     len(items),
		StartedAt: time.Now().UTC(),
		Items:     statuses,
	}}
}

// Snapshot returns a deep copy of the current state.
func (p *Progress) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := p.snap
	s.Items = make([]ItemStatus, len(p.snap.Items))
	for i, it := range p.snap.Items {
		s.Items[i] = copyStatus(it)
	}
	return s
}

// Item returns the status of the item with the given 1-based index.
func (p *Progress) Item(index int) (ItemStatus, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if index < 1 || index > len(p.snap.Items) {
		return ItemStatus{}, false
	}
	return copyStatus(p.snap.Items[index-1]), true
}

func (p *Progress) begin(index int) {
	now := time.Now().UTC()
	p.update(index, func(s *ItemStatus) {
		s.State = ItemProbing
		s.StartedAt = &now
	})
	p.mu.Lock()
	p.snap.Current = index
	p.mu.Unlock()
}

func (p *Progress) setFrames(index, frames int) {
	p.update(index, func(s *ItemStatus) { s.Frames = frames })
}

func (p *Progress) submitted(index int, promptID string) {
	p.update(index, func(s *ItemStatus) {
		s.PromptID = promptID
		s.State = ItemRunning
	})
}

func (p *Progress) finish(index int, state ItemState, outputs []string, errText string) {
	now := time.Now().UTC()
	p.update(index, func(s *ItemStatus) {
		s.State = state
		s.Outputs = outputs
		s.Error = errText
		s.FinishedAt = &now
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	switch state {
	case ItemCompleted:
		p.snap.Succeeded++
	case ItemFailed, ItemTimedOut:
		p.snap.Failed++
	}
}

func (p *Progress) end(state RunState, errText string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.State = state
	p.snap.Error = errText
}

func (p *Progress) update(index int, fn func(*ItemStatus)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 1 || index > len(p.snap.Items) {
		return
	}
	fn(&p.snap.Items[index-1])
}

func copyStatus(s ItemStatus) ItemStatus {
	if s.Outputs != nil {
		s.Outputs = append([]string(nil), s.Outputs...)
	}
	return s
}
