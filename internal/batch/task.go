package batch

import "github.com/samber/lo"

// DefaultSize is the number of images requested per batch.
const DefaultSize = 6

// State is the lifecycle of one generation task.
type State string

const (
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Task is one requested output image. Src holds the data URI once the task
// succeeded and stays empty otherwise.
type Task struct {
	Index int    `json:"index"`
	State State  `json:"state"`
	Src   string `json:"src,omitempty"`
}

// Params are the user controls applied to every task of a batch.
type Params struct {
	Style       string
	HighQuality bool
}

// Snapshot is a read-only copy of a batch at one point in time.
type Snapshot struct {
	ID    string `json:"id"`
	Tasks []Task `json:"tasks"`
	Done  bool   `json:"done"`
}

// Settled reports whether every task reached a terminal state.
func (s Snapshot) Settled() bool {
	return len(s.Tasks) > 0 && lo.EveryBy(s.Tasks, func(t Task) bool { return t.State.Terminal() })
}

// HasFailures is the aggregate failure flag. It is only meaningful once the
// batch settled and is false while any task is pending.
func (s Snapshot) HasFailures() bool {
	return s.Settled() && lo.SomeBy(s.Tasks, func(t Task) bool { return t.State == StateFailed })
}

// Count returns how many tasks are in the given state.
func (s Snapshot) Count(state State) int {
	return lo.CountBy(s.Tasks, func(t Task) bool { return t.State == state })
}

// Task returns the task at index and whether it exists.
func (s Snapshot) Task(index int) (Task, bool) {
	if index < 0 || index >= len(s.Tasks) {
		return Task{}, false
	}
	return s.Tasks[index], true
}

// Result is returned once every task settled.
type Result struct {
	Snapshot Snapshot
	Failed   bool
}
