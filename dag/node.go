package dag

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DataItem is the opaque value carried between nodes and through the
// pipeline's input/output queues. A zero DataItem (Value == nil) is the
// null value: it propagates through processing nodes instead of
// invoking their function.
type DataItem struct {
	Value   any
	TraceID uuid.UUID
}

// IsNull reports whether the item carries no value.
func (d DataItem) IsNull() bool { return d.Value == nil }

// NullItem is the canonical null DataItem.
var NullItem = DataItem{}

// TaskFunc computes a result from an ordered slice of dependency
// results. It is the task function contract every registered or
// directly-attached processing node implements.
type TaskFunc func(inputs []DataItem) (DataItem, error)

// State is a node's position in its own lifecycle.
type State int32

const (
	StatePending State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Node is one vertex of a per-item DAG.
type Node interface {
	ID() string
	Dependencies() []Node
	IsReady() bool
	Executed() bool
	State() State
	ExecuteOnce(ctx context.Context) (DataItem, error)
	Result() (DataItem, bool)
	Err() error
	ExecutionTime() time.Duration
}

// baseNode holds the machinery shared by InputNode and ProcessingNode:
// a sync.Once guarantees at-most-once execution even when several
// scheduler goroutines reach the same node concurrently, and a
// RWMutex guards the fields published once that Once fires.
type baseNode struct {
	id    string
	once  sync.Once
	state atomic.Int32

	mu       sync.RWMutex
	result   DataItem
	err      error
	executed atomic.Bool
	start    time.Time
	end      time.Time
}

func (n *baseNode) ID() string { return n.id }

func (n *baseNode) Executed() bool { return n.executed.Load() }

func (n *baseNode) State() State { return State(n.state.Load()) }

func (n *baseNode) Result() (DataItem, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.result, n.executed.Load()
}

func (n *baseNode) Err() error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.err
}

func (n *baseNode) ExecutionTime() time.Duration {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.end.Before(n.start) || n.end.IsZero() {
		return 0
	}
	return n.end.Sub(n.start)
}

// executeOnce runs exec exactly once regardless of how many goroutines
// call it concurrently; every caller blocks until the winner finishes
// and then observes the same stored result.
func (n *baseNode) executeOnce(ctx context.Context, exec func(context.Context) (DataItem, error)) (DataItem, error) {
	n.once.Do(func() {
		n.state.Store(int32(StateRunning))
		start := time.Now()
		result, err := exec(ctx)
		end := time.Now()

		n.mu.Lock()
		n.result = result
		n.err = err
		n.start = start
		n.end = end
		n.mu.Unlock()

		n.executed.Store(true)
		n.state.Store(int32(StateDone))
	})
	return n.snapshot()
}

// snapshot returns the stored result and error after the Once has
// fired, without re-running exec.
func (n *baseNode) snapshot() (DataItem, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.result, n.err
}

func isReady(deps []Node, requireNonEmpty bool) bool {
	if requireNonEmpty && len(deps) == 0 {
		return false
	}
	for _, d := range deps {
		if d == nil || !d.Executed() {
			return false
		}
	}
	return true
}

// InputNode is a leaf whose result is fixed at construction: it carries
// no dependencies and is executed the instant it is created.
type InputNode struct {
	baseNode
}

// NewInputNode creates an InputNode preloaded with value. Its executed
// flag is already set when this call returns.
func NewInputNode(id string, value DataItem) *InputNode {
	n := &InputNode{}
	n.id = id
	n.once.Do(func() {
		now := time.Now()
		n.mu.Lock()
		n.result = value
		n.start, n.end = now, now
		n.mu.Unlock()
		n.executed.Store(true)
		n.state.Store(int32(StateDone))
	})
	return n
}

func (n *InputNode) Dependencies() []Node { return nil }

func (n *InputNode) IsReady() bool { return true }

func (n *InputNode) ExecuteOnce(context.Context) (DataItem, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.result, n.err
}

// ProcessingNode computes its result from an ordered list of dependency
// nodes via fn once every dependency has produced a non-null result.
type ProcessingNode struct {
	baseNode
	deps []Node
	fn   TaskFunc
}

// NewProcessingNode creates a node bound to fn and an ordered list of
// dependency nodes. deps is copied so later mutation of the caller's
// slice does not affect this node's edges.
func NewProcessingNode(id string, fn TaskFunc, deps []Node) *ProcessingNode {
	n := &ProcessingNode{fn: fn, deps: append([]Node(nil), deps...)}
	n.id = id
	return n
}

func (n *ProcessingNode) Dependencies() []Node { return n.deps }

// IsReady reports whether every dependency has executed and at least one
// dependency is present; a processing node with no dependencies is never
// ready.
func (n *ProcessingNode) IsReady() bool {
	return isReady(n.deps, true)
}

func (n *ProcessingNode) ExecuteOnce(ctx context.Context) (DataItem, error) {
	return n.executeOnce(ctx, n.execute)
}

func (n *ProcessingNode) execute(context.Context) (DataItem, error) {
	if len(n.deps) == 0 {
		return NullItem, nil
	}
	inputs := make([]DataItem, len(n.deps))
	for i, dep := range n.deps {
		result, executed := dep.Result()
		if !executed || result.IsNull() {
			return NullItem, nil
		}
		inputs[i] = result
	}
	if n.fn == nil {
		return NullItem, nil
	}
	result, err := n.fn(inputs)
	if err != nil {
		return NullItem, err
	}
	return result, nil
}
