package dag

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fsdfsfssdf/gryflux/errors"
	"github.com/fsdfsfssdf/gryflux/logger"
)

// TaskScheduler indexes the nodes of one DAG by ID and drives their
// execution: Execute(terminalID) walks the terminal node's dependency
// closure, fanning interior nodes out onto the shared worker pool via
// errgroup and running the terminal node itself on the calling
// goroutine.
type TaskScheduler struct {
	mu    sync.RWMutex
	tasks map[string]Node
	pool  *WorkerPool
	log   *logger.Logger

	traceMu sync.Mutex
	trace   map[string]time.Duration
}

// NewTaskScheduler creates a scheduler bound to pool. The pool is never
// owned by the scheduler — it is expected to outlive many schedulers
// across a pipeline's Reset cycles.
func NewTaskScheduler(pool *WorkerPool, log *logger.Logger) *TaskScheduler {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &TaskScheduler{
		tasks: make(map[string]Node),
		pool:  pool,
		log:   log.WithComponent("dag.scheduler"),
		trace: make(map[string]time.Duration),
	}
}

// AddTask indexes node by its ID. A second node registered under an ID
// already present in this DAG is a programmer error and yields
// ErrDuplicateTask rather than silently replacing the first binding.
func (s *TaskScheduler) AddTask(node Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[node.ID()]; exists {
		return errors.DuplicateTask(node.ID())
	}
	s.tasks[node.ID()] = node
	return nil
}

// GetTask looks up a node by ID.
func (s *TaskScheduler) GetTask(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.tasks[id]
	return n, ok
}

// Execute runs the dependency closure of the node registered under
// terminalID and returns its result. It returns ErrUnknownTask if no
// node is registered under that ID, or ErrNodeFailed wrapping the
// terminal node's own error if its processing function failed.
func (s *TaskScheduler) Execute(ctx context.Context, terminalID string) (DataItem, error) {
	node, ok := s.GetTask(terminalID)
	if !ok {
		return NullItem, errors.UnknownTask(terminalID)
	}
	s.executeNode(ctx, node)
	if err := node.Err(); err != nil {
		return NullItem, errors.NodeFailed(terminalID, err)
	}
	result, _ := node.Result()
	return result, nil
}

// executeNode ensures node and every node in its dependency closure has
// executed. Interior dependencies are fanned out onto the shared worker
// pool through an errgroup; a dependency that fails to dispatch or
// itself fails is logged and does not abort its siblings — failure
// surfaces as a null result on the dependent node, not as an error
// returned from here.
func (s *TaskScheduler) executeNode(ctx context.Context, node Node) {
	if node.Executed() {
		return
	}

	deps := node.Dependencies()
	if len(deps) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for _, dep := range deps {
			dep := dep
			if dep == nil || dep.Executed() {
				continue
			}
			g.Go(func() error {
				future, err := s.pool.Submit(func() error {
					s.executeNode(gctx, dep)
					return nil
				})
				if err != nil {
					s.log.Warn("dependency dispatch failed", map[string]interface{}{
						"node": node.ID(), "dependency": dep.ID(), "error": err.Error(),
					})
					return nil
				}
				if werr := future.Wait(); werr != nil {
					s.log.Warn("dependency execution failed", map[string]interface{}{
						"node": node.ID(), "dependency": dep.ID(), "error": werr.Error(),
					})
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	if _, err := node.ExecuteOnce(ctx); err != nil {
		s.log.Error("node failed", map[string]interface{}{"node": node.ID(), "error": err.Error()})
	}
	s.recordTrace(node)
}

func (s *TaskScheduler) recordTrace(node Node) {
	if !node.Executed() {
		return
	}
	s.traceMu.Lock()
	s.trace[node.ID()] = node.ExecutionTime()
	s.traceMu.Unlock()
}

// TaskExecutionTimes returns a snapshot of per-node execution durations
// for every node that has executed so far.
func (s *TaskScheduler) TaskExecutionTimes() map[string]time.Duration {
	s.traceMu.Lock()
	defer s.traceMu.Unlock()
	out := make(map[string]time.Duration, len(s.trace))
	for k, v := range s.trace {
		out[k] = v
	}
	return out
}

// Clear removes every indexed node and recorded trace, leaving the pool
// binding untouched.
func (s *TaskScheduler) Clear() {
	s.mu.Lock()
	s.tasks = make(map[string]Node)
	s.mu.Unlock()

	s.traceMu.Lock()
	s.trace = make(map[string]time.Duration)
	s.traceMu.Unlock()
}
