package dag

import (
	"context"
	"time"

	"github.com/fsdfsfssdf/gryflux/logger"
)

// PipelineBuilder assembles one DAG at a time against a shared worker
// pool. Reset discards the current DAG's node index and trace but keeps
// the pool binding, so consecutive items never pay for pool
// re-creation — only the scheduler's node map is rebuilt per item.
type PipelineBuilder struct {
	pool      *WorkerPool
	log       *logger.Logger
	scheduler *TaskScheduler
}

// NewPipelineBuilder creates a builder bound to pool.
func NewPipelineBuilder(pool *WorkerPool, log *logger.Logger) *PipelineBuilder {
	b := &PipelineBuilder{pool: pool, log: log}
	b.scheduler = NewTaskScheduler(pool, log)
	return b
}

// AddInput registers a preloaded InputNode under id.
func (b *PipelineBuilder) AddInput(id string, value DataItem) (Node, error) {
	node := NewInputNode(id, value)
	if err := b.scheduler.AddTask(node); err != nil {
		return nil, err
	}
	return node, nil
}

// AddTask registers a ProcessingNode under id, bound to fn and deps.
func (b *PipelineBuilder) AddTask(id string, fn TaskFunc, deps []Node) (Node, error) {
	node := NewProcessingNode(id, fn, deps)
	if err := b.scheduler.AddTask(node); err != nil {
		return nil, err
	}
	return node, nil
}

// Execute runs the DAG's dependency closure up to terminalID and
// returns its result.
func (b *PipelineBuilder) Execute(ctx context.Context, terminalID string) (DataItem, error) {
	return b.scheduler.Execute(ctx, terminalID)
}

// TaskExecutionTimes returns per-node timings recorded during the most
// recent Execute call(s) since the last Reset.
func (b *PipelineBuilder) TaskExecutionTimes() map[string]time.Duration {
	return b.scheduler.TaskExecutionTimes()
}

// Reset discards the current DAG so the builder is ready for the next
// item, without discarding the worker pool it dispatches onto.
func (b *PipelineBuilder) Reset() {
	b.scheduler = NewTaskScheduler(b.pool, b.log)
}

// Scheduler exposes the builder's current scheduler for callers that
// need direct access (e.g. to look up a node mid-graph-construction).
func (b *PipelineBuilder) Scheduler() *TaskScheduler {
	return b.scheduler
}
