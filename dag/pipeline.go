package dag

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsdfsfssdf/gryflux/component"
	"github.com/fsdfsfssdf/gryflux/errors"
	"github.com/fsdfsfssdf/gryflux/logger"
	"github.com/fsdfsfssdf/gryflux/observability"
	"github.com/fsdfsfssdf/gryflux/resilience"
)

// ProcessorFunc builds one item's DAG against builder: it registers
// input and processing nodes (typically an InputNode wrapping item and
// a chain of processing nodes ending at terminalID) but does not
// execute the graph itself — StreamingPipeline calls builder.Execute
// after the callback returns.
type ProcessorFunc func(ctx context.Context, builder *PipelineBuilder, item DataItem, terminalID string) error

type taskStat struct {
	totalMs float64
	count   int64
}

// StreamingPipeline drives a continuous stream of items through a
// per-item DAG dispatched onto one shared worker pool. It implements
// component.Component so it can be registered, started, and stopped
// alongside the rest of an application's infrastructure.
type StreamingPipeline struct {
	name string
	cfg  RuntimeConfig

	lifecycleMu sync.Mutex
	pool        *WorkerPool
	builder     *PipelineBuilder

	inputQueue  *BoundedQueue[DataItem]
	outputQueue *BoundedQueue[DataItem]

	cfgMu      sync.Mutex
	processor  ProcessorFunc
	terminalID string
	profiling  atomic.Bool

	limiter *resilience.RateLimiter

	running      atomic.Bool
	inputActive  atomic.Bool
	outputActive atomic.Bool
	loopPanicked atomic.Bool

	processedItems atomic.Int64
	errorCount     atomic.Int64
	totalProcNanos atomic.Int64

	statsMu   sync.Mutex
	taskStats map[string]*taskStat
	startedAt time.Time

	wg sync.WaitGroup

	log     *logger.Logger
	metrics *observability.Metrics
}

// PipelineOption customizes a StreamingPipeline at construction time.
type PipelineOption func(*StreamingPipeline)

// WithLogger overrides the pipeline's logger.
func WithLogger(l *logger.Logger) PipelineOption {
	return func(p *StreamingPipeline) { p.log = l }
}

// WithPipelineMetrics attaches an OpenTelemetry metrics recorder.
func WithPipelineMetrics(m *observability.Metrics) PipelineOption {
	return func(p *StreamingPipeline) { p.metrics = m }
}

// WithRateLimiter caps the sustained item ingest rate independent of
// queue depth: AddInput waits on the limiter before the backpressure
// spin-wait.
func WithRateLimiter(rl *resilience.RateLimiter) PipelineOption {
	return func(p *StreamingPipeline) { p.limiter = rl }
}

// NewStreamingPipeline constructs a pipeline with its own worker pool
// sized by cfg.WorkerPoolSize (0 → hardware concurrency).
func NewStreamingPipeline(name string, cfg RuntimeConfig, opts ...PipelineOption) *StreamingPipeline {
	cfg.ApplyDefaults()

	p := &StreamingPipeline{
		name:        name,
		cfg:         cfg,
		inputQueue:  NewBoundedQueue[DataItem](),
		outputQueue: NewBoundedQueue[DataItem](),
		terminalID:  cfg.TerminalNodeID,
		taskStats:   make(map[string]*taskStat),
		log:         logger.GetGlobalLogger(),
	}
	p.profiling.Store(cfg.EnableProfiling)

	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithComponent("dag.pipeline." + name)
	p.newPool()
	return p
}

// newPool creates a fresh worker pool and a builder bound to it. Called
// from NewStreamingPipeline and from Start on every (re)start, since
// Stop shuts the previous pool down rather than leaking its workers.
func (p *StreamingPipeline) newPool() {
	p.pool = NewWorkerPool(p.cfg.WorkerPoolSize, p.name, p.log)
	p.builder = NewPipelineBuilder(p.pool, p.log)
}

// Name satisfies component.Component.
func (p *StreamingPipeline) Name() string { return p.name }

// SetProcessor installs the per-item graph-construction callback. It
// returns ErrBusy if the pipeline is currently running.
func (p *StreamingPipeline) SetProcessor(fn ProcessorFunc) error {
	if p.running.Load() {
		return errors.Busy("set processor")
	}
	p.cfgMu.Lock()
	p.processor = fn
	p.cfgMu.Unlock()
	return nil
}

// SetTerminalNodeID overrides the node ID whose result is pushed to the
// output queue. It returns ErrBusy if the pipeline is currently
// running.
func (p *StreamingPipeline) SetTerminalNodeID(id string) error {
	if p.running.Load() {
		return errors.Busy("set terminal node id")
	}
	p.cfgMu.Lock()
	p.terminalID = id
	p.cfgMu.Unlock()
	return nil
}

// SetProfiling enables or disables per-task timing aggregation. It may
// be toggled at any time — unlike processor/terminal ID, profiling does
// not affect graph shape.
func (p *StreamingPipeline) SetProfiling(enabled bool) { p.profiling.Store(enabled) }

// Start spawns the processing loop. It is a no-op if already running
// and returns an error if no processor has been configured.
func (p *StreamingPipeline) Start(ctx context.Context) error {
	if p.running.Load() {
		return nil
	}

	p.cfgMu.Lock()
	processor := p.processor
	p.cfgMu.Unlock()
	if processor == nil {
		return fmt.Errorf("dag: pipeline %q has no processor configured", p.name)
	}

	p.processedItems.Store(0)
	p.errorCount.Store(0)
	p.totalProcNanos.Store(0)
	p.loopPanicked.Store(false)
	p.statsMu.Lock()
	p.taskStats = make(map[string]*taskStat)
	p.startedAt = time.Now()
	p.statsMu.Unlock()

	p.lifecycleMu.Lock()
	if p.pool == nil {
		p.newPool()
	}
	p.lifecycleMu.Unlock()

	p.running.Store(true)
	p.inputActive.Store(true)
	p.outputActive.Store(true)

	p.wg.Add(1)
	go p.processingLoop(ctx)

	p.log.Info("pipeline started", map[string]interface{}{"pipeline": p.name})
	return nil
}

// Stop signals the processing loop to drain and exit, then waits for
// it, then shuts down the worker pool the driver dispatched onto —
// after this returns, no worker or driver goroutine for this pipeline
// remains. It is a no-op if not running. If profiling was enabled,
// aggregate statistics are logged before returning. A subsequent Start
// creates a fresh pool.
func (p *StreamingPipeline) Stop(ctx context.Context) error {
	if !p.running.Load() {
		return nil
	}
	p.running.Store(false)
	p.inputActive.Store(false)
	p.wg.Wait()
	p.outputActive.Store(false)

	p.lifecycleMu.Lock()
	pool := p.pool
	p.pool = nil
	p.builder = nil
	p.lifecycleMu.Unlock()
	if pool != nil {
		pool.Shutdown()
	}

	if p.profiling.Load() {
		p.logStats()
	} else {
		p.log.Debug("pipeline stopped", map[string]interface{}{"pipeline": p.name})
	}
	return nil
}

// Health reports Unhealthy if the driver goroutine exited unexpectedly
// while the pipeline was still supposed to be running, Degraded if more
// than 10 items have completed and the error rate over the pipeline's
// lifetime exceeds 25%, and Healthy otherwise.
func (p *StreamingPipeline) Health(context.Context) component.Health {
	if p.loopPanicked.Load() {
		return component.Health{Name: p.name, Status: component.StatusUnhealthy, Message: "processing loop terminated unexpectedly"}
	}
	processed := p.processedItems.Load()
	errs := p.errorCount.Load()
	if processed+errs > 10 && float64(errs)/float64(processed+errs) > 0.25 {
		return component.Health{
			Name: p.name, Status: component.StatusDegraded,
			Message: fmt.Sprintf("error rate %d/%d exceeds threshold", errs, processed+errs),
		}
	}
	return component.Health{Name: p.name, Status: component.StatusHealthy}
}

// AddInput enqueues item, blocking with a bounded spin-wait while the
// input queue is at capacity. It returns false if item is null or if
// the pipeline stopped accepting input while the caller was waiting for
// space.
func (p *StreamingPipeline) AddInput(ctx context.Context, item DataItem) (bool, error) {
	if item.IsNull() {
		return false, errors.InvalidInput("item", "must not be null")
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return false, err
		}
	}
	for p.inputQueue.Size() >= p.cfg.QueueMaxSize && p.inputActive.Load() {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(p.cfg.BackoffInterval):
		}
	}
	if !p.inputActive.Load() {
		return false, nil
	}
	p.inputQueue.Push(item)
	return true, nil
}

// TryGetOutput returns the next output item without blocking.
func (p *StreamingPipeline) TryGetOutput() (DataItem, bool) { return p.outputQueue.TryPop() }

// GetOutput blocks until an output item is available.
func (p *StreamingPipeline) GetOutput() DataItem { return p.outputQueue.WaitAndPop() }

// InputEmpty reports whether the input queue currently holds no items.
func (p *StreamingPipeline) InputEmpty() bool { return p.inputQueue.Empty() }

// OutputEmpty reports whether the output queue currently holds no items.
func (p *StreamingPipeline) OutputEmpty() bool { return p.outputQueue.Empty() }

// InputSize returns the current input queue depth.
func (p *StreamingPipeline) InputSize() int { return p.inputQueue.Size() }

// OutputSize returns the current output queue depth.
func (p *StreamingPipeline) OutputSize() int { return p.outputQueue.Size() }

// ProcessedItemCount returns the number of items pushed to the output
// queue since the pipeline was last started.
func (p *StreamingPipeline) ProcessedItemCount() int64 { return p.processedItems.Load() }

// ErrorCount returns the number of items whose processing raised an
// error since the pipeline was last started.
func (p *StreamingPipeline) ErrorCount() int64 { return p.errorCount.Load() }

// IsRunning reports whether the processing loop is active. A consumer
// deciding whether to keep pulling output should check this together
// with OutputEmpty, since items may still be in flight after Stop is
// requested but before the loop drains.
func (p *StreamingPipeline) IsRunning() bool { return p.running.Load() }

// outputActiveOrPending is the resolved consumer continuation
// predicate: keep consuming while the pipeline is running, or the
// output queue is non-empty, or the output side hasn't yet been
// deactivated by Stop.
func (p *StreamingPipeline) outputActiveOrPending() bool {
	return p.running.Load() || !p.outputQueue.Empty() || p.outputActive.Load()
}

// ShouldContinueConsuming reports whether a consumer loop pulling from
// TryGetOutput/GetOutput should keep going.
func (p *StreamingPipeline) ShouldContinueConsuming() bool { return p.outputActiveOrPending() }

func (p *StreamingPipeline) processingLoop(ctx context.Context) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.loopPanicked.Store(true)
			p.log.Error("processing loop panicked", map[string]interface{}{"pipeline": p.name, "panic": fmt.Sprintf("%v", r)})
		}
	}()

	p.cfgMu.Lock()
	processor := p.processor
	terminalID := p.terminalID
	p.cfgMu.Unlock()

	for p.running.Load() || !p.inputQueue.Empty() {
		item, ok := p.inputQueue.TryPop()
		if !ok {
			time.Sleep(p.cfg.OutputPollInterval)
			continue
		}

		start := time.Now()
		result, err := p.processOne(ctx, processor, item, terminalID)
		elapsed := time.Since(start)

		if err != nil {
			p.errorCount.Add(1)
			p.log.Error("item processing failed", map[string]interface{}{"pipeline": p.name, "error": err.Error()})
			if p.metrics != nil {
				p.metrics.RecordOperation(ctx, "dag_pipeline", p.name, "error", elapsed)
			}
			continue
		}

		// Push only a non-null result: profiling gates timing/stat
		// collection below, never whether a result reaches consumers,
		// but a null terminal result (the node's own null-propagation
		// case) is neither pushed nor counted as processed.
		if !result.IsNull() {
			p.outputQueue.Push(result)
			p.processedItems.Add(1)
		}

		if p.metrics != nil {
			p.metrics.RecordOperation(ctx, "dag_pipeline", p.name, "ok", elapsed)
		}
		if p.profiling.Load() {
			p.totalProcNanos.Add(elapsed.Nanoseconds())
		}
	}

	p.outputActive.Store(false)
	p.log.Debug("processing loop exited", map[string]interface{}{"pipeline": p.name})
}

func (p *StreamingPipeline) processOne(ctx context.Context, processor ProcessorFunc, item DataItem, terminalID string) (result DataItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dag: processor panicked: %v", r)
		}
	}()

	if buildErr := processor(ctx, p.builder, item, terminalID); buildErr != nil {
		p.builder.Reset()
		return NullItem, buildErr
	}

	result, execErr := p.builder.Execute(ctx, terminalID)

	if p.profiling.Load() {
		for id, dur := range p.builder.TaskExecutionTimes() {
			p.mergeTaskStat(id, dur)
		}
	}

	p.builder.Reset()
	return result, execErr
}

func (p *StreamingPipeline) mergeTaskStat(id string, dur time.Duration) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	s, ok := p.taskStats[id]
	if !ok {
		s = &taskStat{}
		p.taskStats[id] = s
	}
	s.totalMs += float64(dur) / float64(time.Millisecond)
	s.count++
}

func (p *StreamingPipeline) logStats() {
	processed := p.processedItems.Load()
	errs := p.errorCount.Load()
	elapsed := time.Since(p.startedAt)

	fields := map[string]interface{}{
		"pipeline":        p.name,
		"processed_items": processed,
		"error_count":     errs,
		"elapsed":         elapsed.String(),
	}
	if processed > 0 {
		avgMs := float64(p.totalProcNanos.Load()) / float64(processed) / float64(time.Millisecond)
		fields["avg_ms_per_item"] = avgMs
	}
	if elapsed > 0 {
		fields["items_per_sec"] = float64(processed) / elapsed.Seconds()
	}
	p.log.Info("pipeline stopped", fields)

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	for id, s := range p.taskStats {
		if s.count == 0 {
			continue
		}
		p.log.Debug("task profile", map[string]interface{}{
			"pipeline": p.name, "task": id,
			"avg_ms": s.totalMs / float64(s.count), "count": s.count,
		})
	}
}

// TaskStatsSnapshot returns the current average execution time and
// invocation count per task ID, for the admin stats surface.
func (p *StreamingPipeline) TaskStatsSnapshot() map[string]struct {
	AvgMs float64
	Count int64
} {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	out := make(map[string]struct {
		AvgMs float64
		Count int64
	}, len(p.taskStats))
	for id, s := range p.taskStats {
		avg := 0.0
		if s.count > 0 {
			avg = s.totalMs / float64(s.count)
		}
		out[id] = struct {
			AvgMs float64
			Count int64
		}{AvgMs: avg, Count: s.count}
	}
	return out
}
