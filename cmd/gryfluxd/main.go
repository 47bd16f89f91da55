// Command gryfluxd runs a gryflux streaming dataflow pipeline behind a
// small admin HTTP surface. Its own graph is a demonstration
// "wordcount" pipeline (normalize -> count -> finalize); real
// deployments replace pipelineMode's ProcessorFunc with domain logic
// while keeping the bootstrap, registry, and admin wiring below.
package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fsdfsfssdf/gryflux/admin"
	"github.com/fsdfsfssdf/gryflux/bootstrap"
	"github.com/fsdfsfssdf/gryflux/config"
	"github.com/fsdfsfssdf/gryflux/dag"
	"github.com/fsdfsfssdf/gryflux/di"
	"github.com/fsdfsfssdf/gryflux/observability"
	"github.com/fsdfsfssdf/gryflux/resilience"
	"github.com/fsdfsfssdf/gryflux/util"
	"github.com/fsdfsfssdf/gryflux/version"
)

// diNames mirrors di.PkgNames for gryfluxd's own collaborators: the
// task registry and allocator the pipeline's processor resolves out of
// the container rather than closing over directly.
type diNames struct {
	TaskRegistry string
	Allocator    string
}

var names = diNames{TaskRegistry: "dag_task_registry", Allocator: "dag_allocator"}

func main() {
	var cfg AppConfig
	if err := config.LoadConfig("gryfluxd", &cfg); err != nil {
		log.Fatalf("gryfluxd: failed to load config: %v", err)
	}
	cfg.Name = util.Coalesce(cfg.Name, "gryfluxd")
	cfg.Version = util.Coalesce(cfg.Version, version.Version)

	app, err := bootstrap.NewApp[*AppConfig](&cfg)
	if err != nil {
		log.Fatalf("gryfluxd: %v", err)
	}

	registry := dag.NewRegistry()
	registerTaskFuncs(registry)
	allocator := dag.NewPooledAllocator()
	if err := app.Container.RegisterSingleton(names.TaskRegistry, registry); err != nil {
		log.Fatalf("gryfluxd: %v", err)
	}
	if err := app.Container.RegisterSingleton(names.Allocator, allocator); err != nil {
		log.Fatalf("gryfluxd: %v", err)
	}

	var metrics *observability.Metrics
	if cfg.EnableTelemetry {
		ctx := context.Background()
		tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig(cfg.Name))
		if err != nil {
			log.Fatalf("gryfluxd: init tracer: %v", err)
		}
		mp, err := observability.InitMeter(ctx, util.Ptr(observability.DefaultMeterConfig(cfg.Name)))
		if err != nil {
			log.Fatalf("gryfluxd: init meter: %v", err)
		}
		m, err := observability.NewMetrics(observability.Meter(cfg.Name))
		if err != nil {
			log.Fatalf("gryfluxd: init metrics: %v", err)
		}
		metrics = m
		app.OnStop(func(ctx context.Context) error {
			_ = tp.Shutdown(ctx)
			_ = mp.Shutdown(ctx)
			return nil
		})
	}

	rateLimiter := resilience.NewRateLimiter(resilience.DefaultRateLimiterConfig("gryfluxd.ingest"))

	pipelineOpts := []dag.PipelineOption{
		dag.WithLogger(app.Logger),
		dag.WithRateLimiter(rateLimiter),
	}
	if metrics != nil {
		pipelineOpts = append(pipelineOpts, dag.WithPipelineMetrics(metrics))
	}
	pipeline := dag.NewStreamingPipeline(cfg.Name, cfg.Dag, pipelineOpts...)

	taskRegistry := di.MustResolve[*dag.Registry](app.Container, names.TaskRegistry)
	taskAllocator := di.MustResolve[*dag.PooledAllocator](app.Container, names.Allocator)
	processor := newProcessor(taskRegistry, taskAllocator, metrics, cfg.PipelineMode)
	if err := pipeline.SetProcessor(processor); err != nil {
		log.Fatalf("gryfluxd: %v", err)
	}
	pipeline.SetProfiling(cfg.Dag.EnableProfiling)

	if err := app.RegisterComponent(pipeline); err != nil {
		log.Fatalf("gryfluxd: %v", err)
	}

	adminServer := admin.New(cfg.Admin, pipeline, app.Components, app.Logger)
	if err := app.RegisterComponent(adminServer); err != nil {
		log.Fatalf("gryfluxd: %v", err)
	}

	demo := newDemoDriver(pipeline, app.Logger)
	app.OnStart(func(ctx context.Context) error {
		demo.start(ctx)
		return nil
	})
	app.OnStop(func(ctx context.Context) error {
		demo.stop()
		return nil
	})

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("gryfluxd: %v", err)
	}
}

// registerTaskFuncs binds the task IDs the demo processor's graph
// references. A real deployment would register its own domain task
// functions here instead.
func registerTaskFuncs(registry *dag.Registry) {
	registry.Register("normalize", func(inputs []dag.DataItem) (dag.DataItem, error) {
		text, ok := inputs[0].Value.(string)
		if !ok {
			return dag.NullItem, fmt.Errorf("normalize: expected string, got %T", inputs[0].Value)
		}
		return dag.DataItem{Value: strings.ToLower(strings.TrimSpace(text)), TraceID: inputs[0].TraceID}, nil
	})

	registry.Register("count", func(inputs []dag.DataItem) (dag.DataItem, error) {
		text := inputs[0].Value.(string)
		return dag.DataItem{Value: len(strings.Fields(text)), TraceID: inputs[0].TraceID}, nil
	})

	registry.Register("finalize", func(inputs []dag.DataItem) (dag.DataItem, error) {
		count := inputs[0].Value.(int)
		return dag.DataItem{
			Value:   fmt.Sprintf("%d word(s)", count),
			TraceID: inputs[0].TraceID,
		}, nil
	})

	registry.Register("passthrough", func(inputs []dag.DataItem) (dag.DataItem, error) {
		return inputs[0], nil
	})
}

// newProcessor builds the ProcessorFunc gryfluxd's pipeline runs per
// item. It resolves its task functions from registry, demonstrating
// dag.Registry, and decorates the "count" node with tracing, metrics,
// and a bounded retry so a flaky counter (in a real deployment: a
// remote enrichment call) does not fail the whole item on one glitch.
func newProcessor(registry *dag.Registry, allocator dag.Allocator, metrics *observability.Metrics, mode string) dag.ProcessorFunc {
	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.MaxAttempts = 2

	return func(ctx context.Context, builder *dag.PipelineBuilder, item dag.DataItem, terminalID string) error {
		buf, err := allocator.Allocate(64)
		if err != nil {
			return fmt.Errorf("allocate scratch buffer: %w", err)
		}
		defer allocator.Free(buf)

		in, err := builder.AddInput("input", item)
		if err != nil {
			return err
		}

		if mode == "passthrough" {
			passthroughFn, err := registry.Get("passthrough")
			if err != nil {
				return err
			}
			_, err = builder.AddTask(terminalID, passthroughFn, []dag.Node{in})
			return err
		}

		normalizeFn, err := registry.Get("normalize")
		if err != nil {
			return err
		}
		normalize, err := builder.AddTask("normalize", normalizeFn, []dag.Node{in})
		if err != nil {
			return err
		}

		countFn, err := registry.Get("count")
		if err != nil {
			return err
		}
		var countNode dag.Node = dag.NewProcessingNode("count", dag.WithRetry(countFn, retryCfg), []dag.Node{normalize})
		countNode = dag.WithTracing(countNode)
		countNode = dag.WithMetrics(countNode, metrics)
		if err := builder.Scheduler().AddTask(countNode); err != nil {
			return err
		}

		finalizeFn, err := registry.Get("finalize")
		if err != nil {
			return err
		}
		_, err = builder.AddTask(terminalID, finalizeFn, []dag.Node{countNode})
		return err
	}
}

// demoDriver feeds sample items into pipeline and logs whatever comes
// out, standing in for the external producer/consumer threads the
// core dag package deliberately has no opinion about.
type demoDriver struct {
	pipeline *dag.StreamingPipeline
	log      interface {
		Info(msg string, fields ...map[string]interface{})
	}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newDemoDriver(p *dag.StreamingPipeline, l interface {
	Info(msg string, fields ...map[string]interface{})
}) *demoDriver {
	return &demoDriver{pipeline: p, log: l}
}

func (d *demoDriver) start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel

	d.wg.Add(2)
	go d.produce(ctx)
	go d.consume(ctx)
}

func (d *demoDriver) stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

func (d *demoDriver) produce(ctx context.Context) {
	defer d.wg.Done()
	samples := []string{
		"gryflux streams items through a per-item DAG",
		"the worker pool fans dependency execution out in parallel",
		"backpressure keeps producers from overrunning consumers",
	}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			text := samples[i%len(samples)]
			i++
			_, _ = d.pipeline.AddInput(ctx, dag.DataItem{Value: text, TraceID: uuid.New()})
		}
	}
}

func (d *demoDriver) consume(ctx context.Context) {
	defer d.wg.Done()
	for d.pipeline.ShouldContinueConsuming() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if result, ok := d.pipeline.TryGetOutput(); ok {
			d.log.Info("pipeline output", map[string]interface{}{"result": result.Value, "trace_id": result.TraceID.String()})
			continue
		}
		time.Sleep(5 * time.Millisecond)
	}
}
