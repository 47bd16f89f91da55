package dag

import (
	"context"
	"time"

	"github.com/fsdfsfssdf/gryflux/observability"
	"github.com/fsdfsfssdf/gryflux/resilience"
)

// WithTracing wraps node so every ExecuteOnce call opens a span tagged
// with the node's ID and whether it resolved to a null result. The
// inner node's own at-most-once guarantee is untouched — this only
// observes the single execution that already happens.
func WithTracing(node Node) Node {
	return &tracingNode{Node: node}
}

type tracingNode struct {
	Node
}

func (n *tracingNode) ExecuteOnce(ctx context.Context) (DataItem, error) {
	ctx, span := observability.StartSpan(ctx, "dag.node.execute")
	defer span.End()
	observability.SetSpanAttribute(ctx, "node.id", n.Node.ID())

	result, err := n.Node.ExecuteOnce(ctx)

	observability.SetSpanAttribute(ctx, "node.null_result", result.IsNull())
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return result, err
}

// WithMetrics wraps node so its execution is recorded on m as an
// operation named "dag.node.<id>".
func WithMetrics(node Node, m *observability.Metrics) Node {
	if m == nil {
		return node
	}
	return &metricsNode{Node: node, metrics: m}
}

type metricsNode struct {
	Node
	metrics *observability.Metrics
}

func (n *metricsNode) ExecuteOnce(ctx context.Context) (DataItem, error) {
	start := time.Now()
	result, err := n.Node.ExecuteOnce(ctx)
	status := "ok"
	if err != nil {
		status = "error"
		n.metrics.RecordError(ctx, "node_failed", n.Node.ID())
	} else if result.IsNull() {
		status = "null"
	}
	n.metrics.RecordOperation(ctx, "dag", n.Node.ID(), status, time.Since(start))
	return result, err
}

// WithRetry wraps fn so a failing invocation is retried per cfg before
// the node commits its result as failed. It decorates the TaskFunc,
// not a constructed Node, because a node's own ExecuteOnce runs at
// most once — retries must happen inside a single execute() call, not
// by re-invoking ExecuteOnce.
func WithRetry(fn TaskFunc, cfg resilience.RetryConfig) TaskFunc {
	return func(inputs []DataItem) (DataItem, error) {
		return resilience.Retry(context.Background(), cfg, func() (DataItem, error) {
			return fn(inputs)
		})
	}
}

// WithCircuitBreaker wraps fn behind cb. An open circuit surfaces to
// the node as an error, which its ExecuteOnce turns into the same
// null-propagating failure path as any other ErrNodeFailed.
func WithCircuitBreaker(fn TaskFunc, cb *resilience.CircuitBreaker) TaskFunc {
	return func(inputs []DataItem) (DataItem, error) {
		var result DataItem
		err := cb.Execute(func() error {
			r, err := fn(inputs)
			result = r
			return err
		})
		if err != nil {
			return NullItem, err
		}
		return result, nil
	}
}
