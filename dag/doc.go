// Package dag implements a streaming dataflow runtime: items arrive on a
// bounded input queue, each item is run through a per-item DAG of task
// nodes dispatched onto a shared worker pool, and results land on a
// bounded output queue. Every node in a DAG executes at most once per
// item; a shared worker pool backs every DAG built during the life of a
// pipeline, so building and discarding graphs per item never re-creates
// worker goroutines.
//
// The runtime is built leaves-first: BoundedQueue and WorkerPool are the
// concurrency primitives, TaskNode (InputNode / ProcessingNode) is the
// unit of work, TaskScheduler dispatches a node's dependency closure onto
// the pool, PipelineBuilder indexes one DAG's nodes against a scheduler,
// and StreamingPipeline drives a builder across a continuous stream of
// items, one graph per item.
package dag
