package dag

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestInputNode_ExecutedAtConstruction(t *testing.T) {
	n := NewInputNode("in", DataItem{Value: 42})
	if !n.Executed() {
		t.Fatal("expected InputNode to be executed immediately")
	}
	if n.State() != StateDone {
		t.Fatalf("expected StateDone, got %s", n.State())
	}
	result, executed := n.Result()
	if !executed || result.Value != 42 {
		t.Fatalf("unexpected result: %+v executed=%v", result, executed)
	}
}

func TestProcessingNode_NotReadyWithoutDependencies(t *testing.T) {
	n := NewProcessingNode("p", func([]DataItem) (DataItem, error) {
		return DataItem{Value: "should not run"}, nil
	}, nil)
	if n.IsReady() {
		t.Fatal("a processing node with no dependencies must never be ready")
	}
	result, err := n.ExecuteOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsNull() {
		t.Fatalf("expected null result, got %+v", result)
	}
}

func TestProcessingNode_NullDependencyPropagates(t *testing.T) {
	nullDep := NewInputNode("nulldep", NullItem)
	called := false
	n := NewProcessingNode("n", func([]DataItem) (DataItem, error) {
		called = true
		return DataItem{Value: 1}, nil
	}, []Node{nullDep})

	result, err := n.ExecuteOnce(context.Background())
	if err != nil {
		t.Fatalf("null propagation is not an error: %v", err)
	}
	if !result.IsNull() {
		t.Fatalf("expected null result, got %+v", result)
	}
	if called {
		t.Fatal("task function must not run when a dependency's result is null")
	}
}

func TestProcessingNode_FunctionErrorIsIsolated(t *testing.T) {
	in := NewInputNode("in", DataItem{Value: 1})
	n := NewProcessingNode("n", func([]DataItem) (DataItem, error) {
		return NullItem, errors.New("boom")
	}, []Node{in})

	result, err := n.ExecuteOnce(context.Background())
	if err == nil {
		t.Fatal("expected the task function's error to propagate")
	}
	if !result.IsNull() {
		t.Fatalf("expected null result on failure, got %+v", result)
	}
	if !n.Executed() {
		t.Fatal("a failed node is still considered executed — at-most-once, not at-most-once-on-success")
	}
}

func TestProcessingNode_GathersDependencyResultsInOrder(t *testing.T) {
	a := NewInputNode("a", DataItem{Value: "a"})
	b := NewInputNode("b", DataItem{Value: "b"})
	c := NewInputNode("c", DataItem{Value: "c"})

	var seen []any
	n := NewProcessingNode("n", func(inputs []DataItem) (DataItem, error) {
		for _, in := range inputs {
			seen = append(seen, in.Value)
		}
		return DataItem{Value: "done"}, nil
	}, []Node{a, b, c})

	if _, err := n.ExecuteOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []any{"a", "b", "c"}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}

func TestNode_ExecuteOnce_AtMostOnceUnderConcurrency(t *testing.T) {
	var calls atomic.Int32
	in := NewInputNode("in", DataItem{Value: 1})
	n := NewProcessingNode("n", func([]DataItem) (DataItem, error) {
		calls.Add(1)
		return DataItem{Value: "computed"}, nil
	}, []Node{in})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = n.ExecuteOnce(context.Background())
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected task function to run exactly once, ran %d times", got)
	}
}
