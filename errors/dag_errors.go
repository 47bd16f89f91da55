package errors

import (
	"fmt"
	"net/http"
)

// PoolStopped creates a new AppError for an enqueue attempted after a worker
// pool has shut down.
func PoolStopped(poolName string) *AppError {
	return &AppError{
		Code: ErrCodePoolStopped, Message: fmt.Sprintf("worker pool %q has stopped accepting work", poolName),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: false,
		Details: map[string]any{"pool": poolName},
	}
}

// UnknownTask creates a new AppError for a task ID absent from a registry
// or scheduler index.
func UnknownTask(taskID string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownTask, Message: fmt.Sprintf("no task registered for id %q", taskID),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"task_id": taskID},
	}
}

// NodeFailed creates a new AppError for a task node whose processing
// function returned an error.
func NodeFailed(nodeID string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeNodeFailed, Message: fmt.Sprintf("task node %q failed", nodeID),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"node_id": nodeID}, Cause: cause,
	}
}

// NullDependency creates a new AppError describing a node whose dependency
// produced no result.
func NullDependency(nodeID, dependencyID string) *AppError {
	return &AppError{
		Code: ErrCodeNullDependency, Message: fmt.Sprintf("dependency %q of node %q produced a null result", dependencyID, nodeID),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"node_id": nodeID, "dependency_id": dependencyID},
	}
}

// Busy creates a new AppError for a configuration mutation rejected because
// the target is already running.
func Busy(operation string) *AppError {
	return &AppError{
		Code: ErrCodeBusy, Message: fmt.Sprintf("cannot %s while running", operation),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"operation": operation},
	}
}

// DuplicateTask creates a new AppError for a task ID registered twice
// within the same DAG.
func DuplicateTask(taskID string) *AppError {
	return &AppError{
		Code: ErrCodeDuplicateTask, Message: fmt.Sprintf("task id %q already registered in this graph", taskID),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"task_id": taskID},
	}
}
