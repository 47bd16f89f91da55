package dag

import "github.com/fsdfsfssdf/gryflux/errors"

// Sentinel errors for the taxonomy this package raises. Each is a
// representative *errors.AppError; because AppError.Is compares by
// Code, errors.Is(err, dag.ErrUnknownTask) matches any AppError with
// that code regardless of the task ID or message a call site attached.
var (
	ErrPoolStopped    error = errors.PoolStopped("dag")
	ErrUnknownTask    error = errors.UnknownTask("")
	ErrNodeFailed     error = errors.NodeFailed("", nil)
	ErrNullDependency error = errors.NullDependency("", "")
	ErrBusy           error = errors.Busy("")
	ErrDuplicateTask  error = errors.DuplicateTask("")
	ErrInvalidInput   error = errors.InvalidInput("", "item is nil")
)
