package engine

import (
	"fmt"

	"github.com/roach88/litemap/internal/dberr"
)

// Engine-level failures reuse the dberr taxonomy so callers branch on one
// set of codes whether a job failed in the store or in the pool.

// newClosedError reports work submitted to a closed path or pool.
func newClosedError(path string) *dberr.Error {
	return dberr.NewConnectionError(fmt.Sprintf("connection %s is closed", path), nil)
}

// newPanicError converts a recovered job panic into an execution error.
func newPanicError(jobID string, p any) *dberr.Error {
	return &dberr.Error{
		Code:    dberr.CodeExecution,
		Message: fmt.Sprintf("job %s panicked: %v", jobID, p),
	}
}

// newCanceledError reports a job that was removed before it started.
func newCanceledError(jobID string, cause error) *dberr.Error {
	return dberr.NewCanceled(fmt.Sprintf("job %s canceled before it started", jobID), cause)
}
