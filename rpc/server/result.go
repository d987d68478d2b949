package server

import (
	"fmt"

	"github.com/ValentinKolb/mKV/rpc/common"
)

// Result is the outcome of one operation before it is wrapped into a response envelope
type Result struct {
	Status common.Status
	Value  any
	Err    *Failure // nil unless Status is FAILURE
}

// Failure describes why an operation failed
type Failure struct {
	Kind common.ErrorKind
	Msg  string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Msg)
}

// success returns a SUCCESS result carrying value
func success(value any) Result {
	return Result{Status: common.StatusSuccess, Value: value}
}

// warning returns a WARNING result carrying value
func warning(value any) Result {
	return Result{Status: common.StatusWarning, Value: value}
}

// fail returns a FAILURE result of the given kind
func fail(kind common.ErrorKind, format string, args ...any) Result {
	return failed(newFailure(kind, format, args...))
}

// failed wraps an existing failure into a result
func failed(f *Failure) Result {
	return Result{Status: common.StatusFailure, Err: f}
}

func newFailure(kind common.ErrorKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
