package server

import (
	"github.com/ValentinKolb/mKV/rpc/common"
)

// IDispatcher is the interface between the transport handler and the command execution
type IDispatcher interface {
	// Dispatch executes a decoded request and returns the response envelope.
	// Every failure, including a panic inside an operation, is reported in the
	// envelope and never as a Go error.
	Dispatch(req *common.Request) common.Response
}
