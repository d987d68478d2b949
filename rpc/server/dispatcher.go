package server

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/mKV/lib/registry"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

// Dispatcher routes decoded requests to their operation and wraps the result
// into a response envelope. It is safe for concurrent use.
type Dispatcher struct {
	reg registry.IRegistry
	log logger.ILogger
}

// NewDispatcher creates a dispatcher serving the databases of reg
func NewDispatcher(reg registry.IRegistry, log logger.ILogger) *Dispatcher {
	return &Dispatcher{reg: reg, log: log}
}

// Dispatch executes req and returns its response. It never panics.
func (d *Dispatcher) Dispatch(req *common.Request) common.Response {
	start := time.Now()

	cmd, known := common.ParseCommand(req.Command)
	res := d.dispatch(req, cmd, known)

	label := string(cmd)
	if !known {
		label = "UNKNOWN"
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`mkv_commands_total{command=%q,status=%q}`, label, res.Status)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(`mkv_command_duration_seconds{command=%q}`, label)).UpdateDuration(start)

	if res.Status == common.StatusFailure {
		d.log.Errorf("%s on %q failed: %s", req.Command, req.DBUID, res.Err)
	} else {
		d.log.Debugf("%s on %q: %s in %s", req.Command, req.DBUID, res.Status, time.Since(start))
	}

	return buildEnvelope(req, res)
}

func (d *Dispatcher) dispatch(req *common.Request, cmd common.Command, known bool) Result {
	c := &call{cmd: cmd, req: req, reg: d.reg, log: d.log}

	// connecting is the only command without a database
	if cmd == common.CmdDBConnect {
		return d.invoke(opDBConnect, c)
	}

	if _, ok := d.reg.Name(req.DBUID); req.DBUID == "" || !ok {
		return fail(common.KindRuntimeError, "Database %s doesn't exist", req.DBUID)
	}

	op, ok := commandTable[cmd]
	if !known || !ok {
		return fail(common.KindUnrecognizedCommand, "Command %s not handled", req.Command)
	}

	// lifecycle commands may target the requester's own database and must not hold a lease on it
	if cmd.IsLifecycle() {
		return d.invoke(op, c)
	}

	h, release, err := d.reg.Acquire(req.DBUID)
	if err != nil {
		return fail(common.KindRuntimeError, "Database %s doesn't exist", req.DBUID)
	}
	defer release()

	c.handle = h
	return d.invoke(op, c)
}

// invoke runs op and converts a panic into a RuntimeError
func (d *Dispatcher) invoke(op operation, c *call) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("%s panicked: %v", c.cmd, r)
			res = fail(common.KindRuntimeError, "internal error: %v", r)
		}
	}()
	return op(c)
}
