package server

import "github.com/ValentinKolb/mKV/rpc/common"

// operation executes one command
type operation func(c *call) Result

// commandTable maps every recognized command to its operation.
// It is never written after package initialization.
var commandTable = map[common.Command]operation{
	common.CmdGet:    opGet,
	common.CmdPut:    opPut,
	common.CmdDelete: opDelete,
	common.CmdMGet:   opMGet,
	common.CmdRange:  opRange,
	common.CmdSlice:  opSlice,
	common.CmdBatch:  opBatch,

	common.CmdDBConnect: opDBConnect,
	common.CmdDBCreate:  opDBCreate,
	common.CmdDBDrop:    opDBDrop,
	common.CmdDBList:    opDBList,
	common.CmdDBRepair:  opDBRepair,
}
