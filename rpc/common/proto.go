package common

import "strings"

// --------------------------------------------------------------------------
// Request Structure
// --------------------------------------------------------------------------

// Request is a single command sent by a client.
// Data holds the positional arguments of the command. Its elements are limited
// to nil, bool, integers, float64, string, []byte, []any and map[string]any.
type Request struct {
	Command string `json:"command" codec:"command"`
	DBUID   string `json:"db_uid,omitempty" codec:"db_uid"` // empty if absent
	Data    []any  `json:"data" codec:"data"`
	Meta    Meta   `json:"meta" codec:"meta"`
}

// Meta carries optional per-request settings
type Meta struct {
	// Compression asks the server to compress the response body
	Compression bool `json:"compression,omitempty" codec:"compression"`
}

// --------------------------------------------------------------------------
// Response Structure
// --------------------------------------------------------------------------

// Response is the envelope returned for every request
type Response struct {
	Header  Header  `json:"header" codec:"header"`
	Content Content `json:"content" codec:"content"`
}

// Header holds the outcome of a request
type Header struct {
	Status      Status    `json:"status" codec:"status"`
	ErrCode     ErrorKind `json:"err_code,omitempty" codec:"err_code"` // empty if absent
	ErrMsg      string    `json:"err_msg,omitempty" codec:"err_msg"`
	Compression bool      `json:"compression" codec:"compression"`
}

// Content holds the payload of a successful request
type Content struct {
	Datas       any  `json:"datas" codec:"datas"`
	Compression bool `json:"compression" codec:"compression"`
}

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

// Command is the closed set of commands understood by the server
type Command string

const (
	CmdUnknown   Command = ""
	CmdGet       Command = "GET"
	CmdPut       Command = "PUT"
	CmdDelete    Command = "DELETE"
	CmdRange     Command = "RANGE"
	CmdSlice     Command = "SLICE"
	CmdBatch     Command = "BATCH"
	CmdMGet      Command = "MGET"
	CmdDBConnect Command = "DBCONNECT"
	CmdDBCreate  Command = "DBCREATE"
	CmdDBDrop    Command = "DBDROP"
	CmdDBList    Command = "DBLIST"
	CmdDBRepair  Command = "DBREPAIR"
)

// Commands lists every recognized command
var Commands = []Command{
	CmdGet, CmdPut, CmdDelete, CmdRange, CmdSlice, CmdBatch, CmdMGet,
	CmdDBConnect, CmdDBCreate, CmdDBDrop, CmdDBList, CmdDBRepair,
}

// ParseCommand maps a wire command name to a Command.
// Names are case-insensitive. Unknown names return CmdUnknown and false.
func ParseCommand(name string) (Command, bool) {
	cmd := Command(strings.ToUpper(name))
	if cmd.IsKnown() {
		return cmd, true
	}
	return CmdUnknown, false
}

// IsKnown reports whether the command is part of the recognized set
func (c Command) IsKnown() bool {
	switch c {
	case CmdGet, CmdPut, CmdDelete, CmdRange, CmdSlice, CmdBatch, CmdMGet,
		CmdDBConnect, CmdDBCreate, CmdDBDrop, CmdDBList, CmdDBRepair:
		return true
	default:
		return false
	}
}

// IsLifecycle reports whether the command manages databases instead of keys
func (c Command) IsLifecycle() bool {
	switch c {
	case CmdDBConnect, CmdDBCreate, CmdDBDrop, CmdDBList, CmdDBRepair:
		return true
	default:
		return false
	}
}

// --------------------------------------------------------------------------
// Status and Error Kinds
// --------------------------------------------------------------------------

// Status is the outcome of a request
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusWarning Status = "WARNING"
)

// ErrorKind tags a failed request. Clients branch on it, so values are stable.
type ErrorKind string

const (
	KindKeyNotFound         ErrorKind = "KeyNotFound"
	KindUnsupportedType     ErrorKind = "UnsupportedType"
	KindDatabaseError       ErrorKind = "DatabaseError"
	KindInvalidValue        ErrorKind = "InvalidValue"
	KindRuntimeError        ErrorKind = "RuntimeError"
	KindUnrecognizedSignal  ErrorKind = "UnrecognizedSignal"
	KindUnrecognizedCommand ErrorKind = "UnrecognizedCommand"
)

// Batch entry signals
const (
	SignalPut    = "PUT"
	SignalDelete = "DELETE"
)

// --------------------------------------------------------------------------
// Request Factory Functions
// --------------------------------------------------------------------------

// NewGetRequest creates a new Get request
func NewGetRequest(uid string, key []byte) *Request {
	return &Request{Command: string(CmdGet), DBUID: uid, Data: []any{key}}
}

// NewPutRequest creates a new Put request
func NewPutRequest(uid string, key, value []byte) *Request {
	return &Request{Command: string(CmdPut), DBUID: uid, Data: []any{key, value}}
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(uid string, key []byte) *Request {
	return &Request{Command: string(CmdDelete), DBUID: uid, Data: []any{key}}
}

// NewMGetRequest creates a new MGet request
func NewMGetRequest(uid string, keys [][]byte) *Request {
	list := make([]any, len(keys))
	for i, k := range keys {
		list[i] = k
	}
	return &Request{Command: string(CmdMGet), DBUID: uid, Data: []any{list}}
}

// NewRangeRequest creates a new Range request for the keys in [from, to)
func NewRangeRequest(uid string, from, to []byte) *Request {
	return &Request{Command: string(CmdRange), DBUID: uid, Data: []any{from, to}}
}

// NewSliceRequest creates a new Slice request for at most n keys starting at from
func NewSliceRequest(uid string, from []byte, n int) *Request {
	return &Request{Command: string(CmdSlice), DBUID: uid, Data: []any{from, int64(n)}}
}

// NewBatchRequest creates a new Batch request.
// Entries are built with PutEntry and DeleteEntry.
func NewBatchRequest(uid string, entries ...[]any) *Request {
	list := make([]any, len(entries))
	for i, e := range entries {
		list[i] = e
	}
	return &Request{Command: string(CmdBatch), DBUID: uid, Data: []any{list}}
}

// PutEntry creates a batch entry that writes value to key
func PutEntry(key, value []byte) []any {
	return []any{SignalPut, key, value}
}

// DeleteEntry creates a batch entry that removes key
func DeleteEntry(key []byte) []any {
	return []any{SignalDelete, key}
}

// NewDBConnectRequest creates a new DBConnect request
func NewDBConnectRequest(name string) *Request {
	return &Request{Command: string(CmdDBConnect), Data: []any{name}}
}

// NewDBCreateRequest creates a new DBCreate request. options may be nil.
func NewDBCreateRequest(uid, name string, options map[string]any) *Request {
	data := []any{name}
	if options != nil {
		data = append(data, options)
	}
	return &Request{Command: string(CmdDBCreate), DBUID: uid, Data: data}
}

// NewDBDropRequest creates a new DBDrop request
func NewDBDropRequest(uid, name string) *Request {
	return &Request{Command: string(CmdDBDrop), DBUID: uid, Data: []any{name}}
}

// NewDBListRequest creates a new DBList request
func NewDBListRequest(uid string) *Request {
	return &Request{Command: string(CmdDBList), DBUID: uid, Data: []any{}}
}

// NewDBRepairRequest creates a new DBRepair request.
// An empty target repairs the database the request is routed through.
func NewDBRepairRequest(uid, target string) *Request {
	data := []any{}
	if target != "" {
		data = append(data, target)
	}
	return &Request{Command: string(CmdDBRepair), DBUID: uid, Data: data}
}
