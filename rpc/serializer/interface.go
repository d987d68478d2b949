package serializer

import (
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/cockroachdb/errors"
)

// MaxValueDepth is the deepest nesting of lists and maps a decoded value may have
const MaxValueDepth = 64

// ErrTooDeep is returned when a decoded value nests deeper than MaxValueDepth
var ErrTooDeep = errors.Newf("value nests deeper than %d levels", MaxValueDepth)

// IRPCSerializer is the interface for all request and response serializers
type IRPCSerializer interface {
	// EncodeRequest serializes a Request into a byte array
	EncodeRequest(req common.Request) ([]byte, error)
	// DecodeRequest deserializes a byte array into req.
	// The argument values of req.Data keep the types the format decodes into
	// (see the common.As* helpers).
	DecodeRequest(b []byte, req *common.Request) error
	// EncodeResponse serializes a Response into a byte array
	EncodeResponse(resp common.Response) ([]byte, error)
	// DecodeResponse deserializes a byte array into resp
	DecodeResponse(b []byte, resp *common.Response) error
}

// ByName returns the serializer registered under name ("json", "msgpack", "binary")
func ByName(name string) (IRPCSerializer, bool) {
	switch name {
	case "json":
		return NewJSONSerializer(), true
	case "msgpack":
		return NewMsgpackSerializer(), true
	case "binary":
		return NewBinarySerializer(), true
	default:
		return nil, false
	}
}
