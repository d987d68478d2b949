package client

import (
	"fmt"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/serializer"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// ErrNotConnected is returned by data commands issued before Connect
var ErrNotConnected = errors.New("client is not connected to a database")

// Error is a FAILURE reported by the server
type Error struct {
	Kind common.ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// IsKind reports whether err is a server failure of the given kind
func IsKind(err error, kind common.ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// rpcClientAdapter is a struct that stores all data needed to talk to a server
type rpcClientAdapter struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest is a helper function used to send requests
// It takes a request, a transport layer and a serializer as parameters
// It returns the response envelope, or an *Error if the server reported a failure
func invokeRPCRequest(req *common.Request, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Response, error) {
	// Serialize the request
	reqBytes, err := serializer.EncodeRequest(*req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s request", req.Command)
	}

	// Send the request
	frame, err := transport.Send(reqBytes)
	if err != nil {
		return nil, err
	}

	// Strip the frame flag and decompress if needed
	body, _, err := common.UnpackResponse(frame)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s response", req.Command)
	}

	// Deserialize the response
	resp := &common.Response{}
	if err := serializer.DecodeResponse(body, resp); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s response", req.Command)
	}

	// Check if the response is an error response
	if resp.Header.Status == common.StatusFailure {
		return nil, &Error{Kind: resp.Header.ErrCode, Msg: resp.Header.ErrMsg}
	}

	return resp, nil
}

// --------------------------------------------------------------------------
// Response value helpers
// --------------------------------------------------------------------------

// KV is one key/value pair returned by a scan
type KV struct {
	Key   []byte
	Value []byte
}

func toPairs(v any) ([]KV, error) {
	if v == nil {
		return []KV{}, nil
	}
	list, ok := common.AsList(v)
	if !ok {
		return nil, errors.Newf("expected a list of pairs, got %s", common.TypeName(v))
	}

	pairs := make([]KV, len(list))
	for i, raw := range list {
		pair, ok := common.AsList(raw)
		if !ok || len(pair) != 2 {
			return nil, errors.Newf("malformed pair at index %d", i)
		}
		key, ok := common.AsBytes(pair[0])
		if !ok {
			return nil, errors.Newf("malformed key at index %d", i)
		}
		value, ok := common.AsBytes(pair[1])
		if !ok {
			return nil, errors.Newf("malformed value at index %d", i)
		}
		pairs[i] = KV{Key: key, Value: value}
	}
	return pairs, nil
}
