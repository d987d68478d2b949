package serializer

import (
	"reflect"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/hashicorp/go-msgpack/codec"
)

// NewMsgpackSerializer creates a new serializer using msgpack encoding.
// Strings and byte slices keep their type across the wire.
func NewMsgpackSerializer() IRPCSerializer {
	h := &codec.MsgpackHandle{
		RawToString: true,
		WriteExt:    true,
	}
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))

	return &msgpackSerializerImpl{handle: h}
}

// envelopeDepth is the nesting of the struct maps around the argument and payload values
const envelopeDepth = 2

// msgpackSerializerImpl implements the IRPCSerializer interface using msgpack encoding
type msgpackSerializerImpl struct {
	handle *codec.MsgpackHandle
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (m msgpackSerializerImpl) EncodeRequest(req common.Request) ([]byte, error) {
	return m.encode(&req)
}

func (m msgpackSerializerImpl) DecodeRequest(b []byte, req *common.Request) error {
	*req = common.Request{}
	if err := checkMsgpackDepth(b, envelopeDepth+MaxValueDepth); err != nil {
		return err
	}
	return codec.NewDecoderBytes(b, m.handle).Decode(req)
}

func (m msgpackSerializerImpl) EncodeResponse(resp common.Response) ([]byte, error) {
	return m.encode(&resp)
}

func (m msgpackSerializerImpl) DecodeResponse(b []byte, resp *common.Response) error {
	*resp = common.Response{}
	if err := checkMsgpackDepth(b, envelopeDepth+MaxValueDepth); err != nil {
		return err
	}
	return codec.NewDecoderBytes(b, m.handle).Decode(resp)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (m msgpackSerializerImpl) encode(v any) ([]byte, error) {
	var b []byte
	if err := codec.NewEncoderBytes(&b, m.handle).Encode(v); err != nil {
		return nil, err
	}
	return b, nil
}
