package serializer

import (
	"encoding/json"

	"github.com/ValentinKolb/mKV/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding.
// Byte values are sent as strings, so binary keys should use another format.
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) EncodeRequest(req common.Request) ([]byte, error) {
	data := make([]any, len(req.Data))
	for i, v := range req.Data {
		data[i] = toJSONValue(v)
	}
	req.Data = data
	return json.Marshal(req)
}

func (j jsonSerializerImpl) DecodeRequest(b []byte, req *common.Request) error {
	*req = common.Request{}
	if err := json.Unmarshal(b, req); err != nil {
		return err
	}
	for _, v := range req.Data {
		if err := checkDepth(v, 1); err != nil {
			return err
		}
	}
	return nil
}

func (j jsonSerializerImpl) EncodeResponse(resp common.Response) ([]byte, error) {
	resp.Content.Datas = toJSONValue(resp.Content.Datas)
	return json.Marshal(resp)
}

func (j jsonSerializerImpl) DecodeResponse(b []byte, resp *common.Response) error {
	*resp = common.Response{}
	if err := json.Unmarshal(b, resp); err != nil {
		return err
	}
	return checkDepth(resp.Content.Datas, 0)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// toJSONValue replaces byte slices with strings so they are not base64 encoded
func toJSONValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case [][]byte:
		list := make([]any, len(t))
		for i, b := range t {
			list[i] = string(b)
		}
		return list
	case []any:
		list := make([]any, len(t))
		for i, e := range t {
			list[i] = toJSONValue(e)
		}
		return list
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = toJSONValue(e)
		}
		return m
	default:
		return v
	}
}
