package serializer

import (
	"fmt"
	"math"
	"sort"

	"github.com/ValentinKolb/mKV/rpc/common"
	"google.golang.org/protobuf/encoding/protowire"
)

// NewBinarySerializer creates a new serializer using a compact tagged binary
// format built on the protobuf wire encoding
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using protobuf wire primitives.
//
// Requests and responses are flat messages of numbered fields. Argument and
// payload values are encoded as a single field whose number is the value's
// type tag. Lists and maps nest their elements as length delimited bytes.
type binarySerializerImpl struct {
}

// request fields
const (
	reqCommand     protowire.Number = 1
	reqDBUID       protowire.Number = 2
	reqData        protowire.Number = 3
	reqCompression protowire.Number = 4
)

// response fields
const (
	respStatus             protowire.Number = 1
	respErrCode            protowire.Number = 2
	respErrMsg             protowire.Number = 3
	respHeaderCompression  protowire.Number = 4
	respDatas              protowire.Number = 5
	respContentCompression protowire.Number = 6
)

// value type tags
const (
	tagNil    protowire.Number = 1
	tagBool   protowire.Number = 2
	tagInt    protowire.Number = 3
	tagUint   protowire.Number = 4
	tagFloat  protowire.Number = 5
	tagString protowire.Number = 6
	tagBytes  protowire.Number = 7
	tagList   protowire.Number = 8
	tagMap    protowire.Number = 9
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (s binarySerializerImpl) EncodeRequest(req common.Request) ([]byte, error) {
	data, err := appendList(nil, req.Data)
	if err != nil {
		return nil, err
	}

	b := make([]byte, 0, len(req.Command)+len(req.DBUID)+len(data)+16)
	b = appendStringField(b, reqCommand, req.Command)
	if req.DBUID != "" {
		b = appendStringField(b, reqDBUID, req.DBUID)
	}
	b = protowire.AppendTag(b, reqData, protowire.BytesType)
	b = protowire.AppendBytes(b, data)
	if req.Meta.Compression {
		b = appendBoolField(b, reqCompression, true)
	}
	return b, nil
}

func (s binarySerializerImpl) DecodeRequest(b []byte, req *common.Request) error {
	if len(b) == 0 {
		return fmt.Errorf("empty request")
	}
	*req = common.Request{}

	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case reqCommand:
			v, n, err := consumeBytesField(b, typ)
			req.Command = string(v)
			return n, err
		case reqDBUID:
			v, n, err := consumeBytesField(b, typ)
			req.DBUID = string(v)
			return n, err
		case reqData:
			v, n, err := consumeBytesField(b, typ)
			if err != nil {
				return n, err
			}
			req.Data, err = consumeList(v, 1)
			return n, err
		case reqCompression:
			v, n, err := consumeVarintField(b, typ)
			req.Meta.Compression = protowire.DecodeBool(v)
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
}

func (s binarySerializerImpl) EncodeResponse(resp common.Response) ([]byte, error) {
	datas, err := appendValue(nil, resp.Content.Datas)
	if err != nil {
		return nil, err
	}

	b := make([]byte, 0, len(resp.Header.ErrMsg)+len(datas)+32)
	b = appendStringField(b, respStatus, string(resp.Header.Status))
	if resp.Header.ErrCode != "" {
		b = appendStringField(b, respErrCode, string(resp.Header.ErrCode))
	}
	if resp.Header.ErrMsg != "" {
		b = appendStringField(b, respErrMsg, resp.Header.ErrMsg)
	}
	if resp.Header.Compression {
		b = appendBoolField(b, respHeaderCompression, true)
	}
	b = protowire.AppendTag(b, respDatas, protowire.BytesType)
	b = protowire.AppendBytes(b, datas)
	if resp.Content.Compression {
		b = appendBoolField(b, respContentCompression, true)
	}
	return b, nil
}

func (s binarySerializerImpl) DecodeResponse(b []byte, resp *common.Response) error {
	if len(b) == 0 {
		return fmt.Errorf("empty response")
	}
	*resp = common.Response{}

	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case respStatus:
			v, n, err := consumeBytesField(b, typ)
			resp.Header.Status = common.Status(v)
			return n, err
		case respErrCode:
			v, n, err := consumeBytesField(b, typ)
			resp.Header.ErrCode = common.ErrorKind(v)
			return n, err
		case respErrMsg:
			v, n, err := consumeBytesField(b, typ)
			resp.Header.ErrMsg = string(v)
			return n, err
		case respHeaderCompression:
			v, n, err := consumeVarintField(b, typ)
			resp.Header.Compression = protowire.DecodeBool(v)
			return n, err
		case respDatas:
			v, n, err := consumeBytesField(b, typ)
			if err != nil {
				return n, err
			}
			if len(v) > 0 {
				resp.Content.Datas, _, err = consumeValue(v, 0)
			}
			return n, err
		case respContentCompression:
			v, n, err := consumeVarintField(b, typ)
			resp.Content.Compression = protowire.DecodeBool(v)
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
}

// --------------------------------------------------------------------------
// Encoding Helper
// --------------------------------------------------------------------------

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendInt(b []byte, v int64) []byte {
	b = protowire.AppendTag(b, tagInt, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func appendUint(b []byte, v uint64) []byte {
	b = protowire.AppendTag(b, tagUint, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// appendValue appends v as a single tagged field
func appendValue(b []byte, v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		b = protowire.AppendTag(b, tagNil, protowire.VarintType)
		return protowire.AppendVarint(b, 0), nil
	case bool:
		return appendBoolField(b, tagBool, t), nil
	case int:
		return appendInt(b, int64(t)), nil
	case int8:
		return appendInt(b, int64(t)), nil
	case int16:
		return appendInt(b, int64(t)), nil
	case int32:
		return appendInt(b, int64(t)), nil
	case int64:
		return appendInt(b, t), nil
	case uint:
		return appendUint(b, uint64(t)), nil
	case uint8:
		return appendUint(b, uint64(t)), nil
	case uint16:
		return appendUint(b, uint64(t)), nil
	case uint32:
		return appendUint(b, uint64(t)), nil
	case uint64:
		return appendUint(b, t), nil
	case float32:
		b = protowire.AppendTag(b, tagFloat, protowire.Fixed64Type)
		return protowire.AppendFixed64(b, math.Float64bits(float64(t))), nil
	case float64:
		b = protowire.AppendTag(b, tagFloat, protowire.Fixed64Type)
		return protowire.AppendFixed64(b, math.Float64bits(t)), nil
	case string:
		return appendStringField(b, tagString, t), nil
	case []byte:
		b = protowire.AppendTag(b, tagBytes, protowire.BytesType)
		return protowire.AppendBytes(b, t), nil
	case []any:
		inner, err := appendList(nil, t)
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, tagList, protowire.BytesType)
		return protowire.AppendBytes(b, inner), nil
	case []string, [][]byte:
		list, _ := common.AsList(t)
		return appendValue(b, list)
	case map[string]any:
		inner, err := appendMap(nil, t)
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, tagMap, protowire.BytesType)
		return protowire.AppendBytes(b, inner), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func appendList(b []byte, list []any) ([]byte, error) {
	var err error
	for _, v := range list {
		if b, err = appendValue(b, v); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// appendMap writes alternating key and value fields, keys in sorted order
func appendMap(b []byte, m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var err error
	for _, k := range keys {
		b = appendStringField(b, tagString, k)
		if b, err = appendValue(b, m[k]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// --------------------------------------------------------------------------
// Decoding Helper
// --------------------------------------------------------------------------

// consumeFields calls fn for every field in b.
// fn receives the bytes after the tag and returns the length of the field value.
func consumeFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func consumeBytesField(b []byte, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("expected bytes field, got wire type %d", typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeVarintField(b []byte, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("expected varint field, got wire type %d", typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func skipField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

// consumeValue reads one tagged value from b and returns it with its total length.
// depth is the number of lists and maps enclosing the value.
func consumeValue(b []byte, depth int) (any, int, error) {
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	rest := b[n:]

	switch num {
	case tagNil, tagBool, tagInt, tagUint:
		v, m, err := consumeVarintField(rest, typ)
		if err != nil {
			return nil, 0, err
		}
		switch num {
		case tagBool:
			return protowire.DecodeBool(v), n + m, nil
		case tagInt:
			return protowire.DecodeZigZag(v), n + m, nil
		case tagUint:
			return v, n + m, nil
		default:
			return nil, n + m, nil
		}
	case tagFloat:
		if typ != protowire.Fixed64Type {
			return nil, 0, fmt.Errorf("expected fixed64 field, got wire type %d", typ)
		}
		v, m := protowire.ConsumeFixed64(rest)
		if m < 0 {
			return nil, 0, protowire.ParseError(m)
		}
		return math.Float64frombits(v), n + m, nil
	case tagString, tagBytes, tagList, tagMap:
		v, m, err := consumeBytesField(rest, typ)
		if err != nil {
			return nil, 0, err
		}
		switch num {
		case tagString:
			return string(v), n + m, nil
		case tagBytes:
			return append([]byte{}, v...), n + m, nil
		case tagList:
			list, err := consumeList(v, depth+1)
			return list, n + m, err
		default:
			mp, err := consumeMap(v, depth+1)
			return mp, n + m, err
		}
	default:
		return nil, 0, fmt.Errorf("unknown value tag %d", num)
	}
}

func consumeList(b []byte, depth int) ([]any, error) {
	if depth > MaxValueDepth {
		return nil, ErrTooDeep
	}
	list := []any{}
	for len(b) > 0 {
		v, n, err := consumeValue(b, depth)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
		b = b[n:]
	}
	return list, nil
}

func consumeMap(b []byte, depth int) (map[string]any, error) {
	if depth > MaxValueDepth {
		return nil, ErrTooDeep
	}
	m := map[string]any{}
	for len(b) > 0 {
		k, n, err := consumeValue(b, depth)
		if err != nil {
			return nil, err
		}
		key, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("map key must be a string, got %T", k)
		}
		b = b[n:]
		if len(b) == 0 {
			return nil, fmt.Errorf("missing value for map key %q", key)
		}

		v, n, err := consumeValue(b, depth)
		if err != nil {
			return nil, err
		}
		m[key] = v
		b = b[n:]
	}
	return m, nil
}
