// Package serializer encodes the requests and response envelopes exchanged
// between mkv clients and servers. All formats implement IRPCSerializer.
//
// Key Components:
//
//   - jsonSerializerImpl: encoding/json. Byte values are sent as strings, so it
//     is meant for text keys, debugging and integration with other tools.
//
//   - msgpackSerializerImpl: hashicorp/go-msgpack. Keeps the distinction
//     between strings and byte slices and is the default of the cli.
//
//   - binarySerializerImpl: a compact tagged format built on the protobuf wire
//     primitives (google.golang.org/protobuf/encoding/protowire). Every value
//     is one field whose number is its type tag, so no schema is needed to
//     decode the positional arguments of a request.
//
// Decoded argument values keep the Go types the format produces (float64 for
// json numbers, int64/uint64 for msgpack and binary, string or []byte for
// keys). Consumers convert them with the common.As* helpers.
//
// Thread Safety:
//
//	All serializer implementations are stateless after construction and safe
//	for concurrent use across multiple goroutines.
//
// Usage:
//
//	s := serializer.NewBinarySerializer()
//	b, err := s.EncodeRequest(*common.NewGetRequest(uid, []byte("key")))
//	// ... send b, receive frame ...
//	var resp common.Response
//	err = s.DecodeResponse(body, &resp)
package serializer
