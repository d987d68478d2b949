package common

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Response frames start with one flag byte describing the body encoding
const (
	frameRaw  byte = 0
	frameZstd byte = 1
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// PackResponse prefixes a serialized response with its flag byte and
// compresses it with zstd if compress is set
func PackResponse(body []byte, compress bool) []byte {
	if !compress {
		frame := make([]byte, 0, len(body)+1)
		frame = append(frame, frameRaw)
		return append(frame, body...)
	}
	return zstdEncoder.EncodeAll(body, []byte{frameZstd})
}

// UnpackResponse reverses PackResponse.
// It returns the serialized response and whether it was compressed.
func UnpackResponse(frame []byte) ([]byte, bool, error) {
	if len(frame) == 0 {
		return nil, false, fmt.Errorf("empty response frame")
	}

	switch frame[0] {
	case frameRaw:
		return frame[1:], false, nil
	case frameZstd:
		body, err := zstdDecoder.DecodeAll(frame[1:], nil)
		if err != nil {
			return nil, true, fmt.Errorf("failed to decompress response: %v", err)
		}
		return body, true, nil
	default:
		return nil, false, fmt.Errorf("unknown response frame flag %d", frame[0])
	}
}
