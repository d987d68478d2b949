package serializer

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// checkDepth walks a decoded value and fails if lists or maps nest deeper than MaxValueDepth.
// Only used on values whose decoder already bounds the nesting.
func checkDepth(v any, depth int) error {
	switch t := v.(type) {
	case []any:
		if depth >= MaxValueDepth {
			return ErrTooDeep
		}
		for _, e := range t {
			if err := checkDepth(e, depth+1); err != nil {
				return err
			}
		}
	case map[string]any:
		if depth >= MaxValueDepth {
			return ErrTooDeep
		}
		for _, e := range t {
			if err := checkDepth(e, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkMsgpackDepth scans raw msgpack without recursing and fails if arrays
// or maps nest deeper than limit. The codec decodes containers recursively
// with no bound, so this runs before it.
func checkMsgpackDepth(b []byte, limit int) error {
	// remaining element count of every open container
	var open []uint64

	for i := 0; i < len(b); {
		c := b[i]
		i++

		var skip, children uint64
		container := false

		switch {
		case c <= 0x7f || c >= 0xe0: // fixint
		case c <= 0x8f: // fixmap
			children, container = uint64(c&0x0f)*2, true
		case c <= 0x9f: // fixarray
			children, container = uint64(c&0x0f), true
		case c <= 0xbf: // fixstr
			skip = uint64(c & 0x1f)
		default:
			var (
				lenBytes int
				extra    uint64
			)
			switch c {
			case 0xc0, 0xc2, 0xc3:
			case 0xcc, 0xd0:
				skip = 1
			case 0xcd, 0xd1, 0xd4:
				skip = 2
			case 0xd5:
				skip = 3
			case 0xca, 0xce, 0xd2:
				skip = 4
			case 0xd6:
				skip = 5
			case 0xcb, 0xcf, 0xd3:
				skip = 8
			case 0xd7:
				skip = 9
			case 0xd8:
				skip = 17
			case 0xc4, 0xd9:
				lenBytes = 1
			case 0xc5, 0xda:
				lenBytes = 2
			case 0xc6, 0xdb:
				lenBytes = 4
			case 0xc7:
				lenBytes, extra = 1, 1
			case 0xc8:
				lenBytes, extra = 2, 1
			case 0xc9:
				lenBytes, extra = 4, 1
			case 0xdc:
				lenBytes, container = 2, true
			case 0xdd:
				lenBytes, container = 4, true
			case 0xde, 0xdf:
				lenBytes, container = 2, true
				if c == 0xdf {
					lenBytes = 4
				}
			default:
				return errors.Newf("invalid msgpack code 0x%x", c)
			}

			if lenBytes > 0 {
				if len(b)-i < lenBytes {
					return errors.New("truncated msgpack length")
				}
				var n uint64
				switch lenBytes {
				case 1:
					n = uint64(b[i])
				case 2:
					n = uint64(binary.BigEndian.Uint16(b[i:]))
				case 4:
					n = uint64(binary.BigEndian.Uint32(b[i:]))
				}
				i += lenBytes

				switch {
				case c == 0xde || c == 0xdf:
					children = n * 2
				case container:
					children = n
				default:
					skip = n + extra
				}
			}
		}

		if skip > uint64(len(b)-i) {
			return errors.New("truncated msgpack value")
		}
		i += int(skip)

		if len(open) > 0 {
			open[len(open)-1]--
		}
		if container && children > 0 {
			open = append(open, children)
			if len(open) > limit {
				return ErrTooDeep
			}
		}
		for len(open) > 0 && open[len(open)-1] == 0 {
			open = open[:len(open)-1]
		}
	}
	return nil
}
