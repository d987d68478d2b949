package base

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"

	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/cockroachdb/errors"
)

func TestFrameRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		id   uint64
		data []byte
		buf  []byte
	}{
		{name: "Empty", id: 1, data: []byte{}},
		{name: "NoBuffer", id: 2, data: []byte("hello")},
		{name: "PooledBuffer", id: 3, data: []byte("hello"), buf: make([]byte, 64)},
		{name: "BufferTooSmall", id: 1 << 40, data: bytes.Repeat([]byte("x"), 1024), buf: make([]byte, 16)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			errCh := make(chan error, 1)
			go func() {
				errCh <- writeFrame(client, tc.id, tc.data)
			}()

			id, data, err := readFrame(server, tc.buf)
			if err != nil {
				t.Fatalf("readFrame failed: %v", err)
			}
			if err := <-errCh; err != nil {
				t.Fatalf("writeFrame failed: %v", err)
			}

			if id != tc.id {
				t.Errorf("expected request id %d, got %d", tc.id, id)
			}
			if !bytes.Equal(data, tc.data) {
				t.Errorf("payload mismatch: expected %d bytes, got %d", len(tc.data), len(data))
			}
		})
	}
}

func TestReadFrameClosed(t *testing.T) {
	client, server := net.Pipe()
	client.Close()
	defer server.Close()

	if _, _, err := readFrame(server, nil); err == nil {
		t.Errorf("expected error on closed connection")
	}
}

func TestReadFrameTooLarge(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	// only the header is sent, the oversized length must be rejected before the payload is read
	header := make([]byte, headerSize)
	binary.BigEndian.PutUint64(header[:8], 7)
	binary.BigEndian.PutUint32(header[8:12], transport.MaxMessageSize+1)
	go func() {
		_, _ = client.Write(header)
	}()

	if _, _, err := readFrame(server, nil); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}
