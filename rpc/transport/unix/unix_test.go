package unix

import (
	"bytes"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
)

// startServer starts an echo server on a socket in a temp dir and waits until it accepts connections
func startServer(t *testing.T) (transport.IRPCServerTransport, string) {
	socket := filepath.Join(t.TempDir(), "mkv.sock")

	server := NewUnixServerTransport()
	server.RegisterHandler(func(req []byte) []byte {
		return append([]byte("echo:"), req...)
	})

	var config common.ServerConfig
	config.TimeoutSecond = 5
	config.Transport.Endpoint = socket
	config.Transport.WorkersPerConn = 4

	done := make(chan error, 1)
	go func() {
		done <- server.Listen(config)
	}()
	t.Cleanup(func() {
		server.Close()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Listen returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("Listen did not return after Close")
		}
	})

	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err := net.Dial("unix", socket)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	return server, socket
}

func TestSendReceive(t *testing.T) {
	_, socket := startServer(t)

	client := NewUnixClientTransport()
	var config common.ClientConfig
	config.TimeoutSecond = 5
	config.Transport.Endpoints = []string{socket}
	config.Transport.ConnectionsPerEndpoint = 2
	config.Transport.RetryCount = 2

	if err := client.Connect(config); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	t.Run("Single", func(t *testing.T) {
		resp, err := client.Send([]byte("ping"))
		if err != nil {
			t.Fatalf("Send failed: %v", err)
		}
		if string(resp) != "echo:ping" {
			t.Errorf("unexpected response %q", resp)
		}
	})

	t.Run("Concurrent", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				req := []byte(fmt.Sprintf("req-%d", i))
				resp, err := client.Send(req)
				if err != nil {
					t.Errorf("Send %d failed: %v", i, err)
					return
				}
				if !bytes.Equal(resp, append([]byte("echo:"), req...)) {
					t.Errorf("response mismatch for %d: %q", i, resp)
				}
			}(i)
		}
		wg.Wait()
	})
}

func TestConnectNoServer(t *testing.T) {
	client := NewUnixClientTransport()
	var config common.ClientConfig
	config.Transport.Endpoints = []string{filepath.Join(t.TempDir(), "missing.sock")}

	if err := client.Connect(config); err == nil {
		client.Close()
		t.Errorf("expected connect to fail without a server")
	}
	if err := client.Connect(common.ClientConfig{}); err == nil {
		t.Errorf("expected connect to fail without endpoints")
	}
}
