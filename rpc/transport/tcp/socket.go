package tcp

import (
	"net"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
)

// upgradeTCP applies socket and TCP options to conn.
// Connections that are not TCP connections are left untouched.
func upgradeTCP(conn net.Conn, sock common.SocketConf, opts common.TCPConf) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	// Disable Nagle's algorithm if configured
	if err := tcpConn.SetNoDelay(opts.TCPNoDelay); err != nil {
		return err
	}

	if sock.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(sock.WriteBufferSize); err != nil {
			return err
		}
	}
	if sock.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(sock.ReadBufferSize); err != nil {
			return err
		}
	}

	if opts.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(opts.TCPKeepAliveSec) * time.Second); err != nil {
			return err
		}
	}

	// negative keeps the OS default
	if opts.TCPLingerSec >= 0 {
		if err := tcpConn.SetLinger(opts.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}
