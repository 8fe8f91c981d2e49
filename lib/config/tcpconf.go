package config

import (
	"net"
	"time"
)

// UpgradeConn applies performance settings to an established TCP connection.
// Connections that are not TCP (e.g. in-memory pipes used by tests) are
// returned unchanged.
func UpgradeConn(conn net.Conn, tcp TCPConf, sock SocketConf) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	// Disable Nagle's algorithm (TCP_NODELAY) if configured
	if err := tcpConn.SetNoDelay(tcp.NoDelay); err != nil {
		return err
	}

	// Set socket write buffer size if configured
	if sock.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(sock.WriteBufferSize); err != nil {
			return err
		}
	}

	// Set socket read buffer size if configured
	if sock.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(sock.ReadBufferSize); err != nil {
			return err
		}
	}

	// Enable TCP keep-alive if configured
	if tcp.KeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(tcp.KeepAliveSec) * time.Second); err != nil {
			return err
		}
	}

	// Set the TCP linger option if configured
	if tcp.LingerSec >= 0 {
		if err := tcpConn.SetLinger(tcp.LingerSec); err != nil {
			return err
		}
	}

	return nil
}
