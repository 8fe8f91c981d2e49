package echo

import (
	"fmt"
	"net"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	"github.com/netlat/netlat/lib/config"
)

var (
	udpDatagrams = metrics.NewCounter(`netlat_echo_datagrams_total`)
	udpBytes     = metrics.NewCounter(`netlat_echo_bytes_total{proto="udp"}`)
)

// UDPServer echoes every datagram back to its originating peer. The
// receive/send cycle is inherently serialized: one socket, one loop, one
// reused buffer.
type UDPServer struct {
	cfg    config.ServerConfig
	conn   *net.UDPConn
	closed atomic.Bool
}

// NewUDPServer creates a UDP echo server for the given configuration
func NewUDPServer(cfg config.ServerConfig) *UDPServer {
	return &UDPServer{cfg: cfg}
}

// Listen binds the configured address. It must be called before Serve.
func (s *UDPServer) Listen() error {
	addr, err := net.ResolveUDPAddr("udp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("invalid address %s: %v", s.cfg.Addr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %v", s.cfg.Addr, err)
	}
	s.conn = conn
	log.Infof("udp echo server listening on %s (max data size %d)", conn.LocalAddr(), s.cfg.MaxDataSize)
	return nil
}

// Addr returns the bound socket address. Valid after Listen.
func (s *UDPServer) Addr() string {
	return s.conn.LocalAddr().String()
}

// Serve receives and echoes datagrams until the socket fails or Close is
// called. Any I/O error terminates the whole server loop.
func (s *UDPServer) Serve() error {
	buf := make([]byte, s.cfg.MaxDataSize)
	for {
		n, peer, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			return fmt.Errorf("receive error: %v", err)
		}

		if _, err := s.conn.WriteToUDP(buf[:n], peer); err != nil {
			return fmt.Errorf("send error to %s: %v", peer, err)
		}
		udpDatagrams.Inc()
		udpBytes.Add(n)
	}
}

// ListenAndServe binds the configured address and serves until failure
func (s *UDPServer) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Close stops the server loop by closing the socket
func (s *UDPServer) Close() error {
	s.closed.Store(true)
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
