package echo

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	"github.com/netlat/netlat/lib/config"
	"github.com/netlat/netlat/lib/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.New("echo")

var (
	tcpAccepted = metrics.NewCounter(`netlat_echo_accepted_total{proto="tcp"}`)
	tcpBytes    = metrics.NewCounter(`netlat_echo_bytes_total{proto="tcp"}`)
	tcpSessions = metrics.NewCounter(`netlat_echo_active_sessions{proto="tcp"}`)
)

// TCPServer echoes every read back to the peer that sent it. Each accepted
// connection is served by its own goroutine with its own buffer.
type TCPServer struct {
	cfg      config.ServerConfig
	listener net.Listener
	conns    *xsync.MapOf[uint64, net.Conn]
	nextID   atomic.Uint64
	closed   atomic.Bool
}

// NewTCPServer creates a TCP echo server for the given configuration
func NewTCPServer(cfg config.ServerConfig) *TCPServer {
	return &TCPServer{
		cfg:   cfg,
		conns: xsync.NewMapOf[uint64, net.Conn](),
	}
}

// Listen binds the configured address. It must be called before Serve.
func (s *TCPServer) Listen() error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %v", s.cfg.Addr, err)
	}
	s.listener = listener
	log.Infof("tcp echo server listening on %s (max data size %d)", listener.Addr(), s.cfg.MaxDataSize)
	return nil
}

// Addr returns the bound listen address. Valid after Listen.
func (s *TCPServer) Addr() string {
	return s.listener.Addr().String()
}

// Serve accepts connections until the listener fails or Close is called.
// Each connection is handled concurrently; a handler's failure terminates
// only that handler.
func (s *TCPServer) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			return fmt.Errorf("accept error: %v", err)
		}
		tcpAccepted.Inc()

		id := s.nextID.Add(1)
		s.conns.Store(id, conn)
		// re-check after the Store: a connection accepted concurrently
		// with Close must not escape its teardown
		if s.closed.Load() {
			conn.Close()
			s.conns.Delete(id)
			return nil
		}
		go s.handleConn(id, conn)
	}
}

// ListenAndServe binds the configured address and serves until failure
func (s *TCPServer) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Close stops the accept loop and tears down all active connections
func (s *TCPServer) Close() error {
	s.closed.Store(true)
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.conns.Range(func(id uint64, conn net.Conn) bool {
		conn.Close()
		return true
	})
	return err
}

// handleConn echoes reads back to the peer until EOF or an I/O error.
// The buffer is allocated once per connection and reused for every read.
func (s *TCPServer) handleConn(id uint64, conn net.Conn) {
	tcpSessions.Inc()
	defer func() {
		tcpSessions.Dec()
		conn.Close()
		s.conns.Delete(id)
	}()

	if err := config.UpgradeConn(conn, s.cfg.TCP, s.cfg.Socket); err != nil {
		log.Errorf("failed to tune connection from %s: %v", conn.RemoteAddr(), err)
		return
	}

	log.Debugf("connection from %s", conn.RemoteAddr())

	buf := make([]byte, s.cfg.MaxDataSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debugf("connection from %s closed by peer", conn.RemoteAddr())
			} else if !s.closed.Load() {
				log.Errorf("read error on connection from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		// write back exactly the received length
		if _, err := conn.Write(buf[:n]); err != nil {
			log.Errorf("write error on connection from %s: %v", conn.RemoteAddr(), err)
			return
		}
		tcpBytes.Add(n)
	}
}
