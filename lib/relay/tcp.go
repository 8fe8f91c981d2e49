package relay

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

var log = logger.New("relay")

var (
	tcpAccepted = metrics.NewCounter(`netlat_relay_accepted_total{proto="tcp"}`)
	tcpBytes    = metrics.NewCounter(`netlat_relay_bytes_total{proto="tcp"}`)
	tcpSessions = metrics.NewCounter(`netlat_relay_active_sessions{proto="tcp"}`)
)

// TCPForwarder relays bytes from local peers into one shared upstream
// connection. All accepted local connections fan in to the same upstream;
// replies are not routed back to a specific local peer, so a forwarding
// session assumes a single active local connection.
type TCPForwarder struct {
	cfg      config.ForwarderConfig
	listener net.Listener
	upstream *Upstream
	conns    *xsync.MapOf[uint64, net.Conn]
	nextID   atomic.Uint64
	closed   atomic.Bool
}

// NewTCPForwarder creates a TCP forwarder for the given configuration
func NewTCPForwarder(cfg config.ForwarderConfig) *TCPForwarder {
	return &TCPForwarder{
		cfg:   cfg,
		conns: xsync.NewMapOf[uint64, net.Conn](),
	}
}

// Listen binds the local address and immediately establishes the single
// upstream connection to the remote peer. Either failure is fatal.
func (f *TCPForwarder) Listen() error {
	listener, err := net.Listen("tcp", f.cfg.LocalAddr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %v", f.cfg.LocalAddr, err)
	}

	remote, err := net.Dial("tcp", f.cfg.RemoteAddr)
	if err != nil {
		listener.Close()
		return fmt.Errorf("failed to connect to %s: %v", f.cfg.RemoteAddr, err)
	}
	if err := config.UpgradeConn(remote, f.cfg.TCP, f.cfg.Socket); err != nil {
		remote.Close()
		listener.Close()
		return fmt.Errorf("failed to tune upstream connection: %v", err)
	}

	f.listener = listener
	f.upstream = NewUpstream(remote)
	log.Infof("tcp forwarder listening on %s, relaying to %s", listener.Addr(), remote.RemoteAddr())
	return nil
}

// Addr returns the bound listen address. Valid after Listen.
func (f *TCPForwarder) Addr() string {
	return f.listener.Addr().String()
}

// Serve accepts local connections until the listener fails or Close is
// called. Every accepted connection relays into the shared upstream from
// its own goroutine.
func (f *TCPForwarder) Serve() error {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			if f.closed.Load() {
				return nil
			}
			return fmt.Errorf("accept error: %v", err)
		}
		tcpAccepted.Inc()

		id := f.nextID.Add(1)
		f.conns.Store(id, conn)
		// re-check after the Store: a connection accepted concurrently
		// with Close must not escape its teardown
		if f.closed.Load() {
			conn.Close()
			f.conns.Delete(id)
			return nil
		}
		go f.handleConn(id, conn)
	}
}

// ListenAndServe binds, connects upstream and serves until failure
func (f *TCPForwarder) ListenAndServe() error {
	if err := f.Listen(); err != nil {
		return err
	}
	return f.Serve()
}

// Close stops the accept loop and tears down the upstream connection plus
// all active local connections
func (f *TCPForwarder) Close() error {
	f.closed.Store(true)
	var err error
	if f.listener != nil {
		err = f.listener.Close()
	}
	if f.upstream != nil {
		f.upstream.Close()
	}
	f.conns.Range(func(id uint64, conn net.Conn) bool {
		conn.Close()
		return true
	})
	return err
}

// handleConn reads from the local peer and writes each read batch into the
// shared upstream, one lock acquisition per batch. The first I/O error in
// either direction ends this handler only.
func (f *TCPForwarder) handleConn(id uint64, conn net.Conn) {
	tcpSessions.Inc()
	defer func() {
		tcpSessions.Dec()
		conn.Close()
		f.conns.Delete(id)
	}()

	if err := config.UpgradeConn(conn, f.cfg.TCP, f.cfg.Socket); err != nil {
		log.Errorf("failed to tune connection from %s: %v", conn.RemoteAddr(), err)
		return
	}

	log.Debugf("relaying connection from %s", conn.RemoteAddr())

	buf := make([]byte, f.cfg.MaxDataSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debugf("connection from %s closed by peer", conn.RemoteAddr())
			} else if !f.closed.Load() {
				log.Errorf("read error on connection from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		if err := f.upstream.Send(buf[:n]); err != nil {
			log.Errorf("upstream write failed for connection from %s: %v", conn.RemoteAddr(), err)
			return
		}
		tcpBytes.Add(n)
	}
}
