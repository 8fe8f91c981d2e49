package relay

import (
	"fmt"
	"net"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	"github.com/netlat/netlat/lib/config"
)

var (
	udpDatagrams = metrics.NewCounter(`netlat_relay_datagrams_total`)
	udpBytes     = metrics.NewCounter(`netlat_relay_bytes_total{proto="udp"}`)
)

// UDPForwarder relays every datagram received on the local socket to the
// fixed remote peer. The relay is one-directional: replies are never sent
// back to the datagram's source.
type UDPForwarder struct {
	cfg    config.ForwarderConfig
	conn   *net.UDPConn
	remote *net.UDPAddr
	closed atomic.Bool
}

// NewUDPForwarder creates a UDP forwarder for the given configuration
func NewUDPForwarder(cfg config.ForwarderConfig) *UDPForwarder {
	return &UDPForwarder{cfg: cfg}
}

// Listen binds the local address and resolves the fixed remote peer
func (f *UDPForwarder) Listen() error {
	local, err := net.ResolveUDPAddr("udp", f.cfg.LocalAddr)
	if err != nil {
		return fmt.Errorf("invalid local address %s: %v", f.cfg.LocalAddr, err)
	}
	remote, err := net.ResolveUDPAddr("udp", f.cfg.RemoteAddr)
	if err != nil {
		return fmt.Errorf("invalid remote address %s: %v", f.cfg.RemoteAddr, err)
	}

	conn, err := net.ListenUDP("udp", local)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %v", f.cfg.LocalAddr, err)
	}

	f.conn = conn
	f.remote = remote
	log.Infof("udp forwarder listening on %s, relaying to %s", conn.LocalAddr(), remote)
	return nil
}

// Addr returns the bound socket address. Valid after Listen.
func (f *UDPForwarder) Addr() string {
	return f.conn.LocalAddr().String()
}

// Serve relays datagrams until the socket fails or Close is called. Any
// I/O error terminates the whole forwarder loop.
func (f *UDPForwarder) Serve() error {
	buf := make([]byte, f.cfg.MaxDataSize)
	for {
		// the datagram source is irrelevant: everything goes to the
		// fixed remote peer
		n, _, err := f.conn.ReadFromUDP(buf)
		if err != nil {
			if f.closed.Load() {
				return nil
			}
			return fmt.Errorf("receive error: %v", err)
		}

		if _, err := f.conn.WriteToUDP(buf[:n], f.remote); err != nil {
			return fmt.Errorf("send error to %s: %v", f.remote, err)
		}
		udpDatagrams.Inc()
		udpBytes.Add(n)
	}
}

// ListenAndServe binds the configured addresses and serves until failure
func (f *UDPForwarder) ListenAndServe() error {
	if err := f.Listen(); err != nil {
		return err
	}
	return f.Serve()
}

// Close stops the forwarder loop by closing the socket
func (f *UDPForwarder) Close() error {
	f.closed.Store(true)
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
