package bench

import (
	"bytes"
	"fmt"
	"net"
	"time"

	"github.com/netlat/netlat/lib/config"
	"github.com/netlat/netlat/lib/payload"
	"github.com/netlat/netlat/lib/stats"
)

// UDPClient measures round-trip latency over a bound datagram socket
// connected to one echoing peer. Each iteration is one datagram out, one
// datagram back; the reply must carry the full payload in a single
// datagram.
type UDPClient struct {
	cfg config.ClientConfig
	gen payload.Generator
	rec stats.Recorder
}

// NewUDPClient creates a UDP latency client
func NewUDPClient(cfg config.ClientConfig, gen payload.Generator, rec stats.Recorder) *UDPClient {
	return &UDPClient{cfg: cfg, gen: gen, rec: rec}
}

// Run binds the local address, connects the socket to the remote peer and
// performs the configured number of round trips. Payload sizes above the
// path MTU are unsupported: the resulting send error is fatal.
func (c *UDPClient) Run() error {
	laddr, err := net.ResolveUDPAddr("udp", c.cfg.LocalAddr)
	if err != nil {
		return fmt.Errorf("invalid local address %s: %v", c.cfg.LocalAddr, err)
	}
	raddr, err := net.ResolveUDPAddr("udp", c.cfg.Addr)
	if err != nil {
		return fmt.Errorf("invalid remote address %s: %v", c.cfg.Addr, err)
	}

	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %v", c.cfg.LocalAddr, err)
	}
	defer conn.Close()

	log.Infof("bound %s, sending %d bytes %d times to %s", conn.LocalAddr(), c.cfg.DataSize, c.cfg.Repeat, raddr)

	data := make([]byte, c.cfg.DataSize)
	recv := make([]byte, c.cfg.DataSize)

	for i := 0; i < c.cfg.Repeat; i++ {
		c.gen.Fill(data)

		start := time.Now()
		if _, err := conn.Write(data); err != nil {
			return fmt.Errorf("iteration %d: send failed: %v", i, err)
		}
		n, err := conn.Read(recv)
		if err != nil {
			return fmt.Errorf("iteration %d: receive failed: %v", i, err)
		}
		elapsed := time.Since(start)

		if n != c.cfg.DataSize || !bytes.Equal(data, recv[:n]) {
			return fmt.Errorf("iteration %d: reply differs from sent payload", i)
		}

		c.rec.Record(elapsed)
	}

	return nil
}
