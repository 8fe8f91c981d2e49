package bench

import (
	"fmt"
	"net"

	"github.com/netlat/netlat/lib/config"
	"github.com/netlat/netlat/lib/payload"
	"github.com/netlat/netlat/lib/stats"
)

// TCPClient measures round-trip latency over a single TCP connection to an
// echoing peer.
type TCPClient struct {
	cfg config.ClientConfig
	gen payload.Generator
	rec stats.Recorder
}

// NewTCPClient creates a TCP latency client. The payload generator and the
// sample recorder are explicit collaborators so runs can be made
// deterministic and samples can be routed anywhere.
func NewTCPClient(cfg config.ClientConfig, gen payload.Generator, rec stats.Recorder) *TCPClient {
	return &TCPClient{cfg: cfg, gen: gen, rec: rec}
}

// Run connects to the target, performs the configured number of round
// trips and shuts the connection down. The first I/O error or payload
// mismatch terminates the whole run.
func (c *TCPClient) Run() error {
	conn, err := net.Dial("tcp", c.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %v", c.cfg.Addr, err)
	}
	defer conn.Close()

	if err := config.UpgradeConn(conn, c.cfg.TCP, c.cfg.Socket); err != nil {
		return fmt.Errorf("failed to tune connection: %v", err)
	}

	log.Infof("connected to %s, sending %d bytes %d times", c.cfg.Addr, c.cfg.DataSize, c.cfg.Repeat)

	if err := runRoundTrips(conn, conn, c.gen, c.cfg.DataSize, c.cfg.Repeat, c.rec); err != nil {
		return err
	}

	// orderly shutdown: signal EOF to the peer before closing
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.CloseWrite(); err != nil {
			return fmt.Errorf("shutdown failed: %v", err)
		}
	}
	return nil
}
