package config

import (
	"fmt"
	"net/netip"
	"strings"
)

// --------------------------------------------------------------------------
// Defaults (shared between the CLI and tests)
// --------------------------------------------------------------------------

const (
	// DefaultAddr is the default listen address for servers, forwarders
	// and the tester's receive leg
	DefaultAddr = "127.0.0.1:8888"

	// DefaultUDPClientAddr is the default bind address for the udp client
	DefaultUDPClientAddr = "127.0.0.1:9999"

	// DefaultTCPMaxDataSize is the maximum receive size for TCP servers
	// and forwarders (1 MiB)
	DefaultTCPMaxDataSize = 1 << 20

	// DefaultUDPMaxDataSize is the maximum receive size for UDP servers
	// and forwarders (64 KiB, the datagram size ceiling)
	DefaultUDPMaxDataSize = 64 * 1024

	// DefaultDataSize is the payload size clients send per round trip
	DefaultDataSize = 1024

	// DefaultRepeat is the number of round trips clients perform
	DefaultRepeat = 1000
)

// --------------------------------------------------------------------------
// Endpoint
// --------------------------------------------------------------------------

// ParseEndpoint validates an "ip:port" endpoint string. Endpoints are parsed
// once at startup and used unchanged for the lifetime of the role.
func ParseEndpoint(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("endpoint must not be empty")
	}
	if _, err := netip.ParseAddrPort(s); err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %v", s, err)
	}
	return s, nil
}

// --------------------------------------------------------------------------
// Socket tuning
// --------------------------------------------------------------------------

// SocketConf holds kernel socket buffer settings shared by all transports
type SocketConf struct {
	// ReadBufferSize is the socket read buffer size in bytes (0 = kernel default)
	ReadBufferSize int
	// WriteBufferSize is the socket write buffer size in bytes (0 = kernel default)
	WriteBufferSize int
}

// TCPConf holds TCP-specific connection settings
type TCPConf struct {
	// NoDelay disables Nagle's algorithm when true
	NoDelay bool
	// KeepAliveSec enables TCP keep-alive with the given period (0 = disabled)
	KeepAliveSec int
	// LingerSec sets the TCP linger time (-1 = system default)
	LingerSec int
}

// DefaultTCPConf returns the TCP settings used when no flags override them.
// NoDelay is on: a latency measurement tool must not have Nagle batching
// between the send call and the wire.
func DefaultTCPConf() TCPConf {
	return TCPConf{NoDelay: true, KeepAliveSec: 0, LingerSec: -1}
}

// --------------------------------------------------------------------------
// Role configurations
// --------------------------------------------------------------------------

// ServerConfig configures an echo server (TCP or UDP)
type ServerConfig struct {
	// Addr is the local socket address to listen on
	Addr string
	// MaxDataSize is the per-connection (TCP) or per-datagram (UDP)
	// receive buffer size in bytes
	MaxDataSize int

	TCP    TCPConf
	Socket SocketConf
}

// ForwarderConfig configures a relay forwarder (TCP or UDP)
type ForwarderConfig struct {
	// LocalAddr is the local socket address to listen on
	LocalAddr string
	// RemoteAddr is the fixed outbound peer all traffic is relayed to
	RemoteAddr string
	// MaxDataSize is the relay buffer size in bytes
	MaxDataSize int

	TCP    TCPConf
	Socket SocketConf
}

// ClientConfig configures a latency client (TCP or UDP)
type ClientConfig struct {
	// Addr is the remote address to connect to (TCP) or the remote peer
	// the bound socket is connected to (UDP)
	Addr string
	// LocalAddr is the local bind address (UDP only)
	LocalAddr string
	// DataSize is the exact payload size per round trip
	DataSize int
	// Repeat is the number of round trips to perform
	Repeat int

	TCP    TCPConf
	Socket SocketConf
}

// TesterConfig configures the duplex tester
type TesterConfig struct {
	// LocalAddr is the listen address for the receive leg
	LocalAddr string
	// RemoteAddr is the dial target for the send leg
	RemoteAddr string
	// DataSize is the exact payload size per round trip
	DataSize int
	// Repeat is the number of round trips to perform
	Repeat int

	TCP    TCPConf
	Socket SocketConf
}

// --------------------------------------------------------------------------
// Pretty printing
// --------------------------------------------------------------------------

// String returns a formatted representation of the server configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder
	addSection(&sb, "Echo Server")
	addField(&sb, "Listen Address", c.Addr)
	addField(&sb, "Max Data Size", fmt.Sprintf("%d bytes", c.MaxDataSize))
	return sb.String()
}

// String returns a formatted representation of the forwarder configuration
func (c *ForwarderConfig) String() string {
	var sb strings.Builder
	addSection(&sb, "Forwarder")
	addField(&sb, "Listen Address", c.LocalAddr)
	addField(&sb, "Remote Address", c.RemoteAddr)
	addField(&sb, "Max Data Size", fmt.Sprintf("%d bytes", c.MaxDataSize))
	return sb.String()
}

// String returns a formatted representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder
	addSection(&sb, "Latency Client")
	if c.LocalAddr != "" {
		addField(&sb, "Local Address", c.LocalAddr)
	}
	addField(&sb, "Remote Address", c.Addr)
	addField(&sb, "Data Size", fmt.Sprintf("%d bytes", c.DataSize))
	addField(&sb, "Repeat", fmt.Sprintf("%d", c.Repeat))
	return sb.String()
}

// String returns a formatted representation of the tester configuration
func (c *TesterConfig) String() string {
	var sb strings.Builder
	addSection(&sb, "Duplex Tester")
	addField(&sb, "Listen Address", c.LocalAddr)
	addField(&sb, "Remote Address", c.RemoteAddr)
	addField(&sb, "Data Size", fmt.Sprintf("%d bytes", c.DataSize))
	addField(&sb, "Repeat", fmt.Sprintf("%d", c.Repeat))
	return sb.String()
}

// Helper functions for consistent formatting
func addSection(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
}

func addField(sb *strings.Builder, name, value string) {
	sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
}
