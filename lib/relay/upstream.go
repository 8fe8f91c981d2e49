package relay

import (
	"net"
	"sync"
)

// Upstream wraps the single outbound connection a TCP forwarder shares
// across all inbound handlers. The only exposed operation writes a full
// buffer under the lock, so writes from different handlers can never
// interleave mid-buffer. Lock acquisition order across handlers is
// first-come-first-served with no fairness guarantee.
type Upstream struct {
	mu   sync.Mutex
	conn net.Conn
}

// NewUpstream wraps an established outbound connection
func NewUpstream(conn net.Conn) *Upstream {
	return &Upstream{conn: conn}
}

// Send writes all of p to the upstream connection as one atomic transaction
func (u *Upstream) Send(p []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, err := u.conn.Write(p)
	return err
}

// RemoteAddr returns the upstream peer address
func (u *Upstream) RemoteAddr() net.Addr {
	return u.conn.RemoteAddr()
}

// Close closes the upstream connection
func (u *Upstream) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.conn.Close()
}
