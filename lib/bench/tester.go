package bench

import (
	"fmt"
	"net"
	"time"

	"github.com/netlat/netlat/lib/config"
	"github.com/netlat/netlat/lib/payload"
	"github.com/netlat/netlat/lib/stats"
)

// defaultRetryInterval is the poll interval of the tester's send leg
const defaultRetryInterval = time.Second

// Tester measures round-trip latency through an external relay positioned
// between two separate connections: an inbound "receive" leg accepted on
// the local listener and an outbound "send" leg dialed to the remote
// endpoint. Payloads leave on the send leg, traverse the relay under test
// and come back on the receive leg.
type Tester struct {
	cfg           config.TesterConfig
	gen           payload.Generator
	rec           stats.Recorder
	listener      net.Listener
	retryInterval time.Duration
}

// NewTester creates a duplex tester
func NewTester(cfg config.TesterConfig, gen payload.Generator, rec stats.Recorder) *Tester {
	return &Tester{
		cfg:           cfg,
		gen:           gen,
		rec:           rec,
		retryInterval: defaultRetryInterval,
	}
}

// Listen binds the receive leg's local address. It must be called before Run.
func (t *Tester) Listen() error {
	listener, err := net.Listen("tcp", t.cfg.LocalAddr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %v", t.cfg.LocalAddr, err)
	}
	t.listener = listener
	log.Infof("tester listening on %s for the receive leg", listener.Addr())
	return nil
}

// Addr returns the bound listen address. Valid after Listen.
func (t *Tester) Addr() string {
	return t.listener.Addr().String()
}

// Run accepts exactly one inbound connection as the receive leg, dials the
// remote endpoint as the send leg (retrying until it is reachable) and
// performs the configured round trips across the two legs.
func (t *Tester) Run() error {
	defer t.listener.Close()

	recvConn, err := t.listener.Accept()
	if err != nil {
		return fmt.Errorf("accept error: %v", err)
	}
	defer recvConn.Close()
	log.Infof("receive leg established from %s", recvConn.RemoteAddr())

	sendConn := t.retryDial()
	defer sendConn.Close()

	for _, conn := range []net.Conn{recvConn, sendConn} {
		if err := config.UpgradeConn(conn, t.cfg.TCP, t.cfg.Socket); err != nil {
			return fmt.Errorf("failed to tune connection: %v", err)
		}
	}

	return runRoundTrips(sendConn, recvConn, t.gen, t.cfg.DataSize, t.cfg.Repeat, t.rec)
}

// ListenAndRun binds the receive leg and runs the measurement
func (t *Tester) ListenAndRun() error {
	if err := t.Listen(); err != nil {
		return err
	}
	return t.Run()
}

// retryDial polls the remote endpoint until a connection succeeds. The
// endpoint under test may not be listening yet when the tester starts, so
// this is the one deliberate retry loop in the system. Every failed
// attempt is logged.
func (t *Tester) retryDial() net.Conn {
	for {
		conn, err := net.Dial("tcp", t.cfg.RemoteAddr)
		if err == nil {
			log.Infof("connected to %s", t.cfg.RemoteAddr)
			return conn
		}
		log.Infof("trying to connect %s: %v", t.cfg.RemoteAddr, err)
		time.Sleep(t.retryInterval)
	}
}
