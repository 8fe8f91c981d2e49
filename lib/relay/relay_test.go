package relay

import (
	"bytes"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/netlat/netlat/lib/config"
	"github.com/netlat/netlat/lib/payload"
)

// startTCPForwarder starts a forwarder relaying to remoteAddr
func startTCPForwarder(t *testing.T, remoteAddr string) *TCPForwarder {
	t.Helper()

	fwd := NewTCPForwarder(config.ForwarderConfig{
		LocalAddr:   "127.0.0.1:0",
		RemoteAddr:  remoteAddr,
		MaxDataSize: 64 * 1024,
		TCP:         config.DefaultTCPConf(),
	})
	if err := fwd.Listen(); err != nil {
		t.Fatalf("failed to start tcp forwarder: %v", err)
	}
	go fwd.Serve()
	t.Cleanup(func() { fwd.Close() })
	return fwd
}

// TestTCPForwarderRelayCorrectness tests that bytes sent into the local
// listener appear verbatim and in order on the remote side, with one
// active local session
func TestTCPForwarderRelayCorrectness(t *testing.T) {
	remote, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to bind remote listener: %v", err)
	}
	defer remote.Close()

	upstreamCh := make(chan net.Conn, 1)
	go func() {
		conn, err := remote.Accept()
		if err == nil {
			upstreamCh <- conn
		}
	}()

	fwd := startTCPForwarder(t, remote.Addr().String())

	upstream := <-upstreamCh
	defer upstream.Close()

	local, err := net.Dial("tcp", fwd.Addr())
	if err != nil {
		t.Fatalf("failed to dial forwarder: %v", err)
	}
	defer local.Close()

	gen := payload.NewSeeded(3)
	var sent bytes.Buffer
	for i := 0; i < 10; i++ {
		chunk := make([]byte, 2048)
		gen.Fill(chunk)
		sent.Write(chunk)
		if _, err := local.Write(chunk); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	recv := make([]byte, sent.Len())
	upstream.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := io.ReadFull(upstream, recv); err != nil {
		t.Fatalf("failed to read relayed bytes: %v", err)
	}
	if !bytes.Equal(sent.Bytes(), recv) {
		t.Error("relayed bytes differ from sent bytes")
	}
}

// TestTCPForwarderFanIn tests that concurrent local sessions fan in to one
// upstream connection without losing bytes. Ordering across sessions is
// not asserted, only per-session byte totals.
func TestTCPForwarderFanIn(t *testing.T) {
	remote, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to bind remote listener: %v", err)
	}
	defer remote.Close()

	upstreamCh := make(chan net.Conn, 1)
	go func() {
		conn, err := remote.Accept()
		if err == nil {
			upstreamCh <- conn
		}
	}()

	fwd := startTCPForwarder(t, remote.Addr().String())

	upstream := <-upstreamCh
	defer upstream.Close()

	const clients = 3
	const messages = 50
	const messageSize = 1000

	var wg sync.WaitGroup
	for c := 0; c < clients; c++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			conn, err := net.Dial("tcp", fwd.Addr())
			if err != nil {
				t.Errorf("client %d: dial failed: %v", id, err)
				return
			}
			defer conn.Close()

			// every byte this client sends carries its id
			msg := bytes.Repeat([]byte{byte(id + 1)}, messageSize)
			for m := 0; m < messages; m++ {
				if _, err := conn.Write(msg); err != nil {
					t.Errorf("client %d: write %d failed: %v", id, m, err)
					return
				}
			}
		}(c)
	}

	total := clients * messages * messageSize
	recv := make([]byte, total)
	upstream.SetReadDeadline(time.Now().Add(10 * time.Second))
	if _, err := io.ReadFull(upstream, recv); err != nil {
		t.Fatalf("failed to read %d relayed bytes: %v", total, err)
	}
	wg.Wait()

	counts := make(map[byte]int)
	for _, b := range recv {
		counts[b]++
	}
	for c := 0; c < clients; c++ {
		if got := counts[byte(c+1)]; got != messages*messageSize {
			t.Errorf("client %d: upstream received %d of its bytes, want %d", c, got, messages*messageSize)
		}
	}
}

// TestTCPForwarderCloseTearsDownSessions tests that Close terminates every
// live local session, including ones accepted close to the Close call
func TestTCPForwarderCloseTearsDownSessions(t *testing.T) {
	remote, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to bind remote listener: %v", err)
	}
	defer remote.Close()

	upstreamCh := make(chan net.Conn, 1)
	go func() {
		conn, err := remote.Accept()
		if err == nil {
			upstreamCh <- conn
		}
	}()

	fwd := startTCPForwarder(t, remote.Addr().String())

	upstream := <-upstreamCh
	defer upstream.Close()

	const clients = 3
	conns := make([]net.Conn, 0, clients)
	for c := 0; c < clients; c++ {
		conn, err := net.Dial("tcp", fwd.Addr())
		if err != nil {
			t.Fatalf("client %d: dial failed: %v", c, err)
		}
		defer conn.Close()
		conns = append(conns, conn)

		// one relayed byte so the session is established forwarder-side
		if _, err := conn.Write([]byte{byte(c)}); err != nil {
			t.Fatalf("client %d: write failed: %v", c, err)
		}
		one := make([]byte, 1)
		upstream.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, err := io.ReadFull(upstream, one); err != nil {
			t.Fatalf("client %d: relayed byte never arrived: %v", c, err)
		}
	}

	if err := fwd.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for c, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, err := conn.Read(make([]byte, 1)); err == nil {
			t.Errorf("client %d: session survived Close", c)
		} else if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			t.Errorf("client %d: session was not torn down within the deadline", c)
		}
	}
}

// TestTCPForwarderDialFailureIsFatal tests that an unreachable remote
// aborts startup
func TestTCPForwarderDialFailureIsFatal(t *testing.T) {
	// grab a port that is certainly not listening
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to bind probe listener: %v", err)
	}
	deadAddr := probe.Addr().String()
	probe.Close()

	fwd := NewTCPForwarder(config.ForwarderConfig{
		LocalAddr:   "127.0.0.1:0",
		RemoteAddr:  deadAddr,
		MaxDataSize: 1024,
	})
	if err := fwd.Listen(); err == nil {
		fwd.Close()
		t.Fatal("Listen should fail when the remote peer is unreachable")
	}
}

// TestUDPForwarderRelaysToRemote tests the local-to-remote datagram relay
func TestUDPForwarderRelaysToRemote(t *testing.T) {
	remoteAddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to resolve remote address: %v", err)
	}
	remote, err := net.ListenUDP("udp", remoteAddr)
	if err != nil {
		t.Fatalf("failed to bind remote socket: %v", err)
	}
	defer remote.Close()

	fwd := NewUDPForwarder(config.ForwarderConfig{
		LocalAddr:   "127.0.0.1:0",
		RemoteAddr:  remote.LocalAddr().String(),
		MaxDataSize: 64 * 1024,
	})
	if err := fwd.Listen(); err != nil {
		t.Fatalf("failed to start udp forwarder: %v", err)
	}
	go fwd.Serve()
	t.Cleanup(func() { fwd.Close() })

	fwdAddr, err := net.ResolveUDPAddr("udp", fwd.Addr())
	if err != nil {
		t.Fatalf("failed to resolve forwarder address: %v", err)
	}
	sender, err := net.DialUDP("udp", nil, fwdAddr)
	if err != nil {
		t.Fatalf("failed to dial forwarder: %v", err)
	}
	defer sender.Close()

	gen := payload.NewSeeded(5)
	sent := make([]byte, 512)
	recv := make([]byte, 1024)

	for i := 0; i < 5; i++ {
		gen.Fill(sent)
		if _, err := sender.Write(sent); err != nil {
			t.Fatalf("iteration %d: send failed: %v", i, err)
		}

		remote.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := remote.ReadFromUDP(recv)
		if err != nil {
			t.Fatalf("iteration %d: remote receive failed: %v", i, err)
		}
		if !bytes.Equal(sent, recv[:n]) {
			t.Fatalf("iteration %d: relayed datagram differs from sent datagram", i)
		}
	}
}

// TestUDPForwarderDoesNotReplyToSource tests the one-directional relay
// shape: the datagram source never receives anything back
func TestUDPForwarderDoesNotReplyToSource(t *testing.T) {
	remoteAddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to resolve remote address: %v", err)
	}
	remote, err := net.ListenUDP("udp", remoteAddr)
	if err != nil {
		t.Fatalf("failed to bind remote socket: %v", err)
	}
	defer remote.Close()

	fwd := NewUDPForwarder(config.ForwarderConfig{
		LocalAddr:   "127.0.0.1:0",
		RemoteAddr:  remote.LocalAddr().String(),
		MaxDataSize: 64 * 1024,
	})
	if err := fwd.Listen(); err != nil {
		t.Fatalf("failed to start udp forwarder: %v", err)
	}
	go fwd.Serve()
	t.Cleanup(func() { fwd.Close() })

	fwdAddr, err := net.ResolveUDPAddr("udp", fwd.Addr())
	if err != nil {
		t.Fatalf("failed to resolve forwarder address: %v", err)
	}
	sender, err := net.DialUDP("udp", nil, fwdAddr)
	if err != nil {
		t.Fatalf("failed to dial forwarder: %v", err)
	}
	defer sender.Close()

	if _, err := sender.Write([]byte("ping")); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// drain the relayed datagram so it reached the remote peer
	buf := make([]byte, 64)
	remote.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := remote.ReadFromUDP(buf); err != nil {
		t.Fatalf("remote receive failed: %v", err)
	}

	// the source must stay silent
	sender.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if n, err := sender.Read(buf); err == nil {
		t.Errorf("source unexpectedly received %d bytes back from the forwarder", n)
	}
}

// TestUpstreamSend tests the guarded write-full operation
func TestUpstreamSend(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	up := NewUpstream(a)

	payloadBytes := []byte("shared upstream")
	done := make(chan error, 1)
	go func() {
		done <- up.Send(payloadBytes)
	}()

	recv := make([]byte, len(payloadBytes))
	if _, err := io.ReadFull(b, recv); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !bytes.Equal(payloadBytes, recv) {
		t.Error("received bytes differ from sent bytes")
	}
}
