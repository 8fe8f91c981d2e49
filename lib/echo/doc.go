// Package echo implements the echo servers of the latency toolkit. An echo
// server writes every unit of received data back to its sender unchanged:
// one TCP read (which may be a short read) is answered with exactly the
// received bytes, one UDP datagram is answered with an identical datagram to
// the originating peer.
//
// The package focuses on:
//   - One goroutine per accepted TCP connection, each owning a single
//     receive buffer allocated once and reused for every read
//   - A strictly serialized UDP receive/send-to cycle on one socket
//   - Fail-fast error handling: a handler ends on the first I/O error,
//     the UDP loop ends the whole server
//
// Handlers share no mutable state; there is no ordering guarantee across
// concurrently accepted connections.
package echo
