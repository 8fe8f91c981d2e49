// Package relay implements the forwarders of the latency toolkit. A
// forwarder binds a local address and relays all inbound bytes to one fixed
// remote peer without modifying them.
//
// The package focuses on:
//   - TCP: one upstream connection established at startup and shared by all
//     accepted local connections; handlers fan in to it through a
//     mutex-guarded write-full operation so no two writes interleave
//   - UDP: a stateless local-to-remote datagram relay on a single socket
//   - Fail-fast error handling: bind and dial failures abort startup,
//     mid-loop I/O errors end the affected handler or the whole UDP loop
//
// Two deliberate narrow-use properties are preserved from the design, not
// fixed: the TCP forwarder does not route upstream replies back to a
// specific local connection (it assumes a single active local session), and
// the UDP forwarder never sends replies back to a datagram's source.
package relay
