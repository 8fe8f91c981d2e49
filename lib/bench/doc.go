// Package bench implements the measuring roles of the latency toolkit: the
// TCP and UDP latency clients and the duplex tester.
//
// All three share the same iteration shape: fill a buffer with fresh random
// bytes, send it, block until the full reply has arrived, verify the reply
// is byte-identical to what was sent, and hand the elapsed time to a
// stats.Recorder. A payload mismatch is a correctness fault in the
// transport under measurement and aborts the run; it is never downgraded
// to a warning.
//
// The duplex tester is the one place in the system with a retry policy: its
// send leg polls the remote endpoint once per second until the dial
// succeeds, because the endpoint under test may not be listening yet.
// Everything else fails fast on the first error.
package bench
