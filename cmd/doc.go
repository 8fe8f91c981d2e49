// Package cmd implements the command-line interface for the netlat
// latency measurement toolkit. It provides one subcommand per role plus
// shared global flags for logging and metrics.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for the TCP and UDP echo servers
//   - forward: Commands for the TCP and UDP relay forwarders
//   - bench: Commands for the latency clients and the duplex tester
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See netlat -help for a list of all commands.
package cmd
