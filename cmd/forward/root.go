// Package forward contains the relay forwarder subcommands.
package forward

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/netlat/netlat/cmd/util"
	"github.com/netlat/netlat/lib/config"
	"github.com/netlat/netlat/lib/relay"
)

var (
	// TCPForwarderCmd starts a TCP relay forwarder
	TCPForwarderCmd = &cobra.Command{
		Use:     "tcp-forwarder",
		Short:   "Start a network latency test TCP forwarder",
		Long:    "Relay all bytes received on the local listener into one shared connection to the remote peer. Replies are not routed back to local peers; a forwarding session assumes a single active local connection.",
		PreRunE: util.BindCommandFlags,
		RunE:    runTCPForwarder,
	}

	// UDPForwarderCmd starts a UDP relay forwarder
	UDPForwarderCmd = &cobra.Command{
		Use:     "udp-forwarder",
		Short:   "Start a network latency test UDP forwarder",
		Long:    "Relay every datagram received on the local socket to the fixed remote peer. The relay is one-directional: datagram sources never receive replies.",
		PreRunE: util.BindCommandFlags,
		RunE:    runUDPForwarder,
	}
)

func init() {
	key := "local-addr"
	TCPForwarderCmd.Flags().String(key, config.DefaultAddr, util.WrapString("The local socket address to listen on"))
	key = "remote-addr"
	TCPForwarderCmd.Flags().String(key, "", util.WrapString("The remote socket address to connect to"))
	key = "max-data-size"
	TCPForwarderCmd.Flags().Int(key, config.DefaultTCPMaxDataSize, util.WrapString("Maximum size of data allowed to receive (bytes)"))
	TCPForwarderCmd.MarkFlagRequired("remote-addr")
	util.SetupTCPFlags(TCPForwarderCmd)

	key = "local-addr"
	UDPForwarderCmd.Flags().String(key, config.DefaultAddr, util.WrapString("The local socket address to listen on"))
	key = "remote-addr"
	UDPForwarderCmd.Flags().String(key, "", util.WrapString("The remote socket address to forward to"))
	key = "max-data-size"
	UDPForwarderCmd.Flags().Int(key, config.DefaultUDPMaxDataSize, util.WrapString("Maximum size of data allowed to receive (bytes)"))
	UDPForwarderCmd.MarkFlagRequired("remote-addr")
}

// getForwarderConfig builds the forwarder configuration from the bound flags
func getForwarderConfig() (config.ForwarderConfig, error) {
	local, err := config.ParseEndpoint(viper.GetString("local-addr"))
	if err != nil {
		return config.ForwarderConfig{}, err
	}
	remote, err := config.ParseEndpoint(viper.GetString("remote-addr"))
	if err != nil {
		return config.ForwarderConfig{}, err
	}
	maxDataSize := viper.GetInt("max-data-size")
	if maxDataSize <= 0 {
		return config.ForwarderConfig{}, fmt.Errorf("max-data-size must be positive, got %d", maxDataSize)
	}

	return config.ForwarderConfig{
		LocalAddr:   local,
		RemoteAddr:  remote,
		MaxDataSize: maxDataSize,
		TCP:         util.GetTCPConf(),
		Socket:      util.GetSocketConf(),
	}, nil
}

func runTCPForwarder(_ *cobra.Command, _ []string) error {
	cfg, err := getForwarderConfig()
	if err != nil {
		return err
	}
	return relay.NewTCPForwarder(cfg).ListenAndServe()
}

func runUDPForwarder(_ *cobra.Command, _ []string) error {
	cfg, err := getForwarderConfig()
	if err != nil {
		return err
	}
	return relay.NewUDPForwarder(cfg).ListenAndServe()
}
