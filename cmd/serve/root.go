// Package serve contains the echo server subcommands.
package serve

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/netlat/netlat/cmd/util"
	"github.com/netlat/netlat/lib/config"
	"github.com/netlat/netlat/lib/echo"
)

var (
	// TCPServerCmd starts a TCP echo server
	TCPServerCmd = &cobra.Command{
		Use:     "tcp-server",
		Short:   "Start a network latency test TCP echo server",
		PreRunE: util.BindCommandFlags,
		RunE:    runTCPServer,
	}

	// UDPServerCmd starts a UDP echo server
	UDPServerCmd = &cobra.Command{
		Use:     "udp-server",
		Short:   "Start a network latency test UDP echo server",
		PreRunE: util.BindCommandFlags,
		RunE:    runUDPServer,
	}
)

func init() {
	key := "addr"
	TCPServerCmd.Flags().String(key, config.DefaultAddr, util.WrapString("The local socket address to listen on"))
	key = "max-data-size"
	TCPServerCmd.Flags().Int(key, config.DefaultTCPMaxDataSize, util.WrapString("Maximum size of data allowed to receive (bytes)"))
	util.SetupTCPFlags(TCPServerCmd)

	key = "addr"
	UDPServerCmd.Flags().String(key, config.DefaultAddr, util.WrapString("The local socket address to listen on"))
	key = "max-data-size"
	UDPServerCmd.Flags().Int(key, config.DefaultUDPMaxDataSize, util.WrapString("Maximum size of data allowed to receive (bytes)"))
}

// getServerConfig builds the server configuration from the bound flags
func getServerConfig() (config.ServerConfig, error) {
	addr, err := config.ParseEndpoint(viper.GetString("addr"))
	if err != nil {
		return config.ServerConfig{}, err
	}
	maxDataSize := viper.GetInt("max-data-size")
	if maxDataSize <= 0 {
		return config.ServerConfig{}, fmt.Errorf("max-data-size must be positive, got %d", maxDataSize)
	}

	return config.ServerConfig{
		Addr:        addr,
		MaxDataSize: maxDataSize,
		TCP:         util.GetTCPConf(),
		Socket:      util.GetSocketConf(),
	}, nil
}

func runTCPServer(_ *cobra.Command, _ []string) error {
	cfg, err := getServerConfig()
	if err != nil {
		return err
	}
	return echo.NewTCPServer(cfg).ListenAndServe()
}

func runUDPServer(_ *cobra.Command, _ []string) error {
	cfg, err := getServerConfig()
	if err != nil {
		return err
	}
	return echo.NewUDPServer(cfg).ListenAndServe()
}
