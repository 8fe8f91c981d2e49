package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/netlat/netlat/cmd/bench"
	"github.com/netlat/netlat/cmd/forward"
	"github.com/netlat/netlat/cmd/serve"
	"github.com/netlat/netlat/cmd/util"
	"github.com/netlat/netlat/lib/logger"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "netlat",
		Short: "network latency measurement toolkit",
		Long: fmt.Sprintf(`netlat (v%s)

A toolkit for measuring raw TCP/UDP path latency: echo servers,
relays/forwarders and round-trip timing clients, without any
application-layer framing.`, Version),
		PersistentPreRunE: setup,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of netlat",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("netlat v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.TCPServerCmd)
	RootCmd.AddCommand(serve.UDPServerCmd)
	RootCmd.AddCommand(forward.TCPForwarderCmd)
	RootCmd.AddCommand(forward.UDPForwarderCmd)
	RootCmd.AddCommand(bench.TCPClientCmd)
	RootCmd.AddCommand(bench.UDPClientCmd)
	RootCmd.AddCommand(bench.TCPTesterCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("Log level (debug, info, warn, error)"))
	key = "metrics-addr"
	RootCmd.PersistentFlags().String(key, "", util.WrapString("Optional address to expose Prometheus metrics on (e.g. 127.0.0.1:9090)"))
}

// setup applies the global flags before any subcommand runs
func setup(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	if err := logger.SetLevel(viper.GetString("log-level")); err != nil {
		return err
	}
	util.StartMetrics()
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
