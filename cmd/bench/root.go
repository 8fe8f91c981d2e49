// Package bench contains the measuring subcommands: the latency clients
// and the duplex tester.
package bench

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/netlat/netlat/cmd/util"
	libbench "github.com/netlat/netlat/lib/bench"
	"github.com/netlat/netlat/lib/config"
	"github.com/netlat/netlat/lib/payload"
	"github.com/netlat/netlat/lib/stats"
)

var (
	// TCPClientCmd runs timed round trips against a TCP echo server
	TCPClientCmd = &cobra.Command{
		Use:     "tcp-client",
		Short:   "Run timed round trips against a TCP echo server",
		PreRunE: util.BindCommandFlags,
		RunE:    runTCPClient,
	}

	// UDPClientCmd runs timed round trips against a UDP echo peer
	UDPClientCmd = &cobra.Command{
		Use:     "udp-client",
		Short:   "Run timed round trips against a UDP echo peer",
		PreRunE: util.BindCommandFlags,
		RunE:    runUDPClient,
	}

	// TCPTesterCmd measures latency through an external relay using two
	// separate connections
	TCPTesterCmd = &cobra.Command{
		Use:     "tcp-tester",
		Short:   "Measure latency through a relay using separate send and receive connections",
		Long:    "Accept one inbound connection as the receive leg, dial the remote endpoint as the send leg (polling every second until it is reachable), then run timed round trips: payloads leave on the send leg, pass through the relay under test and return on the receive leg.",
		PreRunE: util.BindCommandFlags,
		RunE:    runTCPTester,
	}
)

func init() {
	key := "addr"
	TCPClientCmd.Flags().String(key, "", util.WrapString("The remote socket address to connect to"))
	TCPClientCmd.MarkFlagRequired("addr")
	addMeasureFlags(TCPClientCmd)
	util.SetupTCPFlags(TCPClientCmd)

	key = "local-addr"
	UDPClientCmd.Flags().String(key, config.DefaultUDPClientAddr, util.WrapString("The local socket address to bind"))
	key = "remote-addr"
	UDPClientCmd.Flags().String(key, "", util.WrapString("The remote socket address to send to"))
	UDPClientCmd.MarkFlagRequired("remote-addr")
	addMeasureFlags(UDPClientCmd)

	key = "local-addr"
	TCPTesterCmd.Flags().String(key, config.DefaultAddr, util.WrapString("The local socket address to listen on for the receive leg"))
	key = "remote-addr"
	TCPTesterCmd.Flags().String(key, "", util.WrapString("The remote socket address to connect the send leg to"))
	TCPTesterCmd.MarkFlagRequired("remote-addr")
	addMeasureFlags(TCPTesterCmd)
	util.SetupTCPFlags(TCPTesterCmd)
}

// addMeasureFlags adds the flags shared by all measuring roles
func addMeasureFlags(cmd *cobra.Command) {
	key := "data-size"
	cmd.Flags().Int(key, config.DefaultDataSize, util.WrapString("The data size to send per round trip (bytes)"))
	key = "repeat"
	cmd.Flags().Int(key, config.DefaultRepeat, util.WrapString("The number of repetitions"))
	key = "seed"
	cmd.Flags().Int64(key, 0, util.WrapString("Payload generator seed (0 = derived from the current time)"))
	key = "summary"
	cmd.Flags().Bool(key, false, util.WrapString("Print round trip statistics after the run"))
}

// getMeasureParams reads the shared measuring flags from viper
func getMeasureParams() (dataSize, repeat int, err error) {
	dataSize = viper.GetInt("data-size")
	if dataSize < 0 {
		return 0, 0, fmt.Errorf("data-size must not be negative, got %d", dataSize)
	}
	repeat = viper.GetInt("repeat")
	if repeat <= 0 {
		return 0, 0, fmt.Errorf("repeat must be positive, got %d", repeat)
	}
	return dataSize, repeat, nil
}

// getGenerator builds the payload generator, seeded when requested
func getGenerator() payload.Generator {
	if seed := viper.GetInt64("seed"); seed != 0 {
		return payload.NewSeeded(seed)
	}
	return payload.New()
}

// finishRun prints the optional summary after a successful run
func finishRun(rec *stats.SampleRecorder) {
	if viper.GetBool("summary") {
		fmt.Println(rec.Summary())
	}
}

func runTCPClient(_ *cobra.Command, _ []string) error {
	addr, err := config.ParseEndpoint(viper.GetString("addr"))
	if err != nil {
		return err
	}
	dataSize, repeat, err := getMeasureParams()
	if err != nil {
		return err
	}

	cfg := config.ClientConfig{
		Addr:     addr,
		DataSize: dataSize,
		Repeat:   repeat,
		TCP:      util.GetTCPConf(),
		Socket:   util.GetSocketConf(),
	}

	rec := stats.NewSampleRecorder(os.Stdout)
	if err := libbench.NewTCPClient(cfg, getGenerator(), rec).Run(); err != nil {
		return err
	}
	finishRun(rec)
	return nil
}

func runUDPClient(_ *cobra.Command, _ []string) error {
	local, err := config.ParseEndpoint(viper.GetString("local-addr"))
	if err != nil {
		return err
	}
	remote, err := config.ParseEndpoint(viper.GetString("remote-addr"))
	if err != nil {
		return err
	}
	dataSize, repeat, err := getMeasureParams()
	if err != nil {
		return err
	}

	cfg := config.ClientConfig{
		Addr:      remote,
		LocalAddr: local,
		DataSize:  dataSize,
		Repeat:    repeat,
	}

	rec := stats.NewSampleRecorder(os.Stdout)
	if err := libbench.NewUDPClient(cfg, getGenerator(), rec).Run(); err != nil {
		return err
	}
	finishRun(rec)
	return nil
}

func runTCPTester(_ *cobra.Command, _ []string) error {
	local, err := config.ParseEndpoint(viper.GetString("local-addr"))
	if err != nil {
		return err
	}
	remote, err := config.ParseEndpoint(viper.GetString("remote-addr"))
	if err != nil {
		return err
	}
	dataSize, repeat, err := getMeasureParams()
	if err != nil {
		return err
	}

	cfg := config.TesterConfig{
		LocalAddr:  local,
		RemoteAddr: remote,
		DataSize:   dataSize,
		Repeat:     repeat,
		TCP:        util.GetTCPConf(),
		Socket:     util.GetSocketConf(),
	}

	rec := stats.NewSampleRecorder(os.Stdout)
	if err := libbench.NewTester(cfg, getGenerator(), rec).ListenAndRun(); err != nil {
		return err
	}
	finishRun(rec)
	return nil
}
