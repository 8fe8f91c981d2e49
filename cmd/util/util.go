// Package util provides the shared flag and configuration plumbing for all
// netlat subcommands.
package util

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/netlat/netlat/lib/config"
	"github.com/netlat/netlat/lib/logger"
	"github.com/netlat/netlat/lib/stats"
)

const (
	// Wrap is the column flag help text is wrapped at
	Wrap int = 50
)

// WrapString word-wraps flag help text at the Wrap column
func WrapString(text string) string {
	var lines []string
	var line strings.Builder
	width := 0

	for _, word := range strings.Fields(text) {
		// start a new line if the word does not fit
		if width > 0 && width+1+len(word) > Wrap {
			lines = append(lines, line.String())
			line.Reset()
			width = 0
		}

		if width > 0 {
			line.WriteString(" ")
			width++
		}
		line.WriteString(word)
		width += len(word)
	}

	if line.Len() > 0 {
		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n")
}

// InitConfig initializes configuration from env files and environment
// variables. Flags always take precedence; environment variables use the
// NETLAT_ prefix (e.g. NETLAT_LOG_LEVEL=debug).
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("netlat")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper. The signature matches
// cobra's PreRunE hook so commands can use it directly.
func BindCommandFlags(cmd *cobra.Command, _ []string) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetupTCPFlags adds the TCP tuning flags shared by all TCP roles
func SetupTCPFlags(cmd *cobra.Command) {
	key := "tcp-nodelay"
	cmd.Flags().Bool(key, true, WrapString("Whether to disable Nagle's algorithm (TCP_NODELAY)"))

	key = "tcp-keepalive"
	cmd.Flags().Int(key, 0, WrapString("TCP keep-alive period in seconds (0 = disabled)"))

	key = "tcp-linger"
	cmd.Flags().Int(key, -1, WrapString("TCP linger time in seconds (-1 = system default)"))

	key = "read-buffer"
	cmd.Flags().Int(key, 0, WrapString("Socket read buffer size in KB (0 = kernel default)"))

	key = "write-buffer"
	cmd.Flags().Int(key, 0, WrapString("Socket write buffer size in KB (0 = kernel default)"))
}

// GetTCPConf reads the TCP tuning flags from viper
func GetTCPConf() config.TCPConf {
	return config.TCPConf{
		NoDelay:      viper.GetBool("tcp-nodelay"),
		KeepAliveSec: viper.GetInt("tcp-keepalive"),
		LingerSec:    viper.GetInt("tcp-linger"),
	}
}

// GetSocketConf reads the socket buffer flags from viper
func GetSocketConf() config.SocketConf {
	return config.SocketConf{
		ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
		WriteBufferSize: viper.GetInt("write-buffer") * 1024,
	}
}

// StartMetrics exposes the metrics endpoint if --metrics-addr is set
func StartMetrics() {
	addr := viper.GetString("metrics-addr")
	if addr == "" {
		return
	}
	log := logger.New("metrics")
	go func() {
		log.Infof("serving metrics on %s", addr)
		if err := stats.ServeMetrics(addr); err != nil {
			log.Errorf("metrics endpoint failed: %v", err)
		}
	}()
}
