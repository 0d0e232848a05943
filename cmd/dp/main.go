// Dp publishes a UPnP root device on the local network over SSDP.
//
// It serves a device description document over HTTP, announces it on the
// SSDP multicast group of one network interface, answers M-SEARCH requests
// and follows the interface's IPv4 address as it changes. On exit the device
// is withdrawn with ssdp:byebye.
//
// Usage:
//
//	dp [command] [flags]
//
// Running without a command is the same as 'dp serve'.
// See 'dp --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sparse/dp/internal/version"
)

// exitBadArguments is returned when the interface is missing or down.
const exitBadArguments = 0xA0

// exitError carries a specific process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var configPath string

var rootCmd = &cobra.Command{
	Use:   "dp",
	Short: "SSDP device publisher",
	Long: `Publish a UPnP root device on the local network.

dp serves a device description document over HTTP and announces it with
SSDP on one network interface. It answers searches, re-announces before the
cache lifetime runs out and follows the interface address when it changes.

If no command is specified, 'serve' runs with the given flags.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: user config dir)")

	addServeFlags(rootCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(interfacesCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dp %s\n", version.Full())
	},
}
