package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/ValentinKolb/tKV/cmd/bench"
	"github.com/ValentinKolb/tKV/cmd/kv"
	"github.com/ValentinKolb/tKV/cmd/serve"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

// BuildDate is set at link time (-ldflags "-X github.com/ValentinKolb/tKV/cmd.BuildDate=...")
var BuildDate = "unknown"

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "tkv",
		Short: "key-value store with expiry and counters",
		Long: fmt.Sprintf(`tKV (v%s)

A key-value store with uniform expiry and atomic counters, served over
HTTP on top of an in-memory map, pebble or badger.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of tKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tKV v%s (built %s, %s)\n", Version, BuildDate, runtime.Version())
		},
	}
)

func init() {
	serve.Version = Version
	serve.BuildDate = BuildDate

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
