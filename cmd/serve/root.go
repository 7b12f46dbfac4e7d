package serve

import (
	"context"
	"fmt"

	cmdUtil "github.com/ValentinKolb/tKV/cmd/util"
	"github.com/ValentinKolb/tKV/lib/storage"
	"github.com/ValentinKolb/tKV/lib/storage/engines"
	"github.com/ValentinKolb/tKV/lib/storage/util"
	"github.com/ValentinKolb/tKV/rpc/common"
	"github.com/ValentinKolb/tKV/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version and BuildDate are reported by /info
	Version   string
	BuildDate string

	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the tKV server",
		Long:    `Start the tKV server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is TKV_<flag> (e.g. TKV_BACKEND=pebble)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "[::1]:4123", cmdUtil.WrapString("The address on which the API will listen"))

	key = "backend"
	ServeCmd.PersistentFlags().String(key, string(storage.ImplBadger), cmdUtil.WrapString("The storage backend (memory, pebble, badger)"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Directory of the pebble backend. It is wiped on start and removed on shutdown. Defaults to /dev/shm/tkv_<random>"))

	key = "metrics"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Expose prometheus metrics on /metrics"))

	key = "shutdown-timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Seconds to wait for open requests on shutdown"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	impl, err := storage.ParseImplementation(viper.GetString("backend"))
	if err != nil {
		return err
	}

	serveCmdConfig.Backend = string(impl)
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.Metrics = viper.GetBool("metrics")
	serveCmdConfig.ShutdownTimeoutSecond = viper.GetInt64("shutdown-timeout")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	serveCmdConfig.DataDir = viper.GetString("data-dir")
	if serveCmdConfig.DataDir == "" {
		serveCmdConfig.DataDir = "/dev/shm/tkv_" + util.RandomName(8)
	}

	if serveCmdConfig.ShutdownTimeoutSecond <= 0 {
		return fmt.Errorf("shutdown-timeout must be positive")
	}

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// run opens the backend and serves it until the process is interrupted
func run(cmd *cobra.Command, _ []string) error {
	fmt.Printf("tKV v%s\n", Version)
	fmt.Println(serveCmdConfig.String())

	store, err := engines.OpenByName(serveCmdConfig.Backend, &storage.Options{Dir: serveCmdConfig.DataDir})
	if err != nil {
		return err
	}

	serv := server.NewServer(*serveCmdConfig, store, server.BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return serv.Serve(ctx)
}
