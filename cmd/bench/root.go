package bench

import (
	"fmt"

	"github.com/ValentinKolb/tKV/cmd/util"
	"github.com/ValentinKolb/tKV/rpc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// BenchCmd runs a set/get/delete load test against a running server
	BenchCmd = &cobra.Command{
		Use:     "bench",
		Short:   "Load testing tool for tKV servers",
		PreRunE: processBenchConfig,
		RunE:    run,
	}
	benchThreads  = 50
	benchRequests = 100
	benchPrefix   = "__bench"
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	util.SetupClientFlags(BenchCmd)

	key := "threads"
	BenchCmd.Flags().Int(key, 50, util.WrapString("Number of concurrent workers"))
	key = "requests"
	BenchCmd.Flags().Int(key, 100, util.WrapString("Iterations per worker. Every iteration performs one set, one get and one delete"))
	key = "key-prefix"
	BenchCmd.Flags().String(key, "__bench", util.WrapString("Prefix of the keys written by the benchmark"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	benchThreads = viper.GetInt("threads")
	benchRequests = viper.GetInt("requests")
	benchPrefix = viper.GetString("key-prefix")

	if benchThreads < 1 || benchRequests < 1 {
		return fmt.Errorf("threads and requests must be positive")
	}
	return nil
}

func run(cmd *cobra.Command, _ []string) error {
	config := util.GetClientConfig()

	fmt.Println("Load testing tool for tKV servers")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d\n", benchThreads)
	fmt.Printf("Requests per thread: %d\n", benchRequests)
	fmt.Println()

	c, err := client.NewClient(config)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Println("starting load test...")
	report, err := Run(cmd.Context(), c, Options{
		Threads:   benchThreads,
		Requests:  benchRequests,
		KeyPrefix: benchPrefix,
	})
	if err != nil {
		return err
	}

	report.Print(cmd.OutOrStdout())
	return nil
}
