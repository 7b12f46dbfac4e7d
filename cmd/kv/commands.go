package kv

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ValentinKolb/tKV/lib/storage"
	"github.com/ValentinKolb/tKV/rpc/common"
	"github.com/spf13/cobra"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, ttl, found, err := kvClient.Get(cmd.Context(), key)
			if err != nil {
				return err
			}
			if !found {
				fmt.Printf("key=%s, found=false\n", key)
				return nil
			}
			fmt.Printf("key=%s, found=true, value=%s, ttl=%d\n", key, formatValue(value), ttl)
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Long:  "Sets the value for a key. With --type integer the value is stored as a counter.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			ttl, _ := cmd.Flags().GetInt64("ttl")
			typ, _ := cmd.Flags().GetString("type")

			value, err := parseValue(args[1], typ)
			if err != nil {
				return err
			}

			if err := kvClient.Set(cmd.Context(), key, value, ttl); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kvClient.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	delPrefixCmd = &cobra.Command{
		Use:   "del-prefix [prefix]",
		Short: "Deletes every key starting with prefix (all keys if omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			if err := kvClient.DeletePrefix(cmd.Context(), prefix); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys [prefix]",
		Short: "Lists every live key starting with prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			keys, err := kvClient.Keys(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Println(k)
			}
			return nil
		},
	}
	ttlCmd = &cobra.Command{
		Use:   "ttl [key]",
		Short: "Prints the remaining lifetime of a key in seconds (-1 for none)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, err := kvClient.GetTTL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, ttl=%d\n", args[0], ttl)
			return nil
		},
	}
	expireCmd = &cobra.Command{
		Use:   "expire [key] [ttl]",
		Short: "Sets the lifetime of a key in seconds (-1 removes the expiry)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("ttl must be a number: %w", err)
			}
			if err := kvClient.UpdateTTL(cmd.Context(), args[0], ttl); err != nil {
				return err
			}
			fmt.Println("expire successfully")
			return nil
		},
	}
	incCmd = &cobra.Command{
		Use:   "inc [key] [delta]",
		Short: "Increments a counter",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCounter(cmd, args, kvClient.Increment)
		},
	}
	decCmd = &cobra.Command{
		Use:   "dec [key] [delta]",
		Short: "Decrements a counter",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCounter(cmd, args, kvClient.Decrement)
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints version and backend of the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := kvClient.Info(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("version=%s, go=%s, build_date=%s, backend=%s\n", info.Version, info.Go, info.BuildDate, info.Backend)
			return nil
		},
	}
)

func init() {
	setCmd.Flags().Int64("ttl", -1, "Lifetime in seconds (-1 never expires)")
	setCmd.Flags().String("type", storage.ValueTypeString.String(), "Value type (string, integer)")

	for _, c := range []*cobra.Command{incCmd, decCmd} {
		c.Flags().Int64("default", 0, "Start value if the key does not exist")
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

type counterOp func(ctx context.Context, key string, delta int64, def *int64) (int64, error)

// runCounter parses the optional delta and --default and applies op
func runCounter(cmd *cobra.Command, args []string, op counterOp) error {
	delta := int64(1)
	if len(args) == 2 {
		var err error
		if delta, err = strconv.ParseInt(args[1], 10, 64); err != nil {
			return fmt.Errorf("delta must be a number: %w", err)
		}
	}

	var def *int64
	if cmd.Flags().Changed("default") {
		d, _ := cmd.Flags().GetInt64("default")
		def = &d
	}

	n, err := op(cmd.Context(), args[0], delta, def)
	if err != nil {
		return err
	}
	fmt.Printf("key=%s, value=%d\n", args[0], n)
	return nil
}

// parseValue converts a command line argument into a wire value of type typ
func parseValue(raw, typ string) (common.IntOrString, error) {
	vt, err := storage.ParseValueType(typ)
	if err != nil {
		return common.IntOrString{}, err
	}
	if vt == storage.ValueTypeString {
		return common.NewStr(raw), nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return common.IntOrString{}, fmt.Errorf("value must be a number: %w", err)
	}
	return common.NewInt(n), nil
}

func formatValue(v common.IntOrString) string {
	if v.IsInt {
		return strconv.FormatInt(v.Int, 10)
	}
	return strconv.Quote(v.Str)
}
