package kv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/mKV/rpc/client"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/spf13/cobra"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcClient.Put([]byte(args[0]), []byte(args[1])); err != nil {
				return err
			}
			fmt.Println("put successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, err := rpcClient.Get([]byte(key))
			if client.IsKind(err, common.KindKeyNotFound) {
				fmt.Printf("key=%s, found=false\n", key)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=true, value=%s\n", key, value)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcClient.Delete([]byte(args[0])); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	mgetCmd = &cobra.Command{
		Use:   "mget [key]...",
		Short: "Reads the values for several keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([][]byte, len(args))
			for i, k := range args {
				keys[i] = []byte(k)
			}
			values, missed, err := rpcClient.MGet(keys)
			if err != nil {
				return err
			}
			for i, v := range values {
				if v == nil {
					fmt.Printf("key=%s, found=false\n", args[i])
				} else {
					fmt.Printf("key=%s, found=true, value=%s\n", args[i], v)
				}
			}
			if missed {
				fmt.Println("warning: some keys do not exist")
			}
			return nil
		},
	}
	rangeCmd = &cobra.Command{
		Use:   "range [from] [to]",
		Short: "Lists all pairs with from <= key < to (an empty bound is open)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := rpcClient.Range(bound(args[0]), bound(args[1]))
			if err != nil {
				return err
			}
			printPairs(pairs)
			return nil
		},
	}
	sliceCmd = &cobra.Command{
		Use:   "slice [from] [n]",
		Short: "Lists at most n pairs starting at from",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("n must be a number: %w", err)
			}
			pairs, err := rpcClient.Slice(bound(args[0]), n)
			if err != nil {
				return err
			}
			printPairs(pairs)
			return nil
		},
	}
	batchCmd = &cobra.Command{
		Use:   "batch [op]...",
		Short: "Applies several writes atomically",
		Long:  "Applies several writes atomically. Each op is either put:KEY=VALUE or delete:KEY, e.g. mkv kv batch put:a=1 put:b=2 delete:c",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := make([][]any, len(args))
			for i, op := range args {
				entry, err := parseBatchOp(op)
				if err != nil {
					return err
				}
				entries[i] = entry
			}
			if err := rpcClient.Batch(entries...); err != nil {
				return err
			}
			fmt.Printf("batch of %d entries applied successfully\n", len(entries))
			return nil
		},
	}
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func bound(arg string) []byte {
	if arg == "" {
		return nil
	}
	return []byte(arg)
}

func printPairs(pairs []client.KV) {
	for _, p := range pairs {
		fmt.Printf("%s=%s\n", p.Key, p.Value)
	}
	fmt.Printf("(%d entries)\n", len(pairs))
}

// parseBatchOp parses put:KEY=VALUE and delete:KEY
func parseBatchOp(op string) ([]any, error) {
	signal, arg, ok := strings.Cut(op, ":")
	if !ok {
		return nil, fmt.Errorf("invalid batch op %q (expected put:KEY=VALUE or delete:KEY)", op)
	}
	switch strings.ToLower(signal) {
	case "put":
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid put op %q (expected put:KEY=VALUE)", op)
		}
		return common.PutEntry([]byte(key), []byte(value)), nil
	case "delete", "del":
		return common.DeleteEntry([]byte(arg)), nil
	default:
		return nil, fmt.Errorf("unknown batch op %q", signal)
	}
}
