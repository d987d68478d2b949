package db

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	createCmd = &cobra.Command{
		Use:   "create [name] [option=value]...",
		Short: "Creates a database",
		Long: `Creates a database and prints its uid. Options are given as key=value pairs, e.g.
mkv db create orders block_size=8192 paranoid_checks=true

Supported options: create_if_missing, error_if_exists, paranoid_checks, block_cache_size,
write_buffer_size, block_size, max_open_files, block_restart_interval`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := parseOptions(args[1:])
			if err != nil {
				return err
			}
			uid, err := rpcClient.CreateDB(args[0], options)
			if err != nil {
				return err
			}
			fmt.Printf("created database %s with uid %s\n", args[0], uid)
			return nil
		},
	}
	dropCmd = &cobra.Command{
		Use:   "drop [name]",
		Short: "Drops a database and deletes all its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcClient.DropDB(args[0]); err != nil {
				return err
			}
			fmt.Printf("dropped database %s\n", args[0])
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists all databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbs, err := rpcClient.ListDBs()
			if err != nil {
				return err
			}
			for _, d := range dbs {
				fmt.Printf("%v\t%v\t%v\n", d["name"], d["uid"], d["path"])
				if stats, ok := d["stats"].(map[string]any); ok {
					fmt.Printf("  stats: %s\n", formatMap(stats))
				}
			}
			fmt.Printf("(%d databases)\n", len(dbs))
			return nil
		},
	}
	repairCmd = &cobra.Command{
		Use:   "repair [uid]",
		Short: "Repairs a database (the --db database if no uid is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid := ""
			if len(args) == 1 {
				uid = args[0]
			}
			if err := rpcClient.RepairDB(uid); err != nil {
				return err
			}
			fmt.Println("repaired successfully")
			return nil
		},
	}
	connectCmd = &cobra.Command{
		Use:   "connect",
		Short: "Resolves the --db database and prints its uid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("database %s has uid %s\n", rpcClient.Database(), rpcClient.UID())
			return nil
		},
	}
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseOptions converts key=value arguments into an options map.
// Values are sent as bool or integer when they parse as one.
func parseOptions(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	options := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid option %q (expected key=value)", arg)
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			options[key] = n
		} else if b, err := strconv.ParseBool(value); err == nil {
			options[key] = b
		} else {
			options[key] = value
		}
	}
	return options, nil
}

func formatMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, m[k])
	}
	return strings.Join(parts, " ")
}
