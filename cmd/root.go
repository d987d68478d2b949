package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/mKV/cmd/db"
	"github.com/ValentinKolb/mKV/cmd/kv"
	"github.com/ValentinKolb/mKV/cmd/serve"
	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "mkv",
		Short: "multi-tenant key-value server",
		Long: fmt.Sprintf(`mKV (v%s)

A multi-tenant key-value server written in Go. One process serves many
named databases, each backed by its own pebble instance, over http, tcp
or unix sockets.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mKV v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(db.DatabaseCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, msgpack, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
	key = "config"
	RootCmd.PersistentFlags().String(key, "", util.WrapString("optional config file (yaml, toml or json) with the same keys as the flags"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
