package db

import (
	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/ValentinKolb/mKV/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcClient *client.RPCClient

	// DatabaseCommands represents the database lifecycle command group.
	// Commands are routed through the --db database, which must exist.
	DatabaseCommands = &cobra.Command{
		Use:                "db",
		Short:              "Manage the databases of a server",
		PersistentPreRunE:  setupDBClient,
		PersistentPostRunE: closeDBClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the db command
	util.SetupRPCClientFlags(DatabaseCommands)

	// Add subcommands
	DatabaseCommands.AddCommand(createCmd)
	DatabaseCommands.AddCommand(dropCmd)
	DatabaseCommands.AddCommand(listCmd)
	DatabaseCommands.AddCommand(repairCmd)
	DatabaseCommands.AddCommand(connectCmd)
}

func setupDBClient(cmd *cobra.Command, _ []string) (err error) {
	rpcClient, err = util.NewClient(cmd)
	return err
}

func closeDBClient(_ *cobra.Command, _ []string) error {
	if rpcClient == nil {
		return nil
	}
	return rpcClient.Close()
}
