package file

import (
	"github.com/ValentinKolb/rfs/cmd/util"
	"github.com/ValentinKolb/rfs/rpc/client"
	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	fileClient *client.FileClient

	// FileCommands represents the file command group
	FileCommands = &cobra.Command{
		Use:               "file",
		Short:             "Perform remote file operations",
		PersistentPreRunE: setupFileClient,
	}
)

func init() {
	// Add common RPC flags to the file command
	util.SetupRPCClientFlags(FileCommands)

	// Add subcommands
	FileCommands.AddCommand(lsCmd)
	FileCommands.AddCommand(getCmd)
	FileCommands.AddCommand(putCmd)
	FileCommands.AddCommand(rmCmd)
	FileCommands.AddCommand(perfTestCmd)
	FileCommands.AddCommand(genCmd)
}

// setupFileClient initializes the file client
func setupFileClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Init logger
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	// Get client configuration
	config := util.GetClientConfig()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the file client
	fileClient, err = client.NewFileClient(
		*config,
		t,
		s,
	)

	return err
}
