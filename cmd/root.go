package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/rfs/cmd/file"
	"github.com/ValentinKolb/rfs/cmd/serve"
	"github.com/ValentinKolb/rfs/cmd/util"
	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "rfs",
		Short: "remote file service",
		Long: fmt.Sprintf(`rfs (v%s)

A remote file service written in Go. The server keeps a flat directory of
files and serves LIST, GET, UPLOAD and DELETE requests from a fixed pool of
workers, the client transfers whole files and can generate load.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rfs",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rfs v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(file.FileCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "text", util.WrapString("serializer to use (text, binary, proto)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix, ws, quic)"))
	key = "framing"
	RootCmd.PersistentFlags().String(key, common.DefaultFraming, util.WrapString("framing to use (delimiter, length). The binary and proto serializers require length framing"))
	key = "compress"
	RootCmd.PersistentFlags().Bool(key, false, util.WrapString("compress file contents with zstd (binary serializer only)"))
	key = "checksum"
	RootCmd.PersistentFlags().Bool(key, false, util.WrapString("attach a blake3 digest to file contents (binary and proto serializers only)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
