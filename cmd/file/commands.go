package file

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	lsCmd = &cobra.Command{
		Use:   "ls",
		Short: "Lists the files on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := fileClient.RemoteList()
			if !res.Ok {
				return res.Err
			}
			for _, name := range res.Files {
				fmt.Println(name)
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [name]",
		Short: "Downloads a file into the work directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if res := fileClient.RemoteGet(name); !res.Ok {
				return res.Err
			} else {
				fmt.Printf("downloaded %s (%d bytes) in %s\n", name, res.Bytes, res.Elapsed)
			}
			return nil
		},
	}
	putCmd = &cobra.Command{
		Use:   "put [local path] [remote name]",
		Short: "Uploads a file, the remote name defaults to the base name of the local file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			local := args[0]
			remote := filepath.Base(local)
			if len(args) == 2 {
				remote = args[1]
			}
			if res := fileClient.RemoteUploadAs(local, remote); !res.Ok {
				return res.Err
			} else {
				fmt.Printf("uploaded %s as %s (%d bytes) in %s\n", local, remote, res.Bytes, res.Elapsed)
			}
			return nil
		},
	}
	rmCmd = &cobra.Command{
		Use:   "rm [name]",
		Short: "Deletes a file on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if ok, err := fileClient.RemoteDelete(name); !ok {
				return err
			} else {
				fmt.Printf("deleted %s\n", name)
			}
			return nil
		},
	}
)
