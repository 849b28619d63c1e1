package server

import (
	"github.com/ValentinKolb/rfs/lib/store"
	"github.com/ValentinKolb/rfs/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for executing commands against a store
type IRPCServerAdapter interface {
	// Handle executes a command and returns the response
	// It takes a Command and a store as parameters.
	// Errors are never returned, they are reported as ERROR responses.
	Handle(cmd *common.Command, store store.IFileStore) (resp *common.Response)
}
