package transport

import (
	"context"
	"github.com/ValentinKolb/rfs/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer for every complete frame.
// It returns the response frame. A returned error is fatal for the connection:
// the transport closes it without sending a response.
type ServerHandleFunc func(req []byte) (resp []byte, err error)

// HandlerFactory creates a ServerHandleFunc. Depending on the worker mode the
// transport calls it once for all workers or once per worker at startup.
type HandlerFactory func() (ServerHandleFunc, error)

// IRPCServerTransport is the interface for the RPC transport layer
type IRPCServerTransport interface {
	// RegisterHandlerFactory registers the factory used to create request handlers
	RegisterHandlerFactory(factory HandlerFactory)
	// Listen starts the transport layer and serves connections until ctx is cancelled
	// or the listener fails. Cancelling ctx triggers a graceful shutdown.
	Listen(ctx context.Context, config common.ServerConfig) error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send opens a connection, sends one request, waits for one response and closes the connection
	Send(req []byte) (resp []byte, err error)
	// Close releases the transport, further calls to Send fail
	Close() error
}
