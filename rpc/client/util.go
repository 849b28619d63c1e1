package client

import (
	"fmt"
	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/serializer"
	"github.com/ValentinKolb/rfs/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc/client")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the FileClient with composition pattern
type rpcClientAdapter struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest sends a command and returns the decoded response
// It returns an error if the transport fails, the response cannot be decoded,
// the server reported an ERROR or the response belongs to another operation.
// The response is returned together with a server side error so the message stays available.
func invokeRPCRequest(req *common.Command, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Response, error) {
	// Serialize the request
	reqBytes, err := serializer.SerializeCommand(*req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s command: %w", req.Op, err)
	}

	// Send the request
	respBytes, err := transport.Send(reqBytes)
	if err != nil {
		return nil, err
	}

	// Deserialize the response
	resp := &common.Response{}
	if err := serializer.DeserializeResponse(respBytes, resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Check if the response is an error response
	if !resp.Ok() {
		return resp, resp.Err()
	}

	// Check if the type of the response is the expected type, the text encoding
	// does not carry the operation of every response
	if resp.Op != common.OpUnknown && resp.Op != req.Op {
		return nil, fmt.Errorf("unexpected response type: %s, expected %s", resp.Op, req.Op)
	}

	return resp, nil
}
