package server

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/rfs/lib/store"
	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/serializer"
	"github.com/VictoriaMetrics/metrics"
)

// fileProtocol turns one request frame into one response frame.
// Depending on the worker mode an instance is shared by all workers or owned by one.
type fileProtocol struct {
	id         int
	store      store.IFileStore
	adapter    IRPCServerAdapter
	serializer serializer.IRPCSerializer
}

// Process deserializes the command, executes it and serializes the response.
// A malformed command is answered with an ERROR response. The error return is
// reserved for responses that cannot be serialized, the connection is then dropped.
func (p *fileProtocol) Process(req []byte) ([]byte, error) {
	start := time.Now()

	var cmd common.Command
	var resp *common.Response
	if err := p.serializer.DeserializeCommand(req, &cmd); err != nil {
		Logger.Debugf("protocol %d: malformed command: %v", p.id, err)
		resp = common.NewErrorResponse(cmd.Op, fmt.Sprintf("malformed command: %v", err))
	} else {
		resp = p.adapter.Handle(&cmd, p.store)
	}

	out, err := p.serializer.SerializeResponse(*resp)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s response: %w", resp.Op, err)
	}

	recordRequest(cmd.Op, resp.Status, start)
	return out, nil
}

// recordRequest updates the request counter and latency histogram
func recordRequest(op common.Operation, status common.Status, start time.Time) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`rfs_requests_total{op=%q,status=%q}`, op, status)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(`rfs_request_duration_seconds{op=%q}`, op)).UpdateDuration(start)
}
