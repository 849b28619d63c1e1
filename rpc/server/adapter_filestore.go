package server

import (
	"fmt"
	"github.com/ValentinKolb/rfs/lib/store"
	"github.com/ValentinKolb/rfs/rpc/common"
)

func NewFileStoreServerAdapter() IRPCServerAdapter {
	return &fileStoreServerAdapterImpl{}
}

type fileStoreServerAdapterImpl struct{}

func (adapter *fileStoreServerAdapterImpl) Handle(cmd *common.Command, s store.IFileStore) *common.Response {
	// Check for nil store
	if s == nil {
		return common.NewErrorResponse(cmd.Op, "handler: store is nil")
	}

	// Handle different operations
	switch cmd.Op {
	case common.OpList:
		files, err := s.List()
		if err != nil {
			return common.NewErrorResponse(cmd.Op, store.Message(err))
		}
		return common.NewListResponse(files, nil)
	case common.OpGet:
		content, err := s.Read(cmd.Filename)
		if err != nil {
			return common.NewErrorResponse(cmd.Op, store.Message(err))
		}
		return common.NewGetResponse(cmd.Filename, content, nil)
	case common.OpUpload:
		if err := s.Write(cmd.Filename, cmd.Payload); err != nil {
			return common.NewErrorResponse(cmd.Op, store.Message(err))
		}
		return common.NewUploadResponse(cmd.Filename, len(cmd.Payload), nil)
	case common.OpDelete:
		if err := s.Delete(cmd.Filename); err != nil {
			return common.NewErrorResponse(cmd.Op, store.Message(err))
		}
		return common.NewDeleteResponse(cmd.Filename, nil)
	default:
		return common.NewErrorResponse(
			cmd.Op,
			fmt.Sprintf("unsupported operation: %s", cmd.Op),
		)
	}
}
