package client

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/serializer"
	"github.com/ValentinKolb/rfs/rpc/transport"
	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// ListResult is the outcome of RemoteList
type ListResult struct {
	Ok    bool
	Files []string
	Err   error
}

// TransferResult is the outcome of a single download or upload.
// A failed transfer has Ok=false, Elapsed=0 and Bytes=0.
type TransferResult struct {
	Ok      bool
	Elapsed time.Duration
	// Bytes is the size of the written file (download) or of the local file (upload)
	Bytes int64
	// Digest is the blake3 hash of the transferred content
	Digest [32]byte
	Err    error
}

// failed returns the negative outcome of a transfer
func failed(err error) TransferResult {
	return TransferResult{Err: err}
}

// Option configures optional parts of the FileClient
type Option func(*FileClient)

// WithFs sets the filesystem used for local files (default: the OS filesystem)
func WithFs(fs afero.Fs) Option {
	return func(c *FileClient) {
		c.fs = fs
	}
}

// NewFileClient creates a new client for the remote file service
// The function takes a config, a transport and a serializer as parameters.
// Local files are read from and written to config.WorkDir.
func NewFileClient(
	config common.ClientConfig,
	rpcTransport transport.IRPCClientTransport,
	rpcSerializer serializer.IRPCSerializer,
	opts ...Option,
) (*FileClient, error) {

	// Check that the serializer fits the framing
	if err := serializer.CheckFraming(rpcSerializer, config.Transport.Framing); err != nil {
		return nil, err
	}

	// Connect the transport
	if err := rpcTransport.Connect(config); err != nil {
		return nil, err
	}

	c := &FileClient{
		rpcClientAdapter: rpcClientAdapter{
			config:     config,
			transport:  rpcTransport,
			serializer: rpcSerializer,
		},
		fs: afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FileClient performs remote file operations. Every call uses a fresh
// connection, so a FileClient can be used by many goroutines at once.
// No method panics or returns an error past the result value.
type FileClient struct {
	rpcClientAdapter
	fs afero.Fs
}

// --------------------------------------------------------------------------
// Remote Operations
// --------------------------------------------------------------------------

// RemoteList returns the names of all files on the server
func (c *FileClient) RemoteList() ListResult {
	resp, err := invokeRPCRequest(common.NewListRequest(), c.transport, c.serializer)
	if err != nil {
		Logger.Debugf("LIST failed: %v", err)
		return ListResult{Err: err}
	}
	return ListResult{Ok: true, Files: resp.Files}
}

// RemoteGet downloads a file and writes it to the work directory under the
// name reported by the server
func (c *FileClient) RemoteGet(name string) TransferResult {
	start := time.Now()

	resp, err := invokeRPCRequest(common.NewGetRequest(name), c.transport, c.serializer)
	if err != nil {
		Logger.Debugf("GET %s failed: %v", name, err)
		return failed(err)
	}

	target := resp.Filename
	if target == "" {
		target = name
	}
	if err := afero.WriteFile(c.fs, c.localPath(target), resp.Content, 0o644); err != nil {
		return failed(fmt.Errorf("failed to write %s: %w", target, err))
	}

	return TransferResult{
		Ok:      true,
		Elapsed: time.Since(start),
		Bytes:   int64(len(resp.Content)),
		Digest:  blake3.Sum256(resp.Content),
	}
}

// RemoteUpload uploads the file name from the work directory under the same name
func (c *FileClient) RemoteUpload(name string) TransferResult {
	return c.RemoteUploadAs(name, name)
}

// RemoteUploadAs uploads the local file at localPath under remoteName.
// Relative paths are resolved against the work directory.
func (c *FileClient) RemoteUploadAs(localPath, remoteName string) TransferResult {
	start := time.Now()

	// Fail fast if the local file does not exist
	path := c.localPath(localPath)
	if exists, err := afero.Exists(c.fs, path); err != nil || !exists {
		return failed(fmt.Errorf("local file %s: %w", path, os.ErrNotExist))
	}

	content, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return failed(fmt.Errorf("failed to read %s: %w", path, err))
	}

	if _, err := invokeRPCRequest(common.NewUploadRequest(remoteName, content), c.transport, c.serializer); err != nil {
		Logger.Debugf("UPLOAD %s failed: %v", remoteName, err)
		return failed(err)
	}

	return TransferResult{
		Ok:      true,
		Elapsed: time.Since(start),
		Bytes:   int64(len(content)),
		Digest:  blake3.Sum256(content),
	}
}

// RemoteDelete deletes a file on the server. On failure the error describes the reason.
func (c *FileClient) RemoteDelete(name string) (bool, error) {
	if _, err := invokeRPCRequest(common.NewDeleteRequest(name), c.transport, c.serializer); err != nil {
		Logger.Debugf("DELETE %s failed: %v", name, err)
		return false, err
	}
	return true, nil
}

// Close releases the transport
func (c *FileClient) Close() error {
	return c.transport.Close()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// localPath resolves a path against the work directory
func (c *FileClient) localPath(name string) string {
	if filepath.IsAbs(name) || c.config.WorkDir == "" {
		return name
	}
	return filepath.Join(c.config.WorkDir, name)
}
