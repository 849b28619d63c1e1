package server

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/ValentinKolb/rfs/lib/store"
	"github.com/ValentinKolb/rfs/rpc/client"
	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/serializer"
	"github.com/ValentinKolb/rfs/rpc/transport"
	"github.com/ValentinKolb/rfs/rpc/transport/framing"
	"github.com/ValentinKolb/rfs/rpc/transport/quic"
	"github.com/ValentinKolb/rfs/rpc/transport/tcp"
	"github.com/ValentinKolb/rfs/rpc/transport/unix"
	"github.com/ValentinKolb/rfs/rpc/transport/ws"
	"github.com/spf13/afero"
)

// --------------------------------------------------------------------------
// Test environment
// --------------------------------------------------------------------------

const serverDataDir = "/data"

type transportFactory struct {
	server   func() transport.IRPCServerTransport
	client   func() transport.IRPCClientTransport
	endpoint func(t *testing.T) string
}

var testTransports = map[string]transportFactory{
	"unix": {unix.NewUnixServerTransport, unix.NewUnixClientTransport, socketPath},
	"tcp":  {tcp.NewTCPServerTransport, tcp.NewTCPClientTransport, freeAddr("tcp")},
	"ws":   {ws.NewWSServerTransport, ws.NewWSClientTransport, freeAddr("tcp")},
	"quic": {quic.NewQUICServerTransport, quic.NewQUICClientTransport, freeAddr("udp")},
}

type codecFactory struct {
	serializer func() serializer.IRPCSerializer
	framing    string
}

var testCodecs = map[string]codecFactory{
	"Text":       {serializer.NewTextSerializer, framing.NameDelimiter},
	"TextLength": {serializer.NewTextSerializer, framing.NameLength},
	"Binary": {func() serializer.IRPCSerializer {
		return serializer.NewBinarySerializerWithOptions(serializer.Options{Compress: true, Checksum: true})
	}, framing.NameLength},
	"Proto": {serializer.NewProtoSerializer, framing.NameLength},
}

var testModes = []common.WorkerMode{common.WorkerModeShared, common.WorkerModeIsolated}

type envOptions struct {
	mode      common.WorkerMode
	workers   int
	transport string
	codec     string
}

type testEnv struct {
	server   *RPCServer
	serverFs afero.Fs
	client   *client.FileClient
	clientFs afero.Fs
	endpoint string
}

// socketPath returns a short unix socket path, t.TempDir paths can exceed the length limit
func socketPath(t *testing.T) string {
	dir, err := os.MkdirTemp("", "rfs")
	if err != nil {
		t.Fatalf("MkdirTemp failed: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "rfs.sock")
}

// freeAddr returns a function that reserves a free loopback port and releases it again
func freeAddr(network string) func(t *testing.T) string {
	return func(t *testing.T) string {
		if network == "udp" {
			pc, err := net.ListenPacket("udp", "127.0.0.1:0")
			if err != nil {
				t.Fatalf("ListenPacket failed: %v", err)
			}
			defer pc.Close()
			return pc.LocalAddr().String()
		}
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("Listen failed: %v", err)
		}
		defer ln.Close()
		return ln.Addr().String()
	}
}

// startEnv starts a server on an in-memory filesystem and connects a client to it
func startEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	if opts.mode == "" {
		opts.mode = common.WorkerModeShared
	}
	if opts.workers == 0 {
		opts.workers = 4
	}
	if opts.transport == "" {
		opts.transport = "unix"
	}
	if opts.codec == "" {
		opts.codec = "Text"
	}
	tf := testTransports[opts.transport]
	cf := testCodecs[opts.codec]

	env := &testEnv{
		serverFs: afero.NewMemMapFs(),
		clientFs: afero.NewMemMapFs(),
		endpoint: tf.endpoint(t),
	}

	config := common.DefaultServerConfig()
	config.Transport.Endpoint = env.endpoint
	config.Transport.Framing = cf.framing
	config.Workers = opts.workers
	config.WorkerMode = opts.mode
	config.ShutdownGraceSecond = 1
	config.DataDir = serverDataDir
	config.LogLevel = "error"

	env.server = NewRPCServer(config, tf.server(), cf.serializer(), WithFs(env.serverFs))

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- env.server.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-result:
			if err != nil {
				t.Errorf("Serve returned %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Error("server did not shut down")
		}
	})

	clientConfig := common.DefaultClientConfig()
	clientConfig.TimeoutSecond = 10
	clientConfig.WorkDir = "/work"
	clientConfig.Transport.Endpoint = env.endpoint
	clientConfig.Transport.Framing = cf.framing

	c, err := client.NewFileClient(clientConfig, tf.client(), cf.serializer(), client.WithFs(env.clientFs))
	if err != nil {
		t.Fatalf("NewFileClient failed: %v", err)
	}
	env.client = c
	_ = env.clientFs.MkdirAll("/work", 0o755)

	// wait until the server answers
	deadline := time.Now().Add(5 * time.Second)
	for {
		if res := c.RemoteList(); res.Ok {
			break
		}
		select {
		case err := <-result:
			t.Fatalf("Serve failed: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("server did not become ready")
		}
		time.Sleep(20 * time.Millisecond)
	}
	return env
}

// writeLocal creates a local file with random content for the client
func (env *testEnv) writeLocal(t *testing.T, name string, size int) []byte {
	t.Helper()
	content := make([]byte, size)
	_, _ = rand.Read(content)
	if err := afero.WriteFile(env.clientFs, filepath.Join("/work", name), content, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return content
}

func (env *testEnv) serverFile(name string) ([]byte, bool) {
	content, err := afero.ReadFile(env.serverFs, filepath.Join(serverDataDir, name))
	return content, err == nil
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestScenario1MiB(t *testing.T) {
	for codecName := range testCodecs {
		for _, mode := range testModes {
			t.Run(fmt.Sprintf("%s/%s", codecName, mode), func(t *testing.T) {
				env := startEnv(t, envOptions{mode: mode, codec: codecName})
				content := env.writeLocal(t, "test_1mb.dat", 1024*1024)

				if res := env.client.RemoteUpload("test_1mb.dat"); !res.Ok || res.Bytes != int64(len(content)) {
					t.Fatalf("upload failed: %+v", res)
				}
				if stored, ok := env.serverFile("test_1mb.dat"); !ok || !bytes.Equal(stored, content) {
					t.Fatal("server file differs from uploaded content")
				}

				// remove the local copy so the download has to recreate it
				_ = env.clientFs.Remove("/work/test_1mb.dat")
				if res := env.client.RemoteGet("test_1mb.dat"); !res.Ok || res.Bytes != int64(len(content)) {
					t.Fatalf("download failed: %+v", res)
				}
				downloaded, _ := afero.ReadFile(env.clientFs, "/work/test_1mb.dat")
				if !bytes.Equal(downloaded, content) {
					t.Fatal("downloaded content differs from original")
				}

				list := env.client.RemoteList()
				if !list.Ok || !contains(list.Files, "test_1mb.dat") {
					t.Errorf("list does not contain test_1mb.dat: %+v", list)
				}

				if ok, err := env.client.RemoteDelete("test_1mb.dat"); !ok {
					t.Errorf("delete failed: %v", err)
				}
				if res := env.client.RemoteGet("test_1mb.dat"); res.Ok {
					t.Error("get after delete should fail")
				}
			})
		}
	}
}

func TestTransports(t *testing.T) {
	for name := range testTransports {
		t.Run(name, func(t *testing.T) {
			env := startEnv(t, envOptions{transport: name, mode: common.WorkerModeIsolated})
			content := env.writeLocal(t, "a.bin", 200*1024)

			if res := env.client.RemoteUpload("a.bin"); !res.Ok {
				t.Fatalf("upload failed: %v", res.Err)
			}
			_ = env.clientFs.Remove("/work/a.bin")
			if res := env.client.RemoteGet("a.bin"); !res.Ok {
				t.Fatalf("download failed: %v", res.Err)
			}
			downloaded, _ := afero.ReadFile(env.clientFs, "/work/a.bin")
			if !bytes.Equal(downloaded, content) {
				t.Error("round trip changed the content")
			}
		})
	}
}

func TestListingCompleteness(t *testing.T) {
	for _, mode := range testModes {
		t.Run(string(mode), func(t *testing.T) {
			env := startEnv(t, envOptions{mode: mode})

			if list := env.client.RemoteList(); !list.Ok || len(list.Files) != 0 {
				t.Fatalf("expected an empty listing, got %+v", list)
			}

			want := []string{"a.txt", "b.dat", "c.bin", "d"}
			for _, name := range want {
				env.writeLocal(t, name, 16)
				if res := env.client.RemoteUpload(name); !res.Ok {
					t.Fatalf("upload of %s failed: %v", name, res.Err)
				}
			}

			list := env.client.RemoteList()
			sort.Strings(list.Files)
			if !list.Ok || fmt.Sprint(list.Files) != fmt.Sprint(want) {
				t.Errorf("List returned %v, expected %v", list.Files, want)
			}
		})
	}
}

func TestMissingFile(t *testing.T) {
	for _, mode := range testModes {
		t.Run(string(mode), func(t *testing.T) {
			env := startEnv(t, envOptions{mode: mode})

			res := env.client.RemoteGet("doesnotexist.ext")
			if res.Ok || res.Elapsed != 0 || res.Bytes != 0 {
				t.Errorf("expected (false, 0, 0), got %+v", res)
			}
			if res.Err == nil || res.Err.Error() != "file not found: doesnotexist.ext" {
				t.Errorf("unexpected error %v", res.Err)
			}

			if ok, err := env.client.RemoteDelete("doesnotexist.ext"); ok || err == nil {
				t.Errorf("delete of missing file returned %v, %v", ok, err)
			}

			// no side effects on either side
			if _, ok := env.serverFile("doesnotexist.ext"); ok {
				t.Error("server created the missing file")
			}
			if exists, _ := afero.Exists(env.clientFs, "/work/doesnotexist.ext"); exists {
				t.Error("client created the missing file")
			}
		})
	}
}

func TestUploadMissingLocalFile(t *testing.T) {
	env := startEnv(t, envOptions{})

	res := env.client.RemoteUpload("nothere.dat")
	if res.Ok || res.Elapsed != 0 || res.Bytes != 0 {
		t.Errorf("expected (false, 0, 0), got %+v", res)
	}
	if !errors.Is(res.Err, os.ErrNotExist) {
		t.Errorf("unexpected error %v", res.Err)
	}
}

func TestMalformedCommandKeepsConnection(t *testing.T) {
	for _, mode := range testModes {
		t.Run(string(mode), func(t *testing.T) {
			env := startEnv(t, envOptions{mode: mode})

			conn, err := net.Dial("unix", env.endpoint)
			if err != nil {
				t.Fatalf("Dial failed: %v", err)
			}
			defer conn.Close()
			_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
			reader := framing.NewDelimiterCodec(0).NewReader(conn)

			roundTrip := func(cmd string) map[string]any {
				if _, err := conn.Write([]byte(cmd + "\r\n\r\n")); err != nil {
					t.Fatalf("Write failed: %v", err)
				}
				frame, err := reader.ReadFrame()
				if err != nil {
					t.Fatalf("ReadFrame failed: %v", err)
				}
				var resp map[string]any
				if err := json.Unmarshal(frame, &resp); err != nil {
					t.Fatalf("response is not JSON: %q", frame)
				}
				return resp
			}

			for _, cmd := range []string{"FOO bar", "list", "", "GET", "UPLOAD x.dat !!!notbase64"} {
				if resp := roundTrip(cmd); resp["status"] != "ERROR" {
					t.Errorf("%q: expected ERROR, got %v", cmd, resp)
				}
			}

			// the same connection still serves valid commands
			resp := roundTrip("LIST")
			if resp["status"] != "OK" {
				t.Errorf("LIST after malformed commands returned %v", resp)
			}
			if _, ok := resp["data"].([]any); !ok {
				t.Errorf("LIST data is not a list: %v", resp["data"])
			}
		})
	}
}

func TestConcurrentUploads(t *testing.T) {
	const workers = 8
	const size = 64 * 1024

	for _, mode := range testModes {
		t.Run(string(mode), func(t *testing.T) {
			env := startEnv(t, envOptions{mode: mode, workers: 3})
			content := env.writeLocal(t, "load.dat", size)

			report, err := client.RunStress(env.client, client.StressConfig{
				Operation: client.OperationUpload,
				File:      "load.dat",
				Workers:   workers,
				Distinct:  true,
				Verify:    true,
			})
			if err != nil {
				t.Fatalf("RunStress failed: %v", err)
			}
			if report.Successes != workers || report.Failures != 0 || report.Corrupt != 0 {
				t.Fatalf("unexpected report: %+v", report)
			}
			if report.TotalBytes != workers*size {
				t.Errorf("TotalBytes is %d, expected %d", report.TotalBytes, workers*size)
			}
			expectedThroughput := float64(report.TotalBytes) / report.TotalTime.Seconds()
			if report.Throughput != expectedThroughput {
				t.Errorf("Throughput is %f, expected %f", report.Throughput, expectedThroughput)
			}

			for i := 0; i < workers; i++ {
				stored, ok := env.serverFile(fmt.Sprintf("%d_load.dat", i))
				if !ok || !bytes.Equal(stored, content) {
					t.Errorf("file %d_load.dat missing or wrong", i)
				}
			}
		})
	}
}

func TestConcurrentDownloads(t *testing.T) {
	env := startEnv(t, envOptions{mode: common.WorkerModeIsolated, workers: 2})
	env.writeLocal(t, "shared.dat", 32*1024)
	if res := env.client.RemoteUpload("shared.dat"); !res.Ok {
		t.Fatalf("upload failed: %v", res.Err)
	}

	report, err := client.RunStress(env.client, client.StressConfig{
		Operation: client.OperationDownload,
		File:      "shared.dat",
		Workers:   6,
		Verify:    true,
	})
	if err != nil {
		t.Fatalf("RunStress failed: %v", err)
	}
	if report.Successes != 6 || report.Corrupt != 0 || report.FileSize != 32*1024 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestDeleteAfterDelete(t *testing.T) {
	for _, mode := range testModes {
		t.Run(string(mode), func(t *testing.T) {
			env := startEnv(t, envOptions{mode: mode})
			env.writeLocal(t, "once.txt", 10)
			env.client.RemoteUpload("once.txt")

			if ok, err := env.client.RemoteDelete("once.txt"); !ok {
				t.Fatalf("first delete failed: %v", err)
			}
			for i := 0; i < 2; i++ {
				if ok, err := env.client.RemoteDelete("once.txt"); ok || err == nil {
					t.Errorf("delete %d of a deleted file returned %v, %v", i+2, ok, err)
				}
			}
			// the server is still alive
			if list := env.client.RemoteList(); !list.Ok {
				t.Errorf("list failed after repeated deletes: %v", list.Err)
			}
		})
	}
}

func TestProtocolInstances(t *testing.T) {
	tests := []struct {
		mode     common.WorkerMode
		expected int
	}{
		{common.WorkerModeShared, 1},
		{common.WorkerModeIsolated, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			// the binary serializer keeps lazily created zstd state
			env := startEnv(t, envOptions{mode: tt.mode, workers: 3, codec: "Binary"})

			for i := 0; i < 10; i++ {
				env.client.RemoteList()
			}
			if got := env.server.Instances(); got != tt.expected {
				t.Fatalf("%d protocol instances, expected %d", got, tt.expected)
			}

			env.server.mu.Lock()
			defer env.server.mu.Unlock()
			serializers := map[serializer.IRPCSerializer]bool{}
			stores := map[store.IFileStore]bool{}
			for _, p := range env.server.protocols {
				if p.serializer == env.server.serializer {
					t.Errorf("protocol %d uses the serializer passed to NewRPCServer", p.id)
				}
				serializers[p.serializer] = true
				stores[p.store] = true
			}
			if len(serializers) != tt.expected || len(stores) != tt.expected {
				t.Errorf("%d serializers and %d stores, expected %d of each", len(serializers), len(stores), tt.expected)
			}
		})
	}
}

func TestServeRejectsIncompatibleCodecs(t *testing.T) {
	config := common.DefaultServerConfig()
	config.Transport.Endpoint = socketPath(t)
	config.Transport.Framing = framing.NameDelimiter
	config.LogLevel = "error"

	s := NewRPCServer(config, unix.NewUnixServerTransport(), serializer.NewBinarySerializer(), WithFs(afero.NewMemMapFs()))
	if err := s.Serve(context.Background()); err == nil {
		t.Error("Serve should reject binary serializer with delimiter framing")
	}

	config.WorkerMode = "forked"
	s = NewRPCServer(config, unix.NewUnixServerTransport(), serializer.NewTextSerializer(), WithFs(afero.NewMemMapFs()))
	if err := s.Serve(context.Background()); err == nil {
		t.Error("Serve should reject an unknown worker mode")
	}
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}
