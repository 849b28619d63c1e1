package serializer

import (
	"bytes"
	"errors"
	"github.com/ValentinKolb/rfs/rpc/common"
	"reflect"
	"strings"
	"testing"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"Text":   NewTextSerializer,
	"Binary": NewBinarySerializer,
	"BinaryCompressed": func() IRPCSerializer {
		return NewBinarySerializerWithOptions(Options{Compress: true, Checksum: true})
	},
	"Proto": NewProtoSerializer,
	"ProtoChecksum": func() IRPCSerializer {
		return NewProtoSerializerWithOptions(Options{Checksum: true})
	},
}

// testCommands creates one command per operation
func testCommands() []common.Command {
	return []common.Command{
		*common.NewListRequest(),
		*common.NewGetRequest("report.pdf"),
		*common.NewDeleteRequest("old.log"),
		*common.NewUploadRequest("small.txt", []byte("hello world")),
		*common.NewUploadRequest("empty.txt", []byte{}),
		*common.NewUploadRequest("large.dat", bytes.Repeat([]byte("0123456789"), 10_000)),
		*common.NewUploadRequest("binary.dat", []byte{0, '\r', '\n', '\r', '\n', 255}),
	}
}

// testResponses creates responses covering every response shape
func testResponses() []common.Response {
	return []common.Response{
		*common.NewListResponse([]string{"a.txt", "b.dat"}, nil),
		*common.NewListResponse(nil, nil),
		*common.NewGetResponse("a.txt", []byte("content"), nil),
		*common.NewGetResponse("empty.txt", []byte{}, nil),
		*common.NewGetResponse("large.dat", bytes.Repeat([]byte{1, 2, 3}, 50_000), nil),
		*common.NewUploadResponse("a.txt", 7, nil),
		*common.NewDeleteResponse("a.txt", nil),
		*common.NewErrorResponse(common.OpGet, "file not found: nope.txt"),
		*common.NewErrorResponse(common.OpUnknown, "unknown operation: \"FOO\""),
	}
}

// TestCommandRoundTrip tests that commands can be serialized and deserialized correctly
func TestCommandRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, cmd := range testCommands() {
				data, err := serializer.SerializeCommand(cmd)
				if err != nil {
					t.Errorf("Failed to serialize command %d: %v", i, err)
					continue
				}

				var result common.Command
				if err := serializer.DeserializeCommand(data, &result); err != nil {
					t.Errorf("Failed to deserialize command %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(cmd, result) {
					t.Errorf("Command %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, cmd.Op, result.Op)
				}
			}
		})
	}
}

// TestResponseRoundTrip tests that responses keep status, data and message
func TestResponseRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, resp := range testResponses() {
				data, err := serializer.SerializeResponse(resp)
				if err != nil {
					t.Errorf("Failed to serialize response %d: %v", i, err)
					continue
				}

				var result common.Response
				if err := serializer.DeserializeResponse(data, &result); err != nil {
					t.Errorf("Failed to deserialize response %d: %v", i, err)
					continue
				}

				if result.Status != resp.Status {
					t.Errorf("Response %d: status %s, want %s", i, result.Status, resp.Status)
				}
				if result.Message != resp.Message {
					t.Errorf("Response %d: message %q, want %q", i, result.Message, resp.Message)
				}
				if result.Filename != resp.Filename {
					t.Errorf("Response %d: filename %q, want %q", i, result.Filename, resp.Filename)
				}
				if !bytes.Equal(result.Content, resp.Content) || (resp.Content == nil) != (result.Content == nil) {
					t.Errorf("Response %d: content of %d bytes, want %d bytes", i, len(result.Content), len(resp.Content))
				}
				if !reflect.DeepEqual(result.Files, resp.Files) {
					t.Errorf("Response %d: files %v, want %v", i, result.Files, resp.Files)
				}

				// the text format only carries the operation for LIST and GET
				if resp.Ok() && (resp.Op == common.OpList || resp.Op == common.OpGet) && result.Op != resp.Op {
					t.Errorf("Response %d: op %s, want %s", i, result.Op, resp.Op)
				}
			}
		})
	}
}

// TestTextWireFormat checks the exact JSON layout of the text serializer
func TestTextWireFormat(t *testing.T) {
	s := NewTextSerializer()

	tests := []struct {
		resp common.Response
		want string
	}{
		{*common.NewListResponse([]string{"a.txt"}, nil), `{"status":"OK","data":["a.txt"]}`},
		{*common.NewListResponse(nil, nil), `{"status":"OK","data":[]}`},
		{*common.NewGetResponse("a.txt", []byte("hi"), nil), `{"status":"OK","data_namafile":"a.txt","data_file":"aGk="}`},
		{*common.NewDeleteResponse("a.txt", nil), `{"status":"OK","data":"file a.txt deleted"}`},
		{*common.NewErrorResponse(common.OpGet, "file not found: x"), `{"status":"ERROR","data":"file not found: x"}`},
	}

	for _, tc := range tests {
		got, err := s.SerializeResponse(tc.resp)
		if err != nil {
			t.Fatalf("serialize failed: %v", err)
		}
		if string(got) != tc.want {
			t.Errorf("got %s, want %s", got, tc.want)
		}
		if bytes.Contains(got, []byte("\r\n\r\n")) {
			t.Errorf("response contains the frame terminator: %s", got)
		}
	}

	cmd, err := s.SerializeCommand(*common.NewUploadRequest("a.txt", []byte("hello")))
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	if string(cmd) != "UPLOAD a.txt aGVsbG8=" {
		t.Errorf("unexpected command text %q", cmd)
	}
}

// TestMalformedCommands tests that every serializer rejects invalid commands with an error
func TestMalformedCommands(t *testing.T) {
	text := NewTextSerializer()
	for _, line := range []string{"", "FOO", "get a", "GET", "UPLOAD"} {
		var cmd common.Command
		if err := text.DeserializeCommand([]byte(line), &cmd); err == nil {
			t.Errorf("expected error for %q", line)
		}
	}

	for _, name := range []string{"Binary", "Proto"} {
		s := testSerializers[name]()
		var cmd common.Command
		unknown, _ := s.SerializeResponse(common.Response{Op: common.OpUnknown})
		if err := s.DeserializeCommand(unknown, &cmd); !errors.Is(err, common.ErrUnknownOperation) {
			t.Errorf("%s: expected ErrUnknownOperation, got %v", name, err)
		}
		noName, _ := s.SerializeCommand(common.Command{Op: common.OpGet})
		if err := s.DeserializeCommand(noName, &cmd); !errors.Is(err, common.ErrMissingFilename) {
			t.Errorf("%s: expected ErrMissingFilename, got %v", name, err)
		}
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1}, // Only operation, no flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0}, // LIST, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for filename",
			data:        []byte{2, 1, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Invalid length for data",
			data:        []byte{3, 2, 0, 0, 0, 10}, // Claims data length 10 but no bytes provided
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var resp common.Response
			err := serializer.DeserializeResponse(tc.data, &resp)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

// TestChecksumDetectsCorruption flips one content byte and expects a checksum error
func TestChecksumDetectsCorruption(t *testing.T) {
	for _, s := range []IRPCSerializer{
		NewBinarySerializerWithOptions(Options{Checksum: true}),
		NewProtoSerializerWithOptions(Options{Checksum: true}),
	} {
		t.Run(s.GetName(), func(t *testing.T) {
			content := []byte(strings.Repeat("payload", 10))
			data, err := s.SerializeCommand(*common.NewUploadRequest("a.txt", content))
			if err != nil {
				t.Fatalf("serialize failed: %v", err)
			}

			idx := bytes.Index(data, content)
			if idx < 0 {
				t.Fatal("content not found in encoded command")
			}
			data[idx] ^= 0xff

			var cmd common.Command
			if err := s.DeserializeCommand(data, &cmd); !errors.Is(err, ErrChecksumMismatch) {
				t.Fatalf("expected ErrChecksumMismatch, got %v", err)
			}
		})
	}
}

// TestBinaryCompression checks that compressible contents shrink and survive the round trip
func TestBinaryCompression(t *testing.T) {
	content := bytes.Repeat([]byte("compress me "), 10_000)
	plain := NewBinarySerializer()
	compressed := NewBinarySerializerWithOptions(Options{Compress: true})

	a, _ := plain.SerializeCommand(*common.NewUploadRequest("a.txt", content))
	b, err := compressed.SerializeCommand(*common.NewUploadRequest("a.txt", content))
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	if len(b) >= len(a) {
		t.Fatalf("expected compressed encoding to be smaller: %d >= %d", len(b), len(a))
	}

	// a plain serializer must still be able to read compressed data
	var cmd common.Command
	if err := plain.DeserializeCommand(b, &cmd); err != nil {
		t.Fatalf("deserialize failed: %v", err)
	}
	if !bytes.Equal(cmd.Payload, content) {
		t.Fatal("content mismatch after decompression")
	}
}

func TestRequiresLengthFraming(t *testing.T) {
	if NewTextSerializer().RequiresLengthFraming() {
		t.Error("text serializer must work with delimiter framing")
	}
	if !NewBinarySerializer().RequiresLengthFraming() || !NewProtoSerializer().RequiresLengthFraming() {
		t.Error("binary encodings must require length framing")
	}
}

func TestCheckFraming(t *testing.T) {
	tests := []struct {
		serializer IRPCSerializer
		framing    string
		ok         bool
	}{
		{NewTextSerializer(), "delimiter", true},
		{NewTextSerializer(), "length", true},
		{NewBinarySerializer(), "delimiter", false},
		{NewBinarySerializer(), "", false},
		{NewBinarySerializer(), "length", true},
		{NewProtoSerializer(), "delimiter", false},
		{NewProtoSerializer(), "length", true},
	}

	for _, tt := range tests {
		err := CheckFraming(tt.serializer, tt.framing)
		if (err == nil) != tt.ok {
			t.Errorf("CheckFraming(%s, %q) returned %v, expected ok=%v", tt.serializer.GetName(), tt.framing, err, tt.ok)
		}
	}
}

// TestTextResponseStatus tests that text responses carry a known status
func TestTextResponseStatus(t *testing.T) {
	s := NewTextSerializer()

	for _, data := range []string{`{"status":"MAYBE","data":"x"}`, `{"data":"x"}`, `{"status":7}`} {
		var resp common.Response
		if err := s.DeserializeResponse([]byte(data), &resp); err == nil {
			t.Errorf("expected error for %s, got %+v", data, resp)
		}
	}

	var resp common.Response
	if err := s.DeserializeResponse([]byte(`{"status":"ERROR","data":"boom"}`), &resp); err != nil {
		t.Fatalf("deserialize failed: %v", err)
	}
	if resp.Ok() || resp.Message != "boom" {
		t.Errorf("unexpected response %+v", resp)
	}
}

// TestClone tests that a clone is a separate instance that encodes like the original
func TestClone(t *testing.T) {
	cmd := *common.NewUploadRequest("large.dat", bytes.Repeat([]byte("0123456789"), 1_000))

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()
			clone := s.Clone()
			if clone == s {
				t.Fatal("clone shares the original instance")
			}
			if clone.GetName() != s.GetName() {
				t.Errorf("clone is a %s serializer, expected %s", clone.GetName(), s.GetName())
			}

			want, err := s.SerializeCommand(cmd)
			if err != nil {
				t.Fatalf("serialize failed: %v", err)
			}
			got, err := clone.SerializeCommand(cmd)
			if err != nil {
				t.Fatalf("serialize with clone failed: %v", err)
			}

			var back common.Command
			if err := s.DeserializeCommand(got, &back); err != nil {
				t.Fatalf("original cannot read the clone's output: %v", err)
			}
			if !reflect.DeepEqual(back, cmd) || len(got) != len(want) {
				t.Errorf("clone encodes differently (%d vs %d bytes)", len(got), len(want))
			}
		})
	}
}
