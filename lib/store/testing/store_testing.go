package testing

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/ValentinKolb/rfs/lib/store"
)

// StoreFactory is a function that creates a new, empty IFileStore instance
type StoreFactory func(t *testing.T) store.IFileStore

// RunFileStoreTests runs a comprehensive test suite for an IFileStore implementation.
func RunFileStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Write&Read", func(t *testing.T) {
			testWriteRead(t, factory(t))
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory(t))
		})

		t.Run("List", func(t *testing.T) {
			testList(t, factory(t))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(t))
		})

		t.Run("NotFound", func(t *testing.T) {
			testNotFound(t, factory(t))
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory(t))
		})

		t.Run("ConcurrentWriters", func(t *testing.T) {
			testConcurrentWriters(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testWriteRead(t *testing.T, s store.IFileStore) {
	content := []byte("hello file store")
	if err := s.Write("a.txt", content); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := s.Read("a.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Read returned %q, expected %q", got, content)
	}

	exists, err := s.Exists("a.txt")
	if err != nil || !exists {
		t.Errorf("Exists returned %v (%v), expected true", exists, err)
	}
}

func testOverwrite(t *testing.T, s store.IFileStore) {
	_ = s.Write("a.txt", bytes.Repeat([]byte("long content "), 100))
	if err := s.Write("a.txt", []byte("short")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := s.Read("a.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "short" {
		t.Errorf("overwrite did not truncate, got %d bytes", len(got))
	}
}

func testList(t *testing.T, s store.IFileStore) {
	names, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("new store should be empty, got %v", names)
	}

	want := []string{"a.txt", "b.dat", "c"}
	for _, name := range want {
		if err := s.Write(name, []byte(name)); err != nil {
			t.Fatalf("Write %s failed: %v", name, err)
		}
	}

	names, err = s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	sort.Strings(names)
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("List returned %v, expected %v", names, want)
	}
}

func testDelete(t *testing.T, s store.IFileStore) {
	_ = s.Write("gone.txt", []byte("x"))

	if err := s.Delete("gone.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if exists, _ := s.Exists("gone.txt"); exists {
		t.Error("file still exists after Delete")
	}

	// second delete must fail with not found
	err := s.Delete("gone.txt")
	if !store.IsNotFound(err) {
		t.Errorf("second Delete returned %v, expected not found", err)
	}

	names, _ := s.List()
	for _, name := range names {
		if name == "gone.txt" {
			t.Error("deleted file still listed")
		}
	}
}

func testNotFound(t *testing.T, s store.IFileStore) {
	if _, err := s.Read("missing.txt"); !store.IsNotFound(err) {
		t.Errorf("Read of missing file returned %v, expected not found", err)
	}
	if exists, err := s.Exists("missing.txt"); err != nil || exists {
		t.Errorf("Exists of missing file returned %v (%v)", exists, err)
	}
	if msg := store.Message(mustErr(s.Read("missing.txt"))); msg != "file not found: missing.txt" {
		t.Errorf("unexpected message %q", msg)
	}
}

func testEdgeCases(t *testing.T, s store.IFileStore) {
	// Empty content
	if err := s.Write("empty.txt", []byte{}); err != nil {
		t.Fatalf("Write of empty file failed: %v", err)
	}
	got, err := s.Read("empty.txt")
	if err != nil || len(got) != 0 {
		t.Errorf("Read of empty file returned %d bytes (%v)", len(got), err)
	}

	// Binary content
	binaryContent := []byte{0, 1, 2, '\r', '\n', '\r', '\n', 255}
	_ = s.Write("binary.dat", binaryContent)
	if got, _ := s.Read("binary.dat"); !bytes.Equal(got, binaryContent) {
		t.Errorf("binary content mismatch: %v", got)
	}

	// Empty name
	if err := s.Write("", []byte("x")); err == nil {
		t.Error("Write with empty name should fail")
	}

	// Large content
	large := bytes.Repeat([]byte{0xAB}, 1024*1024)
	if err := s.Write("test_1mb.dat", large); err != nil {
		t.Fatalf("Write of 1 MiB failed: %v", err)
	}
	if got, _ := s.Read("test_1mb.dat"); len(got) != len(large) {
		t.Errorf("Read returned %d bytes, expected %d", len(got), len(large))
	}
}

func testConcurrentWriters(t *testing.T, s store.IFileStore) {
	const writers = 16
	var wg sync.WaitGroup

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("file-%d.dat", i)
			if err := s.Write(name, bytes.Repeat([]byte{byte(i)}, 4096)); err != nil {
				t.Errorf("Write %s failed: %v", name, err)
			}
		}(i)
	}
	wg.Wait()

	names, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != writers {
		t.Fatalf("expected %d files, got %d", writers, len(names))
	}
	for i := 0; i < writers; i++ {
		got, err := s.Read(fmt.Sprintf("file-%d.dat", i))
		if err != nil || !bytes.Equal(got, bytes.Repeat([]byte{byte(i)}, 4096)) {
			t.Errorf("file-%d.dat has wrong content (%v)", i, err)
		}
	}
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustErr(_ []byte, err error) error {
	if err == nil {
		return fmt.Errorf("expected an error")
	}
	return err
}
