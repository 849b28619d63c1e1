// Package testing provides a standardised conformance suite for
// implementations of the store.IFileStore interface.
//
// Example usage:
//
//	storetesting.RunFileStoreTests(t, "MyStore", func(t *testing.T) store.IFileStore {
//		return NewMyStore(t.TempDir())
//	})
package testing
