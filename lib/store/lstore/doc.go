// Package lstore implements store.IFileStore on top of an afero filesystem.
//
// Every file lives directly in one data directory and is addressed by the
// name supplied by the caller. Names are joined to the data directory as
// they are, without confinement, so a name containing path separators can
// reach outside of it. Deployments that accept untrusted clients must run
// the server in a dedicated directory or container.
//
// The filesystem is injected: production code passes afero.NewOsFs(),
// tests use afero.NewMemMapFs() to stay off the disk.
//
// Thread Safety:
//
//	The store holds no state besides the filesystem handle and is safe for
//	concurrent use. Concurrent writes to the same name are not coordinated,
//	the last completed write wins.
package lstore
