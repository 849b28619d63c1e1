// Package store defines the storage abstraction of the file server.
//
// Key Components:
//
//   - IFileStore Interface: List, Read, Write, Delete and Exists on a flat set
//     of named files. The server adapter only talks to this interface.
//
//   - Error System: A structured error reporting mechanism using typed return
//     codes (RetCNotFound, RetCInvalidArgument, RetCInternalError) and a plain
//     message. Message extracts the message that is sent back to clients.
//
// Implementations:
//
//   - Local Store (lstore): files in a directory of an afero filesystem.
//     Available in the "github.com/ValentinKolb/rfs/lib/store/lstore" package.
//
// The conformance suite in lib/store/testing validates implementations.
package store
