// Package common provides core data structures and utilities shared across
// the remote file service. It defines the command model, configuration
// structures and the logging setup used by all other packages.
//
// Key Components:
//
//   - Command / Response: The logical request and answer of every operation
//     (LIST, GET, UPLOAD, DELETE). Factory functions create well formed
//     requests and responses so adapters never fill fields by hand.
//
//   - Text grammar: ParseCommand and FormatCommand convert a Command to and
//     from its single line text form (verb, filename, base64 payload).
//
//   - ServerConfig / ClientConfig: Configuration for the server (listener,
//     worker pool, storage, metrics) and the client (endpoint, timeout,
//     working directory). Both print a readable table via String().
//
//   - Logger: Custom logging implementation for the dragonboat logger facade
//     providing consistent formatting across the application.
package common
