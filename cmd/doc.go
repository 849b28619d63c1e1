// Package cmd implements the command-line interface of rfs, the remote file
// service. It provides a hierarchical command structure with operations for
// running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring the file server
//   - file: Client commands (ls, get, put, rm) and the load tools (perf, gen)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as an environment variable RFS_<FLAG>, with dashes
// replaced by underscores (e.g. RFS_WORKER_MODE=isolated). Variables are also
// read from .env and .env.local.
//
// See rfs -help for a list of all commands.
package cmd
