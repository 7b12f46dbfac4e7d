// Package cmd implements the command-line interface of tKV. It provides
// commands for running the server and for talking to it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts the HTTP server on top of one storage backend
//   - kv: Key-value operations against a running server (get, set, inc, ...)
//   - bench: A small load generator for a running server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See tkv -help for a list of all commands.
package cmd
