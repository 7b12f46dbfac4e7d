// Package rpc is the network layer of tKV. It exposes one storage backend
// over HTTP and provides a typed client for it.
//
// The package is organized into several subpackages:
//
//   - common: Request and response records of the API, configuration
//     structures and the logger factory.
//
//   - server: The HTTP server. Every handler calls exactly one
//     storage.Storage operation and maps storage errors to status codes.
//
//   - client: A client for the API with round robin endpoints and retries,
//     used by the command line tools.
package rpc
