// Package common provides the pieces shared by the tKV server, the client
// and the command line tools.
//
// Key Components:
//
//   - Request and response records of the HTTP API (proto.go). Values travel
//     as IntOrString so integers and strings keep their type on the wire.
//
//   - ServerConfig and ClientConfig: configuration for the server and for
//     clients, with a human readable String() used in startup banners.
//
//   - Logger: the logger factory installed into dragonboat's logger registry,
//     which every package obtains its logger from.
package common
