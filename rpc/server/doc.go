// Package server exposes a storage.Storage over HTTP.
//
// The API is a thin boundary: every handler decodes its JSON request, calls
// exactly one storage operation with the request context and encodes the
// result. Failures are answered with an ErrorResponse whose status code is
// derived from the storage error kind:
//
//	ValueNotFound     404
//	InvalidValueType  409
//	malformed input   400
//	everything else   500
//
// Routes:
//
//	GET    /keys?prefix=P      list keys starting with P
//	POST   /keys               set {key, value, ttl}
//	DELETE /keys               delete all keys starting with {prefix}
//	GET    /keys/{key}         read a value ({"value": null} if absent)
//	DELETE /keys/{key}         delete a key
//	POST   /keys/{key}/inc     increment by {value}, optional {default}
//	POST   /keys/{key}/dec     decrement by {value}, optional {default}
//	GET    /keys/{key}/ttl     remaining lifetime (-1 if absent or unlimited)
//	POST   /keys/{key}/ttl     replace the lifetime with {ttl}
//	GET    /info               version and backend
//	GET    /metrics            Prometheus metrics (if enabled)
//
// Usage Example:
//
//	store, _ := engines.Open(storage.ImplBadger, nil)
//	s := server.NewServer(config, store, server.BuildInfo{Version: "1.0.0"})
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
package server
