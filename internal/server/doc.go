// Package server exposes a synchronization engine over HTTP and websocket.
//
// Every request is tagged with a request id (the X-Request-Id header, or a
// fresh UUID) and logged on arrival and completion. Mutating requests run
// detached from the client connection: a client that hangs up mid-reconcile
// does not interrupt the v4lctl writes.
//
// Websocket clients receive a "revision" frame after every reconcile, no
// matter which transport triggered it.
//
// # Graceful Shutdown
//
// Start blocks until SIGINT/SIGTERM or context cancellation, then withdraws
// the mDNS advertisement, closes websocket clients and drains in-flight
// HTTP requests. Flushing the snapshot is left to the caller.
package server
