// Package api defines the JSON documents exchanged between v4lctld and its
// clients.
//
// # HTTP Endpoints
//
//	POST /v1/get              {name}            → {name, result}
//	POST /v1/set              {name, value}     → {name, value, success}
//	GET  /v1/config                             → {config}
//	PUT  /v1/config           {key: value, ...} → {config, changes}
//	POST /v1/config/defaults                    → {config, changes}
//	GET  /v1/schema                             → {model, attributes}
//	GET  /v1/health                             → {status, version, device, model}
//	GET  /v1/ws                                   websocket, see Frame
//
// A failed device read is a successful request with an empty result, and a
// failed write is a successful request with success=false. Only malformed
// requests and invalid attribute values produce an error status.
package api
