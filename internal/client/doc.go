// Package client talks to a v4lctld daemon over its HTTP and websocket API.
//
// Requests that fail with a network error or a 5xx status are retried with
// exponential backoff. Errors are returned as *APIError, classified so that
// the command-line tools can print a short message and a troubleshooting
// hint.
//
// # Usage Example
//
//	c := client.New("http://192.168.1.20:8740")
//	value, err := c.Get(ctx, "UV Ratio")
//	if err != nil {
//	    fmt.Println(client.ShortMessage(err))
//	    return
//	}
//
//	current, changes, err := c.Apply(ctx, attr.Document{"bright": "70"})
package client
