package client

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrorType classifies a failed exchange with the daemon.
type ErrorType int

const (
	ErrTypeNetwork ErrorType = iota
	ErrTypeHTTP
	ErrTypeParse
	ErrTypeTimeout
	ErrTypeConnectionRefused
	ErrTypeDNS
)

// errorKind holds what the CLI shows for each ErrorType.
type errorKind struct {
	name  string
	short string
	hints []string
}

var kinds = map[ErrorType]errorKind{
	ErrTypeNetwork: {
		name:  "Network Error",
		short: "Network error - check connection",
		hints: []string{"Check your network connection and that the daemon is running."},
	},
	ErrTypeHTTP: {name: "HTTP Error"},
	ErrTypeParse: {
		name:  "Parse Error",
		short: "Failed to parse daemon response",
		hints: []string{"The daemon answered with an unexpected document. Check that client and daemon versions match."},
	},
	ErrTypeTimeout: {
		name:  "Timeout",
		short: "Daemon not responding (timeout)",
		hints: []string{
			"The daemon did not respond in time.",
			"A hung v4lctl call blocks the daemon; set a tool timeout",
			"Check that the capture card driver is loaded",
		},
	},
	ErrTypeConnectionRefused: {
		name:  "Connection Refused",
		short: "Connection refused - is v4lctld running?",
		hints: []string{
			"Nothing is listening at the daemon address.",
			"Start the daemon: v4lctld serve",
			"Check the --listen address of the daemon (default :8740)",
			"Run 'v4lctl-cfg scan' to find daemons on the network",
		},
	},
	ErrTypeDNS: {
		name:  "DNS Error",
		short: "Cannot resolve daemon hostname",
		hints: []string{
			"Could not resolve the daemon hostname.",
			"Use the IP address instead of hostname",
			"Run 'v4lctl-cfg scan' to find daemons via mDNS",
		},
	},
}

func (et ErrorType) String() string {
	if k, ok := kinds[et]; ok {
		return k.name
	}
	return fmt.Sprintf("ErrorType(%d)", et)
}

// APIError is returned by every Client method that fails.
type APIError struct {
	Type       ErrorType
	Message    string
	StatusCode int    // HTTP status, when the daemon answered
	RequestID  string // X-Request-ID of that answer
	Err        error
	Retryable  bool
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// ClassifyNetworkError wraps a transport failure, unwrapping url.Error to
// find the timeout, DNS or refused-connection cause.
func ClassifyNetworkError(message string, err error) *APIError {
	if err == nil {
		return nil
	}

	var (
		dnsErr *net.DNSError
		opErr  *net.OpError
		urlErr *url.Error
	)
	e := &APIError{Type: ErrTypeNetwork, Message: message, Err: err, Retryable: true}
	switch {
	case os.IsTimeout(err):
		e.Type = ErrTypeTimeout
	case errors.As(err, &dnsErr):
		e.Type, e.Retryable = ErrTypeDNS, false
	case errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED):
		e.Type = ErrTypeConnectionRefused
	case errors.As(err, &urlErr) && urlErr.Err != nil && urlErr.Err != err:
		e = ClassifyNetworkError(message, urlErr.Err)
		e.Err = err
	}
	return e
}

// NewHTTPError reports a non-2xx answer. Only 5xx is retried.
func NewHTTPError(statusCode int, message, requestID string) *APIError {
	return &APIError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		RequestID:  requestID,
		Retryable:  statusCode >= 500,
	}
}

func NewParseError(message string, err error) *APIError {
	return &APIError{Type: ErrTypeParse, Message: message, Err: err}
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// IsNetworkError reports whether the daemon was never reached.
func IsNetworkError(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Type != ErrTypeHTTP && apiErr.Type != ErrTypeParse
}

func IsRetryable(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Retryable
}

// StatusCode returns the HTTP status of an APIError, or 0.
func StatusCode(err error) int {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.StatusCode
	}
	return 0
}

// ShortMessage is the one-line form shown in failure boxes. A 400 carries
// the daemon's own explanation, which is already phrased for the operator.
func ShortMessage(err error) string {
	apiErr, ok := asAPIError(err)
	switch {
	case !ok:
		return err.Error()
	case apiErr.Type == ErrTypeHTTP && apiErr.StatusCode == 400:
		return apiErr.Message
	case apiErr.Type == ErrTypeHTTP:
		return fmt.Sprintf("Daemon error (HTTP %d): %s", apiErr.StatusCode, apiErr.Message)
	}
	if short := kinds[apiErr.Type].short; short != "" {
		return short
	}
	return apiErr.Message
}

// Hints returns troubleshooting lines for err, first line a summary.
func Hints(err error) []string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return []string{"An unexpected error occurred. Please try again."}
	}
	if apiErr.Type == ErrTypeHTTP {
		if apiErr.StatusCode >= 500 {
			return []string{fmt.Sprintf("The daemon failed (HTTP %d). Check its log, request id %s.", apiErr.StatusCode, apiErr.RequestID)}
		}
		return []string{"The request was rejected. Check attribute names and values with 'v4lctl-cfg show'."}
	}
	return kinds[apiErr.Type].hints
}
