// Package clients provides the HTTP transport for the API client.
package clients

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// FailureKind is the shape of a failed exchange.
type FailureKind int

const (
	// FailureMalformed covers everything else, typically a request that could
	// not be built.
	FailureMalformed FailureKind = iota

	// FailureResponded means the server answered with a non-2xx status.
	FailureResponded

	// FailureNoNetwork means no connection to the server could be made.
	FailureNoNetwork

	// FailureNoResponse means the request was sent but nothing came back.
	FailureNoResponse
)

// String returns a short label, used in metrics and logs.
func (k FailureKind) String() string {
	switch k {
	case FailureResponded:
		return "responded"
	case FailureNoNetwork:
		return "no_network"
	case FailureNoResponse:
		return "no_response"
	default:
		return "malformed"
	}
}

// NetworkErrorMessage is the message carried by FailureNoNetwork failures.
const NetworkErrorMessage = "Network Error"

// Failure is a failed exchange. Exactly one of the shapes applies, named by
// Kind. Response is set only for FailureResponded.
type Failure struct {
	Kind     FailureKind
	Response *Response
	Message  string
	Err      error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	if f.Err != nil {
		return f.Err.Error()
	}
	return f.Kind.String()
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error {
	return f.Err
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// respondedFailure wraps a non-2xx response.
func respondedFailure(resp *Response) *Failure {
	return &Failure{Kind: FailureResponded, Response: resp}
}

// malformedFailure wraps an error raised while building the exchange.
func malformedFailure(err error) *Failure {
	f := &Failure{Kind: FailureMalformed, Err: err}
	if err != nil {
		f.Message = err.Error()
	}
	return f
}

// transportFailure classifies an error returned by the HTTP round trip.
// Timeouts and cancellation count as sent-but-unanswered even during dial;
// every other dial or resolution error means the network is unreachable.
func transportFailure(err error) *Failure {
	kind := FailureNoResponse

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		errors.As(err, &netErr) && netErr.Timeout():
		kind = FailureNoResponse
	case isNoNetwork(err):
		kind = FailureNoNetwork
	}

	f := &Failure{Kind: kind, Err: err, Message: err.Error()}
	if kind == FailureNoNetwork {
		f.Message = NetworkErrorMessage
	}

	return f
}

// isNoNetwork reports whether err means the connection was never established.
func isNoNetwork(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETDOWN) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
