// Package transport defines the capability a decorated call dispatches through: the contract, the
// response and error shapes, and a middleware chain for cross-cutting concerns. HTTP is the net/http
// implementation used when a client is given no other.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/brizzai/httpdeco/pkg/reqconfig"
)

// Transport sends an assembled request configuration.
type Transport interface {
	Send(ctx context.Context, cfg reqconfig.RequestConfig) (*Response, error)
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, cfg reqconfig.RequestConfig) (*Response, error)

// Send calls f.
func (f Func) Send(ctx context.Context, cfg reqconfig.RequestConfig) (*Response, error) {
	return f(ctx, cfg)
}

// Response is what a successful dispatch yields.
type Response struct {
	Status     int
	StatusText string
	Headers    http.Header
	// Body is the raw response payload.
	Body []byte
	// Data is the decoded payload: the JSON value for JSON responses, the body as a string otherwise.
	Data any
	// Config is the configuration the request was dispatched with.
	Config reqconfig.RequestConfig
}

// Error is a transport failure: network errors, timeouts and non-2xx statuses.
type Error struct {
	Config   reqconfig.RequestConfig
	Response *Response
	Err      error
}

func (e *Error) Error() string {
	target := fmt.Sprintf("%s %s", e.Config.Method(), e.Config.URL())
	switch {
	case e.Response != nil && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", target, e.Response.Status, e.Err)
	case e.Response != nil:
		return fmt.Sprintf("%s: request failed with status %d", target, e.Response.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", target, e.Err)
	default:
		return target + ": request failed"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the response status, or 0 when no response was received.
func (e *Error) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.Status
}

// ErrStatus is wrapped by errors caused by a non-2xx response.
var ErrStatus = errors.New("unexpected status code")

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
