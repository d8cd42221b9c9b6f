package transport

import (
	"context"

	"github.com/brizzai/httpdeco/pkg/reqconfig"
)

// Middleware wraps a transport.
type Middleware func(next Transport) Transport

// Chain wraps t with mws. The first middleware is the outermost one and sees the request first.
func Chain(t Transport, mws ...Middleware) Transport {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		t = mws[i](t)
	}
	return t
}

// RequestHook builds a middleware that runs fn on the configuration before it is sent. fn may modify
// cfg in place; a returned error aborts the call and is reported as a transport error.
func RequestHook(fn func(ctx context.Context, cfg reqconfig.RequestConfig) error) Middleware {
	return func(next Transport) Transport {
		return Func(func(ctx context.Context, cfg reqconfig.RequestConfig) (*Response, error) {
			if err := fn(ctx, cfg); err != nil {
				return nil, &Error{Config: cfg, Err: err}
			}
			return next.Send(ctx, cfg)
		})
	}
}

// ResponseHook builds a middleware that runs fn on every successful response. A returned error turns
// the call into a failure carrying that response.
func ResponseHook(fn func(ctx context.Context, resp *Response) error) Middleware {
	return func(next Transport) Transport {
		return Func(func(ctx context.Context, cfg reqconfig.RequestConfig) (*Response, error) {
			resp, err := next.Send(ctx, cfg)
			if err != nil {
				return resp, err
			}
			if err := fn(ctx, resp); err != nil {
				return nil, &Error{Config: cfg, Response: resp, Err: err}
			}
			return resp, nil
		})
	}
}
