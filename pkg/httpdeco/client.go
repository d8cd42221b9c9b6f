// Package httpdeco binds methods to outbound HTTP calls declaratively.
//
// A method is declared with annotations: one verb annotation fixing the request target, and any number
// of Header, Params, Config, Response and Catch annotations that either attach static fragments or mark
// which positional arguments carry call-time params and config, and which receive the response or error.
//
//	type ItemAPI struct{}
//
//	var listItems = httpdeco.MustDeclare(ItemAPI{}, "List",
//		func(ctx context.Context, args []any) (any, error) {
//			resp, _ := httpdeco.Arg[*transport.Response](args, 1)
//			return resp, nil
//		},
//		httpdeco.Get("/items"),
//		httpdeco.Params(0),
//		httpdeco.Response(1),
//	)
//
//	resp, err := listItems(ctx, map[string]any{"limit": 10})
//
// On every call the request configuration is assembled from the registry defaults, the method's static
// fragments and the call arguments, sent through the client's transport, and the outcome is written into
// the declared argument slots before the body runs.
package httpdeco

import (
	"context"
	"fmt"
	"sync"

	"github.com/brizzai/httpdeco/pkg/metadata"
	"github.com/brizzai/httpdeco/pkg/reqconfig"
	"github.com/brizzai/httpdeco/pkg/transport"
	"go.uber.org/zap"
)

// Body is the original method body. It receives the call's argument list after slot injection.
type Body func(ctx context.Context, args []any) (any, error)

// Endpoint is a declared method ready to be called.
type Endpoint func(ctx context.Context, args ...any) (any, error)

// FailurePolicy decides what happens to a transport error when the method declares no error slot.
type FailurePolicy int

const (
	// ReturnUnhandled returns the transport error from the endpoint, joined with the body's error.
	ReturnUnhandled FailurePolicy = iota
	// DiscardUnhandled drops the error after logging it. The body still runs.
	DiscardUnhandled
)

// Client owns a default configuration registry, a metadata store and a transport. Declarations made on
// a client resolve against its registry and dispatch through its transport.
type Client struct {
	registry    *reqconfig.Registry
	store       *metadata.Store
	transport   transport.Transport
	middlewares []transport.Middleware
	logger      *zap.Logger
	policy      FailurePolicy
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the default HTTP transport.
func WithTransport(t transport.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithRegistry sets the registry defaults are read from.
func WithRegistry(r *reqconfig.Registry) Option {
	return func(c *Client) {
		c.registry = r
	}
}

// WithStore sets the metadata store declarations are recorded in.
func WithStore(s *metadata.Store) Option {
	return func(c *Client) {
		c.store = s
	}
}

// WithLogger sets the logger used for call tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMiddleware wraps the transport with mws, first one outermost.
func WithMiddleware(mws ...transport.Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, mws...)
	}
}

// WithFailurePolicy sets how failures are handled when no error slot is declared.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// New creates a client with its own empty registry, its own store and an HTTP transport.
func New(opts ...Option) *Client {
	c := &Client{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = reqconfig.NewRegistry(nil)
	}
	if c.store == nil {
		c.store = metadata.NewStore()
	}
	if c.transport == nil {
		c.transport = transport.NewHTTP()
	}
	c.transport = transport.Chain(c.transport, c.middlewares...)
	return c
}

// CreateInstance creates an isolated client whose registry is seeded from initial. Its defaults never
// leak into, or pick up, the process-wide defaults.
func CreateInstance(initial reqconfig.RequestConfig, opts ...Option) *Client {
	return New(append([]Option{WithRegistry(reqconfig.NewRegistry(initial))}, opts...)...)
}

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Default returns the process-wide client, backed by the global registry and the global store.
func Default() *Client {
	defaultOnce.Do(func() {
		defaultClient = New(
			WithRegistry(reqconfig.Global()),
			WithStore(metadata.Default()),
		)
	})
	return defaultClient
}

// Registry returns the client's registry.
func (c *Client) Registry() *reqconfig.Registry {
	return c.registry
}

// Store returns the client's metadata store.
func (c *Client) Store() *metadata.Store {
	return c.store
}

// SetDefaults merges fragment into the client's defaults.
func (c *Client) SetDefaults(fragment reqconfig.RequestConfig) {
	c.registry.SetDefaults(fragment)
}

// Defaults returns a private copy of the client's defaults.
func (c *Client) Defaults() reqconfig.RequestConfig {
	return c.registry.Defaults()
}

// Declare records annotations for method on target's type and returns the callable endpoint.
// Every annotation is checked before anything is recorded; exactly one verb annotation is required.
// Declaring the same method again replaces its previous record.
func (c *Client) Declare(target any, method string, body Body, annotations ...Annotation) (Endpoint, error) {
	key := metadata.KeyOf(target, method)

	var route *Annotation
	for i := range annotations {
		a := annotations[i]
		if a.err != nil {
			err := *a.err
			err.Key = key
			return nil, &err
		}
		if a.key != nil && *a.key != key {
			return nil, &DeclarationError{
				Annotation: a.name,
				Key:        key,
				Reason:     "slot annotation names " + a.key.String(),
			}
		}
		if a.kind == kindVerb {
			if route != nil {
				return nil, &DeclarationError{Annotation: a.name, Key: key, Reason: "method already declared as @" + route.name}
			}
			route = &annotations[i]
		}
	}
	if route == nil {
		return nil, &DeclarationError{Annotation: "Verb", Key: key, Reason: "no verb annotation"}
	}

	c.store.Reset(key)
	for _, a := range annotations {
		a.record(c.store, key)
	}

	verb, url := route.verb, route.url
	return func(ctx context.Context, args ...any) (any, error) {
		return c.invoke(ctx, key, verb, url, body, args)
	}, nil
}

// MustDeclare is like Declare but panics on a declaration error.
func (c *Client) MustDeclare(target any, method string, body Body, annotations ...Annotation) Endpoint {
	ep, err := c.Declare(target, method, body, annotations...)
	if err != nil {
		panic(err)
	}
	return ep
}

// Resolve returns the configuration a call to method with args would dispatch, without dispatching.
func (c *Client) Resolve(target any, method string, args ...any) (reqconfig.RequestConfig, error) {
	key := metadata.KeyOf(target, method)
	meta := c.store.Metadata(key)
	if !meta.HasRoute() {
		return nil, fmt.Errorf("resolve %s: %w", key, ErrUndeclared)
	}
	return assemble(c.registry.Defaults(), meta, meta.Verb, meta.URL, prepareArgs(args, meta.MaxSlot())), nil
}

// Declare declares method on the process-wide client.
func Declare(target any, method string, body Body, annotations ...Annotation) (Endpoint, error) {
	return Default().Declare(target, method, body, annotations...)
}

// MustDeclare declares method on the process-wide client and panics on a declaration error.
func MustDeclare(target any, method string, body Body, annotations ...Annotation) Endpoint {
	return Default().MustDeclare(target, method, body, annotations...)
}

// SetDefaults merges fragment into the process-wide defaults.
func SetDefaults(fragment reqconfig.RequestConfig) {
	reqconfig.SetDefaults(fragment)
}

// Defaults returns a private copy of the process-wide defaults.
func Defaults() reqconfig.RequestConfig {
	return reqconfig.Defaults()
}
