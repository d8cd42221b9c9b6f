package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/brizzai/httpdeco/pkg/httpdeco"
	"github.com/brizzai/httpdeco/pkg/metadata"
	"github.com/brizzai/httpdeco/pkg/reqconfig"
	"github.com/brizzai/httpdeco/pkg/transport"
	"go.uber.org/zap"
)

// TypeID is the type identifier catalog endpoints are declared under.
const TypeID = "catalog"

var (
	// ErrUnknownEndpoint is returned when calling a name the catalog does not declare.
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	// ErrNoParamsSlot is returned when params are passed to an endpoint that declares no params slot.
	ErrNoParamsSlot = errors.New("endpoint takes no params")
	// ErrNoConfigSlot is returned when a config fragment is passed to an endpoint that declares no
	// config slot.
	ErrNoConfigSlot = errors.New("endpoint takes no config")
)

// Endpoint is a declared catalog entry.
type Endpoint struct {
	Entry
	Key  metadata.Key
	Verb string
	URL  string

	call  httpdeco.Endpoint
	slots metadata.Metadata
}

// TakesParams reports whether the endpoint declares a params slot.
func (e *Endpoint) TakesParams() bool {
	return e.slots.ParamsSlot.Valid()
}

// args places params and cfg in the endpoint's declared slots.
func (e *Endpoint) args(params, cfg map[string]any) ([]any, error) {
	args := make([]any, int(e.slots.MaxSlot())+1)
	if len(params) > 0 {
		if !e.slots.ParamsSlot.Valid() {
			return nil, ErrNoParamsSlot
		}
		args[e.slots.ParamsSlot] = params
	}
	if len(cfg) > 0 {
		if !e.slots.ConfigSlot.Valid() {
			return nil, ErrNoConfigSlot
		}
		args[e.slots.ConfigSlot] = cfg
	}
	return args, nil
}

// Service declares every catalog entry on a client and calls them by name.
type Service struct {
	client    *httpdeco.Client
	endpoints []*Endpoint
	byName    map[string]*Endpoint
	log       *zap.Logger
}

// NewService merges the catalog defaults into client and declares every entry on it.
func NewService(cat *Catalog, client *httpdeco.Client, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		client: client,
		byName: make(map[string]*Endpoint, len(cat.Endpoints)),
		log:    log,
	}
	if len(cat.Defaults) > 0 {
		client.SetDefaults(cat.Defaults)
	}
	for i := range cat.Endpoints {
		ep, err := s.declare(&cat.Endpoints[i])
		if err != nil {
			return nil, cat.wrap(err)
		}
		s.endpoints = append(s.endpoints, ep)
		s.byName[ep.Name] = ep
	}
	sort.Slice(s.endpoints, func(i, j int) bool {
		return s.endpoints[i].Name < s.endpoints[j].Name
	})
	log.Info("catalog declared", zap.String("source", cat.Source), zap.Int("endpoints", len(s.endpoints)))
	return s, nil
}

func (s *Service) declare(entry *Entry) (*Endpoint, error) {
	c, err := compile(entry)
	if err != nil {
		return nil, err
	}
	if c.responseAdded {
		s.log.Debug("no response slot declared, appending one", zap.String("endpoint", entry.Name))
	}

	ep := &Endpoint{Entry: *entry, Key: metadata.KeyOf(TypeID, entry.Name)}
	call, err := s.client.Declare(TypeID, entry.Name, ep.body, c.annotations...)
	if err != nil {
		return nil, &Error{Endpoint: entry.Name, Err: err}
	}
	ep.call = call
	ep.slots = s.client.Store().Metadata(ep.Key)
	ep.Verb, ep.URL = ep.slots.Verb, ep.slots.URL
	return ep, nil
}

// body surfaces a caught error, or the injected response.
func (e *Endpoint) body(ctx context.Context, args []any) (any, error) {
	if err := httpdeco.Fail(args, int(e.slots.ErrorSlot)); err != nil {
		return nil, err
	}
	resp, _ := httpdeco.Arg[*transport.Response](args, int(e.slots.ResponseSlot))
	return resp, nil
}

// Endpoints lists the declared endpoints sorted by name.
func (s *Service) Endpoints() []*Endpoint {
	return s.endpoints
}

// Lookup returns the endpoint called name.
func (s *Service) Lookup(name string) (*Endpoint, bool) {
	ep, ok := s.byName[name]
	return ep, ok
}

// Client returns the client the catalog is declared on.
func (s *Service) Client() *httpdeco.Client {
	return s.client
}

// Call invokes the endpoint called name with params and a per-call config fragment, both optional.
func (s *Service) Call(ctx context.Context, name string, params, cfg map[string]any) (*transport.Response, error) {
	ep, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, name)
	}
	args, err := ep.args(params, cfg)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}
	out, err := ep.call(ctx, args...)
	resp, _ := out.(*transport.Response)
	return resp, err
}

// Resolve returns the configuration Call would dispatch, without dispatching.
func (s *Service) Resolve(name string, params, cfg map[string]any) (reqconfig.RequestConfig, error) {
	ep, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, name)
	}
	args, err := ep.args(params, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", name, err)
	}
	return s.client.Resolve(TypeID, name, args...)
}
