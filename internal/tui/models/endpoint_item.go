package models

import (
	"fmt"
	"maps"

	"github.com/brizzai/httpdeco/internal/catalog"
)

// EndpointItem wraps a catalog endpoint for display in the list, along with the params the
// preview resolves it with.
// Implements list.Item
type EndpointItem struct {
	Endpoint *catalog.Endpoint
	Params   map[string]any
}

func (i EndpointItem) Title() string {
	return i.Endpoint.Name
}

func (i EndpointItem) Route() string {
	return i.Endpoint.Verb + " " + i.Endpoint.URL
}

func (i EndpointItem) Description() string {
	desc := i.Route()
	if len(i.Params) > 0 {
		desc += fmt.Sprintf(" [%d params]", len(i.Params))
	}
	if i.Endpoint.Description != "" {
		desc += "  " + i.Endpoint.Description
	}
	return desc
}

// WithParams returns a copy of the item resolving with params.
func (i EndpointItem) WithParams(params map[string]any) EndpointItem {
	i.Params = maps.Clone(params)
	return i
}

func (i EndpointItem) FilterValue() string {
	return i.Endpoint.Name + " " + i.Endpoint.URL + " " + i.Endpoint.Description
}
