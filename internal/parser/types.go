package parser

import (
	"io"

	"github.com/brizzai/httpdeco/internal/catalog"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
)

// RouteTool pairs the catalog entry generated for an operation with the tool describing its arguments.
type RouteTool struct {
	Entry catalog.Entry
	Tool  mcp.Tool
}

// Parser turns Swagger/OpenAPI documents into catalog entries
type Parser interface {
	// Init parses a Swagger/OpenAPI specification from a file, restricted by an optional selection file
	Init(openAPISpec string, selectionFile string) error
	// ParseReader parses a Swagger/OpenAPI specification from a reader
	ParseReader(reader io.Reader) error
	// GetRouteTools returns the parsed route tools
	GetRouteTools() []*RouteTool
	// Catalog returns the parsed operations as a catalog
	Catalog() *catalog.Catalog
}

// SwaggerParser parses Swagger specifications and generates catalog entries
type SwaggerParser struct {
	doc        *openapi3.T
	source     string
	routeTools []*RouteTool
	selection  *Selection
}

// RouteUpdate replaces the description of one method on a path.
type RouteUpdate struct {
	Method         string `yaml:"method"`
	NewDescription string `yaml:"new_description"`
}

// RouteDescription lists description overrides for a path.
type RouteDescription struct {
	Path    string        `yaml:"path"`
	Updates []RouteUpdate `yaml:"updates"`
}

// RouteSelection names the methods of a path to import.
type RouteSelection struct {
	Path    string   `yaml:"path"`
	Methods []string `yaml:"methods"`
}

// SelectionFile is the content of a selection file.
type SelectionFile struct {
	Descriptions []RouteDescription `yaml:"descriptions,omitempty"`
	Routes       []RouteSelection   `yaml:"select,omitempty"`
}
