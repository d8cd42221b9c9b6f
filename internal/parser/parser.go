// Package parser converts Swagger/OpenAPI definitions into catalog entries, one per operation, with
// a tool describing the arguments of each.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/brizzai/httpdeco/internal/catalog"
	"github.com/brizzai/httpdeco/internal/logger"
	"github.com/brizzai/httpdeco/pkg/reqconfig"
	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrNotParsed is returned when the catalog is requested before a document was parsed.
var ErrNotParsed = errors.New("no OpenAPI document parsed")

// annotationVerbs spells each imported method the way catalog annotations name it.
var annotationVerbs = map[string]string{
	"GET":    "Get",
	"POST":   "Post",
	"PUT":    "Put",
	"DELETE": "Delete",
	"PATCH":  "Patch",
}

// NewSwaggerParser creates a new SwaggerParser instance
func NewSwaggerParser(selection *Selection) *SwaggerParser {
	if selection == nil {
		selection = NewSelection()
	}
	return &SwaggerParser{
		routeTools: make([]*RouteTool, 0),
		selection:  selection,
	}
}

// GetRouteTools returns the parsed route tools
func (p *SwaggerParser) GetRouteTools() []*RouteTool {
	return p.routeTools
}

// Catalog returns the parsed operations as a catalog. The first server of the document, when
// present, becomes the catalog's base URL.
func (p *SwaggerParser) Catalog() *catalog.Catalog {
	cat := &catalog.Catalog{Source: p.source}
	for _, rt := range p.routeTools {
		cat.Endpoints = append(cat.Endpoints, rt.Entry)
	}
	if p.doc != nil && len(p.doc.Servers) > 0 && p.doc.Servers[0].URL != "" {
		cat.Defaults = map[string]any{reqconfig.KeyBaseURL: p.doc.Servers[0].URL}
	}
	return cat
}

// toolName derives an endpoint name from the method and path, e.g. get_users_id.
func toolName(method, path string) string {
	name := strings.TrimPrefix(path, "/")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "{", "")
	name = strings.ReplaceAll(name, "}", "")
	return strings.ToLower(fmt.Sprintf("%s_%s", method, name))
}

// generateTool creates the tool describing the arguments of an operation. For body verbs the
// arguments become the request body, so the body properties are listed at the top level next to the
// path parameters and query parameters are left out.
func (p *SwaggerParser) generateTool(name, method, path, description string, params openapi3.Parameters, op *openapi3.Operation) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(fmt.Sprintf("%s %s \n %s", method, path, description)),
	}

	body := reqconfig.IsBodyVerb(method)
	seen := map[string]bool{}
	for _, ref := range params {
		param := ref.Value
		if param == nil || seen[param.Name] {
			continue
		}
		switch {
		case param.In == openapi3.ParameterInPath:
		case param.In == openapi3.ParameterInQuery && !body:
		default:
			continue
		}
		seen[param.Name] = true
		desc := param.Description
		if desc == "" {
			desc = fmt.Sprintf("%s parameter: %s", titleCase(param.In), param.Name)
		}
		required := param.Required || param.In == openapi3.ParameterInPath
		opts = append(opts, schemaOption(param.Schema, param.Name, desc, required))
	}

	// Path templates can name parameters the operation forgot to declare.
	for _, name := range extractPathParams(path) {
		if seen[name] {
			continue
		}
		seen[name] = true
		opts = append(opts, mcp.WithString(name,
			mcp.Required(),
			mcp.Description(fmt.Sprintf("Path parameter: %s", name)),
		))
	}

	if body {
		opts = append(opts, p.bodyOptions(op, seen)...)
	}

	return mcp.NewTool(name, opts...)
}

// bodyOptions lists the properties of the operation's body schema as top-level arguments. A body that
// is not an object is described by a single body argument.
func (p *SwaggerParser) bodyOptions(op *openapi3.Operation, seen map[string]bool) []mcp.ToolOption {
	schema, required := getFirstBodySchema(op)
	if schema == nil {
		return nil
	}
	if schema.Value == nil || len(schema.Value.Properties) == 0 {
		return []mcp.ToolOption{schemaOption(schema, "body", "Request body", required)}
	}

	names := make([]string, 0, len(schema.Value.Properties))
	for name := range schema.Value.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var opts []mcp.ToolOption
	for _, name := range names {
		if seen[name] {
			logger.Debug("Body property shadowed by a path parameter", zap.String("property", name))
			continue
		}
		prop := schema.Value.Properties[name]
		desc := ""
		if prop.Value != nil {
			desc = prop.Value.Description
		}
		opts = append(opts, schemaOption(prop, name, desc, required && contains(schema.Value.Required, name)))
	}
	return opts
}

func getFirstBodySchema(operation *openapi3.Operation) (*openapi3.SchemaRef, bool) {
	if operation == nil || operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return nil, false
	}
	content := operation.RequestBody.Value.Content
	required := operation.RequestBody.Value.Required

	if len(content) == 0 {
		return nil, false
	}
	if len(content) == 1 {
		for _, mediaType := range content {
			return mediaType.Schema, required
		}
	}
	if mediaType := content.Get("application/json"); mediaType != nil {
		return mediaType.Schema, required
	}

	// Several content types without JSON: merge their properties
	merged := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{openapi3.TypeObject},
			Properties: make(openapi3.Schemas),
		},
	}
	for _, mediaType := range content {
		if mediaType.Schema != nil && mediaType.Schema.Value != nil {
			for propName, propSchema := range mediaType.Schema.Value.Properties {
				merged.Value.Properties[propName] = propSchema
			}
		}
	}
	return merged, required
}

// responseContentType picks the media type of the first documented response that has content,
// preferring application/json.
func responseContentType(op *openapi3.Operation) string {
	if op.Responses == nil {
		return ""
	}
	responses := op.Responses.Map()
	codes := make([]string, 0, len(responses))
	for code := range responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		response := responses[code]
		if response == nil || response.Value == nil || len(response.Value.Content) == 0 {
			continue
		}
		if response.Value.Content.Get("application/json") != nil {
			return "application/json"
		}
		types := make([]string, 0, len(response.Value.Content))
		for contentType := range response.Value.Content {
			types = append(types, contentType)
		}
		sort.Strings(types)
		return types[0]
	}
	return ""
}

// extractPathParams extracts path parameters from a URL path
func extractPathParams(path string) []string {
	var params []string
	parts := strings.Split(path, "/")
	for _, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			param := strings.TrimSuffix(strings.TrimPrefix(part, "{"), "}")
			params = append(params, param)
		}
	}
	return params
}

// detectAndParseOpenAPI parses data as OpenAPI 2.0 or 3.x, in JSON or YAML.
func (p *SwaggerParser) detectAndParseOpenAPI(data []byte) error {
	var jsonObj map[string]interface{}
	if err := json.Unmarshal(data, &jsonObj); err != nil {
		converted, yamlErr := yamlToJSON(data)
		if yamlErr != nil {
			return fmt.Errorf("invalid JSON or YAML in OpenAPI spec: %w", err)
		}
		data = converted
		if err := json.Unmarshal(data, &jsonObj); err != nil {
			return fmt.Errorf("OpenAPI spec is not a mapping: %w", err)
		}
	}

	swaggerVersion, hasSwagger := jsonObj["swagger"]
	openapiVersion, hasOpenAPI := jsonObj["openapi"]

	if !hasSwagger && !hasOpenAPI {
		return fmt.Errorf("document is missing 'swagger' or 'openapi' version field")
	}

	if hasSwagger {
		convertedDoc, err := p.convertOpenAPI2to3(data, swaggerVersion)
		if err != nil {
			return err
		}
		p.doc = convertedDoc
		return nil
	}

	if ver, ok := openapiVersion.(string); !ok || !strings.HasPrefix(ver, "3.") {
		return fmt.Errorf("unsupported OpenAPI version: %v", openapiVersion)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		logger.Error("Failed to parse OpenAPI 3 spec", zap.Error(err))
		return fmt.Errorf("failed to parse OpenAPI spec: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("failed to parse OpenAPI spec: document is empty")
	}

	logger.Debug("Parsed OpenAPI 3 spec", zap.String("version", doc.OpenAPI))
	p.doc = doc
	return nil
}

// convertOpenAPI2to3 converts an OpenAPI 2.0 specification to OpenAPI 3.0
func (p *SwaggerParser) convertOpenAPI2to3(data []byte, swaggerVersion interface{}) (*openapi3.T, error) {
	var swagger2Doc openapi2.T
	if err := json.Unmarshal(data, &swagger2Doc); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI 2.0 spec: %w", err)
	}

	if swagger2Doc.Swagger != "2.0" {
		return nil, fmt.Errorf("unsupported Swagger version: %v", swaggerVersion)
	}

	logger.Info("Detected OpenAPI 2.0 spec, converting to OpenAPI 3.0")
	convertedDoc, err := openapi2conv.ToV3(&swagger2Doc)
	if err != nil {
		logger.Error("Failed to convert OpenAPI 2.0 to 3.0", zap.Error(err))
		return nil, fmt.Errorf("failed to convert OpenAPI 2.0 to 3.0: %w", err)
	}
	return convertedDoc, nil
}

// yamlToJSON re-encodes a YAML document as JSON. Mapping keys are stringified, so response codes
// written as bare integers survive.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(stringKeys(doc))
}

func stringKeys(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, child := range v {
			v[k] = stringKeys(child)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			out[fmt.Sprint(k)] = stringKeys(child)
		}
		return out
	case []any:
		for i, child := range v {
			v[i] = stringKeys(child)
		}
		return v
	}
	return v
}

// Init parses a Swagger/OpenAPI specification from a file
func (p *SwaggerParser) Init(openAPISpec string, selectionFile string) error {
	data, err := os.ReadFile(openAPISpec)
	if err != nil {
		return fmt.Errorf("failed to read OpenAPI document: %w", err)
	}
	if err := p.selection.Load(selectionFile); err != nil {
		return fmt.Errorf("failed to load selection file: %w", err)
	}

	if err := p.detectAndParseOpenAPI(data); err != nil {
		return err
	}
	p.source = openAPISpec
	return p.processOperations()
}

// ParseReader parses a Swagger/OpenAPI specification from a reader
func (p *SwaggerParser) ParseReader(reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read swagger spec: %w", err)
	}

	if err := p.detectAndParseOpenAPI(data); err != nil {
		return err
	}
	return p.processOperations()
}

// processOperations builds a route tool for every selected operation, in path order.
func (p *SwaggerParser) processOperations() error {
	if p.doc == nil || p.doc.Paths == nil {
		return ErrNotParsed
	}
	p.routeTools = p.routeTools[:0]

	paths := p.doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	sort.Strings(keys)

	for _, path := range keys {
		pathItem := paths[path]
		httpMethods := []struct {
			Method    string
			Operation *openapi3.Operation
		}{
			{"GET", pathItem.Get},
			{"POST", pathItem.Post},
			{"PUT", pathItem.Put},
			{"DELETE", pathItem.Delete},
			{"PATCH", pathItem.Patch},
		}

		for _, httpMethod := range httpMethods {
			if httpMethod.Operation == nil || !p.selection.Includes(path, httpMethod.Method) {
				continue
			}
			p.routeTools = append(p.routeTools, p.createRouteTool(path, httpMethod.Method, pathItem, httpMethod.Operation))
		}
	}

	logger.Info("Imported OpenAPI operations", zap.Int("operations", len(p.routeTools)))
	return nil
}

// createRouteTool builds the catalog entry and tool for one operation.
func (p *SwaggerParser) createRouteTool(path, method string, item *openapi3.PathItem, op *openapi3.Operation) *RouteTool {
	desc := op.Description
	if desc == "" {
		desc = op.Summary
	}
	desc = p.selection.Description(path, method, desc)

	annotations := []string{fmt.Sprintf("@%s %s", annotationVerbs[method], routeText(path))}
	if accept := responseContentType(op); accept != "" {
		annotations = append(annotations, "@Header Accept="+strconv.Quote(accept))
	}
	annotations = append(annotations, "@Params 0", "@Response 1")

	// Operation parameters override path-level ones of the same name.
	params := append(openapi3.Parameters{}, op.Parameters...)
	params = append(params, item.Parameters...)

	name := toolName(method, path)
	tool := p.generateTool(name, method, path, desc, params, op)

	return &RouteTool{
		Entry: catalog.Entry{
			Name:        name,
			Description: desc,
			Annotations: annotations,
			Schema:      inputSchema(tool),
		},
		Tool: tool,
	}
}

// routeText writes a path as an annotation argument, quoting it when it would not lex as a path.
func routeText(path string) string {
	if strings.HasPrefix(path, "/") && !strings.ContainsAny(path, " \t,\"") {
		return path
	}
	return strconv.Quote(path)
}

// inputSchema returns the tool's input schema as a plain mapping.
func inputSchema(tool mcp.Tool) map[string]any {
	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return nil
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil
	}
	return schema
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func titleCase(in string) string {
	if in == "" {
		return in
	}
	return strings.ToUpper(in[:1]) + in[1:]
}
