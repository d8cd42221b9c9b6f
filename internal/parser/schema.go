package parser

import (
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
)

// maxSchemaDepth bounds nested schema rendering; self-referencing schemas are cut off there.
const maxSchemaDepth = 8

// schemaOption converts an OpenAPI schema into the tool argument called name. Schemas without a type
// become objects when they list properties and strings otherwise.
func schemaOption(schema *openapi3.SchemaRef, name, description string, required bool) mcp.ToolOption {
	opts := []mcp.PropertyOption{}
	if description != "" {
		opts = append(opts, mcp.Description(description))
	}
	// Required shares the "required" key with an object's own list, so it is applied last.
	build := func(with func(string, ...mcp.PropertyOption) mcp.ToolOption, extra ...mcp.PropertyOption) mcp.ToolOption {
		all := append(opts, extra...)
		if required {
			all = append(all, mcp.Required())
		}
		return with(name, all...)
	}

	if schema == nil || schema.Value == nil {
		return build(mcp.WithString)
	}
	s := schema.Value

	switch {
	case s.Type.Includes(openapi3.TypeArray):
		if s.Items == nil {
			return build(mcp.WithArray)
		}
		return build(mcp.WithArray, mcp.Items(propertySchema(s.Items, 1)))

	case s.Type.Includes(openapi3.TypeObject), s.Type == nil && len(s.Properties) > 0:
		return build(mcp.WithObject, objectOptions(s, 1)...)

	case s.Type.Includes(openapi3.TypeString):
		return build(mcp.WithString, stringOptions(s)...)

	case s.Type.Includes(openapi3.TypeNumber), s.Type.Includes(openapi3.TypeInteger):
		return build(mcp.WithNumber, numberOptions(s)...)

	case s.Type.Includes(openapi3.TypeBoolean):
		return build(mcp.WithBoolean)
	}
	return build(mcp.WithString)
}

func objectOptions(s *openapi3.Schema, depth int) []mcp.PropertyOption {
	var opts []mcp.PropertyOption
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for propName, prop := range s.Properties {
			props[propName] = propertySchema(prop, depth+1)
		}
		opts = append(opts, mcp.Properties(props))
	}
	if s.MaxProps != nil {
		opts = append(opts, mcp.MaxProperties(int(*s.MaxProps)))
	}
	if s.MinProps != 0 {
		opts = append(opts, mcp.MinProperties(int(s.MinProps)))
	}
	if s.AdditionalProperties.Has != nil && *s.AdditionalProperties.Has {
		opts = append(opts, mcp.AdditionalProperties(true))
	} else if s.AdditionalProperties.Schema != nil {
		opts = append(opts, mcp.AdditionalProperties(propertySchema(s.AdditionalProperties.Schema, depth+1)))
	}
	if len(s.Required) > 0 {
		required := append([]string(nil), s.Required...)
		opts = append(opts, func(m map[string]any) {
			m["required"] = required
		})
	}
	return opts
}

func stringOptions(s *openapi3.Schema) []mcp.PropertyOption {
	var opts []mcp.PropertyOption
	if values := stringEnum(s.Enum); len(values) > 0 {
		opts = append(opts, mcp.Enum(values...))
	}
	if s.MaxLength != nil {
		opts = append(opts, mcp.MaxLength(int(*s.MaxLength)))
	}
	if s.MinLength != 0 {
		opts = append(opts, mcp.MinLength(int(s.MinLength)))
	}
	if s.Pattern != "" {
		opts = append(opts, mcp.Pattern(s.Pattern))
	}
	return opts
}

func numberOptions(s *openapi3.Schema) []mcp.PropertyOption {
	var opts []mcp.PropertyOption
	if s.Max != nil {
		opts = append(opts, mcp.Max(*s.Max))
	}
	if s.Min != nil {
		opts = append(opts, mcp.Min(*s.Min))
	}
	if s.MultipleOf != nil {
		opts = append(opts, mcp.MultipleOf(*s.MultipleOf))
	}
	return opts
}

// propertySchema renders a nested schema as a JSON schema mapping.
func propertySchema(ref *openapi3.SchemaRef, depth int) map[string]any {
	prop := map[string]any{}
	if ref == nil || ref.Value == nil {
		return prop
	}
	s := ref.Value
	if s.Type != nil && len(s.Type.Slice()) > 0 {
		prop["type"] = s.Type.Slice()[0]
	}
	if s.Description != "" {
		prop["description"] = s.Description
	}
	if s.Format != "" {
		prop["format"] = s.Format
	}
	if len(s.Enum) > 0 {
		prop["enum"] = s.Enum
	}
	if depth >= maxSchemaDepth {
		return prop
	}

	switch {
	case s.Type.Includes(openapi3.TypeString):
		if s.MaxLength != nil {
			prop["maxLength"] = *s.MaxLength
		}
		if s.MinLength != 0 {
			prop["minLength"] = s.MinLength
		}
		if s.Pattern != "" {
			prop["pattern"] = s.Pattern
		}
	case s.Type.Includes(openapi3.TypeNumber), s.Type.Includes(openapi3.TypeInteger):
		if s.Max != nil {
			prop["maximum"] = *s.Max
		}
		if s.Min != nil {
			prop["minimum"] = *s.Min
		}
		if s.MultipleOf != nil {
			prop["multipleOf"] = *s.MultipleOf
		}
	case s.Type.Includes(openapi3.TypeArray):
		if s.Items != nil {
			prop["items"] = propertySchema(s.Items, depth+1)
		}
	default:
		for _, opt := range objectOptions(s, depth) {
			opt(prop)
		}
	}
	return prop
}

func stringEnum(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
