// Package catalog declares named endpoints from a YAML file. Each endpoint lists textual annotations
// such as "@Get /items" or "@Params 0" that are parsed and declared on an httpdeco client.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the content of a catalog file.
type Catalog struct {
	// Defaults is merged into the client's default request configuration.
	Defaults  map[string]any `yaml:"defaults,omitempty"`
	Endpoints []Entry        `yaml:"endpoints"`

	// Source names where the catalog was read from, for error messages.
	Source string `yaml:"-"`
}

// Entry is one named endpoint.
type Entry struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Annotations []string   `yaml:"annotations"`
	Arguments   []Argument `yaml:"arguments,omitempty"`
	// Schema is a JSON schema for the params argument. It takes precedence over Arguments when
	// describing the endpoint to tool clients.
	Schema map[string]any `yaml:"schema,omitempty"`
}

// Argument documents one key of the params argument.
type Argument struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type,omitempty"`
	Description string `yaml:"description,omitempty"`
	Required    bool   `yaml:"required,omitempty"`
}

// Error reports a catalog entry that cannot be parsed or declared.
type Error struct {
	File       string
	Endpoint   string
	Annotation string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	if e.Endpoint != "" {
		fmt.Fprintf(&b, "endpoint %q: ", e.Endpoint)
	}
	if e.Annotation != "" {
		fmt.Fprintf(&b, "annotation %q: ", e.Annotation)
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	// ErrDuplicateEndpoint is returned when two entries share a name.
	ErrDuplicateEndpoint = errors.New("duplicate endpoint name")
	// ErrUnnamedEndpoint is returned for an entry without a name.
	ErrUnnamedEndpoint = errors.New("endpoint has no name")
)

// Load reads and validates the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes and validates a catalog document. source is used in error messages.
func Parse(data []byte, source string) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, &Error{File: source, Err: err}
	}
	cat.Source = source
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks names and annotation syntax of every entry.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Endpoints))
	for i := range c.Endpoints {
		entry := &c.Endpoints[i]
		if strings.TrimSpace(entry.Name) == "" {
			return &Error{File: c.Source, Err: fmt.Errorf("%w (entry %d)", ErrUnnamedEndpoint, i)}
		}
		if seen[entry.Name] {
			return &Error{File: c.Source, Endpoint: entry.Name, Err: ErrDuplicateEndpoint}
		}
		seen[entry.Name] = true
		if _, err := compile(entry); err != nil {
			return c.wrap(err)
		}
	}
	return nil
}

// Lookup returns the entry called name.
func (c *Catalog) Lookup(name string) (*Entry, bool) {
	for i := range c.Endpoints {
		if c.Endpoints[i].Name == name {
			return &c.Endpoints[i], true
		}
	}
	return nil, false
}

// Marshal encodes the catalog as YAML.
func (c *Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Catalog) wrap(err error) error {
	var ce *Error
	if errors.As(err, &ce) && ce.File == "" {
		ce.File = c.Source
	}
	return err
}
