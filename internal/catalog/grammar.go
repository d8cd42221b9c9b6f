package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/brizzai/httpdeco/pkg/httpdeco"
)

// annotationNode is one textual annotation:
//
//	'@' Ident ( Pair (',' Pair)* | Ident? (Path | String) | Int )?
type annotationNode struct {
	Name string    `parser:"'@' @Ident"`
	Args *argsNode `parser:"@@?"`
}

type argsNode struct {
	Pairs []*pairNode `parser:"  @@ ( ',' @@ )*"`
	Route *routeNode  `parser:"| @@"`
	Index *int        `parser:"| @Int"`
}

type routeNode struct {
	Verb string `parser:"@Ident?"`
	URL  string `parser:"( @Path | @String )"`
}

type pairNode struct {
	Key   string     `parser:"@Ident '='"`
	Value *valueNode `parser:"@@"`
}

type valueNode struct {
	Text  *string  `parser:"  @String"`
	Float *float64 `parser:"| @Float"`
	Int   *int     `parser:"| @Int"`
	Raw   *string  `parser:"| @(Ident | Path)+"`
}

func (v *valueNode) value() any {
	switch {
	case v.Text != nil:
		return *v.Text
	case v.Float != nil:
		return *v.Float
	case v.Int != nil:
		return *v.Int
	}
	switch *v.Raw {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	return *v.Raw
}

var annotationParser = participle.MustBuild[annotationNode](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
		{Name: "Path", Pattern: `(?:[a-zA-Z][a-zA-Z0-9+.\-]*://|/)[^\s,]*`},
		{Name: "Float", Pattern: `-?\d+\.\d+`},
		{Name: "Int", Pattern: `-?\d+`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.\-]*`},
		{Name: "Punct", Pattern: `[@=,]`},
	})),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// parseAnnotation parses the text of one annotation.
func parseAnnotation(text string) (*annotationNode, error) {
	return annotationParser.ParseString("", text)
}

var verbs = map[string]func(string) httpdeco.Annotation{
	"get":     httpdeco.Get,
	"post":    httpdeco.Post,
	"put":     httpdeco.Put,
	"delete":  httpdeco.Delete,
	"patch":   httpdeco.Patch,
	"head":    httpdeco.Head,
	"options": httpdeco.Options,
}

var (
	errNoArguments  = errors.New("missing arguments")
	errUnknownName  = errors.New("unknown annotation")
	errWrongShape   = errors.New("unsupported arguments")
	errRouteMissing = errors.New("expected a URL")
)

// compiled is the declaration an entry compiles to.
type compiled struct {
	annotations []httpdeco.Annotation
	// responseAdded is set when the entry declared no response slot and one was appended.
	responseAdded bool
}

// compile turns an entry's textual annotations into httpdeco annotations. Repeated static Header,
// Params or Config annotations are combined into one fragment, later keys winning. An entry without
// a Response annotation gets one on the slot after the highest declared slot, so callers always
// receive the response.
func compile(entry *Entry) (*compiled, error) {
	fail := func(text string, err error) error {
		return &Error{Endpoint: entry.Name, Annotation: text, Err: err}
	}

	var (
		out         compiled
		statics     = map[string]map[string]any{}
		staticOrder []string
		highest     = -1
		hasResponse bool
	)

	for _, text := range entry.Annotations {
		node, err := parseAnnotation(text)
		if err != nil {
			return nil, fail(text, err)
		}
		name := strings.ToLower(node.Name)
		args := node.Args

		var a httpdeco.Annotation
		switch {
		case name == "verb":
			if args == nil || args.Route == nil || args.Route.Verb == "" {
				return nil, fail(text, fmt.Errorf("%w: @Verb takes a verb and a URL", errWrongShape))
			}
			a = httpdeco.NewVerb(args.Route.Verb)(args.Route.URL)
		case verbs[name] != nil:
			if args == nil || args.Route == nil || args.Route.Verb != "" {
				return nil, fail(text, errRouteMissing)
			}
			a = verbs[name](args.Route.URL)
		case name == "header" || name == "params" || name == "config":
			if args == nil {
				return nil, fail(text, errNoArguments)
			}
			if args.Pairs != nil {
				if statics[name] == nil {
					statics[name] = map[string]any{}
					staticOrder = append(staticOrder, name)
				}
				for _, p := range args.Pairs {
					assign(statics[name], p.Key, p.Value.value(), name == "config")
				}
				continue
			}
			if args.Index == nil {
				return nil, fail(text, errWrongShape)
			}
			a = annotate(name, *args.Index)
		case name == "response" || name == "catch":
			if args == nil || args.Index == nil {
				return nil, fail(text, errWrongShape)
			}
			a = annotate(name, *args.Index)
			hasResponse = hasResponse || name == "response"
		default:
			return nil, fail(text, fmt.Errorf("%w @%s", errUnknownName, node.Name))
		}

		if err := a.Err(); err != nil {
			return nil, fail(text, err)
		}
		if args != nil && args.Index != nil && *args.Index > highest {
			highest = *args.Index
		}
		out.annotations = append(out.annotations, a)
	}

	for _, name := range staticOrder {
		out.annotations = append(out.annotations, annotate(name, statics[name]))
	}
	if !hasResponse {
		out.annotations = append(out.annotations, httpdeco.Response(highest+1))
		out.responseAdded = true
	}
	return &out, nil
}

// annotate builds the non-verb annotation called name from a fragment or a slot index.
func annotate(name string, arg any) httpdeco.Annotation {
	switch name {
	case "header":
		return httpdeco.Header(arg)
	case "params":
		return httpdeco.Params(arg)
	case "config":
		return httpdeco.Config(arg)
	case "response":
		return httpdeco.Response(arg)
	default:
		return httpdeco.Catch(arg)
	}
}

// assign sets key in m. With nested set, a dotted key such as headers.X-Api writes into a child
// mapping.
func assign(m map[string]any, key string, value any, nested bool) {
	if !nested {
		m[key] = value
		return
	}
	head, rest, found := strings.Cut(key, ".")
	if !found {
		m[key] = value
		return
	}
	child, ok := m[head].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[head] = child
	}
	child[rest] = value
}
