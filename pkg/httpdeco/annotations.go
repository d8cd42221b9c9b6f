package httpdeco

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/brizzai/httpdeco/pkg/metadata"
	"github.com/brizzai/httpdeco/pkg/reqconfig"
)

type annotationKind int

const (
	kindVerb annotationKind = iota
	kindHeader
	kindParams
	kindConfig
	kindResponse
	kindCatch
)

// Annotation is one declaration-time fact about a method. Annotations are plain values: build them with
// the constructors below and pass them to Declare. An annotation built from arguments of the wrong shape
// carries a *DeclarationError that Declare reports.
type Annotation struct {
	name string
	kind annotationKind

	verb string
	url  string

	fragment map[string]any

	slot    int
	hasSlot bool
	// key is set by the three-argument slot form, which names its own method.
	key *metadata.Key

	err *DeclarationError
}

// Err returns the declaration error carried by a malformed annotation.
func (a Annotation) Err() error {
	if a.err == nil {
		return nil
	}
	return a.err
}

func (a Annotation) String() string {
	switch {
	case a.kind == kindVerb:
		return fmt.Sprintf("@%s %s", a.name, a.url)
	case a.hasSlot:
		return fmt.Sprintf("@%s %d", a.name, a.slot)
	default:
		return "@" + a.name
	}
}

// NewVerb creates a verb annotation factory for an arbitrary HTTP verb.
//
//	Purge := httpdeco.NewVerb("PURGE")
//	httpdeco.Declare(api, "Evict", nil, Purge("/cache"))
func NewVerb(verb string) func(url string) Annotation {
	name := strings.ToUpper(strings.TrimSpace(verb))
	return func(url string) Annotation {
		if name == "" {
			return Annotation{name: "Verb", kind: kindVerb, err: declarationErrorf("Verb", "empty HTTP verb")}
		}
		return Annotation{name: verbName(name), kind: kindVerb, verb: name, url: url}
	}
}

var (
	// Get declares a GET request to url.
	Get = NewVerb(http.MethodGet)
	// Post declares a POST request to url. Caller params go to the request body.
	Post = NewVerb(http.MethodPost)
	// Put declares a PUT request to url. Caller params go to the request body.
	Put = NewVerb(http.MethodPut)
	// Delete declares a DELETE request to url.
	Delete = NewVerb(http.MethodDelete)
	// Patch declares a PATCH request to url. Caller params go to the request body.
	Patch = NewVerb(http.MethodPatch)
	// Head declares a HEAD request to url.
	Head = NewVerb(http.MethodHead)
	// Options declares an OPTIONS request to url.
	Options = NewVerb(http.MethodOptions)
)

func verbName(verb string) string {
	return verb[:1] + strings.ToLower(verb[1:])
}

// Header attaches static headers to a method. Same-named default headers are overwritten, others kept.
func Header(args ...any) Annotation {
	return resolve("Header", kindHeader, true, false, args)
}

// Params either attaches static params (one mapping argument) or marks the argument slot that carries
// call-time params (one index, or target, method name and index).
func Params(args ...any) Annotation {
	return resolve("Params", kindParams, true, true, args)
}

// Config either attaches a static configuration fragment or marks the argument slot that carries a
// call-time configuration fragment. Shapes are the same as for Params.
func Config(args ...any) Annotation {
	return resolve("Config", kindConfig, true, true, args)
}

// Response marks the argument slot that receives the response of a successful dispatch.
func Response(args ...any) Annotation {
	return resolve("Response", kindResponse, false, true, args)
}

// Catch marks the argument slot that receives the error of a failed dispatch.
func Catch(args ...any) Annotation {
	return resolve("Catch", kindCatch, false, true, args)
}

func resolve(name string, kind annotationKind, static, slot bool, args []any) Annotation {
	a := Annotation{name: name, kind: kind}

	switch len(args) {
	case 1:
		if static && reqconfig.IsMapping(args[0]) {
			a.fragment = reqconfig.Clone(reqconfig.AsMapping(args[0])).(map[string]any)
			return a
		}
		if index, ok := asIndex(args[0]); ok && slot {
			a.slot, a.hasSlot = index, true
			return a
		}
		a.err = declarationErrorf(name, "unsupported argument of type %T, want %s", args[0], shapes(static, slot))
	case 3:
		if !slot {
			a.err = declarationErrorf(name, "invalid arguments: got 3, want %s", shapes(static, slot))
			break
		}
		method, ok := args[1].(string)
		if !ok {
			a.err = declarationErrorf(name, "method name must be a string, got %T", args[1])
			break
		}
		index, ok := asIndex(args[2])
		if !ok {
			a.err = declarationErrorf(name, "argument index must be an integer, got %T", args[2])
			break
		}
		key := metadata.KeyOf(args[0], method)
		a.key = &key
		a.slot, a.hasSlot = index, true
	default:
		a.err = declarationErrorf(name, "invalid arguments: got %d, want %s", len(args), shapes(static, slot))
	}
	return a
}

func asIndex(v any) (int, bool) {
	switch i := v.(type) {
	case int:
		return i, true
	case metadata.Slot:
		return int(i), true
	}
	return 0, false
}

func shapes(static, slot bool) string {
	switch {
	case static && slot:
		return "a mapping, an argument index, or (target, method, index)"
	case static:
		return "a mapping"
	default:
		return "an argument index or (target, method, index)"
	}
}

func (a Annotation) slotKind() metadata.SlotKind {
	switch a.kind {
	case kindParams:
		return metadata.SlotParams
	case kindConfig:
		return metadata.SlotConfig
	case kindResponse:
		return metadata.SlotResponse
	default:
		return metadata.SlotError
	}
}

func (a Annotation) record(store *metadata.Store, key metadata.Key) {
	switch {
	case a.kind == kindVerb:
		store.RecordRoute(key, a.verb, a.url)
	case a.hasSlot:
		store.RecordSlot(a.slotKind(), key, a.slot)
	case a.kind == kindHeader:
		store.RecordHeaders(key, a.fragment)
	case a.kind == kindParams:
		store.RecordParams(key, a.fragment)
	case a.kind == kindConfig:
		store.RecordConfig(key, a.fragment)
	}
}
