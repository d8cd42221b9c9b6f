// Package metadata keeps the declaration-time facts attached to decorated methods: static headers,
// params and config fragments, the declared route, and which argument slots play which role at call time.
//
// Facts are keyed by the declaring type and method name, never by instance, so every value of a type
// observes the same record.
package metadata

import (
	"fmt"
	"reflect"

	"github.com/brizzai/httpdeco/pkg/reqconfig"
)

// Key identifies a declared method.
type Key struct {
	Type   string
	Method string
}

func (k Key) String() string {
	if k.Type == "" {
		return k.Method
	}
	return k.Type + "." + k.Method
}

// KeyOf builds the key for method declared on target's type. Pointer indirections are dropped so that
// value and pointer receivers share one record. A string target is used as the type identifier itself.
func KeyOf(target any, method string) Key {
	if s, ok := target.(string); ok {
		return Key{Type: s, Method: method}
	}
	return Key{Type: TypeID(target), Method: method}
}

// TypeID returns the identifier used for target's type.
func TypeID(target any) string {
	t := reflect.TypeOf(target)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// SlotKind names the role an argument slot plays during a call.
type SlotKind int

const (
	SlotParams SlotKind = iota
	SlotConfig
	SlotResponse
	SlotError
)

func (k SlotKind) String() string {
	switch k {
	case SlotParams:
		return "params"
	case SlotConfig:
		return "config"
	case SlotResponse:
		return "response"
	case SlotError:
		return "error"
	default:
		return fmt.Sprintf("SlotKind(%d)", int(k))
	}
}

// Slot is a positional argument index. Negative values mean no slot.
type Slot int

// NoSlot disables the role for a method.
const NoSlot Slot = -1

// Valid reports whether s designates an argument.
func (s Slot) Valid() bool {
	return s >= 0
}

// Metadata is the full record of a declared method. Nil mappings mean the fact was never recorded,
// which is distinct from an empty mapping.
type Metadata struct {
	Verb string
	URL  string

	Headers map[string]any
	Params  map[string]any
	Config  reqconfig.RequestConfig

	ParamsSlot   Slot
	ConfigSlot   Slot
	ResponseSlot Slot
	ErrorSlot    Slot
}

// Slot returns the slot recorded for kind.
func (m Metadata) Slot(kind SlotKind) Slot {
	switch kind {
	case SlotParams:
		return m.ParamsSlot
	case SlotConfig:
		return m.ConfigSlot
	case SlotResponse:
		return m.ResponseSlot
	case SlotError:
		return m.ErrorSlot
	}
	return NoSlot
}

// MaxSlot returns the highest valid slot index, or NoSlot.
func (m Metadata) MaxSlot() Slot {
	highest := NoSlot
	for _, s := range []Slot{m.ParamsSlot, m.ConfigSlot, m.ResponseSlot, m.ErrorSlot} {
		if s > highest {
			highest = s
		}
	}
	return highest
}

// HasRoute reports whether a verb annotation has been recorded.
func (m Metadata) HasRoute() bool {
	return m.Verb != ""
}

func empty() Metadata {
	return Metadata{
		ParamsSlot:   NoSlot,
		ConfigSlot:   NoSlot,
		ResponseSlot: NoSlot,
		ErrorSlot:    NoSlot,
	}
}

func (m Metadata) clone() Metadata {
	out := m
	if m.Headers != nil {
		out.Headers = reqconfig.Clone(m.Headers).(map[string]any)
	}
	if m.Params != nil {
		out.Params = reqconfig.Clone(m.Params).(map[string]any)
	}
	if m.Config != nil {
		out.Config = reqconfig.CloneConfig(m.Config)
	}
	return out
}
