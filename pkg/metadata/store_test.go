package metadata

import (
	"testing"

	"github.com/brizzai/httpdeco/pkg/reqconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemAPI struct{ name string }

func TestKeyOf(t *testing.T) {
	byValue := KeyOf(itemAPI{}, "List")
	byPointer := KeyOf(&itemAPI{name: "other"}, "List")

	assert.Equal(t, byValue, byPointer)
	assert.Equal(t, "github.com/brizzai/httpdeco/pkg/metadata.itemAPI", byValue.Type)
	assert.Equal(t, "github.com/brizzai/httpdeco/pkg/metadata.itemAPI.List", byValue.String())

	assert.Equal(t, Key{Type: "catalog", Method: "listItems"}, KeyOf("catalog", "listItems"))
	assert.Equal(t, "listItems", Key{Method: "listItems"}.String())
}

func TestStore_UnsetFactsAreAbsent(t *testing.T) {
	s := NewStore()
	key := KeyOf(itemAPI{}, "List")

	m := s.Metadata(key)
	assert.Nil(t, m.Headers)
	assert.Nil(t, m.Params)
	assert.Nil(t, m.Config)
	assert.False(t, m.ParamsSlot.Valid())
	assert.False(t, m.ConfigSlot.Valid())
	assert.False(t, m.ResponseSlot.Valid())
	assert.False(t, m.ErrorSlot.Valid())
	assert.Equal(t, NoSlot, m.MaxSlot())
	assert.False(t, s.Has(key))
}

func TestStore_EmptyMappingIsPresent(t *testing.T) {
	s := NewStore()
	key := KeyOf(itemAPI{}, "List")

	s.RecordParams(key, map[string]any{})
	m := s.Metadata(key)
	require.NotNil(t, m.Params)
	assert.Empty(t, m.Params)
	assert.Nil(t, m.Headers)
}

func TestStore_AccumulatesIntoOneRecord(t *testing.T) {
	s := NewStore()
	key := KeyOf(&itemAPI{}, "Fetch")

	s.RecordSlot(SlotResponse, key, 2)
	s.RecordHeaders(key, map[string]any{"Cache-Control": "max-age=0"})
	s.RecordSlot(SlotParams, key, 0)
	s.RecordRoute(key, "get", "/items")
	s.RecordConfig(key, reqconfig.RequestConfig{"params": map[string]any{"foo": 1}})
	s.RecordParams(key, map[string]any{"hello": "world"})
	s.RecordSlot(SlotConfig, key, 1)
	s.RecordSlot(SlotError, key, 3)

	m := s.Metadata(key)
	assert.Equal(t, "GET", m.Verb)
	assert.Equal(t, "/items", m.URL)
	assert.True(t, m.HasRoute())
	assert.Equal(t, "max-age=0", m.Headers["Cache-Control"])
	assert.Equal(t, "world", m.Params["hello"])
	assert.Equal(t, 1, m.Config.Params()["foo"])
	assert.Equal(t, Slot(0), m.Slot(SlotParams))
	assert.Equal(t, Slot(1), m.Slot(SlotConfig))
	assert.Equal(t, Slot(2), m.Slot(SlotResponse))
	assert.Equal(t, Slot(3), m.Slot(SlotError))
	assert.Equal(t, Slot(3), m.MaxSlot())
}

func TestStore_LastWriteWins(t *testing.T) {
	s := NewStore()
	key := KeyOf(itemAPI{}, "List")

	s.RecordHeaders(key, map[string]any{"X": "1"})
	s.RecordHeaders(key, map[string]any{"Y": "2"})
	s.RecordSlot(SlotResponse, key, 0)
	s.RecordSlot(SlotResponse, key, 1)

	m := s.Metadata(key)
	assert.Equal(t, map[string]any{"Y": "2"}, m.Headers)
	assert.Equal(t, Slot(1), m.ResponseSlot)
}

func TestStore_NegativeSlotDisablesRole(t *testing.T) {
	s := NewStore()
	key := KeyOf(itemAPI{}, "List")

	s.RecordSlot(SlotError, key, 1)
	s.RecordSlot(SlotError, key, -4)
	assert.Equal(t, NoSlot, s.Metadata(key).ErrorSlot)
}

func TestStore_RecordsAreCopies(t *testing.T) {
	s := NewStore()
	key := KeyOf(itemAPI{}, "List")
	params := map[string]any{"hello": "world"}

	s.RecordParams(key, params)
	params["hello"] = "mutated"

	m := s.Metadata(key)
	assert.Equal(t, "world", m.Params["hello"])

	m.Params["hello"] = "again"
	assert.Equal(t, "world", s.Metadata(key).Params["hello"])
}

func TestStore_KeysAndReset(t *testing.T) {
	s := NewStore()
	b := Key{Type: "b", Method: "x"}
	a2 := Key{Type: "a", Method: "z"}
	a1 := Key{Type: "a", Method: "y"}
	s.RecordRoute(b, "GET", "/b")
	s.RecordRoute(a2, "GET", "/z")
	s.RecordRoute(a1, "GET", "/y")

	assert.Equal(t, []Key{a1, a2, b}, s.Keys())

	s.Reset(a2)
	assert.Equal(t, []Key{a1, b}, s.Keys())
}

func TestSlotKindString(t *testing.T) {
	assert.Equal(t, "params", SlotParams.String())
	assert.Equal(t, "config", SlotConfig.String())
	assert.Equal(t, "response", SlotResponse.String())
	assert.Equal(t, "error", SlotError.String())
	assert.Equal(t, "SlotKind(9)", SlotKind(9).String())
}
