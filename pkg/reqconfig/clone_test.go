package reqconfig

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMapping(t *testing.T) {
	assert.True(t, IsMapping(map[string]any{"foo": "bar"}))
	assert.True(t, IsMapping(RequestConfig{}))
	assert.True(t, IsMapping(map[string]string{}))
	assert.False(t, IsMapping([]any{1, 2, 3}))
	assert.False(t, IsMapping("foo"))
	assert.False(t, IsMapping(nil))
	assert.False(t, IsMapping(struct{ A int }{1}))
}

func TestClone(t *testing.T) {
	source := map[string]any{
		"foo": 123,
		"bar": map[string]any{
			"name":   "Tom",
			"groups": []any{"front end", "programmer"},
		},
	}

	result, ok := Clone(source).(map[string]any)
	require.True(t, ok)

	assert.Empty(t, cmp.Diff(source, result))
	assert.Equal(t, 123, result["foo"])

	bar := result["bar"].(map[string]any)
	bar["name"] = "Jerry"
	groups := bar["groups"].([]any)
	groups[0] = "back end"

	srcBar := source["bar"].(map[string]any)
	assert.Equal(t, "Tom", srcBar["name"])
	assert.Equal(t, "front end", srcBar["groups"].([]any)[0])
}

func TestCloneKeepsNonPlainValuesByReference(t *testing.T) {
	type payload struct{ N int }
	p := &payload{N: 1}
	fn := func() {}
	source := map[string]any{"ptr": p, "fn": fn, "typed": []int{1, 2}}

	result := Clone(source).(map[string]any)

	assert.Same(t, p, result["ptr"])
	assert.NotNil(t, result["fn"])
	result["typed"].([]int)[0] = 9
	assert.Equal(t, 9, source["typed"].([]int)[0])
}

func TestCloneConfig(t *testing.T) {
	assert.Equal(t, RequestConfig{}, CloneConfig(nil))

	cfg := RequestConfig{
		KeyHeaders: map[string]string{"X": "1"},
		KeyParams:  map[string]any{"a": []string{"x"}},
	}
	out := CloneConfig(cfg)
	out[KeyHeaders].(map[string]string)["X"] = "2"
	out[KeyParams].(map[string]any)["a"].([]string)[0] = "y"

	assert.Equal(t, "1", cfg[KeyHeaders].(map[string]string)["X"])
	assert.Equal(t, "x", cfg[KeyParams].(map[string]any)["a"].([]string)[0])
}

func TestMergeInto(t *testing.T) {
	tests := []struct {
		name   string
		target map[string]any
		source map[string]any
		want   map[string]any
	}{
		{
			name:   "scalar replaced",
			target: map[string]any{"method": "get"},
			source: map[string]any{"method": "post"},
			want:   map[string]any{"method": "post"},
		},
		{
			name:   "mapping merged one level",
			target: map[string]any{"headers": map[string]any{"X": "0", "Y": "2"}},
			source: map[string]any{"headers": map[string]any{"X": "1"}},
			want:   map[string]any{"headers": map[string]any{"X": "1", "Y": "2"}},
		},
		{
			name: "grandchildren replaced wholesale",
			target: map[string]any{"headers": map[string]any{
				"nested": map[string]any{"a": 1, "b": 2},
			}},
			source: map[string]any{"headers": map[string]any{
				"nested": map[string]any{"a": 3},
			}},
			want: map[string]any{"headers": map[string]any{
				"nested": map[string]any{"a": 3},
			}},
		},
		{
			name:   "missing key assigned",
			target: map[string]any{},
			source: map[string]any{"params": map[string]any{"ID": 12345}},
			want:   map[string]any{"params": map[string]any{"ID": 12345}},
		},
		{
			name:   "non-mapping over mapping leaves target",
			target: map[string]any{"headers": map[string]any{"X": "0"}},
			source: map[string]any{"headers": nil},
			want:   map[string]any{"headers": map[string]any{"X": "0"}},
		},
		{
			name:   "mapping over sequence replaced",
			target: map[string]any{"data": []any{1}},
			source: map[string]any{"data": map[string]any{"a": 1}},
			want:   map[string]any{"data": map[string]any{"a": 1}},
		},
		{
			name:   "string headers promoted",
			target: map[string]any{"headers": map[string]string{"X": "0"}},
			source: map[string]any{"headers": map[string]any{"Y": 2}},
			want:   map[string]any{"headers": map[string]any{"X": "0", "Y": 2}},
		},
		{
			name:   "nil target mapping replaced",
			target: map[string]any{"headers": map[string]any(nil)},
			source: map[string]any{"headers": map[string]any{"X": "1"}},
			want:   map[string]any{"headers": map[string]any{"X": "1"}},
		},
		{
			name:   "nil config target replaced",
			target: map[string]any{"params": RequestConfig(nil)},
			source: map[string]any{"params": map[string]any{"limit": 10}},
			want:   map[string]any{"params": map[string]any{"limit": 10}},
		},
		{
			name:   "nil string headers target replaced",
			target: map[string]any{"headers": map[string]string(nil)},
			source: map[string]any{"headers": map[string]any{"X": "1"}},
			want:   map[string]any{"headers": map[string]any{"X": "1"}},
		},
		{
			name:   "nil source mapping leaves target",
			target: map[string]any{"headers": map[string]any{"X": "0"}},
			source: map[string]any{"headers": map[string]any(nil)},
			want:   map[string]any{"headers": map[string]any{"X": "0"}},
		},
		{
			name:   "empty source mapping leaves target",
			target: map[string]any{"headers": map[string]any{"X": "0"}},
			source: map[string]any{"headers": map[string]any{}},
			want:   map[string]any{"headers": map[string]any{"X": "0"}},
		},
		{
			name:   "string headers keep scalar out",
			target: map[string]any{"headers": map[string]string{"X": "0"}},
			source: map[string]any{"headers": "raw"},
			want:   map[string]any{"headers": map[string]string{"X": "0"}},
		},
		{
			name:   "nil source",
			target: map[string]any{"method": "get"},
			source: nil,
			want:   map[string]any{"method": "get"},
		},
		{
			name:   "nil target",
			target: nil,
			source: map[string]any{"method": "get"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			MergeInto(tt.target, tt.source)
			assert.Empty(t, cmp.Diff(tt.want, tt.target))
		})
	}
}

func TestMergeIntoCloneLeavesOriginal(t *testing.T) {
	fn := func(v any) any { return v }
	a := RequestConfig{
		KeyURL:              "/user",
		KeyMethod:           "get",
		KeyBaseURL:          "https://some-domain.com/api/",
		"transformResponse": []any{fn},
		KeyHeaders: map[string]any{
			"X-Requested-With": "XMLHttpRequest",
			"Accept-Encoding":  "gzip, deflate, br",
		},
	}
	b := RequestConfig{
		KeyMethod:           "post",
		"transformResponse": []any{fn, fn},
		KeyHeaders: map[string]any{
			"Connection": "keep-alive",
			"Origin":     "https://example.com",
		},
		KeyParams: map[string]any{"ID": 12345},
	}

	merged := CloneConfig(a)
	MergeInto(merged, b)

	assert.Equal(t, 12345, merged.Params()["ID"])
	assert.Equal(t, "POST", merged.Method())
	assert.Len(t, merged["transformResponse"], 2)
	assert.Equal(t, "keep-alive", merged.Headers()["Connection"])
	assert.Equal(t, "XMLHttpRequest", merged.Headers()["X-Requested-With"])
	assert.Equal(t, "gzip, deflate, br", merged.Headers()["Accept-Encoding"])

	assert.Equal(t, "get", a[KeyMethod])
	assert.Nil(t, a.Params())
	assert.Len(t, a.Headers(), 2)
	assert.Len(t, a["transformResponse"], 1)
}

func TestParamsField(t *testing.T) {
	for _, verb := range []string{"POST", "put", "PATCH"} {
		assert.Equal(t, KeyData, ParamsField(verb), verb)
	}
	for _, verb := range []string{"GET", "DELETE", "HEAD", "OPTIONS", "PURGE"} {
		assert.Equal(t, KeyParams, ParamsField(verb), verb)
	}
}
