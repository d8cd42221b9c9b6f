package catalog

import (
	"errors"
	"testing"

	"github.com/brizzai/httpdeco/pkg/httpdeco"
	"github.com/brizzai/httpdeco/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotation(t *testing.T) {
	intp := func(i int) *int { return &i }

	tests := []struct {
		text  string
		check func(t *testing.T, n *annotationNode)
	}{
		{
			text: "@Get /items",
			check: func(t *testing.T, n *annotationNode) {
				assert.Equal(t, "Get", n.Name)
				require.NotNil(t, n.Args.Route)
				assert.Equal(t, "", n.Args.Route.Verb)
				assert.Equal(t, "/items", n.Args.Route.URL)
			},
		},
		{
			text: "@Get https://api.example.com/items/{id}",
			check: func(t *testing.T, n *annotationNode) {
				assert.Equal(t, "https://api.example.com/items/{id}", n.Args.Route.URL)
			},
		},
		{
			text: `@Post "/items"`,
			check: func(t *testing.T, n *annotationNode) {
				assert.Equal(t, "/items", n.Args.Route.URL)
			},
		},
		{
			text: "@Verb PURGE /cache",
			check: func(t *testing.T, n *annotationNode) {
				assert.Equal(t, "PURGE", n.Args.Route.Verb)
				assert.Equal(t, "/cache", n.Args.Route.URL)
			},
		},
		{
			text: "@Params 0",
			check: func(t *testing.T, n *annotationNode) {
				assert.Equal(t, intp(0), n.Args.Index)
			},
		},
		{
			text: "@Response",
			check: func(t *testing.T, n *annotationNode) {
				assert.Nil(t, n.Args)
			},
		},
		{
			text: `@Header Accept=application/json, X-Api-Version=2, Authorization="Bearer abc"`,
			check: func(t *testing.T, n *annotationNode) {
				require.Len(t, n.Args.Pairs, 3)
				assert.Equal(t, "Accept", n.Args.Pairs[0].Key)
				assert.Equal(t, "application/json", n.Args.Pairs[0].Value.value())
				assert.Equal(t, 2, n.Args.Pairs[1].Value.value())
				assert.Equal(t, "Bearer abc", n.Args.Pairs[2].Value.value())
			},
		},
		{
			text: "@Config timeout=1.5, verbose=true, proxy=null",
			check: func(t *testing.T, n *annotationNode) {
				require.Len(t, n.Args.Pairs, 3)
				assert.Equal(t, 1.5, n.Args.Pairs[0].Value.value())
				assert.Equal(t, true, n.Args.Pairs[1].Value.value())
				assert.Nil(t, n.Args.Pairs[2].Value.value())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			n, err := parseAnnotation(tt.text)
			require.NoError(t, err)
			tt.check(t, n)
		})
	}
}

func TestParseAnnotationErrors(t *testing.T) {
	for _, text := range []string{
		"Get /items",
		"@",
		"@Get /items extra",
		"@Header Accept",
		"@Params 0 1",
		"@Header A=b C=d",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := parseAnnotation(text)
			assert.Error(t, err)
		})
	}
}

func TestCompile(t *testing.T) {
	store := metadata.NewStore()
	client := httpdeco.New(httpdeco.WithStore(store))

	entry := &Entry{
		Name: "listItems",
		Annotations: []string{
			"@Get /items",
			"@Header X-Api-Version=2",
			"@Header Accept=application/json",
			"@Params limit=10",
			"@Params 0",
			"@Config headers.X-Trace=on, timeout=500",
			"@Config 1",
		},
	}
	c, err := compile(entry)
	require.NoError(t, err)
	assert.True(t, c.responseAdded)

	_, err = client.Declare(TypeID, entry.Name, nil, c.annotations...)
	require.NoError(t, err)

	meta := store.Metadata(metadata.KeyOf(TypeID, "listItems"))
	assert.Equal(t, "GET", meta.Verb)
	assert.Equal(t, "/items", meta.URL)
	assert.Equal(t, map[string]any{"X-Api-Version": 2, "Accept": "application/json"}, meta.Headers)
	assert.Equal(t, map[string]any{"limit": 10}, meta.Params)
	assert.Equal(t, map[string]any{"headers": map[string]any{"X-Trace": "on"}, "timeout": 500}, map[string]any(meta.Config))
	assert.Equal(t, metadata.Slot(0), meta.ParamsSlot)
	assert.Equal(t, metadata.Slot(1), meta.ConfigSlot)
	assert.Equal(t, metadata.Slot(2), meta.ResponseSlot)
	assert.Equal(t, metadata.NoSlot, meta.ErrorSlot)
}

func TestCompileKeepsDeclaredResponse(t *testing.T) {
	c, err := compile(&Entry{Name: "x", Annotations: []string{"@Delete /items/{id}", "@Params 0", "@Response 1", "@Catch 2"}})
	require.NoError(t, err)
	assert.False(t, c.responseAdded)
	assert.Len(t, c.annotations, 4)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name        string
		annotations []string
		wantErr     error
	}{
		{name: "unknown annotation", annotations: []string{"@Fetch /x"}, wantErr: errUnknownName},
		{name: "verb without url", annotations: []string{"@Get"}, wantErr: errRouteMissing},
		{name: "verb with extra ident", annotations: []string{"@Get PURGE /x"}, wantErr: errRouteMissing},
		{name: "custom verb without verb", annotations: []string{"@Verb /x"}, wantErr: errWrongShape},
		{name: "header without arguments", annotations: []string{"@Get /x", "@Header"}, wantErr: errNoArguments},
		{name: "params with a url", annotations: []string{"@Get /x", "@Params /y"}, wantErr: errWrongShape},
		{name: "response with pairs", annotations: []string{"@Get /x", "@Response a=1"}, wantErr: errWrongShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(&Entry{Name: "broken", Annotations: tt.annotations})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			var ce *Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "broken", ce.Endpoint)
		})
	}
}

func TestCompileHeaderSlotIsDeclarationError(t *testing.T) {
	_, err := compile(&Entry{Name: "x", Annotations: []string{"@Get /x", "@Header 0"}})
	require.Error(t, err)
	var declErr *httpdeco.DeclarationError
	require.ErrorAs(t, err, &declErr)
	assert.Equal(t, "Header", declErr.Annotation)
	assert.Equal(t, `endpoint "x": annotation "@Header 0": @Header: unsupported argument of type int, want a mapping`, err.Error())
}
