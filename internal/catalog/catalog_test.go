package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
defaults:
  baseURL: https://api.example.com
  headers:
    Accept: application/json
endpoints:
  - name: listItems
    description: List items
    annotations:
      - '@Get /items'
      - '@Params limit=10'
      - '@Params 0'
    arguments:
      - name: limit
        type: integer
        description: Page size
  - name: createItem
    annotations:
      - '@Post /items'
      - '@Params 0'
      - '@Response 1'
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cat.Source)
	assert.Equal(t, "https://api.example.com", cat.Defaults["baseURL"])
	require.Len(t, cat.Endpoints, 2)

	entry, ok := cat.Lookup("listItems")
	require.True(t, ok)
	assert.Equal(t, "List items", entry.Description)
	assert.Equal(t, []Argument{{Name: "limit", Type: "integer", Description: "Page size"}}, entry.Arguments)

	_, ok = cat.Lookup("missing")
	assert.False(t, ok)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unnamed entry",
			doc:     "endpoints:\n  - annotations: ['@Get /x']\n",
			wantErr: ErrUnnamedEndpoint,
		},
		{
			name:    "duplicate names",
			doc:     "endpoints:\n  - name: a\n    annotations: ['@Get /x']\n  - name: a\n    annotations: ['@Get /y']\n",
			wantErr: ErrDuplicateEndpoint,
			wantMsg: `cat.yaml: endpoint "a": duplicate endpoint name`,
		},
		{
			name:    "bad annotation",
			doc:     "endpoints:\n  - name: a\n    annotations: ['@Get']\n",
			wantErr: errRouteMissing,
			wantMsg: `cat.yaml: endpoint "a": annotation "@Get": expected a URL`,
		},
		{
			name: "bad yaml",
			doc:  "endpoints: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), "cat.yaml")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cat, err := Parse([]byte(sampleCatalog), "sample")
	require.NoError(t, err)

	out, err := cat.Marshal()
	require.NoError(t, err)

	again, err := Parse(out, "again")
	require.NoError(t, err)
	assert.Equal(t, cat.Endpoints, again.Endpoints)
	assert.Equal(t, cat.Defaults, again.Defaults)
}
