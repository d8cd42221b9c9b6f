package tui

import (
	"context"
	"testing"

	"github.com/brizzai/httpdeco/internal/catalog"
	"github.com/brizzai/httpdeco/internal/tui/models"
	"github.com/brizzai/httpdeco/pkg/httpdeco"
	"github.com/brizzai/httpdeco/pkg/metadata"
	"github.com/brizzai/httpdeco/pkg/reqconfig"
	"github.com/brizzai/httpdeco/pkg/transport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inspectorCatalog = `
defaults:
  baseURL: https://api.test
endpoints:
  - name: listItems
    description: List items
    annotations: ['@Get /items', '@Params limit=10', '@Params 0']
  - name: createItem
    annotations: ['@Post /items', '@Header Content-Type=application/json', '@Params 0']
  - name: health
    annotations: ['@Get /health']
`

// newTestResolver declares the catalog on a client whose transport fails the test if it is ever used.
func newTestResolver(t *testing.T) *catalog.Service {
	t.Helper()
	cat, err := catalog.Parse([]byte(inspectorCatalog), "inspector.yaml")
	require.NoError(t, err)

	client := httpdeco.CreateInstance(nil,
		httpdeco.WithTransport(transport.Func(func(context.Context, reqconfig.RequestConfig) (*transport.Response, error) {
			t.Error("inspector must not dispatch requests")
			return nil, nil
		})),
		httpdeco.WithStore(metadata.NewStore()),
	)
	svc, err := catalog.NewService(cat, client, nil)
	require.NoError(t, err)
	return svc
}

// send feeds msg to m and then every message its commands produce, one level deep.
func send(t *testing.T, m tea.Model, msg tea.Msg) tea.Model {
	t.Helper()
	m, cmd := m.Update(msg)
	if cmd == nil {
		return m
	}
	next := cmd()
	cmds := []tea.Cmd{func() tea.Msg { return next }}
	if batch, ok := next.(tea.BatchMsg); ok {
		cmds = batch
	}
	for _, c := range cmds {
		if c == nil {
			continue
		}
		if out := c(); out != nil {
			if _, nested := out.(tea.BatchMsg); !nested {
				m, _ = m.Update(out)
			}
		}
	}
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAppNavigation(t *testing.T) {
	var m tea.Model = NewAppModel(newTestResolver(t), "inspector.yaml")
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Equal(t, pageMain, m.(AppModel).page)
	assert.Contains(t, m.View(), "3 endpoints")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, pageList, m.(AppModel).page)

	t.Run("preview resolves the selected endpoint", func(t *testing.T) {
		m := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		app := m.(AppModel)
		require.Equal(t, pagePreview, app.page)

		cfg, err := app.previewView.Config()
		require.NoError(t, err)
		assert.Equal(t, "createItem", app.previewView.item.Title())
		assert.Equal(t, "POST", cfg.Method())
		assert.Equal(t, "/items", cfg.URL())
		assert.Equal(t, "https://api.test", cfg.BaseURL())
		assert.Equal(t, FormatYAML, app.previewView.Format())

		m = send(t, m, keyRunes("t"))
		assert.Equal(t, FormatJSON, m.(AppModel).previewView.Format())
		assert.Contains(t, m.View(), `"method": "POST"`)

		m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
		assert.Equal(t, pageList, m.(AppModel).page)
	})

	t.Run("esc on the list goes back to the main page", func(t *testing.T) {
		m := send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
		assert.Equal(t, pageMain, m.(AppModel).page)
	})

	t.Run("finish opens the export page", func(t *testing.T) {
		m := send(t, m, keyRunes("f"))
		app := m.(AppModel)
		require.Equal(t, pageExport, app.page)
		assert.Len(t, app.exportView.items, 3)
		assert.False(t, app.IsFinished())
	})
}

func TestListEditParams(t *testing.T) {
	svc := newTestResolver(t)
	var m tea.Model = NewListItemModel(svc.Endpoints())
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	// createItem is selected first
	m = send(t, m, keyRunes("e"))
	list := m.(ListItemModel)
	require.True(t, list.editing)

	t.Run("invalid params keep the editor open", func(t *testing.T) {
		list := list
		list.editModal.textarea.SetValue("- not a mapping")
		m := send(t, list, tea.KeyMsg{Type: tea.KeyCtrlS})
		assert.True(t, m.(ListItemModel).editing)
		assert.Error(t, m.(ListItemModel).editModal.err)
	})

	t.Run("saved params are resolved", func(t *testing.T) {
		list := list
		list.editModal.textarea.SetValue("name: widget\ncount: 2")
		m := send(t, list, tea.KeyMsg{Type: tea.KeyCtrlS})
		saved := m.(ListItemModel)
		require.False(t, saved.editing)

		items := saved.Items()
		require.Len(t, items, 3)
		assert.Equal(t, map[string]any{"name": "widget", "count": 2}, items[0].Params)
		assert.Contains(t, items[0].Description(), "[2 params]")

		cfg, err := svc.Resolve(items[0].Endpoint.Name, items[0].Params, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "widget", "count": 2}, cfg.Data())

		m = send(t, saved, keyRunes("x"))
		assert.Empty(t, m.(ListItemModel).Items()[0].Params)
	})

	t.Run("esc cancels editing", func(t *testing.T) {
		m := send(t, list, tea.KeyMsg{Type: tea.KeyEsc})
		assert.False(t, m.(ListItemModel).editing)
		assert.Empty(t, m.(ListItemModel).Items()[0].Params)
	})
}

func TestListRefusesParamsForEndpointWithoutSlot(t *testing.T) {
	var m tea.Model = NewListItemModel(newTestResolver(t).Endpoints())
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "health", m.(ListItemModel).list.SelectedItem().(models.EndpointItem).Title())

	m = send(t, m, keyRunes("e"))
	assert.False(t, m.(ListItemModel).editing)
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    map[string]any
		wantErr bool
	}{
		{name: "blank", text: "  \n", want: nil},
		{name: "mapping", text: "limit: 5\nq: shoes", want: map[string]any{"limit": 5, "q": "shoes"}},
		{name: "nested", text: "filter: {tag: a}", want: map[string]any{"filter": map[string]any{"tag": "a"}}},
		{name: "sequence", text: "- a\n- b", wantErr: true},
		{name: "scalar", text: "just text", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderConfig(t *testing.T) {
	cfg := reqconfig.RequestConfig{
		"url":    "/items",
		"method": "GET",
		"params": map[string]any{"limit": 10},
	}

	yamlText, err := RenderConfig(cfg, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "method: GET\nparams:\n    limit: 10\nurl: /items\n", yamlText)

	jsonText, err := RenderConfig(cfg, FormatJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"url": "/items", "method": "GET", "params": {"limit": 10}}`, jsonText)

	_, err = RenderConfig(cfg, Format("toml"))
	assert.Error(t, err)
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 endpoint", pluralize(1, "endpoint"))
	assert.Equal(t, "0 endpoints", pluralize(0, "endpoint"))
	assert.Equal(t, "12 endpoints", pluralize(12, "endpoint"))
}
