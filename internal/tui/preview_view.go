package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brizzai/httpdeco/internal/tui/models"
	"github.com/brizzai/httpdeco/pkg/reqconfig"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Format is how the preview renders a configuration.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// BackToListMsg signals to go back to the endpoint list.
type BackToListMsg struct{}

type previewKeyMap struct {
	toggle key.Binding
	back   key.Binding
	quit   key.Binding
}

func newPreviewKeyMap() *previewKeyMap {
	return &previewKeyMap{
		toggle: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "JSON/YAML"),
		),
		back: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "Back"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
	}
}

// PreviewView shows the configuration an endpoint would be called with. Nothing is sent.
type PreviewView struct {
	resolver Resolver
	item     models.EndpointItem
	keys     *previewKeyMap
	viewport viewport.Model
	format   Format
	config   reqconfig.RequestConfig
	err      error
}

// NewPreviewView resolves item and sizes the view to width x height.
func NewPreviewView(resolver Resolver, item models.EndpointItem, width, height int) PreviewView {
	m := PreviewView{
		resolver: resolver,
		item:     item,
		keys:     newPreviewKeyMap(),
		viewport: viewport.New(width, height),
		format:   FormatYAML,
	}
	m.config, m.err = resolver.Resolve(item.Endpoint.Name, item.Params, nil)
	m.resize(width, height)
	m.refresh()
	return m
}

// Init initializes the preview
func (m PreviewView) Init() tea.Cmd {
	return nil
}

// Update handles messages for the preview
func (m PreviewView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			return m, func() tea.Msg { return BackToListMsg{} }
		case key.Matches(msg, m.keys.toggle):
			if m.format == FormatYAML {
				m.format = FormatJSON
			} else {
				m.format = FormatYAML
			}
			m.refresh()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *PreviewView) resize(width, height int) {
	h, v := docStyle.GetFrameSize()
	// title, route and help lines
	m.viewport.Width = max(width-h, 0)
	m.viewport.Height = max(height-v-6, 0)
}

func (m *PreviewView) refresh() {
	if m.err != nil {
		m.viewport.SetContent(errorStyle.Render(m.err.Error()))
		return
	}
	text, err := RenderConfig(m.config, m.format)
	if err != nil {
		text = errorStyle.Render(err.Error())
	}
	m.viewport.SetContent(text)
}

// Format returns the current rendering format.
func (m PreviewView) Format() Format {
	return m.format
}

// Config returns the resolved configuration, or the error resolving it.
func (m PreviewView) Config() (reqconfig.RequestConfig, error) {
	return m.config, m.err
}

// View renders the preview
func (m PreviewView) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render(m.item.Title()),
		routeStyle.Render(m.item.Route()),
	)
	help := routeStyle.Render(fmt.Sprintf("format: %s | (t) JSON/YAML | (esc) Back | (ctrl+c) Quit", m.format))
	return docStyle.Render(strings.Join([]string{header, "", m.viewport.View(), "", help}, "\n"))
}

// RenderConfig renders cfg as indented JSON or as YAML.
func RenderConfig(cfg reqconfig.RequestConfig, format Format) (string, error) {
	switch format {
	case FormatJSON:
		raw, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render config as JSON: %w", err)
		}
		return string(raw), nil
	case FormatYAML:
		raw, err := yaml.Marshal(map[string]any(cfg))
		if err != nil {
			return "", fmt.Errorf("failed to render config as YAML: %w", err)
		}
		return string(raw), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}
