package tui

import (
	"fmt"
	"strings"

	"github.com/brizzai/httpdeco/internal/catalog"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxPreviewEndpoints = 5

// MainPageKeyMap holds key bindings for the main page actions
type MainPageKeyMap struct {
	open key.Binding
	quit key.Binding
}

func newMainPageKeyMap() *MainPageKeyMap {
	return &MainPageKeyMap{
		open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Browse endpoints"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("ctrl+c/q", "Quit"),
		),
	}
}

// MainPageModel is the landing page: a summary of the loaded catalog.
type MainPageModel struct {
	keys      *MainPageKeyMap
	width     int
	height    int
	source    string
	endpoints []*catalog.Endpoint
}

// OpenListItemMsg is sent when the user opens the endpoint list
type OpenListItemMsg struct{}

// NewMainPageModel creates a new main page model
func NewMainPageModel(source string, endpoints []*catalog.Endpoint) MainPageModel {
	return MainPageModel{
		keys:      newMainPageKeyMap(),
		source:    source,
		endpoints: endpoints,
	}
}

// Init initializes the model
func (m MainPageModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the main page
func (m MainPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.open):
			return m, func() tea.Msg { return OpenListItemMsg{} }
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the main page
func (m MainPageModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render("httpdeco inspector")

	descStyle := lipgloss.NewStyle().
		Padding(1, 0).
		Width(m.width - 4).
		Align(lipgloss.Center)

	source := m.source
	if source == "" {
		source = "an inline catalog"
	}
	description := descStyle.Render(
		"Browse the declared endpoints and preview the request each one would send.\n" +
			"Nothing is dispatched.\n\n" +
			"Loaded " + pluralize(len(m.endpoints), "endpoint") + " from " + source + ".",
	)

	previewStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#f56a96")).
		Padding(1, 1).
		Width(m.width - 10).
		Align(lipgloss.Left)

	var preview strings.Builder
	for i, ep := range m.endpoints {
		if i == maxPreviewEndpoints {
			preview.WriteString(fmt.Sprintf("\n... and %d more", len(m.endpoints)-maxPreviewEndpoints))
			break
		}
		preview.WriteString(fmt.Sprintf("%-24s %s %s\n", ep.Name, ep.Verb, ep.URL))
	}

	instruction := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f56a96")).
		Padding(1, 0).
		Width(m.width - 4).
		Align(lipgloss.Center).
		Render("Press ENTER to browse endpoints")

	help := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#626262", Dark: "#A49FA5"}).
		Width(m.width - 4).
		Align(lipgloss.Center).
		Render("Press q or Ctrl+C to quit")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		title,
		"",
		description,
		"",
		previewStyle.Render(preview.String()),
		"",
		instruction,
		"",
		help,
	)

	return docStyle.Render(content)
}

func pluralize(count int, singular string) string {
	if count == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %ss", count, singular)
}
