package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brizzai/httpdeco/internal/tui/models"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"
)

// ExportView prompts for a filename and writes the resolved configuration of every listed endpoint.
type ExportView struct {
	resolver     Resolver
	items        []*models.EndpointItem
	textInput    textinput.Model
	err          error
	width        int
	height       int
	exportStatus string
	Success      bool
}

// NewExportView creates a new export view
func NewExportView(resolver Resolver, items []*models.EndpointItem) ExportView {
	ti := textinput.New()
	ti.Placeholder = "resolved.yaml"
	ti.Focus()
	ti.Width = 40

	return ExportView{
		resolver:  resolver,
		items:     items,
		textInput: ti,
	}
}

// Init initializes the export view
func (m ExportView) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the export view
func (m ExportView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, func() tea.Msg { return BackToListMsg{} }
		case "enter":
			if m.textInput.Value() == "" {
				m.exportStatus = "Please enter a filename"
				return m, nil
			}

			filename := m.textInput.Value()
			if !strings.HasSuffix(filename, ".yaml") && !strings.HasSuffix(filename, ".yml") {
				filename += ".yaml"
			}

			if err := ExportResolvedToYamlFile(m.resolver, m.items, filename); err != nil {
				m.err = err
				m.exportStatus = fmt.Sprintf("Error exporting: %v", err)
				return m, nil
			}

			m.Success = true
			m.exportStatus = completeMessageStyle(fmt.Sprintf("Exported %d endpoints to %s", len(m.items), filename))
			return m, tea.Tick(time.Second, func(time.Time) tea.Msg {
				return tea.Quit()
			})
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the export view
func (m ExportView) View() string {
	var sb strings.Builder

	verticalPadding := (m.height - 6) / 2
	for i := 0; i < verticalPadding; i++ {
		sb.WriteString("\n")
	}

	sb.WriteString(centerText(titleStyle.Render("Export Resolved Configs"), m.width))
	sb.WriteString("\n\n")
	sb.WriteString(centerText(fmt.Sprintf("Enter filename to export %d endpoints:", len(m.items)), m.width))
	sb.WriteString("\n")
	sb.WriteString(centerText(m.textInput.View(), m.width))
	sb.WriteString("\n\n")

	if m.exportStatus != "" {
		sb.WriteString(centerText(m.exportStatus, m.width))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(centerText("(esc) Back to list | (enter) Export", m.width))

	return sb.String()
}

// ExportResolvedToYamlFile resolves every item with its params and writes the configurations to
// filename, keyed by endpoint name.
func ExportResolvedToYamlFile(resolver Resolver, items []*models.EndpointItem, filename string) error {
	out := make(map[string]map[string]any, len(items))
	for _, item := range items {
		cfg, err := resolver.Resolve(item.Endpoint.Name, item.Params, nil)
		if err != nil {
			return err
		}
		out[item.Endpoint.Name] = cfg
	}

	raw, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, raw, 0o644)
}

func centerText(text string, width int) string {
	if width <= len(text) {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
