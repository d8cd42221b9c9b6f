package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"
)

// ParamsEditorModal is a textarea for entering an endpoint's params as a YAML mapping.
type ParamsEditorModal struct {
	textarea textarea.Model
	err      error
}

// NewParamsEditor creates a focused editor holding params.
func NewParamsEditor(params map[string]any) ParamsEditorModal {
	ti := textarea.New()
	ti.Placeholder = "limit: 10"
	ti.Focus()

	if len(params) > 0 {
		if raw, err := yaml.Marshal(params); err == nil {
			ti.SetValue(strings.TrimSuffix(string(raw), "\n"))
		}
	}
	return ParamsEditorModal{textarea: ti}
}

// Init returns the initial command for the modal (textarea blink).
func (m ParamsEditorModal) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the modal.
func (m ParamsEditorModal) Update(msg tea.Msg) (ParamsEditorModal, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		default:
			if !m.textarea.Focused() {
				cmd = m.textarea.Focus()
				cmds = append(cmds, cmd)
			}
		}
	}

	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// Params parses the textarea. Blank input yields no params.
func (m ParamsEditorModal) Params() (map[string]any, error) {
	return parseParams(m.textarea.Value())
}

// WithError returns the modal showing err under the textarea.
func (m ParamsEditorModal) WithError(err error) ParamsEditorModal {
	m.err = err
	return m
}

// View renders the modal UI.
func (m ParamsEditorModal) View(title string) string {
	footer := "(ctrl+s to save, esc to cancel)"
	if m.err != nil {
		footer = errorStyle.Render(m.err.Error()) + "\n" + footer
	}
	return fmt.Sprintf(
		"%s\n\n%s\n\n%s",
		editHeaderStyle.Render(title),
		m.textarea.View(),
		footer,
	) + "\n\n"
}

func parseParams(text string) (map[string]any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var params map[string]any
	if err := yaml.Unmarshal([]byte(text), &params); err != nil {
		return nil, fmt.Errorf("params must be a YAML mapping: %w", err)
	}
	return params, nil
}
