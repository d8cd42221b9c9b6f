package tui

import (
	"github.com/brizzai/httpdeco/internal/catalog"
	"github.com/brizzai/httpdeco/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"

	tea "github.com/charmbracelet/bubbletea"
)

// listKeyMap holds key bindings for the list actions.
type listKeyMap struct {
	editParams key.Binding
	preview    key.Binding
	save       key.Binding
	cancel     key.Binding
	finish     key.Binding
	quit       key.Binding
}

// OpenPreviewMsg asks the app to show the resolved configuration of Item.
type OpenPreviewMsg struct {
	Item models.EndpointItem
}

// DoneMsg asks the app to open the export page for Items.
type DoneMsg struct {
	Items []*models.EndpointItem
}

// newListKeyMap creates a new listKeyMap with default bindings.
func newListKeyMap() *listKeyMap {
	return &listKeyMap{
		editParams: key.NewBinding(
			key.WithKeys("E", "e"),
			key.WithHelp("E", "Edit Params"),
		),
		preview: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Preview"),
		),
		save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save"),
		),
		cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
		finish: key.NewBinding(
			key.WithKeys("F", "f"),
			key.WithHelp("F", "Export"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
	}
}

// ListItemModel lists the catalog endpoints.
type ListItemModel struct {
	list      list.Model
	keys      *listKeyMap
	editing   bool
	editIndex int
	editModal ParamsEditorModal
}

// NewListItemModel creates the endpoint list.
func NewListItemModel(endpoints []*catalog.Endpoint) ListItemModel {
	listKeys := newListKeyMap()

	items := make([]list.Item, len(endpoints))
	for i, ep := range endpoints {
		items[i] = models.EndpointItem{Endpoint: ep}
	}
	delegate := newItemDelegate(newDelegateKeyMap())

	l := list.New(items, delegate, 0, 0)
	l.Title = titleStyle.Render("Endpoints")
	l.SetShowFilter(true)

	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{
			listKeys.preview,
			listKeys.editParams,
			listKeys.finish,
			listKeys.quit,
		}
	}
	return ListItemModel{list: l, keys: listKeys, editIndex: -1}
}

// Init returns the initial command for the list model.
func (m ListItemModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the list and the params editor.
func (m ListItemModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleEditModeUpdate(msg)
	}
	return m.handleListModeUpdate(msg)
}

func (m ListItemModel) handleEditModeUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.cancel):
			m.editing = false
			return m, nil
		case key.Matches(msg, m.keys.save):
			params, err := m.editModal.Params()
			if err != nil {
				m.editModal = m.editModal.WithError(err)
				return m, nil
			}
			m.editing = false
			item := m.list.Items()[m.editIndex].(models.EndpointItem)
			cmd := m.list.SetItem(m.editIndex, item.WithParams(params))
			return m, tea.Batch(cmd, m.list.NewStatusMessage(statusMessageStyle("Updated params for "+item.Title())))
		}

	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}
	var cmd tea.Cmd
	m.editModal, cmd = m.editModal.Update(msg)
	return m, cmd
}

func (m ListItemModel) handleListModeUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Keys belong to the filter input while it is open.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.preview):
			if item, ok := m.list.SelectedItem().(models.EndpointItem); ok {
				return m, func() tea.Msg { return OpenPreviewMsg{Item: item} }
			}
		case key.Matches(msg, m.keys.editParams):
			item, ok := m.list.SelectedItem().(models.EndpointItem)
			if !ok {
				return m, nil
			}
			if !item.Endpoint.TakesParams() {
				return m, m.list.NewStatusMessage(statusMessageStyle(item.Title() + " takes no params"))
			}
			m.editing = true
			m.editIndex = m.list.GlobalIndex()
			m.editModal = NewParamsEditor(item.Params)
			return m, nil
		case key.Matches(msg, m.keys.finish):
			items := m.Items()
			return m, func() tea.Msg { return DoneMsg{Items: items} }
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// idle reports whether the list is neither editing params nor filtering.
func (m ListItemModel) idle() bool {
	return !m.editing && m.list.FilterState() == list.Unfiltered
}

// View renders either the list or the params editor.
func (m ListItemModel) View() string {
	if m.editing {
		item := m.list.Items()[m.editIndex].(models.EndpointItem)
		return docStyle.Render(m.editModal.View(item.Title() + "  " + item.Route()))
	}
	return docStyle.Render(m.list.View())
}

// Items returns the currently visible endpoints with the params entered for them.
func (m ListItemModel) Items() []*models.EndpointItem {
	visible := m.list.VisibleItems()
	result := make([]*models.EndpointItem, len(visible))
	for i, it := range visible {
		item := it.(models.EndpointItem)
		result[i] = &item
	}
	return result
}
