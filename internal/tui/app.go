// Package tui is an interactive inspector for a loaded catalog. It lists the endpoints and shows the
// request configuration each would dispatch with.
package tui

import (
	"github.com/brizzai/httpdeco/internal/catalog"
	"github.com/brizzai/httpdeco/internal/tui/models"
	"github.com/brizzai/httpdeco/pkg/reqconfig"
	tea "github.com/charmbracelet/bubbletea"
)

// Resolver lists endpoints and resolves their configuration without dispatching.
// *catalog.Service implements it.
type Resolver interface {
	Endpoints() []*catalog.Endpoint
	Resolve(name string, params, cfg map[string]any) (reqconfig.RequestConfig, error)
}

type page string

const (
	pageMain    page = "main"
	pageList    page = "list"
	pagePreview page = "preview"
	pageExport  page = "export"
)

// AppModel is the main application model that manages page switching
type AppModel struct {
	resolver    Resolver
	mainPage    MainPageModel
	listView    ListItemModel
	previewView PreviewView
	exportView  ExportView
	page        page
	width       int
	height      int
}

// NewAppModel creates the inspector for the endpoints of resolver. source names where they were
// loaded from.
func NewAppModel(resolver Resolver, source string) AppModel {
	endpoints := resolver.Endpoints()
	return AppModel{
		resolver: resolver,
		mainPage: NewMainPageModel(source, endpoints),
		listView: NewListItemModel(endpoints),
		page:     pageMain,
	}
}

// Init initializes the AppModel
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.mainPage.Init(),
		m.listView.Init(),
	)
}

// Update handles app-level messages and delegates to the appropriate page model
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case OpenListItemMsg:
		m.page = pageList
		return m, m.listView.Init()

	case OpenPreviewMsg:
		m.page = pagePreview
		m.previewView = NewPreviewView(m.resolver, msg.Item, m.width, m.height)
		return m, m.previewView.Init()

	case DoneMsg:
		m.page = pageExport
		m.exportView = NewExportView(m.resolver, msg.Items)
		tempModel, _ := m.exportView.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		m.exportView = tempModel.(ExportView)
		return m, m.exportView.Init()

	case BackToListMsg:
		m.page = pageList
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "esc" && m.page == pageList && m.listView.idle() {
			m.page = pageMain
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

		var cmd tea.Cmd
		var tempModel tea.Model

		tempModel, cmd = m.mainPage.Update(msg)
		m.mainPage = tempModel.(MainPageModel)
		cmds = append(cmds, cmd)

		tempModel, cmd = m.listView.Update(msg)
		m.listView = tempModel.(ListItemModel)
		cmds = append(cmds, cmd)

		if m.page == pagePreview {
			tempModel, cmd = m.previewView.Update(msg)
			m.previewView = tempModel.(PreviewView)
			cmds = append(cmds, cmd)
		}
		if m.page == pageExport {
			tempModel, cmd = m.exportView.Update(msg)
			m.exportView = tempModel.(ExportView)
			cmds = append(cmds, cmd)
		}

		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	var tempModel tea.Model
	switch m.page {
	case pageMain:
		tempModel, cmd = m.mainPage.Update(msg)
		m.mainPage = tempModel.(MainPageModel)
	case pageList:
		tempModel, cmd = m.listView.Update(msg)
		m.listView = tempModel.(ListItemModel)
	case pagePreview:
		tempModel, cmd = m.previewView.Update(msg)
		m.previewView = tempModel.(PreviewView)
	case pageExport:
		tempModel, cmd = m.exportView.Update(msg)
		m.exportView = tempModel.(ExportView)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the active page
func (m AppModel) View() string {
	switch m.page {
	case pageMain:
		return m.mainPage.View()
	case pagePreview:
		return m.previewView.View()
	case pageExport:
		return m.exportView.View()
	default:
		return m.listView.View()
	}
}

// Items returns the listed endpoints with the params entered for them.
func (m AppModel) Items() []*models.EndpointItem {
	return m.listView.Items()
}

// IsFinished reports whether the user exported the resolved configurations.
func (m AppModel) IsFinished() bool {
	return m.exportView.Success
}
