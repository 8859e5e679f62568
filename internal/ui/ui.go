package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ccm/internal/models"
	"github.com/desertthunder/ccm/internal/shared"
	"github.com/desertthunder/ccm/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ClientListView ViewState = iota
	ContactListView
	ConfirmView
	RepairView
	ResultView
)

// ClientBrowser is the set of client operations the TUI uses.
type ClientBrowser interface {
	List(ctx context.Context) ([]*models.Client, error)
	Get(ctx context.Context, id string) (*models.Client, error)
	Save(ctx context.Context, id string) (*models.Client, error)
	Contacts(ctx context.Context, id string) ([]*models.Contact, error)
}

// LinkManager unlinks pairs and repairs asymmetric ones. [tasks.LinkCoordinator] satisfies it.
type LinkManager interface {
	tasks.Linker
	Repair(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RepairResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	clients      ClientBrowser
	links        LinkManager
	width        int
	height       int
	loaded       bool
	clientList   list.Model
	contactList  list.Model
	selected     *models.Client
	pending      *models.Contact
	status       string
	statusErr    bool
	progressChan chan tasks.ProgressUpdate
	done         chan Msg
	progress     tasks.ProgressUpdate
	result       *tasks.RepairResult
	repairErr    error
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, clients ClientBrowser, links LinkManager) *Model {
	return &Model{
		ctx:         ctx,
		view:        ClientListView,
		clients:     clients,
		links:       links,
		clientList:  newList(nil, "Clients"),
		contactList: newList(nil, "Contacts"),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init initializes the TUI by fetching clients.
func (m *Model) Init() tea.Cmd {
	return m.fetchClients()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clientList.SetSize(listSize(msg.Width, msg.Height))
		m.contactList.SetSize(listSize(msg.Width, msg.Height))
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ClientListView:
			return m.handleClientListKeys(msg)
		case ContactListView:
			return m.handleContactListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case RepairView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgClientsFetched:
		data := msg.data.(clientsFetched)
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		index := m.clientList.Index()
		m.clientList = newList(clientItems(data.clients), "Clients")
		m.clientList.SetSize(listSize(m.width, m.height))
		if index < len(data.clients) {
			m.clientList.Select(index)
		}
		m.loaded = true
		return m, nil

	case MsgContactsFetched:
		data := msg.data.(contactsFetched)
		if data.err != nil {
			m.setStatus(fmt.Sprintf("Could not load contacts: %v", data.err), true)
			m.view = ClientListView
			return m, nil
		}
		m.selected = data.client
		m.contactList = newList(contactItems(data.contacts), fmt.Sprintf("Contacts of %s (%s)", data.client.Name(), data.client.Code()))
		m.contactList.SetSize(listSize(m.width, m.height))
		m.view = ContactListView
		return m, nil

	case MsgClientSaved:
		data := msg.data.(clientSaved)
		if data.err != nil {
			m.setStatus(fmt.Sprintf("Save failed: %v", data.err), true)
			return m, nil
		}
		m.clientList.SetItem(m.clientList.Index(), clientItem{client: data.client})
		m.setStatus(fmt.Sprintf("Saved %s", data.client.Code()), false)
		return m, nil

	case MsgContactUnlinked:
		data := msg.data.(contactUnlinked)
		m.view = ContactListView
		m.pending = nil
		switch {
		case errors.Is(data.err, shared.ErrPartialLink):
			m.setStatus(fmt.Sprintf("Partially unlinked %s, run a repair: %v", data.contact.FullName(), data.err), true)
		case data.err != nil:
			m.setStatus(fmt.Sprintf("Unlink failed: %v", data.err), true)
			return m, nil
		default:
			m.setStatus(fmt.Sprintf("Unlinked %s from %s", data.contact.FullName(), m.selected.Code()), false)
		}
		return m, m.fetchContacts(m.selected.ID())

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, waitForProgress(m.progressChan, m.done)

	case MsgRepairComplete:
		data := msg.data.(repairComplete)
		m.result = data.result
		m.repairErr = data.err
		m.progressChan = nil
		m.done = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ClientListView:
		return m.renderClientList()
	case ContactListView:
		return m.renderContactList()
	case ConfirmView:
		return m.renderConfirm()
	case RepairView:
		return m.renderRepair()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleClientListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.clientList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.clientList.SelectedItem().(clientItem); ok {
			m.clearStatus()
			return m, m.fetchContacts(item.client.ID())
		}
		return m, nil
	case key.Matches(msg, m.keys.save):
		if item, ok := m.clientList.SelectedItem().(clientItem); ok {
			return m, m.saveClient(item.client.ID())
		}
		return m, nil
	case key.Matches(msg, m.keys.repair):
		m.clearStatus()
		m.view = RepairView
		m.progress = tasks.ProgressUpdate{}
		return m, m.startRepair()
	}

	return m.updateLists(msg)
}

func (m *Model) handleContactListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.contactList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ClientListView
		m.clearStatus()
		return m, m.fetchClients()
	case key.Matches(msg, m.keys.unlink):
		if item, ok := m.contactList.SelectedItem().(contactItem); ok {
			m.pending = item.contact
			m.view = ConfirmView
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.pending = nil
		m.view = ContactListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		return m, m.unlinkContact(m.selected, m.pending)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart), key.Matches(msg, m.keys.back):
		m.view = ClientListView
		m.result = nil
		m.repairErr = nil
		return m, m.fetchClients()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ClientListView:
		m.clientList, cmd = m.clientList.Update(msg)
	case ContactListView:
		m.contactList, cmd = m.contactList.Update(msg)
	}
	return m, cmd
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Model) clearStatus() { m.setStatus("", false) }

func (m *Model) fetchClients() tea.Cmd {
	return func() tea.Msg {
		clients, err := m.clients.List(m.ctx)
		return clientsFetchedMsg(clients, err)
	}
}

func (m *Model) fetchContacts(clientID string) tea.Cmd {
	return func() tea.Msg {
		client, err := m.clients.Get(m.ctx, clientID)
		if err != nil {
			return contactsFetchedMsg(nil, nil, err)
		}
		contacts, err := m.clients.Contacts(m.ctx, clientID)
		return contactsFetchedMsg(client, contacts, err)
	}
}

func (m *Model) saveClient(clientID string) tea.Cmd {
	return func() tea.Msg {
		client, err := m.clients.Save(m.ctx, clientID)
		return clientSavedMsg(client, err)
	}
}

func (m *Model) unlinkContact(client *models.Client, contact *models.Contact) tea.Cmd {
	return func() tea.Msg {
		err := m.links.Unlink(m.ctx, client.ID(), contact.ID())
		return contactUnlinkedMsg(contact, err)
	}
}

func (m *Model) startRepair() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.done = make(chan Msg, 1)

	progress, done := m.progressChan, m.done
	go func() {
		result, err := m.links.Repair(m.ctx, progress)
		close(progress)
		done <- repairCompleteMsg(result, err)
	}()

	return waitForProgress(progress, done)
}

// waitForProgress yields the next progress update, then the completion message once the channel closes.
func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

func (m *Model) renderClientList() string {
	if !m.loaded {
		return "Loading clients..."
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.save, m.keys.repair, m.keys.quit}
	return m.withStatus(m.clientList.View(), helpKeys)
}

func (m *Model) renderContactList() string {
	helpKeys := []key.Binding{m.keys.unlink, m.keys.back, m.keys.quit}
	return m.withStatus(m.contactList.View(), helpKeys)
}

func (m *Model) withStatus(body string, helpKeys []key.Binding) string {
	helpView := m.help.ShortHelpView(helpKeys)
	if m.status == "" {
		return fmt.Sprintf("%s\n\n%s", body, helpView)
	}

	status := styles.ok.Render(m.status)
	if m.statusErr {
		status = styles.err.Render(m.status)
	}
	return fmt.Sprintf("%s\n\n%s\n%s", body, status, helpView)
}

func (m *Model) renderConfirm() string {
	if m.selected == nil || m.pending == nil {
		return ""
	}

	title := styles.title.Render(fmt.Sprintf("Unlink %s from %s?", m.pending.FullName(), m.selected.Name()))
	info := fmt.Sprintf("\nClient: %s %s\nContact: %s <%s>\n",
		styles.code.Render(m.selected.Code()), m.selected.Name(), m.pending.FullName(), m.pending.Email())

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderRepair() string {
	title := styles.title.Render("Repairing Links")

	var phase string
	switch m.progress.Phase {
	case tasks.ScanClients:
		phase = "Scanning clients..."
	case tasks.ScanContacts:
		phase = "Scanning contacts..."
	case tasks.RepairPairs:
		phase = fmt.Sprintf("Repairing pairs (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.repairErr != nil {
		return styles.err.Render(fmt.Sprintf("Repair failed: %v", m.repairErr)) + "\n\n" + helpView
	}

	if m.result == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	if m.result.Found == 0 {
		return fmt.Sprintf("%s\n\n%s", styles.ok.Render("✓ All links are symmetric"), helpView)
	}

	var b strings.Builder
	b.WriteString(styles.ok.Render(fmt.Sprintf("✓ Repaired %d/%d pairs", len(m.result.Repaired), m.result.Found)))
	b.WriteString("\n")
	for _, a := range m.result.Repaired {
		fmt.Fprintf(&b, "\n  • %s", a)
	}

	if len(m.result.Failed) > 0 {
		b.WriteString("\n\n")
		b.WriteString(styles.warn.Render(fmt.Sprintf("Failed to repair %d pairs:", len(m.result.Failed))))
		for _, f := range m.result.Failed {
			fmt.Fprintf(&b, "\n  • %s: %v", f.Asymmetry, f.Err)
		}
	}

	return fmt.Sprintf("%s\n\n%s", b.String(), helpView)
}

func newList(items []list.Item, title string) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

func listSize(width, height int) (int, int) {
	return max(width-4, 0), max(height-8, 0)
}
