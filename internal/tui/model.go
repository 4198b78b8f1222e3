package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/trancendos/secrets-portal/internal/audit"
	"github.com/trancendos/secrets-portal/internal/gh"
	"github.com/trancendos/secrets-portal/internal/types"
	"github.com/trancendos/secrets-portal/internal/validate"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("232")).
			Background(lipgloss.Color("208")).
			Bold(true).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(1, 4)
)

const (
	invalidNameMsg  = "Invalid secret name. Use UPPER_SNAKE_CASE (A-Z, 0-9, _)"
	invalidValueMsg = "Secret value must be between 1 and 65536 characters"
	browseHelp      = "q: quit | tab: switch view | n: new | d: delete | c: copy name | r: refresh"
)

// Backend is the subset of the GitHub client the dashboard drives.
type Backend interface {
	ListSecrets(ctx context.Context, repo gh.Repo) ([]types.Secret, error)
	RequestSecret(ctx context.Context, repo gh.Repo, name, value string) (string, error)
	DeleteSecret(ctx context.Context, repo gh.Repo, name string) (string, error)
}

type tab int

const (
	tabSecrets tab = iota
	tabAudit
)

type mode int

const (
	modeBrowse mode = iota
	modeForm
	modeConfirm
)

type secretsMsg struct {
	secrets []types.Secret
	err     error
}

type createdMsg struct {
	name   string
	status string
	err    error
}

type deletedMsg struct {
	name string
	err  error
}

type statusMsg string

// Options configures a dashboard session.
type Options struct {
	Context context.Context
	Repo    gh.Repo
	// Actor is recorded on audit entries.
	Actor string
	Audit *audit.Log
	// Cached is shown until the first listing arrives.
	Cached   []types.Secret
	CachedAt time.Time
	// OnListed receives every successful listing.
	OnListed func([]types.Secret)
}

// Model is the dashboard state.
type Model struct {
	ctx      context.Context
	backend  Backend
	repo     gh.Repo
	actor    string
	audit    *audit.Log
	onListed func([]types.Secret)
	copy     func(string) error

	table      table.Model
	spinner    spinner.Model
	nameInput  textinput.Model
	valueInput textinput.Model

	secrets       []types.Secret
	cachedAt      time.Time
	viewingCached bool
	loading       bool
	tab           tab
	mode          mode
	formFocus     int
	formError     string
	confirmName   string
	statusMessage string
	width         int
	height        int
	ready         bool
	quitting      bool
}

// NewModel initializes the dashboard for opts.Repo.
func NewModel(b Backend, opts Options) Model {
	columns := []table.Column{
		{Title: "Name", Width: 36},
		{Title: "Created", Width: 18},
		{Title: "Updated", Width: 18},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1)
	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true)
	s.Cell = lipgloss.NewStyle().Padding(0, 1)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	name := textinput.New()
	name.Placeholder = "API_KEY"
	name.CharLimit = 100
	name.Width = 40
	name.Prompt = "Name:  "

	value := textinput.New()
	value.Placeholder = "secret value"
	value.CharLimit = validate.MaxValueLength
	value.Width = 40
	value.Prompt = "Value: "
	value.EchoMode = textinput.EchoPassword
	value.EchoCharacter = '•'

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	auditLog := opts.Audit
	if auditLog == nil {
		auditLog = audit.New("")
	}

	m := Model{
		ctx:           ctx,
		backend:       b,
		repo:          opts.Repo,
		actor:         opts.Actor,
		audit:         auditLog,
		onListed:      opts.OnListed,
		copy:          clipboard.WriteAll,
		table:         t,
		spinner:       sp,
		nameInput:     name,
		valueInput:    value,
		loading:       true,
		statusMessage: browseHelp,
	}
	if opts.Cached != nil {
		m.secrets = opts.Cached
		m.cachedAt = opts.CachedAt
		m.viewingCached = true
		m.rebuildRows()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m Model) load() tea.Cmd {
	ctx, b, repo := m.ctx, m.backend, m.repo
	return func() tea.Msg {
		secrets, err := b.ListSecrets(ctx, repo)
		return secretsMsg{secrets: secrets, err: err}
	}
}

func (m Model) create(name, value string) tea.Cmd {
	ctx, b, repo := m.ctx, m.backend, m.repo
	return func() tea.Msg {
		status, err := b.RequestSecret(ctx, repo, name, value)
		return createdMsg{name: name, status: status, err: err}
	}
}

func (m Model) remove(name string) tea.Cmd {
	ctx, b, repo := m.ctx, m.backend, m.repo
	return func() tea.Msg {
		_, err := b.DeleteSecret(ctx, repo, name)
		return deletedMsg{name: name, err: err}
	}
}

func (m *Model) refresh() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m *Model) record(action audit.Action, secret string, err error, message string) {
	e := audit.Entry{
		Action:  action,
		Actor:   m.actor,
		Secret:  secret,
		Repo:    m.repo.String(),
		Status:  audit.StatusSuccess,
		Message: message,
	}
	if err != nil {
		e.Status = audit.StatusFailed
		e.Message = err.Error()
	}
	m.audit.Add(e)
}

func (m *Model) rebuildRows() {
	rows := make([]table.Row, len(m.secrets))
	for i, s := range m.secrets {
		rows[i] = table.Row{s.Name, formatTime(s.CreatedAt), formatTime(s.UpdatedAt)}
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}

func (m Model) selectedSecret() (types.Secret, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.secrets) {
		return types.Secret{}, false
	}
	return m.secrets[i], true
}

func (m *Model) openForm() tea.Cmd {
	m.mode = modeForm
	m.formError = ""
	m.formFocus = 0
	m.nameInput.SetValue("")
	m.valueInput.SetValue("")
	m.valueInput.Blur()
	return m.nameInput.Focus()
}

func (m *Model) closeForm() {
	m.mode = modeBrowse
	m.nameInput.Blur()
	m.valueInput.Blur()
	m.nameInput.SetValue("")
	m.valueInput.SetValue("")
}

func (m *Model) focusField(i int) tea.Cmd {
	m.formFocus = i
	if i == 0 {
		m.valueInput.Blur()
		return m.nameInput.Focus()
	}
	m.nameInput.Blur()
	return m.valueInput.Focus()
}

func (m *Model) submitForm() tea.Cmd {
	name := strings.TrimSpace(m.nameInput.Value())
	value := m.valueInput.Value()
	if validate.SecretName(name) != nil {
		m.formError = invalidNameMsg
		return m.focusField(0)
	}
	if validate.SecretValue(value) != nil {
		m.formError = invalidValueMsg
		return m.focusField(1)
	}
	m.closeForm()
	m.loading = true
	m.statusMessage = fmt.Sprintf("Requesting %s...", name)
	return tea.Batch(m.spinner.Tick, m.create(name, value))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.table.SetHeight(max(3, msg.Height-9))
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case secretsMsg:
		m.loading = false
		if msg.err != nil {
			m.record(audit.ActionList, "", msg.err, "")
			m.statusMessage = fmt.Sprintf("Load failed: %v", msg.err)
			return m, nil
		}
		m.secrets = msg.secrets
		m.viewingCached = false
		m.rebuildRows()
		m.record(audit.ActionList, "", nil, fmt.Sprintf("%d secrets", len(msg.secrets)))
		if m.onListed != nil {
			m.onListed(msg.secrets)
		}
		m.statusMessage = fmt.Sprintf("Loaded %d secrets | %s", len(msg.secrets), browseHelp)
		return m, nil

	case createdMsg:
		m.loading = false
		if msg.err != nil {
			m.record(audit.ActionCreate, msg.name, msg.err, "")
			m.statusMessage = fmt.Sprintf("Create failed: %v", msg.err)
			return m, nil
		}
		m.record(audit.ActionCreate, msg.name, nil, "status "+msg.status)
		m.statusMessage = fmt.Sprintf("✅ Secret %s requested (%s)", msg.name, msg.status)
		return m, m.refresh()

	case deletedMsg:
		m.loading = false
		if msg.err != nil {
			m.record(audit.ActionDelete, msg.name, msg.err, "")
			m.statusMessage = fmt.Sprintf("Delete failed: %v", msg.err)
			return m, nil
		}
		m.record(audit.ActionDelete, msg.name, nil, "")
		m.statusMessage = fmt.Sprintf("✅ Secret %s deleted", msg.name)
		return m, m.refresh()

	case statusMsg:
		m.statusMessage = string(msg)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "tab":
		if m.tab == tabSecrets {
			m.tab = tabAudit
		} else {
			m.tab = tabSecrets
		}
		return m, nil
	case "1":
		m.tab = tabSecrets
		return m, nil
	case "2":
		m.tab = tabAudit
		return m, nil
	case "r":
		if m.loading {
			return m, nil
		}
		m.statusMessage = "Refreshing..."
		return m, m.refresh()
	}

	if m.tab != tabSecrets {
		return m, nil
	}
	switch msg.String() {
	case "n":
		return m, m.openForm()
	case "d", "x", "delete":
		s, ok := m.selectedSecret()
		if !ok {
			m.statusMessage = "No secret selected"
			return m, nil
		}
		m.confirmName = s.Name
		m.mode = modeConfirm
		return m, nil
	case "c", "y":
		s, ok := m.selectedSecret()
		if !ok {
			return m, func() tea.Msg { return statusMsg("No secret selected") }
		}
		write := m.copy
		return m, func() tea.Msg {
			if err := write(s.Name); err != nil {
				return statusMsg(fmt.Sprintf("Clipboard error: %v", err))
			}
			return statusMsg(fmt.Sprintf("Copied: %s", s.Name))
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		m.statusMessage = browseHelp
		return m, nil
	case "tab", "shift+tab", "up", "down":
		return m, m.focusField(1 - m.formFocus)
	case "enter":
		if m.formFocus == 0 {
			return m, m.focusField(1)
		}
		return m, m.submitForm()
	}
	var cmd tea.Cmd
	if m.formFocus == 0 {
		m.nameInput, cmd = m.nameInput.Update(msg)
	} else {
		m.valueInput, cmd = m.valueInput.Update(msg)
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	name := m.confirmName
	m.mode = modeBrowse
	m.confirmName = ""
	switch msg.String() {
	case "y", "Y":
		m.loading = true
		m.statusMessage = fmt.Sprintf("Deleting %s...", name)
		return m, tea.Batch(m.spinner.Tick, m.remove(name))
	default:
		m.statusMessage = "Delete cancelled"
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("🔐 Secrets Portal · " + m.repo.String()))
	b.WriteString("\n")
	b.WriteString(m.tabsView())
	b.WriteString("\n\n")

	switch {
	case m.mode == modeForm:
		b.WriteString(m.formView())
	case m.mode == modeConfirm:
		b.WriteString(popupStyle.Render(fmt.Sprintf("Delete secret %s?\n\ny: delete   any other key: cancel", m.confirmName)))
	case m.tab == tabAudit:
		b.WriteString(m.auditView())
	default:
		b.WriteString(m.secretsView())
	}

	b.WriteString("\n")
	status := m.statusMessage
	if m.loading {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(statusStyle.Render(status))
	return b.String()
}

func (m Model) tabsView() string {
	secrets := fmt.Sprintf("Secrets (%d)", len(m.secrets))
	auditLabel := "Audit Log"
	if m.tab == tabSecrets {
		return activeTabStyle.Render(secrets) + " " + tabStyle.Render(auditLabel)
	}
	return tabStyle.Render(secrets) + " " + activeTabStyle.Render(auditLabel)
}

func (m Model) secretsView() string {
	if len(m.secrets) == 0 {
		if m.loading {
			return fmt.Sprintf("%s Loading secrets from %s...", m.spinner.View(), m.repo)
		}
		return dimStyle.Render("No secrets found. Press n to create one.")
	}
	out := m.table.View()
	if m.viewingCached {
		out += "\n" + dimStyle.Render(fmt.Sprintf("cached %s ago", formatDuration(time.Since(m.cachedAt))))
	}
	return out
}

func (m Model) auditView() string {
	entries := m.audit.Entries()
	if len(entries) == 0 {
		return dimStyle.Render("No activity yet.")
	}
	limit := len(entries)
	if m.height > 0 && m.height-8 < limit {
		limit = max(1, m.height-8)
	}
	var b strings.Builder
	for _, e := range entries[:limit] {
		status := okStyle.Render(string(e.Status))
		if e.Status == audit.StatusFailed {
			status = errorStyle.Render(string(e.Status))
		}
		line := fmt.Sprintf("%s  %-7s  %-7s  %s", e.Timestamp.Local().Format("15:04:05"), e.Action, status, e.Secret)
		if e.Message != "" {
			line += dimStyle.Render("  " + e.Message)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) formView() string {
	var b strings.Builder
	b.WriteString("New secret\n\n")
	b.WriteString(m.nameInput.View() + "\n")
	b.WriteString(m.valueInput.View() + "\n")
	if m.formError != "" {
		b.WriteString("\n" + errorStyle.Render(m.formError) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("tab: next field | enter: submit | esc: cancel"))
	return popupStyle.Render(b.String())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
