package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pakd/pkg/backend"
	"pakd/pkg/transaction"
)

const (
	refreshInterval = 150 * time.Millisecond
	historyLimit    = 50
)

type tickMsg time.Time

// App wraps the Model with bubbletea components
type App struct {
	*Model
	spinner  spinner.Model
	progress progress.Model
	sub      progress.Model
}

// NewApp creates a new monitor application
func NewApp(b Broker, follow ...string) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return &App{
		Model:    NewModel(b, follow...),
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
		sub:      progress.New(progress.WithSolidFill(string(ColorSecondary)), progress.WithoutPercentage()),
	}
}

// AutoQuit makes the monitor exit once every followed transaction finished.
func (a *App) AutoQuit(enabled bool) *App {
	a.autoQuit = enabled
	return a
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	a.Refresh()
	return tea.Batch(a.spinner.Tick, tick())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetSize(msg.Width, msg.Height)
		a.progress.Width = msg.Width - 8
		a.sub.Width = msg.Width - 8
		a.ready = true

	case tickMsg:
		a.Refresh()
		if a.activeView == ViewHistory {
			a.LoadHistory(historyLimit)
		}
		if a.autoQuit && a.Done() {
			a.quitting = true
			return a, tea.Quit
		}
		return a, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			a.quitting = true
			return a, tea.Quit
		case key.Matches(msg, a.keys.Help):
			a.ToggleHelp()
		case key.Matches(msg, a.keys.Tab1):
			a.SetTab(0)
		case key.Matches(msg, a.keys.Tab2):
			a.SetTab(1)
			a.LoadHistory(historyLimit)
		case key.Matches(msg, a.keys.Next):
			a.NextTab()
			if a.activeView == ViewHistory {
				a.LoadHistory(historyLimit)
			}
		case key.Matches(msg, a.keys.Up):
			a.MoveCursor(-1)
		case key.Matches(msg, a.keys.Down):
			a.MoveCursor(1)
		case key.Matches(msg, a.keys.PageUp):
			a.ScrollEvents(-a.VisibleHeight())
		case key.Matches(msg, a.keys.PageDown):
			a.ScrollEvents(a.VisibleHeight())
		case key.Matches(msg, a.keys.Cancel):
			if a.activeView == ViewTransactions {
				a.CancelSelected()
			}
		case key.Matches(msg, a.keys.Refresh):
			a.Refresh()
			a.LoadHistory(historyLimit)
		}
	}
	return a, nil
}

// View implements tea.Model
func (a *App) View() string {
	if a.quitting {
		return ""
	}
	if !a.ready {
		return "\n  Initializing..."
	}

	var b strings.Builder
	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(a.renderTabs())
	b.WriteString("\n\n")

	switch a.activeView {
	case ViewTransactions:
		b.WriteString(a.renderTransactions())
	case ViewHistory:
		b.WriteString(a.renderHistory())
	case ViewHelp:
		b.WriteString(a.renderHelp())
	}

	b.WriteString("\n")
	b.WriteString(a.renderFooter())
	return b.String()
}

func (a *App) renderHeader() string {
	running := 0
	for _, r := range a.rows {
		if r.State == transaction.StateRunning {
			running++
		}
	}
	title := fmt.Sprintf("pakd monitor  %d transactions, %d running", len(a.rows), running)
	return a.styles.Header.Width(a.width).Render(title)
}

func (a *App) renderTabs() string {
	var tabs []string
	for i, tab := range a.tabs {
		label := fmt.Sprintf("%d %s", i+1, tab.Name)
		if i == a.activeTab && a.activeView != ViewHelp {
			tabs = append(tabs, a.styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, a.styles.TabInactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) renderTransactions() string {
	if len(a.rows) == 0 {
		return a.styles.Description.Render("  No transactions")
	}

	var b strings.Builder
	for i, r := range a.rows {
		marker := "  "
		if r.State == transaction.StateRunning {
			marker = a.spinner.View() + " "
		}
		line := fmt.Sprintf("%s%-16s %-18s %-14s %s", marker, r.ID, r.Role, r.Status, r.Summary)
		if i == a.cursor {
			b.WriteString(a.styles.ListItemSelected.Render("> "+line) + " " + StateBadge(r.State))
		} else {
			b.WriteString(a.styles.ListItem.Render(line) + " " + StateBadge(r.State))
		}
		b.WriteString("\n")
	}

	row, ok := a.Selected()
	if !ok {
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(a.renderProgress(row))
	b.WriteString("\n")
	b.WriteString(a.styles.Border.Width(a.width - 4).Render(a.renderEvents(row)))
	return b.String()
}

func (a *App) renderProgress(r Row) string {
	var b strings.Builder
	if r.Percentage == backend.PercentageUnknown {
		b.WriteString(a.styles.Description.Render("  progress unknown"))
	} else {
		b.WriteString("  " + a.progress.ViewAs(float64(r.Percentage)/100))
	}
	b.WriteString("\n")
	if r.SubPercentage > 0 && !r.State.Terminal() {
		b.WriteString("  " + a.sub.ViewAs(float64(r.SubPercentage)/100) + "\n")
	}

	info := fmt.Sprintf("  runtime %s", r.Runtime.Round(time.Millisecond))
	switch {
	case r.CancelRequested && !r.State.Terminal():
		info += a.styles.Warning.Render("  cancel requested")
	case !r.AllowCancel && !r.State.Terminal():
		info += a.styles.Description.Render("  not cancellable")
	}
	b.WriteString(info)
	return b.String()
}

func (a *App) renderEvents(r Row) string {
	events := visibleEvents(r.Events)
	if len(events) == 0 {
		return a.styles.Description.Render("no events yet")
	}

	start := a.eventScroll
	if start > len(events) {
		start = len(events)
	}
	end := start + a.VisibleHeight()
	if end > len(events) {
		end = len(events)
	}

	lines := make([]string, 0, end-start)
	for _, ev := range events[start:end] {
		lines = append(lines, a.formatEvent(ev))
	}
	return strings.Join(lines, "\n")
}

func (a *App) formatEvent(ev transaction.Event) string {
	s := a.styles
	switch e := ev.(type) {
	case transaction.PackageEvent:
		return s.InfoStyle(e.Info).Render(string(e.Info)) + " " +
			s.PackageName.Render(e.ID.String()) + " " + s.Description.Render(e.Summary)
	case transaction.StatusChangedEvent:
		return s.Info.Render("status ") + string(e.Status)
	case transaction.ErrorEvent:
		if e.ErrorKind == backend.ErrorTransactionCancelled {
			return s.Warning.Render(string(e.ErrorKind)) + " " + e.Message
		}
		return s.Error.Render(string(e.ErrorKind)) + " " + e.Message
	case transaction.FinishedEvent:
		return s.Success.Render("finished ") + fmt.Sprintf("%s in %s", e.Exit, e.Runtime.Round(time.Millisecond))
	case transaction.RestartRequiredEvent:
		return s.Warning.Render("restart ") + fmt.Sprintf("%s (%s)", e.Restart, e.ID.String())
	case transaction.EulaRequiredEvent:
		return s.Warning.Render("eula ") + fmt.Sprintf("%s for %s", e.ID, e.PackageID.String())
	case transaction.SignatureRequiredEvent:
		return s.Warning.Render("signature ") + fmt.Sprintf("key %s for %s", e.KeyID, e.PackageID.String())
	case transaction.DetailsEvent:
		return s.Info.Render("details ") + e.ID.String()
	case transaction.FilesEvent:
		return s.Info.Render("files ") + fmt.Sprintf("%d files", len(e.Files))
	case transaction.UpdateDetailEvent:
		return s.Info.Render("update ") + e.ID.String()
	case transaction.RepoDetailEvent:
		return s.Info.Render("repo ") + fmt.Sprintf("%s enabled=%t", e.ID, e.Enabled)
	}
	return string(ev.Kind())
}

func (a *App) renderHistory() string {
	if len(a.historyEntries) == 0 {
		return a.styles.Description.Render("  No history entries")
	}
	var b strings.Builder
	for _, e := range a.historyEntries {
		exit := a.styles.Success.Render(string(e.Exit))
		if !e.Succeeded {
			exit = a.styles.Error.Render(string(e.Exit))
		}
		fmt.Fprintf(&b, "  %s  %-18s %-30s %s\n",
			a.styles.Description.Render(e.FormatTime()), e.Role, e.Data, exit)
	}
	return b.String()
}

func (a *App) renderHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Keys"))
	b.WriteString("\n")
	for _, group := range a.keys.FullHelp() {
		for _, k := range group {
			h := k.Help()
			fmt.Fprintf(&b, "  %s  %s\n", a.styles.HelpKey.Width(8).Render(h.Key), a.styles.HelpDesc.Render(h.Desc))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderFooter() string {
	if a.errorMsg != "" {
		return a.styles.Error.Render("  " + a.errorMsg)
	}
	if a.successMsg != "" {
		return a.styles.Success.Render("  " + a.successMsg)
	}

	var parts []string
	for _, k := range a.keys.ShortHelp() {
		h := k.Help()
		parts = append(parts, a.styles.HelpKey.Render(h.Key)+" "+a.styles.HelpDesc.Render(h.Desc))
	}
	return a.styles.Footer.Render(strings.Join(parts, "  "))
}

// Run starts the monitor. With autoQuit it returns as soon as every
// followed transaction has finished.
func Run(b Broker, autoQuit bool, follow ...string) error {
	app := NewApp(b, follow...).AutoQuit(autoQuit)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
