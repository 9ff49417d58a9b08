package tui

import (
	"fmt"
	"time"

	"pakd/internal/history"
	"pakd/pkg/backend"
	"pakd/pkg/transaction"
)

// Broker is the part of the scheduler the monitor reads from.
type Broker interface {
	List() []string
	Get(id string) (*transaction.Transaction, error)
	Cancel(id string) error
	OldTransactions(n int) ([]history.Entry, error)
}

// View represents different views in the TUI
type View int

const (
	ViewTransactions View = iota
	ViewHistory
	ViewHelp
)

// Tab represents a navigable tab
type Tab struct {
	Name string
	View View
}

// DefaultTabs returns the default tab configuration
func DefaultTabs() []Tab {
	return []Tab{
		{Name: "Transactions", View: ViewTransactions},
		{Name: "History", View: ViewHistory},
	}
}

// Row is a point-in-time copy of one transaction.
type Row struct {
	ID              string
	Role            backend.Role
	Summary         string
	State           transaction.State
	Status          backend.Status
	Percentage      int
	SubPercentage   int
	AllowCancel     bool
	CancelRequested bool
	Runtime         time.Duration
	Events          []transaction.Event
}

func snapshot(tx *transaction.Transaction) Row {
	pct, sub := tx.Percentage()
	return Row{
		ID:              tx.ID(),
		Role:            tx.Role(),
		Summary:         tx.Request().Summary(),
		State:           tx.State(),
		Status:          tx.Status(),
		Percentage:      pct,
		SubPercentage:   sub,
		AllowCancel:     tx.AllowCancel(),
		CancelRequested: tx.CancelRequested(),
		Runtime:         tx.Runtime(),
		Events:          tx.Events(),
	}
}

// Model holds the monitor state
type Model struct {
	ready    bool
	quitting bool

	width  int
	height int

	tabs       []Tab
	activeTab  int
	activeView View
	prevView   View

	broker Broker

	// follow lists transactions shown even after they leave the active set.
	follow   []string
	autoQuit bool

	rows           []Row
	historyEntries []history.Entry
	cursor         int
	eventScroll    int

	errorMsg   string
	successMsg string

	styles *Styles
	keys   KeyMap
}

// NewModel creates a monitor over b. The transactions in follow stay
// listed after they finish.
func NewModel(b Broker, follow ...string) *Model {
	return &Model{
		tabs:       DefaultTabs(),
		activeView: ViewTransactions,
		broker:     b,
		follow:     follow,
		styles:     DefaultStyles(),
		keys:       DefaultKeyMap(),
	}
}

// SetSize sets the terminal size
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// VisibleHeight returns the height available for the event pane.
func (m *Model) VisibleHeight() int {
	// header, tabs, list box, progress, footer
	h := m.height - 10 - len(m.rows)
	if h < 3 {
		return 3
	}
	return h
}

// Refresh re-reads the broker. Finished transactions that are followed or
// were already shown stay in the list.
func (m *Model) Refresh() {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range m.follow {
		add(id)
	}
	for _, r := range m.rows {
		add(r.ID)
	}
	for _, id := range m.broker.List() {
		add(id)
	}

	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		tx, err := m.broker.Get(id)
		if err != nil {
			continue
		}
		rows = append(rows, snapshot(tx))
	}
	m.rows = rows
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// LoadHistory reads the most recent history records.
func (m *Model) LoadHistory(n int) {
	entries, err := m.broker.OldTransactions(n)
	if err != nil {
		m.errorMsg = fmt.Sprintf("history: %v", err)
		return
	}
	m.historyEntries = entries
}

// Selected returns the row under the cursor.
func (m *Model) Selected() (Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return Row{}, false
	}
	return m.rows[m.cursor], true
}

// MoveCursor moves the cursor by delta, clamping to valid range
func (m *Model) MoveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	pos := m.cursor + delta
	if pos < 0 {
		pos = 0
	}
	if pos >= len(m.rows) {
		pos = len(m.rows) - 1
	}
	if pos != m.cursor {
		m.eventScroll = 0
	}
	m.cursor = pos
}

// ScrollEvents moves the event pane of the selected transaction.
func (m *Model) ScrollEvents(delta int) {
	row, ok := m.Selected()
	if !ok {
		return
	}
	max := len(visibleEvents(row.Events)) - m.VisibleHeight()
	if max < 0 {
		max = 0
	}
	m.eventScroll += delta
	if m.eventScroll > max {
		m.eventScroll = max
	}
	if m.eventScroll < 0 {
		m.eventScroll = 0
	}
}

// CancelSelected asks the broker to cancel the selected transaction.
func (m *Model) CancelSelected() {
	m.ClearMessages()
	row, ok := m.Selected()
	if !ok {
		return
	}
	if err := m.broker.Cancel(row.ID); err != nil {
		m.errorMsg = err.Error()
		return
	}

	// The row may be a tick old; judge by the state the cancel met.
	deferred := !row.AllowCancel && row.State == transaction.StateRunning
	if tx, err := m.broker.Get(row.ID); err == nil {
		deferred = tx.State() == transaction.StateRunning && !tx.AllowCancel()
	}
	if deferred {
		m.successMsg = fmt.Sprintf("%s is in a non-cancellable phase; cancel deferred", row.ID)
	} else {
		m.successMsg = fmt.Sprintf("cancel requested for %s", row.ID)
	}
}

// Done reports whether every followed transaction has finished.
func (m *Model) Done() bool {
	if len(m.follow) == 0 {
		return false
	}
	for _, id := range m.follow {
		tx, err := m.broker.Get(id)
		if err != nil {
			continue
		}
		if !tx.State().Terminal() {
			return false
		}
	}
	return true
}

// SetTab switches to the tab at index.
func (m *Model) SetTab(index int) {
	if index < 0 || index >= len(m.tabs) {
		return
	}
	m.activeTab = index
	m.activeView = m.tabs[index].View
	m.ClearMessages()
}

// NextTab cycles to the next tab.
func (m *Model) NextTab() {
	m.SetTab((m.activeTab + 1) % len(m.tabs))
}

// ToggleHelp shows or hides the help view.
func (m *Model) ToggleHelp() {
	if m.activeView == ViewHelp {
		m.activeView = m.prevView
		return
	}
	m.prevView = m.activeView
	m.activeView = ViewHelp
}

// ClearMessages clears error and success messages
func (m *Model) ClearMessages() {
	m.errorMsg = ""
	m.successMsg = ""
}

// visibleEvents drops progress bookkeeping from the event pane.
func visibleEvents(events []transaction.Event) []transaction.Event {
	out := make([]transaction.Event, 0, len(events))
	for _, ev := range events {
		if ev.Kind() == transaction.KindPercentage {
			continue
		}
		out = append(out, ev)
	}
	return out
}
