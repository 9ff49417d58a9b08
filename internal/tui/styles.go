// Package tui provides an interactive monitor for running transactions.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"pakd/pkg/backend"
	"pakd/pkg/transaction"
)

// Color palette - matches existing CLI colors
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorWarning   = lipgloss.Color("#F59E0B") // Yellow
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorText      = lipgloss.Color("#F3F4F6") // Light gray
	ColorBgAlt     = lipgloss.Color("#374151")
)

// StateColors maps transaction states to their badge color.
var StateColors = map[transaction.State]lipgloss.Color{
	transaction.StatePending:   ColorMuted,
	transaction.StateRunning:   ColorSecondary,
	transaction.StateFinished:  ColorSuccess,
	transaction.StateCancelled: ColorWarning,
	transaction.StateError:     ColorError,
}

// Styles contains all the lipgloss styles used in the TUI
type Styles struct {
	Header    lipgloss.Style
	Footer    lipgloss.Style
	StatusBar lipgloss.Style

	Tab         lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	Title       lipgloss.Style
	Description lipgloss.Style

	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style

	PackageName lipgloss.Style
	PackageInfo lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	Spinner lipgloss.Style
	Border  lipgloss.Style
}

// DefaultStyles returns the default style configuration
func DefaultStyles() *Styles {
	s := &Styles{}

	s.Header = lipgloss.NewStyle().
		Foreground(ColorText).
		Background(ColorBgAlt).
		Padding(0, 1).
		Bold(true)

	s.Footer = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Padding(0, 1)

	s.StatusBar = lipgloss.NewStyle().
		Foreground(ColorText).
		Background(ColorBgAlt).
		Padding(0, 1)

	s.Tab = lipgloss.NewStyle().
		Padding(0, 2)

	s.TabActive = s.Tab.
		Foreground(ColorPrimary).
		Bold(true).
		Underline(true)

	s.TabInactive = s.Tab.
		Foreground(ColorMuted)

	s.Title = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true).
		MarginBottom(1)

	s.Description = lipgloss.NewStyle().
		Foreground(ColorMuted)

	s.ListItem = lipgloss.NewStyle().
		PaddingLeft(2)

	s.ListItemSelected = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	s.PackageName = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)

	s.PackageInfo = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Width(12)

	s.Success = lipgloss.NewStyle().
		Foreground(ColorSuccess).
		Bold(true)

	s.Warning = lipgloss.NewStyle().
		Foreground(ColorWarning).
		Bold(true)

	s.Error = lipgloss.NewStyle().
		Foreground(ColorError).
		Bold(true)

	s.Info = lipgloss.NewStyle().
		Foreground(ColorSecondary)

	s.HelpKey = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)

	s.HelpDesc = lipgloss.NewStyle().
		Foreground(ColorMuted)

	s.Spinner = lipgloss.NewStyle().
		Foreground(ColorPrimary)

	s.Border = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMuted).
		Padding(0, 1)

	return s
}

// Badge creates a badge-style label
func Badge(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(color).
		Padding(0, 1).
		Render(text)
}

// StateBadge renders a transaction state as a badge.
func StateBadge(state transaction.State) string {
	color, ok := StateColors[state]
	if !ok {
		color = ColorMuted
	}
	return Badge(state.String(), color)
}

// InfoStyle returns the style for a package event kind.
func (s *Styles) InfoStyle(info backend.Info) lipgloss.Style {
	switch info {
	case backend.InfoInstalled:
		return s.PackageInfo.Foreground(ColorSuccess)
	case backend.InfoSecurity:
		return s.PackageInfo.Foreground(ColorError)
	case backend.InfoBlocked:
		return s.PackageInfo.Foreground(ColorWarning)
	case backend.InfoAvailable, backend.InfoNormal:
		return s.PackageInfo.Foreground(ColorMuted)
	}
	return s.PackageInfo
}
