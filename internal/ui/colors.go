// Package ui provides terminal output helpers for pakd.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"pakd/pkg/backend"
)

var (
	// Colors for different message types
	Success = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Info    = color.New(color.FgCyan)
	Header  = color.New(color.FgMagenta, color.Bold)
	Muted   = color.New(color.FgHiBlack)

	// Colors for package lines
	PackageName    = color.New(color.FgWhite, color.Bold)
	PackageVersion = color.New(color.FgGreen)
	PackageRepo    = color.New(color.FgCyan)
	Installed      = color.New(color.FgGreen)
	Available      = color.New(color.FgHiBlack)
	Security       = color.New(color.FgRed)
	Blocked        = color.New(color.FgYellow)
	Progress       = color.New(color.FgBlue)
)

// UseColors represents whether colors should be used.
var UseColors = true

// UseUnicode represents whether unicode symbols should be used.
var UseUnicode = true

// Out receives all messages. Tests replace it.
var Out io.Writer = os.Stdout

// Symbols for status indicators
var (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "!"
	SymbolInfo    = "→"
	SymbolPending = "○"
	SymbolArrow   = "→"
)

// Init initializes the UI settings based on configuration.
func Init(useColors, useUnicode bool) {
	UseColors = useColors
	UseUnicode = useUnicode

	if !useColors || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	if !useUnicode {
		SymbolSuccess = "[OK]"
		SymbolError = "[ERROR]"
		SymbolWarning = "[WARN]"
		SymbolInfo = "->"
		SymbolPending = "[ ]"
		SymbolArrow = "->"
	}
}

// Interactive reports whether stdin and stdout are both terminals. Spinners
// and prompts are only used when it returns true.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Width returns the terminal width, or 80 when it cannot be determined.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// SuccessMsg prints a success message.
func SuccessMsg(format string, args ...interface{}) {
	Success.Fprintf(Out, SymbolSuccess+" "+format+"\n", args...)
}

// ErrorMsg prints an error message.
func ErrorMsg(format string, args ...interface{}) {
	Error.Fprintf(Out, SymbolError+" "+format+"\n", args...)
}

// WarningMsg prints a warning message.
func WarningMsg(format string, args ...interface{}) {
	Warning.Fprintf(Out, SymbolWarning+" "+format+"\n", args...)
}

// InfoMsg prints an info message.
func InfoMsg(format string, args ...interface{}) {
	Info.Fprintf(Out, SymbolInfo+" "+format+"\n", args...)
}

// HeaderMsg prints a header message.
func HeaderMsg(format string, args ...interface{}) {
	Header.Fprintf(Out, "\n"+format+"\n", args...)
}

// MutedMsg prints a muted (dim) message.
func MutedMsg(format string, args ...interface{}) {
	Muted.Fprintf(Out, format+"\n", args...)
}

// Println prints a plain line with formatting.
func Println(format string, args ...interface{}) {
	fmt.Fprintf(Out, format+"\n", args...)
}

// Bold returns a bold string.
func Bold(s string) string {
	return color.New(color.Bold).Sprint(s)
}

func Green(s string) string  { return color.GreenString(s) }
func Red(s string) string    { return color.RedString(s) }
func Yellow(s string) string { return color.YellowString(s) }
func Cyan(s string) string   { return color.CyanString(s) }

// InfoColor picks the color used for a package event of the given kind.
func InfoColor(info backend.Info) *color.Color {
	switch info {
	case backend.InfoInstalled:
		return Installed
	case backend.InfoSecurity:
		return Security
	case backend.InfoBlocked:
		return Blocked
	case backend.InfoInstalling, backend.InfoUpdating, backend.InfoRemoving,
		backend.InfoDownloading, backend.InfoCleanup:
		return Progress
	}
	return Available
}

// ExitMsg prints the final line for a transaction exit code.
func ExitMsg(exit backend.Exit, format string, args ...interface{}) {
	switch exit {
	case backend.ExitSuccess:
		SuccessMsg(format, args...)
	case backend.ExitCancelled:
		WarningMsg(format, args...)
	default:
		ErrorMsg(format, args...)
	}
}
