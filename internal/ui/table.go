package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"pakd/internal/history"
	"pakd/pkg/backend"
	"pakd/pkg/transaction"
)

// Table wraps tabwriter for consistent styling.
type Table struct {
	writer  *tabwriter.Writer
	headers []string
}

// NewTable creates a table writing to Out.
func NewTable(header []string) *Table {
	return NewTableWriter(Out, header)
}

// NewTableWriter creates a new table that writes to a specific writer.
func NewTableWriter(w io.Writer, header []string) *Table {
	t := &Table{
		writer:  tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		headers: header,
	}
	if len(header) > 0 {
		row := make([]string, len(header))
		for i, h := range header {
			row[i] = Bold(strings.ToUpper(h))
		}
		fmt.Fprintln(t.writer, strings.Join(row, "\t"))
	}
	return t
}

// AddRow adds a row to the table.
func (t *Table) AddRow(row ...string) {
	fmt.Fprintln(t.writer, strings.Join(row, "\t"))
}

// Render flushes the table.
func (t *Table) Render() {
	_ = t.writer.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// PrintPackages prints package events as a table.
func PrintPackages(pkgs []transaction.PackageEvent) {
	if len(pkgs) == 0 {
		MutedMsg("No packages found")
		return
	}

	descWidth := Width() - 60
	if descWidth < 20 {
		descWidth = 20
	}

	t := NewTable([]string{"info", "name", "version", "arch", "repo", "summary"})
	for _, p := range pkgs {
		t.AddRow(
			InfoColor(p.Info).Sprint(p.Info),
			PackageName.Sprint(p.ID.Name),
			PackageVersion.Sprint(p.ID.Version),
			p.ID.Arch,
			PackageRepo.Sprint(p.ID.Data),
			truncate(p.Summary, descWidth),
		)
	}
	t.Render()
}

// printField prints a single field with formatting.
func printField(label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(Out, "  %s: %s\n", Cyan(label), value)
}

// PrintDetails prints the long description of a package.
func PrintDetails(d backend.Details) {
	HeaderMsg("%s", d.ID.String())
	printField("License", d.License)
	printField("Group", string(d.Group))
	printField("URL", d.URL)
	if d.Size > 0 {
		printField("Size", humanize.Bytes(d.Size))
	}
	printField("Description", d.Description)
}

// PrintFiles prints the file list of a package.
func PrintFiles(f transaction.FilesEvent) {
	if f.ID.IsZero() {
		HeaderMsg("Files")
	} else {
		HeaderMsg("Files in %s", f.ID.String())
	}
	for _, path := range f.Files {
		Println("  %s", path)
	}
}

func joinIDs(ids []backend.PackageID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

// PrintUpdateDetail prints the advisory behind a pending update.
func PrintUpdateDetail(d backend.UpdateDetail) {
	HeaderMsg("%s", d.ID.String())
	printField("Updates", joinIDs(d.Updates))
	printField("Obsoletes", joinIDs(d.Obsoletes))
	printField("State", string(d.State))
	printField("Restart", string(d.Restart))
	printField("Issued", d.Issued)
	printField("Vendor", d.VendorURL)
	printField("Bugzilla", d.BugzillaURL)
	printField("CVE", d.CVEURL)
	printField("Text", d.Text)
	printField("Changelog", d.Changelog)
}

// PrintRepos prints repository details as a table.
func PrintRepos(repos []backend.RepoDetail) {
	if len(repos) == 0 {
		MutedMsg("No repositories configured")
		return
	}
	t := NewTable([]string{"id", "enabled", "description"})
	for _, r := range repos {
		state := Red("no")
		if r.Enabled {
			state = Green("yes")
		}
		t.AddRow(PackageRepo.Sprint(r.ID), state, r.Description)
	}
	t.Render()
}

// PrintHistory prints finished transaction records, newest first.
func PrintHistory(entries []history.Entry, total int) {
	if len(entries) == 0 {
		MutedMsg("No history entries found")
		return
	}

	HeaderMsg("Transaction History")
	t := NewTable([]string{"when", "id", "role", "data", "exit", "took"})
	for _, e := range entries {
		exit := Green(string(e.Exit))
		if !e.Succeeded {
			exit = Red(string(e.Exit))
		}
		t.AddRow(
			humanize.Time(e.Timestamp),
			Muted.Sprint(e.ID),
			Bold(string(e.Role)),
			truncate(e.Data, 40),
			exit,
			e.Duration.Round(time.Millisecond).String(),
		)
	}
	t.Render()

	for _, e := range entries {
		if e.Error != "" {
			MutedMsg("  %s: %s", e.ID, e.Error)
		}
	}
	MutedMsg("\nShowing %d of %d total entries", len(entries), total)
}

// PrintCapabilities prints what a backend supports.
func PrintCapabilities(caps *backend.Capabilities, description string) {
	HeaderMsg("Backend %s", caps.Name())
	printField("Description", description)
	printField("Filters", caps.Filters().String())
	printField("Mime types", strings.Join(caps.MimeTypes(), ", "))
	printField("Exclusive cache", fmt.Sprintf("%t", caps.ExclusiveCache()))

	groups := make([]string, 0, len(caps.Groups()))
	for _, g := range caps.Groups() {
		groups = append(groups, string(g))
	}
	printField("Groups", strings.Join(groups, ", "))

	fmt.Fprintf(Out, "  %s:\n", Cyan("Roles"))
	for _, r := range caps.Roles() {
		marker := " "
		if r.Mutating() {
			marker = "*"
		}
		fmt.Fprintf(Out, "    %s %s\n", marker, r)
	}
	MutedMsg("  (* runs exclusively)")
}

// PrintEvent renders one streamed event. Progress events are left to the
// spinner.
func PrintEvent(ev transaction.Event) {
	switch e := ev.(type) {
	case transaction.PackageEvent:
		fmt.Fprintf(Out, "%s %s %s\n",
			InfoColor(e.Info).Sprintf("%-11s", e.Info),
			PackageName.Sprint(e.ID.String()),
			Muted.Sprint(e.Summary))
	case transaction.DetailsEvent:
		PrintDetails(e.Details)
	case transaction.FilesEvent:
		PrintFiles(e)
	case transaction.UpdateDetailEvent:
		PrintUpdateDetail(e.UpdateDetail)
	case transaction.RepoDetailEvent:
		state := Red("disabled")
		if e.Enabled {
			state = Green("enabled")
		}
		fmt.Fprintf(Out, "%s %s %s\n", PackageRepo.Sprintf("%-20s", e.ID), state, e.Description)
	case transaction.RestartRequiredEvent:
		WarningMsg("%s restart required by %s", e.Restart, e.ID.String())
	case transaction.ErrorEvent:
		ErrorMsg("%s: %s", e.ErrorKind, e.Message)
	case transaction.EulaRequiredEvent:
		WarningMsg("License agreement %s required for %s", e.ID, e.PackageID.String())
	case transaction.SignatureRequiredEvent:
		WarningMsg("Signing key %s required for %s", e.KeyID, e.PackageID.String())
	}
}
