// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-tracker/internal/orphans"
	"github.com/jonathan/recruit-tracker/internal/seed"
	"github.com/jonathan/recruit-tracker/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 20
)

// Printer handles formatted output for CLI reports
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// candidateLabel picks a readable name from the intake fields, falling back to the ID.
func candidateLabel(c types.Candidate) string {
	if name, ok := c.Fields["name"].(string); ok && name != "" {
		return name
	}
	return c.ID.String()
}

// PrintOrphans lists candidates whose creator no longer exists.
// jobTitles maps job IDs to titles; unknown jobs print their ID.
func (p *Printer) PrintOrphans(list []types.Candidate, jobTitles map[uuid.UUID]string) {
	var sb strings.Builder
	if len(list) == 0 {
		sb.WriteString("No orphaned candidates.")
		p.printBox("ORPHANED CANDIDATES", sb.String())
		return
	}

	sb.WriteString(fmt.Sprintf("Total: %d\n\n", len(list)))
	count := min(len(list), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := list[i]
		job := jobTitles[c.JobID]
		if job == "" {
			job = c.JobID.String()
		}
		sb.WriteString(fmt.Sprintf("• %s [%s]\n", candidateLabel(c), c.Status))
		sb.WriteString(fmt.Sprintf("    id:  %s\n", c.ID))
		sb.WriteString(fmt.Sprintf("    job: %s\n", job))
	}
	if len(list) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(list)-maxItemsToShow))
	}

	p.printBox("ORPHANED CANDIDATES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReassignResult outputs the per-item outcome of a reassignment batch.
func (p *Printer) PrintReassignResult(r orphans.Result, owner uuid.UUID) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("New owner: %s\n", owner))
	sb.WriteString(fmt.Sprintf("Result:    %s\n", r.Summary()))

	if len(r.Failed) > 0 {
		sb.WriteString("\nFailed:\n")
		count := min(len(r.Failed), maxItemsToShow)
		for i := 0; i < count; i++ {
			f := r.Failed[i]
			sb.WriteString(fmt.Sprintf("  ✗ %s\n", f.ID))
			sb.WriteString(fmt.Sprintf("    %s\n", f.Error))
		}
		if len(r.Failed) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(r.Failed)-maxItemsToShow))
		}
	}

	p.printBox("REASSIGNMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSeedSummary outputs what a seed run wrote.
func (p *Printer) PrintSeedSummary(path string, s seed.Summary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("File:  %s\n", path))
	sb.WriteString(fmt.Sprintf("Users: %d created, %d updated\n", s.UsersCreated, s.UsersUpdated))
	sb.WriteString(fmt.Sprintf("Jobs:  %d created, %d updated", s.JobsCreated, s.JobsUpdated))
	p.printBox("SEED", sb.String())
}
