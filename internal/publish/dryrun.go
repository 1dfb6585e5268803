package publish

import (
	"context"
	"fmt"
	"io"

	"github.com/matrufsc/cagr-scrape/internal/export"
	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

// DryRunPublisher prints what would be published without writing anything
type DryRunPublisher struct {
	out io.Writer
}

// NewDryRunPublisher creates a dry-run publisher printing to out
func NewDryRunPublisher(out io.Writer) *DryRunPublisher {
	return &DryRunPublisher{out: out}
}

// Publish prints a line per campus and the first courses of its schedule
func (p *DryRunPublisher) Publish(_ context.Context, semester schedule.Semester, campus schedule.Campus, classes []schedule.Class) error {
	courses := export.GroupByCourse(classes)
	fmt.Fprintf(p.out, "--- %s-%s: %d courses, %d classes ---\n", semester, campus, len(courses), len(classes))
	for i, c := range courses {
		if i == 3 {
			fmt.Fprintf(p.out, "  ... %d more\n", len(courses)-i)
			break
		}
		fmt.Fprintf(p.out, "  %s %s (%d classes)\n", c.ID, c.Title, len(c.Classes))
	}
	return nil
}
