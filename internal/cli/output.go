package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Summary describes a finished run
type Summary struct {
	RunID     string                 `json:"run_id"`
	StartedAt time.Time              `json:"started_at"`
	Semesters []SemesterSummary      `json:"semesters"`
	Classes   int                    `json:"classes"`
	Failures  int                    `json:"failures"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
}

// SemesterSummary is the outcome of one semester
type SemesterSummary struct {
	Semester string          `json:"semester"`
	Skipped  bool            `json:"skipped"`
	Campi    []CampusSummary `json:"campi,omitempty"`
}

// CampusSummary is the outcome of one campus. Error is set for failed scrapes
// and failed publishes.
type CampusSummary struct {
	Campus  string `json:"campus"`
	Classes int    `json:"classes"`
	Error   string `json:"error,omitempty"`
}

// finish computes the totals
func (s *Summary) finish() {
	s.Classes, s.Failures = 0, 0
	for _, sem := range s.Semesters {
		for _, c := range sem.Campi {
			if c.Error != "" {
				s.Failures++
				continue
			}
			s.Classes += c.Classes
		}
	}
}

// WriteOutput writes the summary in the specified format
func WriteOutput(w io.Writer, summary *Summary, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatText:
		return writeText(w, summary, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs the summary as JSON
func writeJSON(w io.Writer, summary *Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

// writeText outputs the summary as human-readable text
func writeText(w io.Writer, summary *Summary, verbose bool) error {
	if len(summary.Semesters) == 0 {
		fmt.Fprintln(w, "No semesters found.")
		return nil
	}

	for _, sem := range summary.Semesters {
		if sem.Skipped {
			fmt.Fprintf(w, "%s: skipped (fresh cache)\n", sem.Semester)
			continue
		}

		fmt.Fprintf(w, "%s:\n", sem.Semester)
		for _, c := range sem.Campi {
			if c.Error != "" {
				fmt.Fprintf(w, "  %s  FAILED: %s\n", c.Campus, c.Error)
				continue
			}
			fmt.Fprintf(w, "  %s  %d classes\n", c.Campus, c.Classes)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d classes, %d failures\n", summary.Classes, summary.Failures)

	if verbose && summary.Metrics != nil {
		writeCounters(w, summary.Metrics)
	}

	return nil
}

// writeCounters prints the counters of a metrics snapshot sorted by name
func writeCounters(w io.Writer, metrics map[string]interface{}) {
	counters, ok := metrics["counters"].(map[string]int64)
	if !ok || len(counters) == 0 {
		return
	}

	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "\nMetrics:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, counters[name])
	}
}
