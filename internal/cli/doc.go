// Package cli implements the command-line interface for cagr-scrape.
//
// The cli package provides the Cobra root command. It merges environment
// configuration with flags, runs the scrape pipeline, hands every scraped
// campus to the configured publishers (files, Postgres or a dry run) and
// prints a run summary as text or JSON.
package cli
