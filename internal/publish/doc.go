// Package publish delivers scraped campus schedules to their destinations.
//
// The matrufsc JSON artifact is always written by FilePublisher and doubles as
// the freshness marker read by the cache gate, so it is written last. CSV and
// iCalendar files are optional. DatabasePublisher upserts the same document
// into Postgres, and DryRunPublisher only reports what would be written.
package publish
