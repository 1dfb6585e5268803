// Package storage manages the published schedule files of a data directory.
//
// Each (semester, campus) pair has a matrufsc JSON artifact named
// <semester>-<campus>.json, plus optional .csv and .ics siblings. The JSON
// artifact's modification time is what the freshness check reads. Files are
// written through a temporary file and renamed into place, so a failed write
// never replaces or half-writes a previous schedule. The default location is
// data/schedule; a leading ~/ is expanded to the home directory.
package storage
