// Package cache decides whether a semester's published schedule is recent
// enough to skip scraping it again.
package cache

import (
	"os"
	"time"

	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

// DefaultThreshold is how long a published schedule stays fresh
const DefaultThreshold = 3 * 24 * time.Hour

// Gate checks artifact age. Only the reference campus is inspected: if its
// artifact is fresh the whole semester is considered fresh.
type Gate struct {
	Threshold       time.Duration
	Force           bool
	ReferenceCampus schedule.Campus
	// Path returns the artifact location of a campus schedule
	Path func(schedule.Semester, schedule.Campus) string

	now func() time.Time
}

// NewGate creates a gate with the default threshold and FLO as reference campus
func NewGate(path func(schedule.Semester, schedule.Campus) string, force bool) *Gate {
	return &Gate{
		Threshold:       DefaultThreshold,
		Force:           force,
		ReferenceCampus: schedule.FLO,
		Path:            path,
		now:             time.Now,
	}
}

// IsFresh reports whether the semester can be skipped. Any stat error, or a
// gate without a Path, counts as stale.
func (g *Gate) IsFresh(semester schedule.Semester) bool {
	if g.Force || g.Path == nil {
		return false
	}

	info, err := os.Stat(g.Path(semester, g.ReferenceCampus))
	if err != nil {
		return false
	}

	return g.clock().Sub(info.ModTime()) < g.Threshold
}

func (g *Gate) clock() time.Time {
	if g.now == nil {
		return time.Now()
	}
	return g.now()
}
