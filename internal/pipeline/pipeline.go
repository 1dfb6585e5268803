// Package pipeline runs a scrape: semester discovery, the freshness check and
// one concurrent scrape per (semester, campus).
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matrufsc/cagr-scrape/internal/logger"
	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

// SemesterSource lists the semesters offered by the site, newest first
type SemesterSource interface {
	AvailableSemesters(ctx context.Context) ([]schedule.Semester, error)
}

// CampusScraper fetches every class of one campus in one semester
type CampusScraper interface {
	ScrapeCampus(ctx context.Context, semester schedule.Semester, campus schedule.Campus) ([]schedule.Class, error)
}

// FreshnessChecker reports whether a semester was published recently enough to skip
type FreshnessChecker interface {
	IsFresh(semester schedule.Semester) bool
}

// CampusResult holds the classes of a successfully scraped campus
type CampusResult struct {
	Campus  schedule.Campus
	Classes []schedule.Class
}

// CampusFailure records a campus whose scrape failed
type CampusFailure struct {
	Campus schedule.Campus
	Err    error
}

// SemesterResult is the outcome of one semester. Skipped semesters have no
// campus entries. Failed campi appear only in Failures.
type SemesterResult struct {
	Semester schedule.Semester
	Skipped  bool
	Campi    []CampusResult
	Failures []CampusFailure
}

// Failed reports whether any campus of the semester failed
func (r SemesterResult) Failed() bool {
	return len(r.Failures) > 0
}

// Pipeline wires the scrape components together
type Pipeline struct {
	Source  SemesterSource
	Scraper CampusScraper
	Gate    FreshnessChecker
	Campi   []schedule.Campus
	RunID   string
}

// New creates a pipeline over every campus with a fresh run id
func New(source SemesterSource, scraper CampusScraper, gate FreshnessChecker) *Pipeline {
	return &Pipeline{
		Source:  source,
		Scraper: scraper,
		Gate:    gate,
		Campi:   schedule.AllCampi(),
		RunID:   uuid.NewString(),
	}
}

// Run scrapes the n most recent semesters. Only a discovery failure is
// returned as an error; campus failures are reported per semester. Results
// keep the discovery order of semesters and the configured order of campi.
func (p *Pipeline) Run(ctx context.Context, n int) ([]SemesterResult, error) {
	semesters, err := p.Source.AvailableSemesters(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering semesters: %w", err)
	}

	if n < 0 {
		n = 0
	}
	if n < len(semesters) {
		semesters = semesters[:n]
	}

	logger.Info("starting run", logger.Fields{
		"run_id":    p.RunID,
		"semesters": semesters,
		"campi":     p.Campi,
	})

	results := make([]SemesterResult, len(semesters))
	var wg sync.WaitGroup
	for i, semester := range semesters {
		wg.Add(1)
		go func(i int, semester schedule.Semester) {
			defer wg.Done()
			results[i] = p.runSemester(ctx, semester)
		}(i, semester)
	}
	wg.Wait()

	return results, nil
}

func (p *Pipeline) runSemester(ctx context.Context, semester schedule.Semester) SemesterResult {
	result := SemesterResult{Semester: semester}

	if p.Gate != nil && p.Gate.IsFresh(semester) {
		logger.Info("semester is fresh, skipping", logger.Fields{"run_id": p.RunID, "semester": semester})
		logger.IncrCounter("semester.skipped")
		result.Skipped = true
		return result
	}

	type outcome struct {
		classes []schedule.Class
		err     error
	}
	outcomes := make([]outcome, len(p.Campi))

	var wg sync.WaitGroup
	for i, campus := range p.Campi {
		wg.Add(1)
		go func(i int, campus schedule.Campus) {
			defer wg.Done()
			classes, err := p.scrapeCampus(ctx, semester, campus)
			outcomes[i] = outcome{classes: classes, err: err}
		}(i, campus)
	}
	wg.Wait()

	for i, campus := range p.Campi {
		if err := outcomes[i].err; err != nil {
			result.Failures = append(result.Failures, CampusFailure{Campus: campus, Err: err})
			continue
		}
		result.Campi = append(result.Campi, CampusResult{Campus: campus, Classes: outcomes[i].classes})
	}

	return result
}

func (p *Pipeline) scrapeCampus(ctx context.Context, semester schedule.Semester, campus schedule.Campus) ([]schedule.Class, error) {
	start := time.Now()
	classes, err := p.Scraper.ScrapeCampus(ctx, semester, campus)
	logger.RecordTiming("scrape.campus", time.Since(start))

	if err != nil {
		logger.Error("campus scrape failed", logger.Fields{
			"run_id":   p.RunID,
			"semester": semester,
			"campus":   campus,
		}, err)
		logger.IncrCounter("campus.failed")
		return nil, err
	}

	logger.Info("campus scraped", logger.Fields{
		"run_id":   p.RunID,
		"semester": semester,
		"campus":   campus,
		"classes":  len(classes),
	})
	logger.IncrCounter("campus.scraped")
	logger.SetGauge(fmt.Sprintf("classes.%s.%s", semester, campus), float64(len(classes)))

	return classes, nil
}
