package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/matrufsc/cagr-scrape/internal/logger"
	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

const semesterOptionSelector = `select[id="formBusca:selectSemestre"]`

// AvailableSemesters fetches the landing page and returns the semesters of the
// search dropdown in the order the site lists them (newest first, so far).
func (s *Scraper) AvailableSemesters(ctx context.Context) ([]schedule.Semester, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching landing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching landing page: %w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	semesters, err := parseSemesters(resp.Body)
	if err != nil {
		return nil, err
	}

	if !newestFirst(semesters) {
		logger.Warn("semester list is not in descending order", logger.Fields{"semesters": semesters})
	}

	return semesters, nil
}

func parseSemesters(r io.Reader) ([]schedule.Semester, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	dropdown := doc.Find(semesterOptionSelector).First()
	if dropdown.Length() == 0 {
		return nil, ErrSemesterDropdownNotFound
	}

	semesters := make([]schedule.Semester, 0)
	dropdown.ChildrenFiltered("option").Each(func(_ int, option *goquery.Selection) {
		if value, ok := option.Attr("value"); ok {
			semesters = append(semesters, schedule.Semester(value))
		}
	})

	return semesters, nil
}

// newestFirst reports whether the semesters are in descending order. The
// pipeline relies on that order but the site does not promise it.
func newestFirst(semesters []schedule.Semester) bool {
	for i := 1; i < len(semesters); i++ {
		if semesters[i] > semesters[i-1] {
			return false
		}
	}
	return true
}
