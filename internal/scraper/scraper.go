package scraper

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matrufsc/cagr-scrape/internal/logger"
	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

const (
	CAGRURL   = "https://cagr.sistemas.ufsc.br/modules/comunidade/cadastroTurmas/"
	UserAgent = "cagr-scrape/1.0 (github.com/matrufsc/cagr-scrape)"
	Timeout   = 2 * time.Minute

	// PageSize is the number of classes the site lists per page
	PageSize = 50
)

// countProbePage is the page submitted to read the entry count. The site
// answers page 1 without a usable count, so page 2 is used instead.
const countProbePage = 2

// maxPages bounds the page count derived from the server's entry count. The
// repeated-page check ends the loop long before it for any real listing.
const maxPages = math.MaxInt32

// Form fields of the JSF search form
const (
	fieldForm      = "formBusca"
	fieldViewState = "javax.faces.ViewState"
	fieldSemester  = "formBusca:selectSemestre"
	fieldCampus    = "formBusca:selectCampus"
	fieldPage      = "formBusca:dataScroller1"

	viewState = "j_id1"
)

// Scraper fetches class listings from CAGR
type Scraper struct {
	client  *http.Client
	url     string
	timeout time.Duration
}

// New creates a Scraper for the CAGR endpoint at baseURL. An empty baseURL
// selects CAGRURL; a zero timeout disables request timeouts.
func New(baseURL string, timeout time.Duration) *Scraper {
	if baseURL == "" {
		baseURL = CAGRURL
	}
	return &Scraper{
		client: &http.Client{
			Timeout: timeout,
		},
		url:     baseURL,
		timeout: timeout,
	}
}

// URL returns the endpoint the scraper talks to
func (s *Scraper) URL() string {
	return s.url
}

func formData(semester schedule.Semester, campus schedule.Campus, page int) url.Values {
	return url.Values{
		fieldForm:      {"formBusca"},
		fieldViewState: {viewState},
		fieldSemester:  {semester.String()},
		fieldCampus:    {strconv.Itoa(campus.Ordinal())},
		fieldPage:      {strconv.Itoa(page)},
	}
}

// ScrapeCampus fetches every class of a campus in a semester. It opens a new
// session, so concurrent calls never share pagination state. Any error discards
// the classes collected so far.
func (s *Scraper) ScrapeCampus(ctx context.Context, semester schedule.Semester, campus schedule.Campus) ([]schedule.Class, error) {
	session, err := NewSession(ctx, s.url, s.timeout)
	if err != nil {
		return nil, err
	}

	pages, err := s.pageCount(ctx, session, semester, campus)
	if err != nil {
		return nil, err
	}

	fields := logger.Fields{"semester": semester, "campus": campus}
	logger.Info("starting campus scrape", logger.Fields{"semester": semester, "campus": campus, "pages": pages})

	classes := make([]schedule.Class, 0)
	var previous []byte

	for page := 1; page <= pages; page++ {
		logger.Debug("fetching page", logger.Fields{"semester": semester, "campus": campus, "page": page})

		body, err := session.Submit(ctx, formData(semester, campus, page))
		if err != nil {
			return nil, fmt.Errorf("fetching page %d for %s on %s: %w", page, campus, semester, err)
		}
		logger.IncrCounter("pages.fetched")

		// Instead of an empty page the server may send the previous page again.
		// That repeat is the end of the data.
		if previous != nil && bytes.Equal(body, previous) {
			logger.Warn("stopping at repeated page", logger.Fields{"semester": semester, "campus": campus, "page": page})
			logger.IncrCounter("pages.repeat_stop")
			break
		}

		parsed, err := ParseClasses(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parsing page %d for %s on %s: %w", page, campus, semester, err)
		}
		classes = append(classes, parsed...)
		previous = body
	}

	logger.Debug("campus scrape finished", fields)
	return classes, nil
}

// pageCount asks for the total number of classes and converts it into pages.
// A missing count yields zero pages.
func (s *Scraper) pageCount(ctx context.Context, session *Session, semester schedule.Semester, campus schedule.Campus) (int, error) {
	body, err := session.Submit(ctx, formData(semester, campus, countProbePage))
	if err != nil {
		return 0, fmt.Errorf("fetching entry count for %s on %s: %w", campus, semester, err)
	}

	count, ok := parseEntryCount(bytes.NewReader(body))
	if !ok {
		logger.Warn("entry count not found, assuming no classes", logger.Fields{"semester": semester, "campus": campus})
		return 0, nil
	}

	pages := pagesFor(count)
	if pages == maxPages {
		logger.Warn("entry count out of range, capping pages", logger.Fields{"semester": semester, "campus": campus, "count": count})
	}
	return pages, nil
}

// pagesFor converts an entry count into a page count, capped at maxPages
func pagesFor(count uint64) int {
	pages := count / PageSize
	if count%PageSize != 0 {
		pages++
	}
	if pages > maxPages {
		return maxPages
	}
	return int(pages)
}
