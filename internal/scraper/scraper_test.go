package scraper

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/matrufsc/cagr-scrape/internal/logger"
	"github.com/matrufsc/cagr-scrape/internal/schedule"
	"github.com/matrufsc/cagr-scrape/internal/scraper/scrapertest"
)

func TestNew(t *testing.T) {
	s := New("", 0)
	if s.URL() != CAGRURL {
		t.Errorf("URL() = %q, want %q", s.URL(), CAGRURL)
	}

	s = New("http://localhost:9999/", time.Second)
	if s.client.Timeout != time.Second {
		t.Errorf("client timeout = %v, want 1s", s.client.Timeout)
	}
}

func TestFormData(t *testing.T) {
	form := formData("20251", schedule.BLN, 3)

	want := map[string]string{
		"formBusca":                "formBusca",
		"javax.faces.ViewState":    "j_id1",
		"formBusca:selectSemestre": "20251",
		"formBusca:selectCampus":   "5",
		"formBusca:dataScroller1":  "3",
	}
	for k, v := range want {
		if got := form.Get(k); got != v {
			t.Errorf("form[%q] = %q, want %q", k, got, v)
		}
	}
}

func TestScrapeCampus(t *testing.T) {
	site := scrapertest.NewSite("20251")
	defer site.Close()
	site.SetRows("20251", 1, scrapertest.SampleRows("INE5401", 120))

	classes, err := New(site.URL(), 5*time.Second).ScrapeCampus(context.Background(), "20251", schedule.FLO)
	if err != nil {
		t.Fatalf("ScrapeCampus() error = %v", err)
	}
	if len(classes) != 120 {
		t.Fatalf("len(classes) = %d, want 120", len(classes))
	}
	if classes[0].ID != "00001A" || classes[119].ID != "00120A" {
		t.Errorf("classes out of order: first %q last %q", classes[0].ID, classes[119].ID)
	}

	queries := site.Queries("20251", 1)
	wantPages := []int{2, 1, 2, 3}
	if len(queries) != len(wantPages) {
		t.Fatalf("got %d queries, want %d", len(queries), len(wantPages))
	}
	for i, q := range queries {
		if q.Page != wantPages[i] {
			t.Errorf("query %d page = %d, want %d", i, q.Page, wantPages[i])
		}
		if q.Session == "" || q.Session != queries[0].Session {
			t.Errorf("query %d session = %q, want %q", i, q.Session, queries[0].Session)
		}
	}
}

func TestScrapeCampus_PrimesSession(t *testing.T) {
	site := scrapertest.NewSite("20251")
	defer site.Close()
	site.SetRows("20251", 2, scrapertest.SampleRows("EMB5001", 3))

	if _, err := New(site.URL(), 5*time.Second).ScrapeCampus(context.Background(), "20251", schedule.JOI); err != nil {
		t.Fatalf("ScrapeCampus() error = %v", err)
	}

	reqs := site.Requests()
	if len(reqs) == 0 || !reqs[0].Prime {
		t.Fatalf("first request should prime the session, got %+v", reqs)
	}
}

func TestScrapeCampus_StopsAtRepeatedPage(t *testing.T) {
	logger.ResetMetrics()

	site := scrapertest.NewSite("20242")
	defer site.Close()
	site.SetRows("20242", 3, scrapertest.SampleRows("CBS7001", 60))
	site.SetExtraEntries(100) // advertises 4 pages, holds 2

	classes, err := New(site.URL(), 5*time.Second).ScrapeCampus(context.Background(), "20242", schedule.CBS)
	if err != nil {
		t.Fatalf("ScrapeCampus() error = %v", err)
	}
	if len(classes) != 60 {
		t.Errorf("len(classes) = %d, want 60", len(classes))
	}

	// probe, page 1, page 2, page 3 (repeat)
	if got := len(site.Queries("20242", 3)); got != 4 {
		t.Errorf("got %d queries, want 4", got)
	}
	if got := logger.CounterValue("pages.repeat_stop"); got != 1 {
		t.Errorf("pages.repeat_stop = %d, want 1", got)
	}
}

func TestScrapeCampus_NoEntries(t *testing.T) {
	site := scrapertest.NewSite("20251")
	defer site.Close()

	classes, err := New(site.URL(), 5*time.Second).ScrapeCampus(context.Background(), "20251", schedule.ARA)
	if err != nil {
		t.Fatalf("ScrapeCampus() error = %v", err)
	}
	if len(classes) != 0 {
		t.Errorf("len(classes) = %d, want 0", len(classes))
	}
	if got := len(site.Queries("20251", 4)); got != 1 {
		t.Errorf("got %d queries, want only the count probe", got)
	}
}

func TestScrapeCampus_ServerError(t *testing.T) {
	site := scrapertest.NewSite("20251")
	defer site.Close()
	site.SetRows("20251", 5, scrapertest.SampleRows("BLU1001", 10))
	site.Fail(5)

	classes, err := New(site.URL(), 5*time.Second).ScrapeCampus(context.Background(), "20251", schedule.BLN)
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("ScrapeCampus() error = %v, want ErrUnexpectedStatus", err)
	}
	if classes != nil {
		t.Errorf("classes = %v, want nil", classes)
	}
}

func TestScrapeCampus_CanceledContext(t *testing.T) {
	site := scrapertest.NewSite("20251")
	defer site.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(site.URL(), 5*time.Second).ScrapeCampus(ctx, "20251", schedule.FLO)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ScrapeCampus() error = %v, want context.Canceled", err)
	}
}

func TestScrapeCampus_ConcurrentSessionsAreIsolated(t *testing.T) {
	site := scrapertest.NewSite("20251")
	defer site.Close()
	for _, c := range schedule.AllCampi() {
		site.SetRows("20251", c.Ordinal(), scrapertest.SampleRows("GEN"+c.String(), 20*c.Ordinal()))
	}

	s := New(site.URL(), 5*time.Second)
	counts := make([]int, len(schedule.AllCampi()))
	errs := make([]error, len(schedule.AllCampi()))

	var wg sync.WaitGroup
	for i, c := range schedule.AllCampi() {
		wg.Add(1)
		go func(i int, c schedule.Campus) {
			defer wg.Done()
			classes, err := s.ScrapeCampus(context.Background(), "20251", c)
			counts[i] = len(classes)
			errs[i] = err
		}(i, c)
	}
	wg.Wait()

	sessions := make(map[string]schedule.Campus)
	for i, c := range schedule.AllCampi() {
		if errs[i] != nil {
			t.Errorf("%s: error = %v", c, errs[i])
			continue
		}
		if counts[i] != 20*c.Ordinal() {
			t.Errorf("%s: got %d classes, want %d", c, counts[i], 20*c.Ordinal())
		}
		for _, q := range site.Queries("20251", c.Ordinal()) {
			if other, ok := sessions[q.Session]; ok && other != c {
				t.Errorf("session %s shared by %s and %s", q.Session, other, c)
			}
			sessions[q.Session] = c
		}
	}
}

func TestSession_Submit(t *testing.T) {
	site := scrapertest.NewSite("20251")
	defer site.Close()
	site.SetRows("20251", 1, scrapertest.SampleRows("INE5401", 2))

	session, err := NewSession(context.Background(), site.URL(), 5*time.Second)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	body, err := session.Submit(context.Background(), formData("20251", schedule.FLO, 2))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	count, ok := parseEntryCount(bytes.NewReader(body))
	if !ok || count != 2 {
		t.Errorf("entry count = %d, %v, want 2, true", count, ok)
	}
}

func TestNewSession_Unreachable(t *testing.T) {
	site := scrapertest.NewSite()
	url := site.URL()
	site.Close()

	if _, err := NewSession(context.Background(), url, time.Second); err == nil {
		t.Error("NewSession() expected error for closed server")
	}
}

func TestPagesFor(t *testing.T) {
	tests := []struct {
		count uint64
		want  int
	}{
		{0, 0},
		{1, 1},
		{50, 1},
		{51, 2},
		{120, 3},
		{999999999999, maxPages},
		{math.MaxUint64, maxPages},
	}

	for _, tt := range tests {
		if got := pagesFor(tt.count); got != tt.want {
			t.Errorf("pagesFor(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestScrapeCampus_HugeEntryCount(t *testing.T) {
	for _, label := range []string{"999999999999", "18446744073709551615"} {
		t.Run(label, func(t *testing.T) {
			site := scrapertest.NewSite("20251")
			defer site.Close()
			site.SetRows("20251", 1, scrapertest.SampleRows("INE5401", 60))
			site.SetCountLabel(label)

			classes, err := New(site.URL(), 5*time.Second).ScrapeCampus(context.Background(), "20251", schedule.FLO)
			if err != nil {
				t.Fatalf("ScrapeCampus() error = %v", err)
			}
			if len(classes) != 60 {
				t.Errorf("len(classes) = %d, want 60", len(classes))
			}
			// probe, page 1, page 2, page 3 (repeat of page 2)
			if got := len(site.Queries("20251", 1)); got != 4 {
				t.Errorf("got %d queries, want 4", got)
			}
		})
	}
}
