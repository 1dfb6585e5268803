// Package scrapertest provides a fake CAGR site for tests.
package scrapertest

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

const (
	cookieName = "JSESSIONID"
	pageSize   = 50
)

// Row is one class listing as the site renders it. Every field is raw cell text.
type Row struct {
	CourseID       string
	ClassID        string
	Title          string
	Hours          string
	TotalSlots     string
	FilledSlots    string
	Special        string
	OpenSlots      string
	WaitingForSlot string
	Times          []string
	Teachers       []string
}

// Key selects the listing of a campus (by ordinal) in a semester
type Key struct {
	Semester string
	Campus   int
}

// Request is a request the site received
type Request struct {
	Method   string
	Prime    bool
	Semester string
	Campus   int
	Page     int
	Session  string
}

// Site mimics the quirks of the CAGR search form:
//   - form queries are only answered for sessions primed by an empty POST
//   - page 1 carries no entry count
//   - pages past the end repeat the last page
type Site struct {
	Semesters []string
	Rows      map[Key][]Row
	// Failing campus ordinals answer queries with 500
	Failing map[int]bool
	// ExtraEntries is added to the advertised entry count
	ExtraEntries int
	// CountLabel, when set, replaces the advertised entry count verbatim
	CountLabel string

	mu       sync.Mutex
	requests []Request
	sessions int
	server   *httptest.Server
}

// NewSite starts a fake site serving the given semesters. Callers must Close it.
func NewSite(semesters ...string) *Site {
	s := &Site{
		Semesters: semesters,
		Rows:      make(map[Key][]Row),
		Failing:   make(map[int]bool),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the base URL of the site
func (s *Site) URL() string {
	return s.server.URL + "/"
}

// Close shuts the site down
func (s *Site) Close() {
	s.server.Close()
}

// SetRows replaces the listing of a campus in a semester
func (s *Site) SetRows(semester string, campus int, rows []Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rows[Key{Semester: semester, Campus: campus}] = rows
}

// SetExtraEntries inflates the advertised entry count by n
func (s *Site) SetExtraEntries(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ExtraEntries = n
}

// SetCountLabel makes every counted page advertise text as the entry count
func (s *Site) SetCountLabel(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CountLabel = text
}

// Fail makes every query for the campus answer with 500
func (s *Site) Fail(campus int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failing[campus] = true
}

// Requests returns a copy of the requests received so far
func (s *Site) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Queries returns the form queries received for a campus, in order
func (s *Site) Queries(semester string, campus int) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if !r.Prime && r.Method == http.MethodPost && r.Semester == semester && r.Campus == campus {
			out = append(out, r)
		}
	}
	return out
}

func (s *Site) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.record(Request{Method: r.Method})
		s.writeLanding(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.PostForm.Get("formBusca") == "" {
		s.prime(w, r)
		return
	}

	session := ""
	if c, err := r.Cookie(cookieName); err == nil {
		session = c.Value
	}
	semester := r.PostForm.Get("formBusca:selectSemestre")
	campus, _ := strconv.Atoi(r.PostForm.Get("formBusca:selectCampus"))
	page, _ := strconv.Atoi(r.PostForm.Get("formBusca:dataScroller1"))

	s.record(Request{Method: r.Method, Semester: semester, Campus: campus, Page: page, Session: session})

	if session == "" {
		s.writeLanding(w)
		return
	}

	s.mu.Lock()
	failing := s.Failing[campus]
	rows := s.Rows[Key{Semester: semester, Campus: campus}]
	extra := s.ExtraEntries
	label := s.CountLabel
	s.mu.Unlock()

	if failing {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pages := (len(rows) + pageSize - 1) / pageSize
	effective := page
	if effective > pages {
		effective = pages
	}
	if effective < 1 {
		effective = 1
	}

	var pageRows []Row
	if start := (effective - 1) * pageSize; start < len(rows) {
		end := start + pageSize
		if end > len(rows) {
			end = len(rows)
		}
		pageRows = rows[start:end]
	}

	count := ""
	if page != 1 {
		count = strconv.Itoa(len(rows) + extra)
		if label != "" {
			count = label
		}
	}
	writeListing(w, count, pageRows)
}

func (s *Site) prime(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.sessions++
	id := fmt.Sprintf("session-%d", s.sessions)
	s.requests = append(s.requests, Request{Method: r.Method, Prime: true, Session: id})
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: id, Path: "/"})
	s.writeLanding(w)
}

func (s *Site) record(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
}

func (s *Site) writeLanding(w http.ResponseWriter) {
	var b strings.Builder
	b.WriteString(`<html><body><form id="formBusca"><select id="formBusca:selectSemestre" name="formBusca:selectSemestre">`)
	for _, sem := range s.Semesters {
		fmt.Fprintf(&b, `<option value="%s">%s</option>`, html.EscapeString(sem), html.EscapeString(sem))
	}
	b.WriteString(`</select></form></body></html>`)
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	_, _ = w.Write([]byte(b.String()))
}

// writeListing renders a result page. An empty count omits the count label.
func writeListing(w http.ResponseWriter, count string, rows []Row) {
	var b strings.Builder
	b.WriteString(`<html><body><form id="formBusca">`)
	if count != "" {
		fmt.Fprintf(&b, `<span id="formBusca:dataTableGroup">Turmas: <span>%s</span></span>`, esc(count))
	}
	b.WriteString(`<table id="formBusca:dataTable"><tbody id="formBusca:dataTable:tb">`)
	for _, row := range rows {
		b.WriteString(RenderRow(row))
	}
	b.WriteString(`</tbody></table></form></body></html>`)
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	_, _ = w.Write([]byte(b.String()))
}

// RenderRow renders a row as the 14 cell <tr> the site uses
func RenderRow(row Row) string {
	cells := []string{
		"", "", "",
		esc(row.CourseID),
		esc(row.ClassID),
		esc(row.Title),
		esc(row.Hours),
		esc(row.TotalSlots),
		esc(row.FilledSlots),
		esc(row.Special),
		esc(row.OpenSlots),
		esc(row.WaitingForSlot),
		joinLines(row.Times),
		joinLines(row.Teachers),
	}

	var b strings.Builder
	b.WriteString(`<tr>`)
	for _, c := range cells {
		b.WriteString(`<td>`)
		b.WriteString(c)
		b.WriteString(`</td>`)
	}
	b.WriteString(`</tr>`)
	return b.String()
}

func joinLines(lines []string) string {
	escaped := make([]string, len(lines))
	for i, l := range lines {
		escaped[i] = esc(l)
	}
	return strings.Join(escaped, "<br />")
}

func esc(s string) string {
	return html.EscapeString(s)
}

// SampleRow returns a valid row for a course and class
func SampleRow(courseID, classID string) Row {
	return Row{
		CourseID:       courseID,
		ClassID:        classID,
		Title:          "Cálculo I",
		Hours:          "72",
		TotalSlots:     "40",
		FilledSlots:    "35",
		Special:        "0",
		OpenSlots:      "5",
		WaitingForSlot: "",
		Times:          []string{"2.0820-2 / CTC-CTC102", "4.0820-2 / CTC-CTC102"},
		Teachers:       []string{"Ana Souza"},
	}
}

// SampleRows returns n valid rows with distinct class ids
func SampleRows(courseID string, n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = SampleRow(courseID, fmt.Sprintf("%05dA", i+1))
	}
	return rows
}
