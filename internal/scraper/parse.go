package scraper

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/matrufsc/cagr-scrape/internal/schedule"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element ids contain ':' so they are matched as attributes, not #id selectors
const (
	tableSelector      = `tbody[id="formBusca:dataTable:tb"]`
	entryCountSelector = `span[id="formBusca:dataTableGroup"] > span`
)

// Cell positions in a listing row
const (
	colCourseID        = 3
	colClassID         = 4
	colTitle           = 5
	colHours           = 6
	colTotalSlots      = 7
	colFilledSlots     = 8
	colSpecialStudents = 9
	colOpenSlots       = 10
	colWaitingForSlot  = 11
	colTimes           = 12
	colTeachers        = 13

	rowCellCount = 14
)

// fullClassText replaces the open slot count when a class is full
const fullClassText = "LOTADA"

// ParseClasses extracts every class row from a listing page. The first bad row
// fails the whole page.
func ParseClasses(r io.Reader) ([]schedule.Class, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	table := doc.Find(tableSelector).First()
	if table.Length() == 0 {
		return nil, ErrTableNotFound
	}

	classes := make([]schedule.Class, 0)
	var rowErr error
	table.ChildrenFiltered("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		class, err := parseClass(rowCells(row))
		if err != nil {
			rowErr = fmt.Errorf("row %d: %w", i+1, err)
			return false
		}
		classes = append(classes, class)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return classes, nil
}

// parseEntryCount reads the total number of classes from the listing label.
// ok is false when the label is missing or not a number.
func parseEntryCount(r io.Reader) (count uint64, ok bool) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return 0, false
	}

	label := doc.Find(entryCountSelector).First()
	if label.Length() == 0 {
		return 0, false
	}

	count, err = strconv.ParseUint(strings.TrimSpace(label.Text()), 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

func rowCells(row *goquery.Selection) []string {
	cells := make([]string, 0, rowCellCount)
	row.ChildrenFiltered("td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, cellText(td))
	})
	return cells
}

// cellText returns the trimmed text of a cell with <br> turned into newlines
func cellText(cell *goquery.Selection) string {
	var b strings.Builder
	for _, n := range cell.Nodes {
		writeText(&b, n)
	}
	return strings.TrimSpace(b.String())
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

// parseClass decodes the cell texts of one listing row
func parseClass(fields []string) (schedule.Class, error) {
	if len(fields) < rowCellCount {
		return schedule.Class{}, fmt.Errorf("%w: %d cells, want %d", ErrMalformedRow, len(fields), rowCellCount)
	}

	courseID := fields[colCourseID]

	titleLines := lines(fields[colTitle])
	if len(titleLines) == 0 {
		return schedule.Class{}, fmt.Errorf("course %s: %w", courseID, ErrNoCourseTitle)
	}

	labels := make([]string, 0, len(titleLines)-1)
	for _, label := range titleLines[1:] {
		labels = append(labels, unbracket(label))
	}

	hours, err := parseUint32("hours", courseID, fields[colHours])
	if err != nil {
		return schedule.Class{}, err
	}
	totalSlots, err := parseUint32("total_slots", courseID, fields[colTotalSlots])
	if err != nil {
		return schedule.Class{}, err
	}
	filledSlots, err := parseUint32("filled_slots", courseID, fields[colFilledSlots])
	if err != nil {
		return schedule.Class{}, err
	}
	specialStudents, err := parseInt32("special_students", courseID, fields[colSpecialStudents])
	if err != nil {
		return schedule.Class{}, err
	}

	var openSlots uint32
	if fields[colOpenSlots] != fullClassText {
		openSlots, err = parseUint32("open_slots", courseID, fields[colOpenSlots])
		if err != nil {
			return schedule.Class{}, err
		}
	}

	var waitingForSlot uint32
	if fields[colWaitingForSlot] != "" {
		waitingForSlot, err = parseUint32("waiting_for_slot", courseID, fields[colWaitingForSlot])
		if err != nil {
			return schedule.Class{}, err
		}
	}

	times, err := schedule.ParseTimeSlots(fields[colTimes])
	if err != nil {
		return schedule.Class{}, fmt.Errorf("course %s: %w", courseID, err)
	}

	return schedule.Class{
		ID: fields[colClassID],
		Course: schedule.Course{
			ID:    courseID,
			Title: titleLines[0],
			Hours: hours,
		},
		Labels:          labels,
		TotalSlots:      totalSlots,
		FilledSlots:     filledSlots,
		SpecialStudents: specialStudents,
		OpenSlots:       openSlots,
		WaitingForSlot:  waitingForSlot,
		Times:           times,
		Teachers:        lines(fields[colTeachers]),
	}, nil
}

// unbracket removes one surrounding "[...]" pair. Unbalanced brackets are kept.
func unbracket(label string) string {
	if len(label) >= 2 && strings.HasPrefix(label, "[") && strings.HasSuffix(label, "]") {
		return label[1 : len(label)-1]
	}
	return label
}

// lines splits a multi-line cell into trimmed, non-blank lines
func lines(s string) []string {
	out := make([]string, 0)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func parseUint32(field, courseID, value string) (uint32, error) {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, &NumericFieldError{Field: field, CourseID: courseID, Value: value, Err: err}
	}
	return uint32(n), nil
}

func parseInt32(field, courseID, value string) (int32, error) {
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, &NumericFieldError{Field: field, CourseID: courseID, Value: value, Err: err}
	}
	return int32(n), nil
}
