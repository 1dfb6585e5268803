package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

// CSVRow is one class meeting. Classes without meetings get a single row with
// empty time columns.
type CSVRow struct {
	Semester        string `csv:"semester"`
	Campus          string `csv:"campus"`
	CourseID        string `csv:"course_id"`
	CourseTitle     string `csv:"course_title"`
	Hours           uint32 `csv:"hours"`
	ClassID         string `csv:"class_id"`
	Labels          string `csv:"labels"`
	TotalSlots      uint32 `csv:"total_slots"`
	FilledSlots     uint32 `csv:"filled_slots"`
	SpecialStudents int32  `csv:"special_students"`
	OpenSlots       uint32 `csv:"open_slots"`
	WaitingForSlot  uint32 `csv:"waiting_for_slot"`
	Weekday         int    `csv:"weekday"`
	Start           string `csv:"start"`
	Credits         uint32 `csv:"credits"`
	Place           string `csv:"place"`
	Teachers        string `csv:"teachers"`
}

// listSeparator joins labels and teachers inside one CSV cell
const listSeparator = "; "

// CSVRows flattens classes into rows ordered by course id and class id
func CSVRows(semester schedule.Semester, campus schedule.Campus, classes []schedule.Class) []CSVRow {
	rows := make([]CSVRow, 0, len(classes))
	for _, class := range sortClasses(classes) {
		base := CSVRow{
			Semester:        semester.String(),
			Campus:          campus.String(),
			CourseID:        class.Course.ID,
			CourseTitle:     class.Course.Title,
			Hours:           class.Course.Hours,
			ClassID:         class.ID,
			Labels:          strings.Join(class.Labels, listSeparator),
			TotalSlots:      class.TotalSlots,
			FilledSlots:     class.FilledSlots,
			SpecialStudents: class.SpecialStudents,
			OpenSlots:       class.OpenSlots,
			WaitingForSlot:  class.WaitingForSlot,
			Teachers:        strings.Join(class.Teachers, listSeparator),
		}
		if len(class.Times) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, ts := range class.Times {
			row := base
			row.Weekday = schedule.WeekdayDigit(ts.Weekday)
			row.Start = ts.Start.String()
			row.Credits = ts.Credits
			row.Place = ts.Place
			rows = append(rows, row)
		}
	}
	return rows
}

// WriteCSV writes rows with a header line
func WriteCSV(w io.Writer, rows []CSVRow) error {
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	return nil
}
