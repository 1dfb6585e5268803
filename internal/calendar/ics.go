package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

const (
	// ClassHour is the length of one credit (hora-aula)
	ClassHour = 50 * time.Minute
	// DefaultWeeks is the length of a regular UFSC term
	DefaultWeeks = 18

	productID = "-//matrufsc//cagr-scrape//PT"
	uidDomain = "cagr.sistemas.ufsc.br"
)

// Options controls how class meetings become recurring events
type Options struct {
	// TermStart is the first day of classes. Each meeting starts on the first
	// matching weekday on or after it.
	TermStart time.Time
	// Weeks is the number of weekly occurrences of each meeting
	Weeks int
}

// Generate builds a calendar with one weekly event per class meeting
func Generate(semester schedule.Semester, campus schedule.Campus, classes []schedule.Class, opts Options) *ics.Calendar {
	weeks := opts.Weeks
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	stamp := time.Now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(fmt.Sprintf("UFSC %s %s", campus, semester))

	for _, class := range classes {
		for i, ts := range class.Times {
			start := firstMeeting(opts.TermStart, ts)

			event := cal.AddEvent(fmt.Sprintf("%s-%s-%s-%s-%d@%s", semester, campus, class.Course.ID, class.ID, i, uidDomain))
			event.SetDtStampTime(stamp)
			event.SetStartAt(start)
			event.SetEndAt(start.Add(time.Duration(ts.Credits) * ClassHour))
			event.SetSummary(fmt.Sprintf("%s %s (%s)", class.Course.ID, class.Course.Title, class.ID))
			event.SetLocation(ts.Place)
			if len(class.Teachers) > 0 {
				event.SetDescription(strings.Join(class.Teachers, "\n"))
			}
			event.AddRrule(fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", weeks))
		}
	}

	return cal
}

// WriteICS serialises the calendar to w
func WriteICS(w io.Writer, cal *ics.Calendar) error {
	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

// firstMeeting returns the first occurrence of the slot on or after termStart,
// in campus local time
func firstMeeting(termStart time.Time, ts schedule.TimeSlot) time.Time {
	day := termStart.In(schedule.Local)
	offset := (int(ts.Weekday) - int(day.Weekday()) + 7) % 7
	return time.Date(day.Year(), day.Month(), day.Day()+offset, ts.Start.Hour, ts.Start.Minute, 0, 0, schedule.Local)
}
