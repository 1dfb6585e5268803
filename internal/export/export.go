// Package export renders campus schedules in the matrufsc JSON layout and as
// flat CSV.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

const timestampLayout = "02/01/06 - 15:04"

// FormatTimestamp formats t the way matrufsc shows the last update
func FormatTimestamp(t time.Time) string {
	return t.In(schedule.Local).Format(timestampLayout)
}

// Course is a course with all its classes. It is encoded as a JSON array:
// [id, TITLE, title, classes].
type Course struct {
	ID      string
	Title   string
	Classes []Class
}

// MarshalJSON implements json.Marshaler
func (c Course) MarshalJSON() ([]byte, error) {
	classes := c.Classes
	if classes == nil {
		classes = []Class{}
	}
	return json.Marshal([]interface{}{c.ID, strings.ToUpper(c.Title), c.Title, classes})
}

// Class is one class of a course, encoded as a JSON array:
// [id, hours, labels, total, filled, special, open, waiting, times, teachers].
type Class struct {
	ID              string
	Hours           uint32
	Labels          []string
	TotalSlots      uint32
	FilledSlots     uint32
	SpecialStudents int32
	OpenSlots       uint32
	WaitingForSlot  uint32
	Times           []string
	Teachers        []string
}

// MarshalJSON implements json.Marshaler
func (c Class) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{
		c.ID,
		c.Hours,
		nonNil(c.Labels),
		c.TotalSlots,
		c.FilledSlots,
		c.SpecialStudents,
		c.OpenSlots,
		c.WaitingForSlot,
		nonNil(c.Times),
		nonNil(c.Teachers),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// GroupByCourse partitions classes by course, sorted by course id and then
// class id, so the result does not depend on scrape order. The course of the
// first class seen for an id supplies title and hours.
func GroupByCourse(classes []schedule.Class) []Course {
	courses := make([]Course, 0)
	for _, class := range sortClasses(classes) {
		if n := len(courses); n == 0 || courses[n-1].ID != class.Course.ID {
			courses = append(courses, Course{ID: class.Course.ID, Title: class.Course.Title})
		}
		last := &courses[len(courses)-1]
		last.Classes = append(last.Classes, newClass(class))
	}

	return courses
}

// sortClasses returns a copy of classes ordered by (course id, class id)
func sortClasses(classes []schedule.Class) []schedule.Class {
	sorted := make([]schedule.Class, len(classes))
	copy(sorted, classes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Course.ID != sorted[j].Course.ID {
			return sorted[i].Course.ID < sorted[j].Course.ID
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func newClass(c schedule.Class) Class {
	times := make([]string, len(c.Times))
	for i, ts := range c.Times {
		times[i] = ts.String()
	}
	return Class{
		ID:              c.ID,
		Hours:           c.Course.Hours,
		Labels:          c.Labels,
		TotalSlots:      c.TotalSlots,
		FilledSlots:     c.FilledSlots,
		SpecialStudents: c.SpecialStudents,
		OpenSlots:       c.OpenSlots,
		WaitingForSlot:  c.WaitingForSlot,
		Times:           times,
		Teachers:        c.Teachers,
	}
}

// Document is the published schedule of one campus in one semester
type Document struct {
	Timestamp time.Time
	Campus    schedule.Campus
	Courses   []Course
}

// NewDocument groups the classes of a campus into a document
func NewDocument(campus schedule.Campus, classes []schedule.Class, now time.Time) Document {
	return Document{
		Timestamp: now,
		Campus:    campus,
		Courses:   GroupByCourse(classes),
	}
}

// MarshalJSON encodes the document as {"DATA": "<timestamp>", "<CAMPUS>": [...]}
func (d Document) MarshalJSON() ([]byte, error) {
	courses := d.Courses
	if courses == nil {
		courses = []Course{}
	}
	return json.Marshal(map[string]interface{}{
		"DATA":           FormatTimestamp(d.Timestamp),
		d.Campus.String(): courses,
	})
}

// WriteJSON writes the document to w
func WriteJSON(w io.Writer, doc Document) error {
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encoding %s schedule: %w", doc.Campus, err)
	}
	return nil
}
