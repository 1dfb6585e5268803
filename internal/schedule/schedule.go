package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownCampus is returned when a campus code is not part of the closed set
var ErrUnknownCampus = errors.New("unknown campus")

// Campus is a UFSC campus code
type Campus string

const (
	FLO Campus = "FLO"
	JOI Campus = "JOI"
	CBS Campus = "CBS"
	ARA Campus = "ARA"
	BLN Campus = "BLN"
)

// campusOrdinals is the value sent in formBusca:selectCampus. These numbers are
// defined by the remote form; changing one breaks scraping for that campus.
// EAD (0) is served by the site but not scraped.
var campusOrdinals = map[Campus]int{
	FLO: 1,
	JOI: 2,
	CBS: 3,
	ARA: 4,
	BLN: 5,
}

// AllCampi returns every scraped campus in ordinal order
func AllCampi() []Campus {
	return []Campus{FLO, JOI, CBS, ARA, BLN}
}

// Ordinal returns the campus code used by the remote form, or 0 for an unknown campus
func (c Campus) Ordinal() int {
	return campusOrdinals[c]
}

// Valid reports whether c is one of the known campi
func (c Campus) Valid() bool {
	_, ok := campusOrdinals[c]
	return ok
}

func (c Campus) String() string {
	return string(c)
}

// ParseCampus parses a campus code case-insensitively
func ParseCampus(s string) (Campus, error) {
	c := Campus(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCampus, s)
	}
	return c, nil
}

// ParseCampi parses a list of campus codes, dropping duplicates while keeping order
func ParseCampi(codes []string) ([]Campus, error) {
	seen := make(map[Campus]bool)
	campi := make([]Campus, 0, len(codes))
	for _, code := range codes {
		c, err := ParseCampus(code)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		campi = append(campi, c)
	}
	return campi, nil
}

// Local is the campus wall-clock zone, America/Sao_Paulo without daylight saving time
var Local = time.FixedZone("UTC-3", -3*60*60)

// Semester is the site's opaque term identifier (e.g. "20251")
type Semester string

func (s Semester) String() string {
	return string(s)
}

// Course is a subject offered in a semester
type Course struct {
	ID    string
	Title string
	Hours uint32
}

// Class is one offered section of a course
type Class struct {
	ID              string
	Course          Course
	Labels          []string
	TotalSlots      uint32
	FilledSlots     uint32
	SpecialStudents int32
	OpenSlots       uint32
	WaitingForSlot  uint32
	Times           []TimeSlot
	Teachers        []string
}
