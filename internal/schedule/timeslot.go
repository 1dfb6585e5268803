package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeFormat is returned when a time slot does not match "D.HHMM-C / PLACE"
var ErrInvalidTimeFormat = errors.New("invalid time format")

// wireWeekdays maps the site's weekday digit to a weekday. Sunday is 1, not ISO order.
var wireWeekdays = map[int]time.Weekday{
	1: time.Sunday,
	2: time.Monday,
	3: time.Tuesday,
	4: time.Wednesday,
	5: time.Thursday,
	6: time.Friday,
	7: time.Saturday,
}

// WeekdayDigit returns the wire digit (1..7) for a weekday
func WeekdayDigit(d time.Weekday) int {
	for digit, wd := range wireWeekdays {
		if wd == d {
			return digit
		}
	}
	return 0
}

// TimeOfDay is a wall-clock time without a date
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns the number of minutes since midnight
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// String formats the time as HHMM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d%02d", t.Hour, t.Minute)
}

// TimeSlot is a weekly class meeting
type TimeSlot struct {
	Weekday time.Weekday
	Start   TimeOfDay
	Credits uint32
	Place   string
}

// String formats the slot back into the wire encoding, e.g. "3.1430-4 / CTC-AUD"
func (ts TimeSlot) String() string {
	return fmt.Sprintf("%d.%s-%d / %s", WeekdayDigit(ts.Weekday), ts.Start, ts.Credits, ts.Place)
}

// ParseTimeSlot parses one "D.HHMM-C / PLACE" entry
func ParseTimeSlot(s string) (TimeSlot, error) {
	spec, place, ok := strings.Cut(s, " / ")
	if !ok {
		return TimeSlot{}, fmt.Errorf("%w: missing place in %q", ErrInvalidTimeFormat, s)
	}

	digit, rest, ok := strings.Cut(spec, ".")
	if !ok {
		return TimeSlot{}, fmt.Errorf("%w: missing weekday in %q", ErrInvalidTimeFormat, s)
	}

	n, err := strconv.Atoi(digit)
	if err != nil || len(digit) != 1 {
		return TimeSlot{}, fmt.Errorf("%w: weekday %q: %v", ErrInvalidTimeFormat, digit, err)
	}
	weekday, ok := wireWeekdays[n]
	if !ok {
		return TimeSlot{}, fmt.Errorf("%w: weekday %d out of range", ErrInvalidTimeFormat, n)
	}

	clock, credits, ok := strings.Cut(rest, "-")
	if !ok {
		return TimeSlot{}, fmt.Errorf("%w: missing credits in %q", ErrInvalidTimeFormat, s)
	}

	start, err := parseClock(clock)
	if err != nil {
		return TimeSlot{}, err
	}

	c, err := strconv.ParseUint(strings.TrimSpace(credits), 10, 32)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("%w: credits %q: %v", ErrInvalidTimeFormat, credits, err)
	}

	return TimeSlot{
		Weekday: weekday,
		Start:   start,
		Credits: uint32(c),
		Place:   place,
	}, nil
}

// ParseTimeSlots parses a multi-line field, one slot per non-blank line
func ParseTimeSlots(field string) ([]TimeSlot, error) {
	slots := make([]TimeSlot, 0)
	for _, line := range strings.Split(field, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ts, err := ParseTimeSlot(line)
		if err != nil {
			return nil, err
		}
		slots = append(slots, ts)
	}
	return slots, nil
}

// parseClock parses a 24-hour HHMM string
func parseClock(s string) (TimeOfDay, error) {
	if len(s) != 4 {
		return TimeOfDay{}, fmt.Errorf("%w: time %q is not HHMM", ErrInvalidTimeFormat, s)
	}
	t, err := time.Parse("1504", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: time %q: %v", ErrInvalidTimeFormat, s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}
