package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/matrufsc/cagr-scrape/internal/calendar"
	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

func main() {
	// A sample class with two weekly meetings
	class := schedule.Class{
		ID:     "01208A",
		Course: schedule.Course{ID: "INE5401", Title: "Introdução à Computação", Hours: 36},
		Times: []schedule.TimeSlot{
			{Weekday: time.Monday, Start: schedule.TimeOfDay{Hour: 8, Minute: 20}, Credits: 2, Place: "CTC-CTC102"},
			{Weekday: time.Thursday, Start: schedule.TimeOfDay{Hour: 10, Minute: 10}, Credits: 2, Place: "CTC-CTC102"},
		},
		Teachers: []string{"Maria Silva"},
	}

	cal := calendar.Generate("20251", schedule.FLO, []schedule.Class{class}, calendar.Options{
		TermStart: time.Now().In(schedule.Local),
		Weeks:     4,
	})

	var buf bytes.Buffer
	if err := calendar.WriteICS(&buf, cal); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating calendar: %v\n", err)
		os.Exit(1)
	}

	filename := "test-cagr-class.ics"
	if err := os.WriteFile(filename, buf.Bytes(), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(buf.String())
}
