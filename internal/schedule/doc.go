// Package schedule defines the course-schedule records scraped from CAGR.
//
// The schedule package holds the campus enumeration (with the integer codes the
// remote form expects), semesters, courses, classes and their weekly time slots.
// It also implements the compact time-slot encoding used on the wire and in the
// exported JSON, e.g. "3.1430-4 / CTC-AUD" for Tuesday 14:30, 4 credits, room CTC-AUD.
package schedule
