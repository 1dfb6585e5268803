package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)

	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "scraping campus",
			fields:  Fields{"campus": "FLO"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "fetching page",
			want:    false,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "campus failed",
			err:     errors.New("table not found"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := buf.Len()

			logger.log(tt.level, tt.message, tt.fields, tt.err)

			logged := buf.Len() > before
			if logged != tt.want {
				t.Errorf("log() logged = %v, want %v", logged, tt.want)
			}
		})
	}
}

func TestLogger_EntryShape(t *testing.T) {
	var buf bytes.Buffer
	New(LevelDebug, &buf).Error("campus failed", Fields{"semester": "20251", "campus": "JOI"}, errors.New("boom"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}

	if entry.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", entry.Level)
	}
	if entry.Message != "campus failed" {
		t.Errorf("Message = %q, want %q", entry.Message, "campus failed")
	}
	if entry.Error != "boom" {
		t.Errorf("Error = %q, want boom", entry.Error)
	}
	if entry.Fields["campus"] != "JOI" {
		t.Errorf("Fields[campus] = %v, want JOI", entry.Fields["campus"])
	}
	if _, err := time.Parse(time.RFC3339, entry.Timestamp); err != nil {
		t.Errorf("Timestamp %q is not RFC3339: %v", entry.Timestamp, err)
	}
}

func TestLogger_ConcurrentWritesStayOnSeparateLines(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("page fetched", Fields{"page": 1})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("got %d lines, want 20", len(lines))
	}
	for _, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Errorf("interleaved or invalid line: %q", line)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"Error", LevelError, false},
		{"trace", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseLevel(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("pages.fetched")
	m.IncrCounter("pages.fetched")
	m.AddCounter("pages.fetched", 3)

	snapshot := m.GetSnapshot()
	counters := snapshot["counters"].(map[string]int64)

	if counters["pages.fetched"] != 5 {
		t.Errorf("Counter = %v, want 5", counters["pages.fetched"])
	}
	if m.Counter("pages.fetched") != 5 {
		t.Errorf("Counter() = %v, want 5", m.Counter("pages.fetched"))
	}
}

func TestMetrics_Gauge(t *testing.T) {
	m := NewMetrics()

	m.SetGauge("classes.20251.FLO", 120)
	m.SetGauge("classes.20251.FLO", 240)

	snapshot := m.GetSnapshot()
	gauges := snapshot["gauges"].(map[string]float64)

	if gauges["classes.20251.FLO"] != 240 {
		t.Errorf("Gauge = %v, want 240", gauges["classes.20251.FLO"])
	}
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("scrape.campus", 100*time.Millisecond)
	m.RecordTiming("scrape.campus", 200*time.Millisecond)
	m.RecordTiming("scrape.campus", 150*time.Millisecond)

	snapshot := m.GetSnapshot()
	timings := snapshot["timings"].(map[string]map[string]interface{})

	timing := timings["scrape.campus"]
	if timing["count"].(int) != 3 {
		t.Errorf("Timing count = %v, want 3", timing["count"])
	}
	if timing["min"].(string) != "100ms" {
		t.Errorf("Min timing = %v, want 100ms", timing["min"])
	}
	if timing["max"].(string) != "200ms" {
		t.Errorf("Max timing = %v, want 200ms", timing["max"])
	}
	if timing["average"].(string) != "150ms" {
		t.Errorf("Average timing = %v, want 150ms", timing["average"])
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()
	m.IncrCounter("campus.failed")
	m.Reset()

	if m.Counter("campus.failed") != 0 {
		t.Errorf("counter after Reset = %d, want 0", m.Counter("campus.failed"))
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	previous := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(previous)

	Debug("debug", nil)
	Info("info", Fields{"key": "value"})
	Warn("warn", nil)
	Error("error", Fields{"component": "test"}, errors.New("test"))

	if got := strings.Count(buf.String(), "\n"); got != 4 {
		t.Errorf("default logger wrote %d lines, want 4", got)
	}

	IncrCounter("test")
	AddCounter("test", 2)
	SetGauge("test", 42.0)
	RecordTiming("test", time.Second)

	if CounterValue("test") < 3 {
		t.Errorf("CounterValue(test) = %d, want at least 3", CounterValue("test"))
	}
	if GetMetricsSnapshot() == nil {
		t.Error("GetMetricsSnapshot() returned nil")
	}
}
