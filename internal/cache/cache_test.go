package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

func testGate(t *testing.T, force bool) (*Gate, string) {
	t.Helper()
	dir := t.TempDir()
	path := func(sem schedule.Semester, c schedule.Campus) string {
		return filepath.Join(dir, sem.String()+"-"+c.String()+".json")
	}
	return NewGate(path, force), dir
}

func writeArtifact(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatalf("writing artifact: %v", err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("setting mtime: %v", err)
	}
}

func TestGate_IsFresh(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		present bool
		force   bool
		want    bool
	}{
		{name: "absent", present: false, want: false},
		{name: "two days old", age: 2 * 24 * time.Hour, present: true, want: true},
		{name: "four days old", age: 4 * 24 * time.Hour, present: true, want: false},
		{name: "fresh but forced", age: time.Hour, present: true, force: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, dir := testGate(t, tt.force)
			if tt.present {
				writeArtifact(t, filepath.Join(dir, "20251-FLO.json"), tt.age)
			}

			if got := gate.IsFresh("20251"); got != tt.want {
				t.Errorf("IsFresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGate_OnlyReferenceCampus(t *testing.T) {
	gate, dir := testGate(t, false)

	// Fresh artifacts for every other campus do not count
	for _, c := range []string{"JOI", "CBS", "ARA", "BLN"} {
		writeArtifact(t, filepath.Join(dir, "20251-"+c+".json"), time.Hour)
	}
	if gate.IsFresh("20251") {
		t.Error("IsFresh() = true without a reference campus artifact")
	}

	writeArtifact(t, filepath.Join(dir, "20251-FLO.json"), time.Hour)
	if !gate.IsFresh("20251") {
		t.Error("IsFresh() = false with a fresh reference campus artifact")
	}
	if gate.IsFresh("20242") {
		t.Error("IsFresh() = true for another semester")
	}
}

func TestGate_Threshold(t *testing.T) {
	gate, dir := testGate(t, false)
	writeArtifact(t, filepath.Join(dir, "20251-FLO.json"), 0)

	fixed := time.Now()
	gate.now = func() time.Time { return fixed.Add(DefaultThreshold + time.Minute) }
	if gate.IsFresh("20251") {
		t.Error("IsFresh() = true past the threshold")
	}

	gate.Threshold = 7 * 24 * time.Hour
	if !gate.IsFresh("20251") {
		t.Error("IsFresh() = false inside a longer threshold")
	}
}

func TestGate_UnreadablePath(t *testing.T) {
	gate := NewGate(func(schedule.Semester, schedule.Campus) string {
		return string([]byte{0})
	}, false)

	if gate.IsFresh("20251") {
		t.Error("IsFresh() = true for an invalid path")
	}
}

func TestGate_ZeroValue(t *testing.T) {
	var gate Gate
	if gate.IsFresh("20251") {
		t.Error("IsFresh() = true for a gate without a path")
	}
}
