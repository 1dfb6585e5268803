package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "schedule")

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", s.Dir(), dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("data directory not created: %v", err)
	}
}

func TestNew_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	s, err := New("~/cagr")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if want := filepath.Join(home, "cagr"); s.Dir() != want {
		t.Errorf("Dir() = %q, want %q", s.Dir(), want)
	}
}

func TestPaths(t *testing.T) {
	s := &Storage{dataDir: "/data"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"artifact", s.ArtifactPath("20251", schedule.FLO), "/data/20251-FLO.json"},
		{"csv", s.CSVPath("20242", schedule.JOI), "/data/20242-JOI.csv"},
		{"ics", s.ICSPath("20241", schedule.BLN), "/data/20241-BLN.ics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != filepath.FromSlash(tt.want) {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := s.ArtifactPath("20251", schedule.FLO)

	err = s.WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, `{"DATA":"x"}`)
		return err
	})
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"DATA":"x"}` {
		t.Errorf("content = %q", data)
	}
}

func TestWriteFile_FailureKeepsPrevious(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := s.ArtifactPath("20251", schedule.FLO)
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	wantErr := errors.New("encoder failed")
	err = s.WriteFile(path, func(w io.Writer) error {
		fmt.Fprint(w, "partial")
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("WriteFile() error = %v, want %v", err, wantErr)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "old" {
		t.Errorf("content = %q, want previous content", data)
	}

	entries, _ := os.ReadDir(s.Dir())
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}
