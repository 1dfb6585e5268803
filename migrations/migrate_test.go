package migrations

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestNames(t *testing.T) {
	names, err := Names()
	if err != nil {
		t.Fatalf("Names() error = %v", err)
	}
	if len(names) == 0 || names[0] != "0001_campus_schedules.sql" {
		t.Fatalf("Names() = %v", names)
	}

	data, err := files.ReadFile(names[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "PRIMARY KEY (semester, campus)") {
		t.Error("campus_schedules must be keyed by (semester, campus) for upserts")
	}
}

func TestIsIgnorableMigrationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate table", &pgconn.PgError{Code: "42P07"}, true},
		{"wrapped duplicate object", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "42710"}), true},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"not a postgres error", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isIgnorableMigrationError(tt.err); got != tt.want {
				t.Errorf("isIgnorableMigrationError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUp_NilDB(t *testing.T) {
	if err := Up(t.Context(), nil); err == nil {
		t.Error("Up(nil) expected error")
	}
}
