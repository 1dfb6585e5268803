// Package database stores published campus schedules in Postgres.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/matrufsc/cagr-scrape/migrations"
)

const (
	maxOpenConns    = 5
	maxIdleConns    = 2
	connMaxLifetime = 30 * time.Minute
)

// Open connects to databaseURL with the pgx driver and applies migrations
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := migrations.Up(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Execer is the subset of *sql.DB and *sql.Tx the repository needs
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CampusSchedule is one row of campus_schedules
type CampusSchedule struct {
	Semester   string
	Campus     string
	RunID      uuid.UUID
	ClassCount int
	Document   []byte // matrufsc JSON
	ScrapedAt  time.Time
}

// ScheduleRepository writes campus schedules
type ScheduleRepository interface {
	Upsert(ctx context.Context, s CampusSchedule) error
}

// SchedulePostgresRepository keeps the latest schedule per (semester, campus)
type SchedulePostgresRepository struct {
	execer Execer
}

func NewSchedulePostgresRepository(execer Execer) *SchedulePostgresRepository {
	return &SchedulePostgresRepository{execer: execer}
}

func (r *SchedulePostgresRepository) Upsert(ctx context.Context, s CampusSchedule) error {
	const query = `
INSERT INTO public.campus_schedules (
	semester,
	campus,
	run_id,
	class_count,
	schedule_json,
	scraped_at
) VALUES ($1, $2, $3, $4, $5::jsonb, $6)
ON CONFLICT (semester, campus)
DO UPDATE SET
	run_id = EXCLUDED.run_id,
	class_count = EXCLUDED.class_count,
	schedule_json = EXCLUDED.schedule_json,
	scraped_at = EXCLUDED.scraped_at
`

	_, err := r.execer.ExecContext(
		ctx,
		query,
		s.Semester,
		s.Campus,
		s.RunID,
		s.ClassCount,
		string(s.Document),
		s.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert schedule %s-%s: %w", s.Semester, s.Campus, err)
	}
	return nil
}
