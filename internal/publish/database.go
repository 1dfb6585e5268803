package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matrufsc/cagr-scrape/internal/database"
	"github.com/matrufsc/cagr-scrape/internal/export"
	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

// DatabasePublisher upserts the matrufsc document of each campus
type DatabasePublisher struct {
	repo  database.ScheduleRepository
	runID uuid.UUID
	now   func() time.Time
}

// NewDatabasePublisher creates a publisher tagging rows with runID
func NewDatabasePublisher(repo database.ScheduleRepository, runID uuid.UUID) *DatabasePublisher {
	return &DatabasePublisher{repo: repo, runID: runID, now: time.Now}
}

func (p *DatabasePublisher) Publish(ctx context.Context, semester schedule.Semester, campus schedule.Campus, classes []schedule.Class) error {
	now := p.now()
	doc, err := json.Marshal(export.NewDocument(campus, classes, now))
	if err != nil {
		return fmt.Errorf("encoding %s schedule: %w", campus, err)
	}

	return p.repo.Upsert(ctx, database.CampusSchedule{
		Semester:   semester.String(),
		Campus:     campus.String(),
		RunID:      p.runID,
		ClassCount: len(classes),
		Document:   doc,
		ScrapedAt:  now.UTC(),
	})
}
