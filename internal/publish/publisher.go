package publish

import (
	"context"

	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

// Publisher defines the interface for delivering a campus schedule
type Publisher interface {
	// Publish delivers the classes of one campus in one semester
	Publish(ctx context.Context, semester schedule.Semester, campus schedule.Campus, classes []schedule.Class) error
}

// Multi publishes to each publisher in order, stopping at the first error
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, semester schedule.Semester, campus schedule.Campus, classes []schedule.Class) error {
	for _, p := range m {
		if err := p.Publish(ctx, semester, campus, classes); err != nil {
			return err
		}
	}
	return nil
}
