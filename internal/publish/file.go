package publish

import (
	"context"
	"io"
	"time"

	"github.com/matrufsc/cagr-scrape/internal/calendar"
	"github.com/matrufsc/cagr-scrape/internal/export"
	"github.com/matrufsc/cagr-scrape/internal/logger"
	"github.com/matrufsc/cagr-scrape/internal/schedule"
	"github.com/matrufsc/cagr-scrape/internal/storage"
)

// FilePublisher writes schedule files into a data directory
type FilePublisher struct {
	store    *storage.Storage
	csv      bool
	ics      bool
	calendar calendar.Options
	now      func() time.Time
}

// FileOption configures a FilePublisher
type FileOption func(*FilePublisher)

// WithCSV also writes <semester>-<campus>.csv
func WithCSV() FileOption {
	return func(p *FilePublisher) { p.csv = true }
}

// WithICS also writes <semester>-<campus>.ics with weekly class meetings
func WithICS(opts calendar.Options) FileOption {
	return func(p *FilePublisher) {
		p.ics = true
		p.calendar = opts
	}
}

// NewFilePublisher creates a publisher writing into store
func NewFilePublisher(store *storage.Storage, opts ...FileOption) *FilePublisher {
	p := &FilePublisher{store: store, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *FilePublisher) Publish(ctx context.Context, semester schedule.Semester, campus schedule.Campus, classes []schedule.Class) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.csv {
		rows := export.CSVRows(semester, campus, classes)
		err := p.store.WriteFile(p.store.CSVPath(semester, campus), func(w io.Writer) error {
			return export.WriteCSV(w, rows)
		})
		if err != nil {
			return err
		}
	}

	if p.ics {
		cal := calendar.Generate(semester, campus, classes, p.calendar)
		err := p.store.WriteFile(p.store.ICSPath(semester, campus), func(w io.Writer) error {
			return calendar.WriteICS(w, cal)
		})
		if err != nil {
			return err
		}
	}

	path := p.store.ArtifactPath(semester, campus)
	doc := export.NewDocument(campus, classes, p.now())
	if err := p.store.WriteFile(path, func(w io.Writer) error {
		return export.WriteJSON(w, doc)
	}); err != nil {
		return err
	}

	logger.Info("wrote schedule", logger.Fields{
		"semester": semester,
		"campus":   campus,
		"path":     path,
		"courses":  len(doc.Courses),
		"classes":  len(classes),
	})
	return nil
}
