package storage

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"avito-scraper/models"
)

// Batch is one flushed snapshot of a run's buffer. The writer owns Listings;
// the buffer that produced it keeps no reference.
type Batch struct {
	ID        uuid.UUID
	Region    string
	CreatedAt time.Time
	Listings  []models.Listing
}

func NewBatch(region string, listings []models.Listing, createdAt time.Time) Batch {
	return Batch{
		ID:        uuid.New(),
		Region:    region,
		CreatedAt: createdAt,
		Listings:  listings,
	}
}

func (b Batch) Len() int { return len(b.Listings) }

// BatchWriter persists a flushed batch. An empty batch must be accepted as a no-op.
type BatchWriter interface {
	WriteBatch(b Batch) error
}

// MultiWriter hands every batch to each writer in order. A failing writer does not
// stop the others; all errors are joined.
type MultiWriter struct {
	writers []BatchWriter
}

func NewMultiWriter(writers ...BatchWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

func (m *MultiWriter) Add(w BatchWriter) {
	m.writers = append(m.writers, w)
}

func (m *MultiWriter) WriteBatch(b Batch) error {
	var errs []error
	for _, w := range m.writers {
		if err := w.WriteBatch(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
