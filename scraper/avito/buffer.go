package avito

import (
	"fmt"
	"time"

	"avito-scraper/models"
	"avito-scraper/storage"
	"avito-scraper/utils"
)

// Buffer accumulates one region's listings and hands them to a BatchWriter
// once threshold is reached or when the run drains it. It has a single owner
// and is not safe for concurrent use.
type Buffer struct {
	region    string
	threshold int
	writer    storage.BatchWriter
	clock     func() time.Time

	records []models.Listing
	flushed int
	batches int
}

func NewBuffer(region string, threshold int, writer storage.BatchWriter, clock func() time.Time) *Buffer {
	if clock == nil {
		clock = time.Now
	}
	return &Buffer{
		region:    region,
		threshold: threshold,
		writer:    writer,
		clock:     clock,
	}
}

// Append adds l and flushes when the buffer reaches its threshold. A flush error
// is returned but the records are gone either way.
func (b *Buffer) Append(l models.Listing) error {
	b.records = append(b.records, l)
	if b.threshold > 0 && len(b.records) >= b.threshold {
		utils.Info("Buffer reached %d listings, flushing", len(b.records))
		return b.DrainAndFlush()
	}
	return nil
}

func (b *Buffer) Len() int { return len(b.records) }

// Flushed is the number of listings handed to the writer so far.
func (b *Buffer) Flushed() int { return b.flushed }

func (b *Buffer) Batches() int { return b.batches }

// DrainAndFlush passes everything buffered to the writer as one batch and
// empties the buffer. Draining an empty buffer does nothing.
func (b *Buffer) DrainAndFlush() error {
	if len(b.records) == 0 {
		return nil
	}

	records := b.records
	b.records = nil

	batch := storage.NewBatch(b.region, records, b.clock())
	b.flushed += batch.Len()
	b.batches++

	utils.Info("Flushing batch %s: %d listings for %s", batch.ID, batch.Len(), b.region)
	if err := b.writer.WriteBatch(batch); err != nil {
		return fmt.Errorf("flush batch %s: %w", batch.ID, err)
	}
	return nil
}
