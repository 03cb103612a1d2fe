package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresWriter struct {
	pool *pgxpool.Pool
}

func NewPostgresWriter(databaseURL string) (*PostgresWriter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	return &PostgresWriter{pool: pool}, nil
}

func (w *PostgresWriter) Close() {
	if w.pool != nil {
		w.pool.Close()
	}
}

func (w *PostgresWriter) EnsureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	sql := `
	CREATE TABLE IF NOT EXISTS avito_listings (
		id BIGSERIAL PRIMARY KEY,
		batch_id UUID NOT NULL,
		region TEXT NOT NULL,
		title TEXT NOT NULL,
		price BIGINT NOT NULL,
		address TEXT,
		area TEXT,
		url TEXT NOT NULL UNIQUE,
		publish_date TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_avito_listings_region ON avito_listings(region);
	CREATE INDEX IF NOT EXISTS idx_avito_listings_price ON avito_listings(price);
	`

	if _, err := w.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	return nil
}

const insertListingSQL = `
	INSERT INTO avito_listings (batch_id, region, title, price, address, area, url, publish_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (url) DO NOTHING;
	`

// WriteBatch inserts the batch in one round trip. Re-scraped URLs are ignored.
func (w *PostgresWriter) WriteBatch(b Batch) error {
	batch, enqueued := buildInsertBatch(b)
	if enqueued == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results := w.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < enqueued; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed at row %d: %w", i, err)
		}
	}

	return nil
}

func buildInsertBatch(b Batch) (*pgx.Batch, int) {
	batch := &pgx.Batch{}
	enqueued := 0
	for _, l := range b.Listings {
		url := strings.TrimSpace(l.URL)
		price, err := strconv.ParseInt(strings.TrimSpace(l.Price), 10, 64)
		if url == "" || err != nil {
			continue
		}

		batch.Queue(
			insertListingSQL,
			b.ID,
			b.Region,
			strings.TrimSpace(l.Title),
			price,
			strings.TrimSpace(l.Address),
			strings.TrimSpace(l.Area),
			url,
			strings.TrimSpace(l.PublishDate),
		)
		enqueued++
	}
	return batch, enqueued
}
