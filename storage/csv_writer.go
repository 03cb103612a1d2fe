package storage

import (
	"encoding/csv"
	"fmt"
	"os"

	"avito-scraper/utils"
)

// CSVWriter mirrors each XML batch into a spreadsheet-friendly file with the same name stem.
type CSVWriter struct {
	dir string
}

func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// CSV columns: title, price, address, area, url, date
func (w *CSVWriter) WriteBatch(b Batch) error {
	if b.Len() == 0 {
		return nil
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("could not create csv dir: %w", err)
	}

	name := XMLFileName(b.Region, b.CreatedAt)
	name = name[:len(name)-len(".xml")] + ".csv"
	path, file, err := createUnique(w.dir, name)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"title", "price", "address", "area", "url", "date"}); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	for _, l := range b.Listings {
		if err := writer.Write([]string{l.Title, l.Price, l.Address, l.Area, l.URL, l.PublishDate}); err != nil {
			return fmt.Errorf("csv write error: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}

	utils.Success("Saved %d listings → %s", b.Len(), path)
	return nil
}
