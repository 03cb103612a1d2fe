package storage

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"avito-scraper/utils"
)

// XMLWriter writes one avito_{region}_{YYYYMMDD_HHMMSS}.xml file per batch.
type XMLWriter struct {
	dir string
}

func NewXMLWriter(dir string) *XMLWriter {
	return &XMLWriter{dir: dir}
}

type xmlRealEstate struct {
	XMLName xml.Name `xml:"real_estate"`
	Ads     []xmlAd  `xml:"ad"`
}

// Field order is the file format; empty values still produce an element.
type xmlAd struct {
	Title   string `xml:"title"`
	Price   string `xml:"price"`
	Address string `xml:"address"`
	Area    string `xml:"area"`
	URL     string `xml:"url"`
	Date    string `xml:"date"`
}

func XMLFileName(region string, t time.Time) string {
	return fmt.Sprintf("avito_%s_%s.xml", region, t.Format("20060102_150405"))
}

func (w *XMLWriter) WriteBatch(b Batch) error {
	if b.Len() == 0 {
		utils.Info("No data to save for %s", b.Region)
		return nil
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}

	doc := xmlRealEstate{Ads: make([]xmlAd, 0, b.Len())}
	for _, l := range b.Listings {
		doc.Ads = append(doc.Ads, xmlAd{
			Title:   l.Title,
			Price:   l.Price,
			Address: l.Address,
			Area:    l.Area,
			URL:     l.URL,
			Date:    l.PublishDate,
		})
	}

	path, file, err := createUnique(w.dir, XMLFileName(b.Region, b.CreatedAt))
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.WriteString(xml.Header); err != nil {
		return fmt.Errorf("could not write xml header: %w", err)
	}
	enc := xml.NewEncoder(file)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("xml encode error: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("xml encode error: %w", err)
	}

	utils.Success("Saved %s with %d ads (batch %s)", path, b.Len(), b.ID)
	return nil
}

// createUnique opens name inside dir, adding _1, _2... when two flushes land in the same second.
func createUnique(dir, name string) (string, *os.File, error) {
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	candidate := name
	for i := 1; ; i++ {
		path := filepath.Join(dir, candidate)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return path, file, nil
		}
		if !os.IsExist(err) {
			return "", nil, fmt.Errorf("could not create file: %w", err)
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
}
