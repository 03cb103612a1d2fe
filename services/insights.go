package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"avito-scraper/models"
	"avito-scraper/storage"
)

type Report struct {
	TotalListings    int
	DuplicateURLs    int
	AveragePrice     float64
	MinPrice         int64
	MaxPrice         int64
	MostExpensive    models.Listing
	ListingsByRegion map[string]int
	WithArea         int
	WithDate         int
	WithAddress      int
}

// Insights is a BatchWriter that keeps running totals over every flushed
// batch so a report can be printed once all regions are done.
type Insights struct {
	mu sync.Mutex

	seen     map[string]bool
	byRegion map[string]int
	dupes    int

	priceSum   int64
	priceCount int
	minPrice   int64
	maxPrice   int64
	top        models.Listing

	withArea    int
	withDate    int
	withAddress int
}

func NewInsights() *Insights {
	return &Insights{
		seen:     make(map[string]bool),
		byRegion: make(map[string]int),
	}
}

func (in *Insights) WriteBatch(b storage.Batch) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	for _, l := range CleanListings(b.Listings) {
		if in.seen[l.URL] {
			in.dupes++
			continue
		}
		in.seen[l.URL] = true
		in.byRegion[b.Region]++

		if price, err := strconv.ParseInt(l.Price, 10, 64); err == nil && price > 0 {
			in.priceSum += price
			in.priceCount++
			if in.priceCount == 1 || price < in.minPrice {
				in.minPrice = price
			}
			if price > in.maxPrice {
				in.maxPrice = price
				in.top = l
			}
		}

		if l.Area != "" {
			in.withArea++
		}
		if l.PublishDate != "" {
			in.withDate++
		}
		if l.Address != "" {
			in.withAddress++
		}
	}
	return nil
}

func (in *Insights) Report() Report {
	in.mu.Lock()
	defer in.mu.Unlock()

	report := Report{
		TotalListings:    len(in.seen),
		DuplicateURLs:    in.dupes,
		MinPrice:         in.minPrice,
		MaxPrice:         in.maxPrice,
		MostExpensive:    in.top,
		ListingsByRegion: make(map[string]int, len(in.byRegion)),
		WithArea:         in.withArea,
		WithDate:         in.withDate,
		WithAddress:      in.withAddress,
	}
	for region, n := range in.byRegion {
		report.ListingsByRegion[region] = n
	}
	if in.priceCount > 0 {
		report.AveragePrice = float64(in.priceSum) / float64(in.priceCount)
	}
	return report
}

func PrintReport(report Report) {
	fmt.Println()
	fmt.Println("┌──────────────────────────────────────────────────────────────┐")
	fmt.Println("│                  Real Estate Market Insights                 │")
	fmt.Println("├───────────────────────────────┬──────────────────────────────┤")
	fmt.Printf("│ %-29s │ %-28d │\n", "Total Listings Scraped", report.TotalListings)
	fmt.Printf("│ %-29s │ %-28d │\n", "Duplicate URLs Skipped", report.DuplicateURLs)
	fmt.Printf("│ %-29s │ %-28.0f │\n", "Average Price, RUB", report.AveragePrice)
	fmt.Printf("│ %-29s │ %-28d │\n", "Minimum Price, RUB", report.MinPrice)
	fmt.Printf("│ %-29s │ %-28d │\n", "Maximum Price, RUB", report.MaxPrice)
	fmt.Printf("│ %-29s │ %-28s │\n", "With Area", coverage(report.WithArea, report.TotalListings))
	fmt.Printf("│ %-29s │ %-28s │\n", "With Publish Date", coverage(report.WithDate, report.TotalListings))
	fmt.Printf("│ %-29s │ %-28s │\n", "With Address", coverage(report.WithAddress, report.TotalListings))
	fmt.Println("└───────────────────────────────┴──────────────────────────────┘")

	if report.MostExpensive.Title != "" {
		fmt.Println()
		fmt.Printf("Most expensive: %s, %s RUB\n", truncateText(report.MostExpensive.Title, 60), report.MostExpensive.Price)
		fmt.Printf("  %s\n", report.MostExpensive.URL)
	}

	fmt.Println()
	fmt.Println("┌──────────────────────────────────────────────┬───────────────┐")
	fmt.Println("│ Listings per Region                          │ Count         │")
	fmt.Println("├──────────────────────────────────────────────┼───────────────┤")
	for _, region := range sortedKeys(report.ListingsByRegion) {
		fmt.Printf("│ %-44s │ %-13d │\n", region, report.ListingsByRegion[region])
	}
	fmt.Println("└──────────────────────────────────────────────┴───────────────┘")
}

// CleanListings trims text fields and drops listings without a title or URL
// and repeated URLs within the input.
func CleanListings(listings []models.Listing) []models.Listing {
	seen := make(map[string]bool)
	cleaned := make([]models.Listing, 0, len(listings))

	for _, l := range listings {
		l.Title = strings.TrimSpace(l.Title)
		l.URL = strings.TrimSpace(l.URL)
		l.Address = strings.TrimSpace(l.Address)

		if l.Title == "" || l.URL == "" {
			continue
		}
		if seen[l.URL] {
			continue
		}

		seen[l.URL] = true
		cleaned = append(cleaned, l)
	}

	return cleaned
}

func coverage(n, total int) string {
	if total == 0 {
		return "0"
	}
	return fmt.Sprintf("%d (%.0f%%)", n, float64(n)*100/float64(total))
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncateText(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
