package models

// Listing is one classified ad as written to the batch files.
// Price always holds an integer string and URL is never empty; Area, Address and
// PublishDate may be empty when the site does not expose them.
type Listing struct {
	Title       string `json:"title"`
	Price       string `json:"price"`
	Address     string `json:"address"`
	Area        string `json:"area"`
	URL         string `json:"url"`
	PublishDate string `json:"date"`
}

// Detail holds the fields only the ad's own page carries.
type Detail struct {
	PublishDate string
	Address     string
}

type ScrapeJob struct {
	Region string
	URL    string
	Pages  int
}

type RunResult struct {
	Region  string
	Pages   int
	Records int
	Batches int
	Err     error
}
