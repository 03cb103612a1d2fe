package avito

import (
	"errors"
	"fmt"
	"time"

	"avito-scraper/config"
	"avito-scraper/models"
	"avito-scraper/scraper/browser"
	"avito-scraper/storage"
	"avito-scraper/utils"
)

// DriverFactory opens a fresh browser for one region.
type DriverFactory func() (browser.Driver, error)

// Runner drives one region at a time: load, collect, paginate, flush.
type Runner struct {
	cfg       *config.Config
	newDriver DriverFactory
	writer    storage.BatchWriter
	sel       Selectors
	sleeper   utils.Sleeper
	jitter    utils.JitterFunc
	clock     func() time.Time
}

type Option func(*Runner)

func WithSleeper(s utils.Sleeper) Option {
	return func(r *Runner) { r.sleeper = s }
}

func WithJitter(j utils.JitterFunc) Option {
	return func(r *Runner) { r.jitter = j }
}

func WithClock(clock func() time.Time) Option {
	return func(r *Runner) { r.clock = clock }
}

func WithSelectors(sel Selectors) Option {
	return func(r *Runner) { r.sel = sel }
}

func NewRunner(cfg *config.Config, newDriver DriverFactory, writer storage.BatchWriter, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		newDriver: newDriver,
		writer:    writer,
		sel:       DefaultSelectors(),
		sleeper:   utils.RealSleeper,
		jitter:    utils.Jitter,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scrapes one region. The browser is closed and the buffer flushed on every
// exit path; a fatal error is returned in RunResult.Err after that flush.
func (r *Runner) Run(job models.ScrapeJob, stop *StopSignal) models.RunResult {
	result := models.RunResult{Region: job.Region}

	driver, err := r.newDriver()
	if err != nil {
		result.Err = fmt.Errorf("start browser: %w", err)
		return result
	}
	defer driver.Close()

	session := NewSession(driver, r.cfg, r.sel, r.sleeper, r.jitter)
	buffer := NewBuffer(job.Region, r.cfg.FlushThreshold, r.writer, r.clock)
	collector := NewCollector(session, buffer)

	pages, crawlErr := r.crawl(job, session, collector, stop)
	if crawlErr != nil {
		utils.Error("Region %s stopped on error: %v", job.Region, crawlErr)
	}
	flushErr := buffer.DrainAndFlush()
	if flushErr != nil {
		utils.Error("Final flush for %s failed: %v", job.Region, flushErr)
	}

	result.Pages = pages
	result.Records = buffer.Flushed()
	result.Batches = buffer.Batches()
	result.Err = errors.Join(crawlErr, flushErr)
	return result
}

func (r *Runner) crawl(job models.ScrapeJob, session *Session, collector *Collector, stop *StopSignal) (pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic after %d pages: %v", pages, rec)
		}
	}()

	pageCount := job.Pages
	if pageCount <= 0 {
		pageCount = r.cfg.MaxPages
	}

	current := job.URL
	if err := session.Load(current); err != nil {
		return 0, err
	}

	for page := 1; page <= pageCount; page++ {
		if stop.Stopped() {
			utils.Info("Stop requested, ending %s after %d pages", job.Region, pages)
			return pages, nil
		}

		utils.Info("Page %d/%d: %s", page, pageCount, current)
		session.ScrollToBottom()
		if err := collector.CollectPage(stop); err != nil {
			return pages, fmt.Errorf("page %d: %w", page, err)
		}
		pages++

		if page == pageCount || stop.Stopped() {
			continue
		}

		utils.RandomDelay(r.sleeper, r.jitter, r.cfg.PageMinDelay, r.cfg.PageMaxDelay)
		current = NextPageURL(job.URL, current)
		utils.Info("Next page: %s", current)
		if err := session.Load(current); err != nil {
			return pages, err
		}
	}
	return pages, nil
}
