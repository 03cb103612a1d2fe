package avito

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avito-scraper/config"
	"avito-scraper/models"
	"avito-scraper/scraper/browser"
)

var flushClock = time.Date(2024, 1, 10, 12, 30, 0, 0, time.UTC)

type runnerFixture struct {
	cfg     *config.Config
	driver  *fakeDriver
	sleeper *recordingSleeper
	writer  *memoryWriter
	runner  *Runner
}

func newRunnerFixture(pages int) *runnerFixture {
	cfg := testConfig()
	cfg.MaxPages = pages
	d := newFakeDriver(map[string]*fakePage{
		listURL:          {ads: []*fakeElement{adCard("Квартира, 45 м²", "3500000", "https://x/1", "")}},
		listURL + "?p=2": {ads: []*fakeElement{adCard("Студия", "2100000", "https://x/2", "30 кв.м")}},
		"https://x/1":    detailPage("10 января", "ул. Ленина"),
		"https://x/2":    detailPage("12 января", "ул. Мира"),
	})
	f := &runnerFixture{cfg: cfg, driver: d, sleeper: &recordingSleeper{}, writer: &memoryWriter{}}
	f.runner = NewRunner(cfg,
		func() (browser.Driver, error) { return d, nil },
		f.writer,
		WithSleeper(f.sleeper),
		WithJitter(minJitter),
		WithClock(func() time.Time { return flushClock }),
	)
	return f
}

func (f *runnerFixture) job() models.ScrapeJob {
	return models.ScrapeJob{Region: "adygeya", URL: listURL, Pages: f.cfg.MaxPages}
}

func TestRunner_Run(t *testing.T) {
	f := newRunnerFixture(2)

	result := f.runner.Run(f.job(), nil)

	require.NoError(t, result.Err)
	assert.Equal(t, models.RunResult{Region: "adygeya", Pages: 2, Records: 2, Batches: 1}, result)
	require.Len(t, f.writer.batches, 1)
	assert.Equal(t, flushClock, f.writer.batches[0].CreatedAt)
	assert.Equal(t, "30", f.writer.batches[0].Listings[1].Area)

	assert.Contains(t, f.driver.opens, listURL+"?p=2")
	assert.NotContains(t, f.driver.opens, listURL+"?p=3", "no navigation after the last page")
	assert.Equal(t, 2, f.driver.scripts)
	assert.True(t, f.driver.closed)
}

func TestRunner_StopMidRunFlushesOnce(t *testing.T) {
	f := newRunnerFixture(2)
	stop := NewStopSignal()
	f.driver.onOpen = func(url string) {
		if url == "https://x/1" {
			stop.Stop()
		}
	}

	result := f.runner.Run(f.job(), stop)

	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 1, result.Records)
	require.Len(t, f.writer.batches, 1)
	assert.Equal(t, 1, f.writer.batches[0].Len())
	assert.NotContains(t, f.driver.opens, listURL+"?p=2")
	assert.True(t, f.driver.closed)
}

func TestRunner_FatalErrorStillFlushes(t *testing.T) {
	f := newRunnerFixture(2)
	f.driver.onOpen = func(url string) {
		if url == "https://x/2" {
			panic("renderer crashed")
		}
	}

	result := f.runner.Run(f.job(), nil)

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "renderer crashed")
	assert.Equal(t, 1, result.Records)
	require.Len(t, f.writer.batches, 1)
	assert.Equal(t, "https://x/1", f.writer.batches[0].Listings[0].URL)
	assert.True(t, f.driver.closed)
}

func TestRunner_PageErrorEndsRun(t *testing.T) {
	f := newRunnerFixture(2)
	errCDP := errors.New("cdp: connection lost")
	f.driver.pages[listURL+"?p=2"].findErr = errCDP

	result := f.runner.Run(f.job(), nil)

	assert.ErrorIs(t, result.Err, errCDP)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 1, result.Records)
	assert.True(t, f.driver.closed)
}

func TestRunner_InitialLoadFails(t *testing.T) {
	f := newRunnerFixture(1)
	f.driver.pages[listURL].waitErrs = []error{browser.ErrTimeout, browser.ErrTimeout, browser.ErrTimeout}

	result := f.runner.Run(f.job(), nil)

	assert.ErrorIs(t, result.Err, browser.ErrTimeout)
	assert.Zero(t, result.Pages)
	assert.Empty(t, f.writer.batches)
	assert.True(t, f.driver.closed)
}

func TestRunner_DriverFactoryError(t *testing.T) {
	w := &memoryWriter{}
	r := NewRunner(testConfig(),
		func() (browser.Driver, error) { return nil, errors.New("chrome not found") },
		w,
	)

	result := r.Run(models.ScrapeJob{Region: "adygeya", URL: listURL, Pages: 1}, nil)

	assert.ErrorContains(t, result.Err, "chrome not found")
	assert.Empty(t, w.batches)
}

func TestRunRegions(t *testing.T) {
	cfg := testConfig()
	cfg.Regions = []string{"kalmykiya", "adygeya"}
	cfg.BaseURLTemplate = "https://www.avito.ru/%s/kvartiry/prodam"
	jobs := Jobs(cfg)
	require.Len(t, jobs, 2)
	assert.Equal(t, "https://www.avito.ru/kalmykiya/kvartiry/prodam", jobs[0].URL)
	assert.Equal(t, listURL, jobs[1].URL)

	f := newRunnerFixture(1)
	calls := 0
	f.runner.newDriver = func() (browser.Driver, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("chrome not found")
		}
		return f.driver, nil
	}

	results := RunRegions(f.runner, jobs, nil)

	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.Equal(t, "kalmykiya", results[0].Region)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, 1, results[1].Records)
}

func TestRunRegions_StopSkipsRemaining(t *testing.T) {
	f := newRunnerFixture(1)
	stop := NewStopSignal()
	stop.Stop()

	results := RunRegions(f.runner, []models.ScrapeJob{f.job(), f.job()}, stop)

	assert.Empty(t, results)
	assert.Empty(t, f.driver.opens)
}
