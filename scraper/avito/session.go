package avito

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"avito-scraper/config"
	"avito-scraper/models"
	"avito-scraper/scraper/browser"
	"avito-scraper/utils"
)

const scrollScript = `window.scrollTo(0, document.body.scrollHeight);`

// Session is the crawler's view of one browser tab.
type Session struct {
	driver  browser.Driver
	cfg     *config.Config
	sel     Selectors
	sleeper utils.Sleeper
	jitter  utils.JitterFunc
}

func NewSession(driver browser.Driver, cfg *config.Config, sel Selectors, sleeper utils.Sleeper, jitter utils.JitterFunc) *Session {
	if sleeper == nil {
		sleeper = utils.RealSleeper
	}
	if jitter == nil {
		jitter = utils.Jitter
	}
	return &Session{
		driver:  driver,
		cfg:     cfg,
		sel:     sel,
		sleeper: sleeper,
		jitter:  jitter,
	}
}

// Load opens a list page and blocks until ads are present. Soft blocks are
// waited out; navigation errors and missing ads are retried after LoadRetryDelay.
// Both loops are unbounded unless MaxBlockWaits / MaxLoadAttempts are set.
func (s *Session) Load(url string) error {
	utils.Info("Opening %s", url)

	policy := utils.RetryPolicy{
		MaxAttempts: s.cfg.MaxLoadAttempts,
		Backoff:     utils.ConstantBackoff(s.cfg.LoadRetryDelay),
		Sleeper:     s.sleeper,
	}
	err := policy.Do(func(attempt int) error {
		if err := s.driver.Open(url); err != nil {
			utils.Error("Could not open %s (attempt %d): %v", url, attempt, err)
			return err
		}

		if err := s.AwaitUnblocked(url, 0); err != nil {
			if errors.Is(err, utils.ErrRetriesExhausted) {
				return utils.Permanent(err)
			}
			utils.Error("Could not check %s for a block page: %v", url, err)
			return err
		}

		if err := s.driver.WaitForSelector(s.sel.Ad, s.cfg.WaitTimeout); err != nil {
			if errors.Is(err, browser.ErrTimeout) {
				utils.Error("Ads did not appear on %s within %v", url, s.cfg.WaitTimeout)
			} else {
				utils.Error("Waiting for ads on %s failed: %v", url, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", url, err)
	}

	utils.Success("Page loaded")
	return nil
}

// AwaitUnblocked returns once the current page is not the soft-block page.
// While it is, it pauses a random BlockMinDelay..BlockMaxDelay, reopens url
// and, if settle is positive, pauses settle before looking again.
func (s *Session) AwaitUnblocked(url string, settle time.Duration) error {
	for waits := 0; ; waits++ {
		title, err := s.driver.Title()
		if err != nil {
			return fmt.Errorf("read title: %w", err)
		}
		if !strings.Contains(title, s.sel.BlockedTitle) {
			return nil
		}

		if s.cfg.MaxBlockWaits > 0 && waits >= s.cfg.MaxBlockWaits {
			return fmt.Errorf("%w: %s still blocked after %d waits", utils.ErrRetriesExhausted, url, waits)
		}

		pause := s.jitter(s.cfg.BlockMinDelay, s.cfg.BlockMaxDelay)
		utils.Warn("Access restricted on %s, pausing %v", url, pause)
		s.sleeper.Sleep(pause)

		if err := s.driver.Open(url); err != nil {
			return fmt.Errorf("reopen %s: %w", url, err)
		}
		if settle > 0 {
			s.sleeper.Sleep(settle)
		}
	}
}

// FetchDetail reads the publish date and address from an ad's own page.
// It never fails: any error yields an empty Detail.
func (s *Session) FetchDetail(url string) models.Detail {
	if err := s.driver.Open(url); err != nil {
		utils.Debug("Detail page %s failed to open: %v", url, err)
		return models.Detail{}
	}
	s.sleeper.Sleep(s.cfg.DetailSettle)

	if err := s.AwaitUnblocked(url, s.cfg.DetailSettle); err != nil {
		utils.Debug("Detail page %s: %v", url, err)
		return models.Detail{}
	}

	date, err := s.firstText(s.sel.PublishDate)
	if err != nil {
		utils.Debug("Detail page %s: publish date: %v", url, err)
		return models.Detail{}
	}
	address, err := s.firstText(s.sel.Address)
	if err != nil {
		utils.Debug("Detail page %s: address: %v", url, err)
		return models.Detail{}
	}

	return models.Detail{PublishDate: date, Address: address}
}

func (s *Session) firstText(selector string) (string, error) {
	elements, err := s.driver.FindAll(selector)
	if err != nil {
		return "", err
	}
	if len(elements) == 0 {
		return "", nil
	}
	text, err := elements[0].Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (s *Session) Open(url string) error {
	return s.driver.Open(url)
}

func (s *Session) CurrentURL() (string, error) {
	return s.driver.CurrentURL()
}

func (s *Session) Ads() ([]browser.Element, error) {
	return s.driver.FindAll(s.sel.Ad)
}

// ScrollToBottom triggers lazy-loaded cards. Failures are ignored.
func (s *Session) ScrollToBottom() {
	if err := s.driver.ExecuteScript(scrollScript); err != nil {
		utils.Debug("Could not scroll page, continuing: %v", err)
		return
	}
	s.sleeper.Sleep(s.cfg.ScrollSettle)
}
