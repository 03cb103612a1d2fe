package avito

import (
	"errors"
	"fmt"
	"strconv"

	"avito-scraper/models"
	"avito-scraper/scraper/browser"
	"avito-scraper/utils"
)

// Collector walks the ads of the currently loaded list page, enriches each one
// from its detail page and appends it to the run's buffer.
type Collector struct {
	session *Session
	buffer  *Buffer
}

func NewCollector(session *Session, buffer *Buffer) *Collector {
	return &Collector{session: session, buffer: buffer}
}

// CollectPage processes every ad on the current list page. An empty page is not
// an error. The stop signal is checked before the page and before each ad.
func (c *Collector) CollectPage(stop *StopSignal) error {
	if stop.Stopped() {
		utils.Info("Stop requested, page skipped")
		return nil
	}

	listURL, err := c.session.CurrentURL()
	if err != nil {
		return fmt.Errorf("read list url: %w", err)
	}

	ads, err := c.session.Ads()
	if err != nil {
		return fmt.Errorf("find ads on %s: %w", listURL, err)
	}
	if len(ads) == 0 {
		utils.Info("No ads found on %s", listURL)
		return nil
	}
	utils.Info("Found %d ads", len(ads))

	for i := 0; i < len(ads); i++ {
		if stop.Stopped() {
			utils.Info("Stop requested after %d of %d ads", i, len(ads))
			return nil
		}
		c.collectAd(i, listURL)
		c.returnToList(listURL)
	}
	return nil
}

func (c *Collector) collectAd(i int, listURL string) {
	cfg := c.session.cfg

	var listing models.Listing
	policy := utils.RetryPolicy{
		MaxAttempts: cfg.StaleAttempts,
		Backoff:     utils.ConstantBackoff(cfg.StaleRetryDelay),
		Sleeper:     c.session.sleeper,
	}
	err := policy.Do(func(attempt int) error {
		l, err := c.extractAd(i, listURL)
		if err != nil {
			if errors.Is(err, browser.ErrStale) {
				utils.Debug("Ad %d went stale (attempt %d/%d): %v", i, attempt, cfg.StaleAttempts, err)
				return err
			}
			return utils.Permanent(err)
		}
		listing = l
		return nil
	})
	if err != nil {
		if errors.Is(err, utils.ErrRetriesExhausted) {
			utils.Warn("Ad %d skipped: %v", i, err)
		} else {
			utils.Debug("Ad %d skipped: %v", i, err)
		}
		return
	}

	detail := c.session.FetchDetail(listing.URL)
	listing.PublishDate = detail.PublishDate
	listing.Address = detail.Address

	if err := c.buffer.Append(listing); err != nil {
		utils.Error("Flush failed: %v", err)
	}
	utils.Info("Added ad [%d/%d]", c.buffer.Len(), cfg.FlushThreshold)
}

// extractAd re-resolves the ad list and reads ad i from the fresh set, so a
// retry after a stale fault never reuses an old handle.
func (c *Collector) extractAd(i int, listURL string) (models.Listing, error) {
	sel := c.session.sel

	ads, err := c.session.Ads()
	if err != nil {
		return models.Listing{}, err
	}
	if i >= len(ads) {
		return models.Listing{}, fmt.Errorf("ad %d of %d: %w", i, len(ads), browser.ErrNotFound)
	}
	ad := ads[i]

	title, err := childText(ad, sel.Name)
	if err != nil {
		return models.Listing{}, fmt.Errorf("title: %w", err)
	}

	description, err := c.description(ad)
	if err != nil {
		return models.Listing{}, fmt.Errorf("description: %w", err)
	}

	href, err := childAttr(ad, sel.URL, sel.URLAttr)
	if err != nil {
		return models.Listing{}, fmt.Errorf("url: %w", err)
	}
	if href == "" {
		return models.Listing{}, ErrMissingURL
	}

	price, err := childAttr(ad, sel.Price, sel.PriceAttr)
	if err != nil {
		return models.Listing{}, fmt.Errorf("price: %w", err)
	}
	if _, err := strconv.Atoi(price); err != nil {
		return models.Listing{}, fmt.Errorf("%w: %q", ErrInvalidPrice, price)
	}

	area := ExtractArea(title)
	if area == "" {
		area = ExtractArea(description)
	}

	return models.Listing{
		Title: title,
		Price: price,
		Area:  area,
		URL:   resolveURL(listURL, href),
	}, nil
}

// description is optional. Only a stale lookup is reported; read errors give "".
func (c *Collector) description(ad browser.Element) (string, error) {
	nodes, err := ad.FindChildren(c.session.sel.Description)
	if err != nil {
		if errors.Is(err, browser.ErrStale) {
			return "", err
		}
		utils.Debug("Could not look up description: %v", err)
		return "", nil
	}
	if len(nodes) == 0 {
		return "", nil
	}
	text, err := nodes[0].Text()
	if err != nil {
		utils.Debug("Could not read description: %v", err)
		return "", nil
	}
	return text, nil
}

func (c *Collector) returnToList(listURL string) {
	if err := c.session.Open(listURL); err != nil {
		utils.Warn("Could not return to %s: %v", listURL, err)
	} else if err := c.session.AwaitUnblocked(listURL, 0); err != nil {
		utils.Warn("List page %s: %v", listURL, err)
	}
	c.session.sleeper.Sleep(c.session.cfg.ReturnDelay)
}
