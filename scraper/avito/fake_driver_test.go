package avito

import (
	"time"

	"avito-scraper/config"
	"avito-scraper/scraper/browser"
	"avito-scraper/storage"
)

// fakePage is what the fake browser shows for one URL.
type fakePage struct {
	// titles[n] is shown after the (n+1)th open of the URL; the last one repeats.
	titles   []string
	ads      []*fakeElement
	elements map[string][]*fakeElement
	waitErrs []error
	findErr  error
}

type fakeDriver struct {
	sel      Selectors
	pages    map[string]*fakePage
	openErrs map[string][]error
	onOpen   func(url string)

	current string
	opens   []string
	opened  map[string]int
	scripts int
	closed  bool
}

func newFakeDriver(pages map[string]*fakePage) *fakeDriver {
	return &fakeDriver{
		sel:      DefaultSelectors(),
		pages:    pages,
		openErrs: map[string][]error{},
		opened:   map[string]int{},
	}
}

func (d *fakeDriver) Open(url string) error {
	d.opens = append(d.opens, url)
	if d.onOpen != nil {
		d.onOpen(url)
	}
	if errs := d.openErrs[url]; len(errs) > 0 {
		d.openErrs[url] = errs[1:]
		return errs[0]
	}
	d.current = url
	d.opened[url]++
	return nil
}

func (d *fakeDriver) page() *fakePage {
	if p, ok := d.pages[d.current]; ok {
		return p
	}
	return &fakePage{}
}

func (d *fakeDriver) Title() (string, error) {
	p := d.page()
	if len(p.titles) == 0 {
		return "Квартиры на Авито", nil
	}
	n := d.opened[d.current] - 1
	if n >= len(p.titles) {
		n = len(p.titles) - 1
	}
	if n < 0 {
		n = 0
	}
	return p.titles[n], nil
}

func (d *fakeDriver) CurrentURL() (string, error) {
	return d.current, nil
}

func (d *fakeDriver) FindAll(selector string) ([]browser.Element, error) {
	p := d.page()
	if selector == d.sel.Ad {
		if p.findErr != nil {
			return nil, p.findErr
		}
		return toElements(p.ads), nil
	}
	return toElements(p.elements[selector]), nil
}

func (d *fakeDriver) WaitForSelector(string, time.Duration) error {
	p := d.page()
	if len(p.waitErrs) > 0 {
		err := p.waitErrs[0]
		p.waitErrs = p.waitErrs[1:]
		return err
	}
	return nil
}

func (d *fakeDriver) ExecuteScript(string) error {
	d.scripts++
	return nil
}

func (d *fakeDriver) Close() { d.closed = true }

type fakeElement struct {
	text     string
	attrs    map[string]string
	children map[string][]*fakeElement
	// stale makes the next *stale child lookups fail with ErrStale.
	stale *int
}

func toElements(in []*fakeElement) []browser.Element {
	out := make([]browser.Element, 0, len(in))
	for _, e := range in {
		out = append(out, e)
	}
	return out
}

func (e *fakeElement) FindChildren(selector string) ([]browser.Element, error) {
	if e.stale != nil && *e.stale > 0 {
		*e.stale--
		return nil, browser.ErrStale
	}
	return toElements(e.children[selector]), nil
}

func (e *fakeElement) FindChild(selector string) (browser.Element, error) {
	children, err := e.FindChildren(selector)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, browser.ErrNotFound
	}
	return children[0], nil
}

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) (string, error) { return e.attrs[name], nil }

func adCard(title, price, href, description string) *fakeElement {
	sel := DefaultSelectors()
	children := map[string][]*fakeElement{
		sel.Name:  {{text: title}},
		sel.URL:   {{attrs: map[string]string{sel.URLAttr: href}}},
		sel.Price: {{attrs: map[string]string{sel.PriceAttr: price}}},
	}
	if description != "" {
		children[sel.Description] = []*fakeElement{{text: description}}
	}
	return &fakeElement{children: children}
}

func detailPage(date, address string) *fakePage {
	sel := DefaultSelectors()
	return &fakePage{elements: map[string][]*fakeElement{
		sel.PublishDate: {{text: date}},
		sel.Address:     {{text: address}},
	}}
}

type recordingSleeper struct {
	sleeps []time.Duration
}

func (r *recordingSleeper) Sleep(d time.Duration) { r.sleeps = append(r.sleeps, d) }

func (r *recordingSleeper) count(d time.Duration) int {
	n := 0
	for _, s := range r.sleeps {
		if s == d {
			n++
		}
	}
	return n
}

func minJitter(min, _ time.Duration) time.Duration { return min }

type memoryWriter struct {
	batches []storage.Batch
	err     error
}

func (m *memoryWriter) WriteBatch(b storage.Batch) error {
	m.batches = append(m.batches, b)
	return m.err
}

func (m *memoryWriter) total() int {
	n := 0
	for _, b := range m.batches {
		n += b.Len()
	}
	return n
}

// testConfig keeps production timings but caps every retry loop.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.MaxPages = 1
	cfg.MaxLoadAttempts = 3
	cfg.MaxBlockWaits = 5
	return cfg
}
