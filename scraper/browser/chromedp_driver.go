package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"avito-scraper/utils"
)

type ChromeOptions struct {
	Headless          bool
	BlockImages       bool
	NavigationTimeout time.Duration
	ElementTimeout    time.Duration
}

// ChromeDriver drives a single tab of a locally launched Chrome.
type ChromeDriver struct {
	opts        ChromeOptions
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
}

func NewChromeDriver(opts ChromeOptions) (*ChromeDriver, error) {
	utils.Info("Launching Chrome browser...")
	allocCtx, allocCancel := chromedp.NewExecAllocator(
		context.Background(),
		utils.StealthOpts(opts.Headless, opts.BlockImages)...,
	)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// the first Run starts the browser process
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("could not start chrome: %w", err)
	}

	utils.Success("Browser ready")
	return &ChromeDriver{
		opts:        opts,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}, nil
}

func (d *ChromeDriver) Close() {
	utils.Info("Closing browser...")
	d.tabCancel()
	d.allocCancel()
}

func (d *ChromeDriver) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(d.tabCtx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (d *ChromeDriver) Open(url string) error {
	err := d.run(d.opts.NavigationTimeout,
		chromedp.Navigate(url),
		utils.HideWebDriver(),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, classifyPageErr(err))
	}
	return nil
}

func (d *ChromeDriver) Title() (string, error) {
	var title string
	if err := d.run(d.opts.ElementTimeout, chromedp.Title(&title)); err != nil {
		return "", classifyPageErr(err)
	}
	return title, nil
}

func (d *ChromeDriver) CurrentURL() (string, error) {
	var location string
	if err := d.run(d.opts.ElementTimeout, chromedp.Location(&location)); err != nil {
		return "", classifyPageErr(err)
	}
	return location, nil
}

func (d *ChromeDriver) FindAll(selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := d.run(d.opts.ElementTimeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, classifyPageErr(err)
	}
	return d.wrap(nodes), nil
}

func (d *ChromeDriver) WaitForSelector(selector string, timeout time.Duration) error {
	if err := d.run(timeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, classifyPageErr(err))
	}
	return nil
}

func (d *ChromeDriver) ExecuteScript(code string) error {
	if err := d.run(d.opts.ElementTimeout, chromedp.Evaluate(code, nil)); err != nil {
		return classifyPageErr(err)
	}
	return nil
}

func (d *ChromeDriver) wrap(nodes []*cdp.Node) []Element {
	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &chromeElement{driver: d, node: n})
	}
	return elements
}

type chromeElement struct {
	driver *ChromeDriver
	node   *cdp.Node
}

func (e *chromeElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *chromeElement) FindChildren(selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := e.driver.run(e.driver.opts.ElementTimeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.FromNode(e.node), chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, classifyElementErr(err)
	}
	return e.driver.wrap(nodes), nil
}

func (e *chromeElement) FindChild(selector string) (Element, error) {
	children, err := e.FindChildren(selector)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("%q: %w", selector, ErrNotFound)
	}
	return children[0], nil
}

func (e *chromeElement) Text() (string, error) {
	var text string
	err := e.driver.run(e.driver.opts.ElementTimeout,
		chromedp.JavascriptAttribute(e.ids(), "innerText", &text, chromedp.ByNodeID),
	)
	if err != nil {
		return "", classifyElementErr(err)
	}
	return text, nil
}

func (e *chromeElement) Attribute(name string) (string, error) {
	var (
		value string
		ok    bool
	)
	err := e.driver.run(e.driver.opts.ElementTimeout,
		chromedp.AttributeValue(e.ids(), name, &value, &ok, chromedp.ByNodeID),
	)
	if err != nil {
		return "", classifyElementErr(err)
	}
	if !ok {
		return "", nil
	}
	return value, nil
}

// CDP messages that mean the node behind a handle is gone.
var staleMarkers = []string{
	"No node with given id",
	"Could not find node",
	"Node is detached",
	"Cannot find context with specified id",
}

func isStaleMessage(err error) bool {
	msg := err.Error()
	for _, m := range staleMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func classifyPageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case isStaleMessage(err):
		return fmt.Errorf("%w: %v", ErrStale, err)
	default:
		return err
	}
}

// A handle-based query that never resolves means the node went away.
func classifyElementErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), isStaleMessage(err):
		return fmt.Errorf("%w: %v", ErrStale, err)
	default:
		return err
	}
}
