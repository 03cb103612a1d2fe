// Package browser hides the browser automation library behind the small
// surface the Avito crawler needs: navigation, title and URL reads,
// element lookup and waiting.
package browser

import (
	"errors"
	"time"
)

var (
	// ErrStale means an element handle no longer points at a live DOM node.
	ErrStale = errors.New("stale element")
	// ErrTimeout means a navigation or wait ran out of time.
	ErrTimeout = errors.New("timed out")
	// ErrNotFound means a child lookup matched nothing.
	ErrNotFound = errors.New("element not found")
)

// Driver is one browser tab. It is not safe for concurrent use.
type Driver interface {
	Open(url string) error
	Title() (string, error)
	CurrentURL() (string, error)
	FindAll(selector string) ([]Element, error)
	WaitForSelector(selector string, timeout time.Duration) error
	ExecuteScript(code string) error
	Close()
}

// Element is a handle to a DOM node found through a Driver. Any method may
// return ErrStale once the page has navigated away or re-rendered.
type Element interface {
	FindChild(selector string) (Element, error)
	FindChildren(selector string) ([]Element, error)
	Text() (string, error)
	Attribute(name string) (string, error)
}
