package avito

import (
	"errors"
	"regexp"
	"strings"

	"avito-scraper/scraper/browser"
)

var (
	ErrInvalidPrice = errors.New("price is not an integer")
	ErrMissingURL   = errors.New("ad has no url")
)

var areaPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(м²|кв\.?м|квадратных метров)`)

// ExtractArea returns the first number followed by a square-metre unit, as written
// ("45", "30,5"), or "" when the text has none.
func ExtractArea(text string) string {
	m := areaPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

func childText(el browser.Element, selector string) (string, error) {
	child, err := el.FindChild(selector)
	if err != nil {
		return "", err
	}
	text, err := child.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func childAttr(el browser.Element, selector, name string) (string, error) {
	child, err := el.FindChild(selector)
	if err != nil {
		return "", err
	}
	value, err := child.Attribute(name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}
