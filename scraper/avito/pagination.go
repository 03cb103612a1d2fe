package avito

import (
	"fmt"
	"net/url"
	"strconv"

	"avito-scraper/utils"
)

// NextPageURL returns {baseURL}?p={k+1}, where k is the p parameter of currentURL
// (1 when missing or not a number). Other query parameters are dropped. When
// currentURL cannot be parsed it is returned unchanged and the caller reloads the same page.
func NextPageURL(baseURL, currentURL string) string {
	u, err := url.Parse(currentURL)
	if err != nil {
		utils.Error("Could not build next page url from %s: %v", currentURL, err)
		return currentURL
	}
	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		utils.Error("Could not build next page url from %s: %v", currentURL, err)
		return currentURL
	}

	page := 1
	if p, err := strconv.Atoi(query.Get("p")); err == nil {
		page = p
	}
	return fmt.Sprintf("%s?p=%d", baseURL, page+1)
}

// resolveURL makes a relative href absolute against the page it was found on.
func resolveURL(pageURL, href string) string {
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		return href
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
