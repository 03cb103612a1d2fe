package avito

// Selectors is the page-structure contract with avito.ru. The markup changes
// without notice, so every lookup goes through this struct.
type Selectors struct {
	Ad          string
	Name        string
	Description string
	URL         string
	Price       string
	Address     string
	PublishDate string

	PriceAttr string
	URLAttr   string

	// BlockedTitle is the page title of the soft-block ("access restricted") page.
	BlockedTitle string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Ad:           "div[itemtype*='http://schema.org/Product']",
		Name:         "[itemprop='name']",
		Description:  "p[style='--module-max-lines-size:4']",
		URL:          "[itemprop='url']",
		Price:        "[itemprop='price']",
		Address:      "div[class*='style-item-address']",
		PublishDate:  "[data-marker='item-view/item-date']",
		PriceAttr:    "content",
		URLAttr:      "href",
		BlockedTitle: "Доступ ограничен",
	}
}
