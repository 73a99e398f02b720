// Package storefront serves the public HTML pages.
package storefront

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ronak-creation/storefront/internal/catalog"
)

// Option is a labelled filter or sort choice.
type Option struct {
	Label string
	Value string
}

// PriceBuckets are the price ranges offered by the filter sidebar.
var PriceBuckets = []Option{
	{Label: "500–1000", Value: "500-1000"},
	{Label: "1000–1500", Value: "1000-1500"},
	{Label: "1500–2000", Value: "1500-2000"},
	{Label: "2000–3500", Value: "2000-3500"},
}

// SortOptions are the orderings offered to visitors.
var SortOptions = []Option{
	{Label: "Trending first", Value: string(catalog.SortTrending)},
	{Label: "Price: Low to High", Value: string(catalog.SortPriceAsc)},
	{Label: "Price: High to Low", Value: string(catalog.SortPriceDesc)},
	{Label: "Newest", Value: string(catalog.SortNewest)},
}

// Filters is the sidebar view model.
type Filters struct {
	Params           catalog.Params
	PriceBuckets     []Option
	SortOptions      []Option
	FabricCategories []string
	WorkCategories   []string
	Action           string
}

func newFilters(action string, p catalog.Params) Filters {
	return Filters{
		Params:           p,
		PriceBuckets:     PriceBuckets,
		SortOptions:      SortOptions,
		FabricCategories: catalog.FabricCategories,
		WorkCategories:   catalog.WorkCategories,
		Action:           action,
	}
}

// WhatsAppLink builds the enquiry link shown on a product page.
func WhatsAppLink(number string, p catalog.Product) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	msg := "Hello, I'm interested in the product \"" + p.Heading + "\" priced at ₹" +
		strconv.Itoa(p.DisplayPrice()) + ". Please provide more details."
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
}
