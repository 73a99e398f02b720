package catalog

import (
	"time"

	"github.com/google/uuid"
)

// FabricCategories is the closed vocabulary of coarse fabric buckets.
var FabricCategories = []string{
	"net",
	"jimmycho",
	"satin",
	"velvet",
	"jorjet",
	"vichitra",
	"fandy-satin",
}

// WorkCategories is the closed vocabulary of embellishment styles.
var WorkCategories = []string{
	"Gliter-dori",
	"sequence",
	"gliter dori with diamond",
	"gliterdori with jarkan",
	"multi sequence work",
	"sequence with bids",
	"sequence with gliter dori",
}

// Product is a catalog entry. Fabric, Work, Colour and StitchType are
// product-sheet strings and need not agree with the category buckets.
type Product struct {
	ID                  uuid.UUID `json:"id"`
	Heading             string    `json:"heading"`
	Price               int       `json:"price"`
	Discount            int       `json:"discount"`
	FinalPrice          *int      `json:"final_price"`
	FabricCategory      string    `json:"fabric_category"`
	WorkCategory        string    `json:"work_category"`
	Measurement         string    `json:"measurement"`
	Fabric              string    `json:"fabric"`
	Work                string    `json:"work"`
	Colour              string    `json:"colour"`
	StitchType          string    `json:"stitch_type"`
	CareGuide           string    `json:"care_guide"`
	NoOfPieces          *int      `json:"no_of_pieces"`
	AvailableColoursHex []string  `json:"available_colours_hex"`
	Trending            bool      `json:"trending"`
	IsHidden            bool      `json:"is_hidden"`
	ImageURL            string    `json:"image_url"`
	ImagePublicID       string    `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// DisplayPrice returns the price shown to visitors.
func (p Product) DisplayPrice() int {
	if p.FinalPrice != nil {
		return *p.FinalPrice
	}
	return DerivePrice(p.Price, p.Discount)
}

// DerivePrice applies a percent discount and rounds half up to the nearest
// integer.
func DerivePrice(price, discount int) int {
	if price <= 0 {
		return 0
	}
	if discount <= 0 {
		return price
	}
	if discount >= 100 {
		return 0
	}
	return (price*(100-discount) + 50) / 100
}

// Summary is the public listing projection of a product.
type Summary struct {
	ID         uuid.UUID `json:"id"`
	Heading    string    `json:"heading"`
	Price      int       `json:"price"`
	Discount   int       `json:"discount"`
	FinalPrice *int      `json:"final_price"`
	Fabric     string    `json:"fabric"`
	Work       string    `json:"work"`
	Colour     string    `json:"colour"`
	StitchType string    `json:"stitch_type"`
	ImageURL   string    `json:"image_url"`
	Trending   bool      `json:"trending"`
}

// Summarize projects p onto the listing fields.
func (p Product) Summarize() Summary {
	return Summary{
		ID:         p.ID,
		Heading:    p.Heading,
		Price:      p.Price,
		Discount:   p.Discount,
		FinalPrice: p.FinalPrice,
		Fabric:     p.Fabric,
		Work:       p.Work,
		Colour:     p.Colour,
		StitchType: p.StitchType,
		ImageURL:   p.ImageURL,
		Trending:   p.Trending,
	}
}

// IsFabricCategory reports whether v belongs to FabricCategories.
func IsFabricCategory(v string) bool {
	return contains(FabricCategories, v)
}

// IsWorkCategory reports whether v belongs to WorkCategories.
func IsWorkCategory(v string) bool {
	return contains(WorkCategories, v)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
