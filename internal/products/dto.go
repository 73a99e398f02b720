// Package products implements the admin product management pages.
package products

import (
	"io"
	"strconv"
	"strings"

	"github.com/ronak-creation/storefront/internal/catalog"
	"github.com/ronak-creation/storefront/internal/shared"
)

// Input is a validated product write.
type Input struct {
	Heading             string   `validate:"required,max=200"`
	Price               int      `validate:"gte=0"`
	Discount            int      `validate:"gte=0,lte=100"`
	FinalPrice          *int     `validate:"omitempty,gte=0"`
	FabricCategory      string   `validate:"required,fabric_category"`
	WorkCategory        string   `validate:"required,work_category"`
	Measurement         string   `validate:"max=500"`
	Fabric              string   `validate:"max=200"`
	Work                string   `validate:"max=200"`
	Colour              string   `validate:"max=200"`
	StitchType          string   `validate:"max=200"`
	CareGuide           string   `validate:"max=2000"`
	NoOfPieces          *int     `validate:"omitempty,gte=1,lte=10"`
	AvailableColoursHex []string `validate:"max=20,dive,hex6"`
	Trending            bool
	IsHidden            bool
}

// Image is an uploaded product photo.
type Image struct {
	Reader   io.Reader
	Filename string
}

func (i Image) close() {
	if c, ok := i.Reader.(io.Closer); ok {
		_ = c.Close()
	}
}

// Form mirrors the HTML form: every value as typed by the admin.
type Form struct {
	Heading        string
	Price          string
	Discount       string
	FinalPrice     string
	FabricCategory string
	WorkCategory   string
	Measurement    string
	Fabric         string
	Work           string
	Colour         string
	StitchType     string
	CareGuide      string
	NoOfPieces     string
	Colours        string
	Trending       bool
	IsHidden       bool
}

// FormValues is satisfied by *http.Request.
type FormValues interface {
	PostFormValue(key string) string
}

// FormFromRequest reads the product form fields.
func FormFromRequest(r FormValues) Form {
	get := func(k string) string { return strings.TrimSpace(r.PostFormValue(k)) }
	return Form{
		Heading:        get("heading"),
		Price:          get("price"),
		Discount:       get("discount"),
		FinalPrice:     get("final_price"),
		FabricCategory: get("fabric_category"),
		WorkCategory:   get("work_category"),
		Measurement:    get("measurement"),
		Fabric:         get("fabric"),
		Work:           get("work"),
		Colour:         get("colour"),
		StitchType:     get("stitch_type"),
		CareGuide:      get("care_guide"),
		NoOfPieces:     get("no_of_pieces"),
		Colours:        get("available_colours_hex"),
		Trending:       r.PostFormValue("trending") == "on",
		IsHidden:       r.PostFormValue("is_hidden") == "on",
	}
}

// FormFromProduct prefills the edit form.
func FormFromProduct(p catalog.Product) Form {
	f := Form{
		Heading:        p.Heading,
		Price:          strconv.Itoa(p.Price),
		Discount:       strconv.Itoa(p.Discount),
		FabricCategory: p.FabricCategory,
		WorkCategory:   p.WorkCategory,
		Measurement:    p.Measurement,
		Fabric:         p.Fabric,
		Work:           p.Work,
		Colour:         p.Colour,
		StitchType:     p.StitchType,
		CareGuide:      p.CareGuide,
		Colours:        strings.Join(p.AvailableColoursHex, ", "),
		Trending:       p.Trending,
		IsHidden:       p.IsHidden,
	}
	if p.FinalPrice != nil {
		f.FinalPrice = strconv.Itoa(*p.FinalPrice)
	}
	if p.NoOfPieces != nil {
		f.NoOfPieces = strconv.Itoa(*p.NoOfPieces)
	}
	return f
}

// Input converts the typed values. Number parse failures are reported as
// field errors; range checks happen in the service.
func (f Form) Input() (Input, shared.FieldErrors) {
	errs := shared.FieldErrors{}
	in := Input{
		Heading:             f.Heading,
		FabricCategory:      f.FabricCategory,
		WorkCategory:        f.WorkCategory,
		Measurement:         f.Measurement,
		Fabric:              f.Fabric,
		Work:                f.Work,
		Colour:              f.Colour,
		StitchType:          f.StitchType,
		CareGuide:           f.CareGuide,
		AvailableColoursHex: ParseColours(f.Colours),
		Trending:            f.Trending,
		IsHidden:            f.IsHidden,
	}
	in.Price = parseInt(f.Price, "Price", errs)
	if f.Discount != "" {
		in.Discount = parseInt(f.Discount, "Discount", errs)
	}
	if f.FinalPrice != "" {
		v := parseInt(f.FinalPrice, "FinalPrice", errs)
		in.FinalPrice = &v
	}
	if f.NoOfPieces != "" {
		v := parseInt(f.NoOfPieces, "NoOfPieces", errs)
		in.NoOfPieces = &v
	}
	if len(errs) > 0 {
		return in, errs
	}
	return in, nil
}

// ParseColours splits a comma or whitespace separated colour list and
// upper-cases each entry. Duplicates are dropped.
func ParseColours(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\r' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, c := range fields {
		c = strings.ToUpper(c)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func parseInt(raw, field string, errs shared.FieldErrors) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		errs[field] = "must be a whole number"
		return 0
	}
	return v
}
