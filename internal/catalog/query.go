package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Sort selects the ordering of a listing.
type Sort string

const (
	SortTrending  Sort = "trending"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortNewest    Sort = "newest"
)

// ParseSort maps a request value onto a Sort, falling back to SortTrending.
func ParseSort(v string) Sort {
	switch s := Sort(v); s {
	case SortPriceAsc, SortPriceDesc, SortNewest, SortTrending:
		return s
	}
	return SortTrending
}

var priceBucketPattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

// Params are the visitor supplied listing options after parsing.
type Params struct {
	PriceBucket  string
	Fabrics      []string
	Works        []string
	TrendingOnly bool
	Search       string
	Colors       []string
	Sort         Sort
	Page         int
	Limit        int
}

// DefaultParams returns params describing an unfiltered first page.
func DefaultParams() Params {
	return Params{Sort: SortTrending, Page: DefaultPage, Limit: DefaultLimit}
}

// ParseParams reads listing options from a query string. Malformed
// pagination and text that is not valid UTF-8 are errors; every other
// unrecognised value is ignored.
func ParseParams(values url.Values) (Params, error) {
	for _, field := range []string{"priceBucket", "fabrics", "works", "search", "colors"} {
		if !utf8.ValidString(values.Get(field)) {
			return Params{}, &ValidationError{Field: field, Message: "must be valid UTF-8"}
		}
	}

	p := DefaultParams()
	p.PriceBucket = strings.TrimSpace(values.Get("priceBucket"))
	p.Fabrics = splitList(values.Get("fabrics"))
	p.Works = splitList(values.Get("works"))
	p.TrendingOnly = values.Get("trending") == "true"
	p.Search = strings.TrimSpace(values.Get("search"))
	p.Colors = normalizeColors(splitList(values.Get("colors")))
	p.Sort = ParseSort(values.Get("sort"))

	var err error
	if p.Page, err = positiveInt(values.Get("page"), "page", DefaultPage); err != nil {
		return Params{}, err
	}
	if p.Limit, err = positiveInt(values.Get("limit"), "limit", DefaultLimit); err != nil {
		return Params{}, err
	}
	if p.Limit > MaxLimit {
		return Params{}, &ValidationError{Field: "limit", Message: fmt.Sprintf("must be at most %d", MaxLimit)}
	}
	// offset+limit must stay representable.
	if p.Page-1 > (math.MaxInt-p.Limit)/p.Limit {
		return Params{}, &ValidationError{Field: "page", Message: "is too large"}
	}
	return p, nil
}

// Values encodes p back into a query string, omitting defaults.
func (p Params) Values() url.Values {
	v := url.Values{}
	if p.PriceBucket != "" {
		v.Set("priceBucket", p.PriceBucket)
	}
	if len(p.Fabrics) > 0 {
		v.Set("fabrics", strings.Join(p.Fabrics, ","))
	}
	if len(p.Works) > 0 {
		v.Set("works", strings.Join(p.Works, ","))
	}
	if p.TrendingOnly {
		v.Set("trending", "true")
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if len(p.Colors) > 0 {
		v.Set("colors", strings.Join(p.Colors, ","))
	}
	if p.Sort != "" && p.Sort != SortTrending {
		v.Set("sort", string(p.Sort))
	}
	if p.Page > DefaultPage {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 && p.Limit != DefaultLimit {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	return v
}

// Order is one ordering key of a query.
type Order struct {
	Field Field
	Desc  bool
}

// Query is the store-independent form of a listing request.
type Query struct {
	Filters   []Filter
	Orders    []Order
	Offset    int
	Limit     int
	WithCount bool
}

// Compose translates params into a query. Hidden products are always
// excluded and every ordering ends with the id so pages are stable.
func Compose(p Params) Query {
	filters := []Filter{BoolFilter{Field: FieldHidden, Value: false}}

	if m := priceBucketPattern.FindStringSubmatch(p.PriceBucket); m != nil {
		lo, errLo := strconv.Atoi(m[1])
		hi, errHi := strconv.Atoi(m[2])
		if errLo == nil && errHi == nil {
			filters = append(filters, RangeFilter{Field: FieldPrice, Min: lo, Max: hi})
		}
	}
	if len(p.Fabrics) > 0 {
		filters = append(filters, SetFilter{Field: FieldFabricCategory, Values: p.Fabrics})
	}
	if len(p.Works) > 0 {
		filters = append(filters, SetFilter{Field: FieldWorkCategory, Values: p.Works})
	}
	if p.TrendingOnly {
		filters = append(filters, BoolFilter{Field: FieldTrending, Value: true})
	}
	if p.Search != "" {
		filters = append(filters, SubstringFilter{Field: FieldHeading, Text: p.Search})
	}
	if len(p.Colors) > 0 {
		filters = append(filters, ContainsAllFilter{Field: FieldColoursHex, Values: p.Colors})
	}

	page, limit := p.Page, p.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if maxPage := (math.MaxInt-limit)/limit + 1; page > maxPage {
		page = maxPage
	}

	return Query{
		Filters: filters,
		Orders:  orderFor(p.Sort),
		Offset:  (page - 1) * limit,
		Limit:   limit,
	}
}

func orderFor(s Sort) []Order {
	var orders []Order
	switch s {
	case SortPriceAsc:
		orders = []Order{{Field: FieldPrice}}
	case SortPriceDesc:
		orders = []Order{{Field: FieldPrice, Desc: true}}
	case SortNewest:
		orders = []Order{{Field: FieldCreatedAt, Desc: true}}
	default:
		orders = []Order{{Field: FieldTrending, Desc: true}, {Field: FieldCreatedAt, Desc: true}}
	}
	return append(orders, Order{Field: FieldID})
}

// Key returns a stable identifier for the query, suitable as a cache key.
func (q Query) Key() string {
	var b strings.Builder
	for _, f := range q.Filters {
		b.WriteString(f.String())
		b.WriteByte('&')
	}
	for _, o := range q.Orders {
		fmt.Fprintf(&b, "order(%s,%t)", o.Field, o.Desc)
	}
	fmt.Fprintf(&b, "|%d|%d|%t", q.Offset, q.Limit, q.WithCount)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// normalizeColors upper-cases hex colours, matching how they are stored.
func normalizeColors(colors []string) []string {
	for i, c := range colors {
		colors[i] = strings.ToUpper(c)
	}
	return colors
}

func positiveInt(raw, field string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &ValidationError{Field: field, Message: "must be a positive integer"}
	}
	return n, nil
}
