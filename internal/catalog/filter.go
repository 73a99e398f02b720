package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names a product column a predicate or ordering may refer to.
type Field string

const (
	FieldID             Field = "id"
	FieldHeading        Field = "heading"
	FieldPrice          Field = "price"
	FieldFabricCategory Field = "fabric_category"
	FieldWorkCategory   Field = "work_category"
	FieldColoursHex     Field = "available_colours_hex"
	FieldTrending       Field = "trending"
	FieldHidden         Field = "is_hidden"
	FieldCreatedAt      Field = "created_at"
)

// Filter is one predicate of a composed query. The concrete variants are
// RangeFilter, SetFilter, SubstringFilter, ContainsAllFilter and BoolFilter;
// a query matches a product when every filter matches it.
type Filter interface {
	fmt.Stringer
	// Match evaluates the predicate against a single product.
	Match(p Product) bool
	isFilter()
}

// RangeFilter keeps products whose integer field lies in [Min, Max].
type RangeFilter struct {
	Field Field
	Min   int
	Max   int
}

// SetFilter keeps products whose field equals any of Values.
type SetFilter struct {
	Field  Field
	Values []string
}

// SubstringFilter keeps products whose field contains Text, ignoring case.
type SubstringFilter struct {
	Field Field
	Text  string
}

// ContainsAllFilter keeps products whose list field contains every value.
type ContainsAllFilter struct {
	Field  Field
	Values []string
}

// BoolFilter keeps products whose boolean field equals Value.
type BoolFilter struct {
	Field Field
	Value bool
}

func (RangeFilter) isFilter()       {}
func (SetFilter) isFilter()         {}
func (SubstringFilter) isFilter()   {}
func (ContainsAllFilter) isFilter() {}
func (BoolFilter) isFilter()        {}

func (f RangeFilter) Match(p Product) bool {
	v, ok := intField(p, f.Field)
	return ok && v >= f.Min && v <= f.Max
}

func (f SetFilter) Match(p Product) bool {
	v, ok := stringField(p, f.Field)
	if !ok {
		return false
	}
	for _, candidate := range f.Values {
		if candidate == v {
			return true
		}
	}
	return false
}

func (f SubstringFilter) Match(p Product) bool {
	v, ok := stringField(p, f.Field)
	return ok && strings.Contains(strings.ToLower(v), strings.ToLower(f.Text))
}

func (f ContainsAllFilter) Match(p Product) bool {
	have, ok := listField(p, f.Field)
	if !ok {
		return false
	}
	for _, want := range f.Values {
		if !contains(have, want) {
			return false
		}
	}
	return true
}

func (f BoolFilter) Match(p Product) bool {
	v, ok := boolField(p, f.Field)
	return ok && v == f.Value
}

func (f RangeFilter) String() string {
	return fmt.Sprintf("range(%s,%d,%d)", f.Field, f.Min, f.Max)
}

func (f SetFilter) String() string {
	return fmt.Sprintf("in(%s,%s)", f.Field, quoteAll(f.Values))
}

func (f SubstringFilter) String() string {
	return fmt.Sprintf("ilike(%s,%s)", f.Field, strconv.Quote(f.Text))
}

func (f ContainsAllFilter) String() string {
	return fmt.Sprintf("contains(%s,%s)", f.Field, quoteAll(f.Values))
}

func (f BoolFilter) String() string {
	return fmt.Sprintf("eq(%s,%t)", f.Field, f.Value)
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, ",")
}

func intField(p Product, f Field) (int, bool) {
	switch f {
	case FieldPrice:
		return p.Price, true
	}
	return 0, false
}

func stringField(p Product, f Field) (string, bool) {
	switch f {
	case FieldHeading:
		return p.Heading, true
	case FieldFabricCategory:
		return p.FabricCategory, true
	case FieldWorkCategory:
		return p.WorkCategory, true
	}
	return "", false
}

func listField(p Product, f Field) ([]string, bool) {
	switch f {
	case FieldColoursHex:
		return p.AvailableColoursHex, true
	}
	return nil, false
}

func boolField(p Product, f Field) (bool, bool) {
	switch f {
	case FieldTrending:
		return p.Trending, true
	case FieldHidden:
		return p.IsHidden, true
	}
	return false, false
}
