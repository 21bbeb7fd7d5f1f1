package crawler

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FieldStrategy extracts one candidate value for a field from a result
// element. Strategies for a field are tried in order and the first non-empty
// value wins, so supporting a new markup variant means appending a strategy.
type FieldStrategy struct {
	// Selector is matched inside the result element. Empty means the element itself.
	Selector string
	// Attr names the attribute to read. Empty means the element text.
	Attr string
	// Transform rewrites the raw value before it is matched.
	Transform func(string) string
	// Match rejects values that do not have the expected shape.
	Match func(string) bool
}

// Value returns the first acceptable value this strategy finds in s.
func (f FieldStrategy) Value(s *goquery.Selection) string {
	nodes := s
	if f.Selector != "" {
		nodes = s.Find(f.Selector)
	}

	var value string
	nodes.EachWithBreak(func(_ int, n *goquery.Selection) bool {
		var raw string
		if f.Attr == "" {
			raw = n.Text()
		} else {
			raw, _ = n.Attr(f.Attr)
		}
		raw = strings.TrimSpace(raw)
		if f.Transform != nil {
			raw = strings.TrimSpace(f.Transform(raw))
		}
		if raw == "" || (f.Match != nil && !f.Match(raw)) {
			return true
		}
		value = raw
		return false
	})
	return value
}

// Strategies is an ordered list of extraction strategies for one field.
type Strategies []FieldStrategy

// First applies the strategies in order and returns the first non-empty value.
func (st Strategies) First(s *goquery.Selection) string {
	for _, f := range st {
		if v := f.Value(s); v != "" {
			return v
		}
	}
	return ""
}

// Selectors describes how a provider's search-result page is laid out.
type Selectors struct {
	// ResultList matches one element per search result.
	ResultList string
	// Sponsored lists markers; an element carrying any of them is skipped.
	Sponsored []string
	// ProviderIDAttr is read from the result element itself, e.g. data-asin.
	ProviderIDAttr string

	Title         Strategies
	Link          Strategies
	Image         Strategies
	Price         Strategies
	PriceWhole    Strategies
	PriceFraction Strategies
	Rating        Strategies
	ReviewCount   Strategies
}

// Text returns a strategy reading the text of selector.
func Text(selector string) FieldStrategy {
	return FieldStrategy{Selector: selector}
}

// Attr returns a strategy reading attr of selector.
func Attr(selector, attr string) FieldStrategy {
	return FieldStrategy{Selector: selector, Attr: attr}
}

// MatchRegexp adapts a regular expression to a FieldStrategy.Match func.
func MatchRegexp(re *regexp.Regexp) func(string) bool {
	return re.MatchString
}
