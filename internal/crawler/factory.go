package crawler

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Provider is a store whose search pages can be scraped.
type Provider struct {
	Name       string
	SearchPath string
	// CategoryAliases maps a category onto the store's own search index, used
	// to bias relevance toward that category.
	CategoryAliases map[string]string
	Extractor
}

// SearchURL builds the category-biased search URL. Categories without an
// alias are appended to the keywords. With no category it equals GenericURL.
func (p *Provider) SearchURL(query, category string) string {
	query = strings.TrimSpace(query)
	category = strings.ToLower(strings.TrimSpace(category))

	params := url.Values{}
	if category == "" {
		params.Set("k", query)
	} else if alias, ok := p.CategoryAliases[category]; ok {
		params.Set("k", query)
		params.Set("i", alias)
	} else {
		params.Set("k", query+" "+category)
	}
	return p.Origin + p.SearchPath + "?" + params.Encode()
}

// GenericURL builds the unbiased search URL for query.
func (p *Provider) GenericURL(query string) string {
	params := url.Values{}
	params.Set("k", strings.TrimSpace(query))
	return p.Origin + p.SearchPath + "?" + params.Encode()
}

// Registry resolves store names to providers.
type Registry map[string]*Provider

// Lookup returns the provider for store, matching case-insensitively.
func (r Registry) Lookup(store string) (*Provider, bool) {
	p, ok := r[strings.ToLower(strings.TrimSpace(store))]
	return p, ok
}

// Names returns the registered store names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	reviewAriaLabel = regexp.MustCompile(`(?i)^[\d,.]+\s*(ratings?|reviews?)?$`)
	standaloneCount = regexp.MustCompile(`^\d{1,6}$`)
)

func notDataURI(v string) bool {
	return !strings.HasPrefix(v, "data:")
}

func stripCountPunctuation(v string) string {
	return strings.NewReplacer(",", "", "(", "", ")", "").Replace(v)
}

// NewRegistry creates the registry of supported stores
func NewRegistry() Registry {
	amazon := &Provider{
		Name:       "amazon",
		SearchPath: "/s",
		CategoryAliases: map[string]string{
			"electronics": "electronics",
			"tools":       "tools",
			"home":        "garden",
			"kitchen":     "kitchen",
			"toys":        "toys-and-games",
			"books":       "stripbooks",
			"beauty":      "beauty",
			"sports":      "sporting",
			"fashion":     "fashion",
			"grocery":     "grocery",
		},
		Extractor: Extractor{
			Origin: "https://www.amazon.com",
			Selectors: Selectors{
				ResultList: `div[data-component-type="s-search-result"]`,
				Sponsored: []string{
					`[aria-label*="Sponsored"]`,
					`.puis-sponsored-label-text`,
					`.s-sponsored-label-text`,
					`.s-label-popover`,
					`[data-component-type="s-sponsored-label"]`,
					`[data-component-type="sp-sponsored-result"]`,
				},
				ProviderIDAttr: "data-asin",
				Title: Strategies{
					Text("h2 a span"),
					Text("h2 span"),
					Attr("h2", "aria-label"),
					Text("h2"),
				},
				Link: Strategies{
					Attr("h2 a", "href"),
					Attr("a.a-link-normal.s-no-outline", "href"),
					Attr(`a.a-link-normal[href*="/dp/"]`, "href"),
				},
				Image: Strategies{
					{Selector: "img.s-image", Attr: "src", Match: notDataURI},
					{Selector: "img.s-image", Attr: "data-src", Match: notDataURI},
					{Selector: "img.s-image", Attr: "data-lazy-src", Match: notDataURI},
					{Selector: "img.s-image", Attr: "data-old-hires", Match: notDataURI},
				},
				Price: Strategies{
					Text(".a-price .a-offscreen"),
				},
				PriceWhole: Strategies{
					Text(".a-price-whole"),
				},
				PriceFraction: Strategies{
					Text(".a-price-fraction"),
				},
				Rating: Strategies{
					Text(".a-icon-alt"),
					Attr(`[aria-label*="out of 5"]`, "aria-label"),
				},
				ReviewCount: Strategies{
					{Selector: "[aria-label]", Attr: "aria-label", Match: MatchRegexp(reviewAriaLabel)},
					{Selector: "span.a-size-base, .s-underline-text", Transform: stripCountPunctuation, Match: MatchRegexp(standaloneCount)},
				},
			},
		},
	}

	return Registry{amazon.Name: amazon}
}
