package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"sjsage522/pricescout/helpers"
	"sjsage522/pricescout/internal/product"

	"github.com/PuerkitoBio/goquery"
)

// Extractor parses a provider's search-result markup into candidates.
type Extractor struct {
	Origin    string
	Selectors Selectors
}

// Extract parses html into candidates. Malformed or empty markup yields an
// empty list; individual missing fields are left blank.
func (e *Extractor) Extract(html string) []product.Candidate {
	if strings.TrimSpace(html) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return e.extractDocument(doc)
}

// ExtractBytes is Extract for a raw response body.
func (e *Extractor) ExtractBytes(body []byte) []product.Candidate {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	return e.extractDocument(doc)
}

func (e *Extractor) extractDocument(doc *goquery.Document) []product.Candidate {
	var candidates []product.Candidate
	doc.Find(e.Selectors.ResultList).Each(func(_ int, s *goquery.Selection) {
		if c, ok := e.processResult(s); ok {
			candidates = append(candidates, c)
		}
	})
	return candidates
}

// IsSponsored reports whether s carries any sponsored-result marker.
func (e *Extractor) IsSponsored(s *goquery.Selection) bool {
	for _, marker := range e.Selectors.Sponsored {
		if s.Is(marker) || s.Find(marker).Length() > 0 {
			return true
		}
	}
	return false
}

// processResult converts one result element into a candidate
func (e *Extractor) processResult(s *goquery.Selection) (product.Candidate, bool) {
	if e.IsSponsored(s) {
		return product.Candidate{}, false
	}

	title := helpers.CollapseSpace(e.Selectors.Title.First(s))
	if title == "" {
		return product.Candidate{}, false
	}

	link := e.ResolveURL(e.Selectors.Link.First(s))
	if link == "" {
		return product.Candidate{}, false
	}

	var providerID string
	if e.Selectors.ProviderIDAttr != "" {
		providerID, _ = s.Attr(e.Selectors.ProviderIDAttr)
	}

	return product.Candidate{
		Title:           title,
		RawPriceText:    e.price(s),
		ImageURL:        e.ResolveURL(e.Selectors.Image.First(s)),
		DetailURL:       link,
		RatingText:      e.Selectors.Rating.First(s),
		ReviewCountText: e.Selectors.ReviewCount.First(s),
		ProviderID:      strings.TrimSpace(providerID),
	}, true
}

// price prefers the accessible full-price string and otherwise rebuilds the
// price from its whole and fractional fragments.
func (e *Extractor) price(s *goquery.Selection) string {
	if full := e.Selectors.Price.First(s); full != "" {
		return full
	}

	whole := helpers.DigitsOnly(e.Selectors.PriceWhole.First(s))
	if whole == "" {
		return ""
	}
	if fraction := helpers.DigitsOnly(e.Selectors.PriceFraction.First(s)); fraction != "" {
		return whole + "." + fraction
	}
	return whole
}

// ResolveURL resolves href against the provider origin. Absolute URLs are
// returned unchanged and protocol-relative URLs get https.
func (e *Extractor) ResolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return href
	}

	base, err := url.Parse(e.Origin)
	if err != nil || e.Origin == "" {
		return href
	}
	return base.ResolveReference(ref).String()
}
