package crawler

import (
	"fmt"
	"strings"
)

type fixtureItem struct {
	ASIN      string
	Title     string
	Href      string
	Offscreen string
	Whole     string
	Fraction  string
	ImgAttr   string
	ImgURL    string
	Rating    string
	Reviews   string
	Sponsored string // "", "aria", "class", "popover", "label"
}

func (f fixtureItem) html() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div data-component-type="s-search-result" data-asin="%s" class="s-result-item">`, f.ASIN)

	switch f.Sponsored {
	case "aria":
		b.WriteString(`<a aria-label="Sponsored Ad - Learn more" href="#"><span>Sponsored</span></a>`)
	case "class":
		b.WriteString(`<span class="puis-sponsored-label-text">Sponsored</span>`)
	case "popover":
		b.WriteString(`<div class="s-label-popover"><span>Sponsored</span></div>`)
	case "label":
		b.WriteString(`<span data-component-type="s-sponsored-label">Sponsored</span>`)
	}

	if f.ImgURL != "" {
		attr := f.ImgAttr
		if attr == "" {
			attr = "src"
		}
		fmt.Fprintf(&b, `<img class="s-image" %s="%s"/>`, attr, f.ImgURL)
	}
	if f.Title != "" || f.Href != "" {
		fmt.Fprintf(&b, `<h2><a class="a-link-normal" href="%s"><span>%s</span></a></h2>`, f.Href, f.Title)
	}
	if f.Rating != "" {
		fmt.Fprintf(&b, `<i class="a-icon a-icon-star-small"><span class="a-icon-alt">%s</span></i>`, f.Rating)
	}
	if f.Reviews != "" {
		fmt.Fprintf(&b, `<a href="#reviews"><span aria-label="%s ratings" class="a-size-base s-underline-text">%s</span></a>`, f.Reviews, f.Reviews)
	}
	if f.Offscreen != "" || f.Whole != "" {
		b.WriteString(`<span class="a-price">`)
		if f.Offscreen != "" {
			fmt.Fprintf(&b, `<span class="a-offscreen">%s</span>`, f.Offscreen)
		}
		if f.Whole != "" {
			fmt.Fprintf(&b, `<span class="a-price-whole">%s<span class="a-price-decimal">.</span></span><span class="a-price-fraction">%s</span>`, f.Whole, f.Fraction)
		}
		b.WriteString(`</span>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func fixturePage(items ...fixtureItem) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><title>Results</title></head><body><div class="s-main-slot">`)
	for _, it := range items {
		b.WriteString(it.html())
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func organic(n int) fixtureItem {
	asin := fmt.Sprintf("B0ORGANIC%d", n)
	return fixtureItem{
		ASIN:      asin,
		Title:     fmt.Sprintf("Organic Drill %d", n),
		Href:      fmt.Sprintf("/Organic-Drill-%d/dp/%s/ref=sr_1_%d", n, asin, n),
		Offscreen: "$89.99",
		ImgURL:    fmt.Sprintf("https://m.media-amazon.com/images/I/%d.jpg", n),
		Rating:    "4.6 out of 5 stars",
		Reviews:   "2,318",
	}
}

func sponsored(n int, marker string) fixtureItem {
	it := organic(100 + n)
	it.Title = fmt.Sprintf("Sponsored Drill %d", n)
	it.Sponsored = marker
	return it
}
