package search

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"sjsage522/pricescout/internal/product"
)

// SampleStore tags products that did not come from a live provider.
const SampleStore = "sample"

type sampleItem struct {
	name        string
	price       float64
	rating      float64
	reviewCount int
}

var sampleCatalog = []sampleItem{
	{name: "Essentials", price: 24.99, rating: 4.3, reviewCount: 1820},
	{name: "Pro Kit", price: 79.99, rating: 4.6, reviewCount: 954},
	{name: "Value Pack", price: 14.49, rating: 4.1, reviewCount: 3211},
	{name: "Premium Edition", price: 129.00, rating: 4.7, reviewCount: 402},
}

// SampleProducts returns deterministic placeholder products for query. They
// are tagged with SampleStore and must never be cached or persisted.
func SampleProducts(query, category string) []product.Product {
	query = strings.TrimSpace(query)
	if category == "" {
		category = "general"
	}

	products := make([]product.Product, 0, len(sampleCatalog))
	for i, item := range sampleCatalog {
		price := item.price
		rating := item.rating
		reviews := item.reviewCount
		name := fmt.Sprintf("%s %s", titleCase(query), item.name)
		detail := "https://example.com/sample/" + url.PathEscape(strings.ToLower(query)) + fmt.Sprintf("/%d", i+1)

		products = append(products, product.Product{
			ID:           fmt.Sprintf("%s:%d", SampleStore, i+1),
			Name:         name,
			Description:  name,
			Price:        &price,
			Category:     category,
			Rating:       &rating,
			ReviewCount:  &reviews,
			Store:        SampleStore,
			AffiliateURL: detail,
			DetailURL:    detail,
		})
	}
	return products
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
