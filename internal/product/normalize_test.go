package product

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(i int) Candidate {
	return Candidate{
		Title:           fmt.Sprintf("Item %d", i),
		RawPriceText:    "$19.99",
		DetailURL:       fmt.Sprintf("https://www.amazon.com/item-%d/dp/B0000000%02d", i, i),
		RatingText:      "4.5 out of 5 stars",
		ReviewCountText: "1,024",
		ImageURL:        "https://m.media-amazon.com/images/I/x.jpg",
	}
}

func TestNormalizeFieldDefaults(t *testing.T) {
	n := Normalizer{DefaultCategory: "general", MaxResults: 24}
	req := Request{Query: "drill", Store: "amazon"}

	products := n.Normalize([]Candidate{{
		Title:     "  Cordless   Drill ",
		DetailURL: "https://www.amazon.com/Cordless-Drill/dp/B01ABCDEFG/ref=sr_1_1",
	}}, req)

	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, "amazon:B01ABCDEFG", p.ID)
	assert.Equal(t, "Cordless Drill", p.Name)
	assert.Equal(t, p.Name, p.Description)
	assert.Equal(t, "general", p.Category)
	assert.Nil(t, p.Price)
	assert.Nil(t, p.ImageURL)
	assert.Nil(t, p.Rating)
	assert.Nil(t, p.ReviewCount)
	assert.Equal(t, "amazon", p.Store)
	assert.Equal(t, p.DetailURL, p.AffiliateURL)
}

func TestNormalizeParsesNumbers(t *testing.T) {
	n := Normalizer{}
	products := n.Normalize([]Candidate{candidate(1)}, Request{Category: "tools", Store: "amazon"})

	require.Len(t, products, 1)
	p := products[0]
	require.NotNil(t, p.Price)
	assert.Equal(t, 19.99, *p.Price)
	require.NotNil(t, p.Rating)
	assert.Equal(t, 4.5, *p.Rating)
	require.NotNil(t, p.ReviewCount)
	assert.Equal(t, 1024, *p.ReviewCount)
	require.NotNil(t, p.ImageURL)
	assert.Equal(t, "tools", p.Category)
}

func TestNormalizeDeduplicatesFirstWins(t *testing.T) {
	a := candidate(1)
	b := candidate(1)
	b.Title = "Different title for the same item"

	products := Normalizer{}.Normalize([]Candidate{a, b, candidate(2)}, Request{Store: "amazon"})

	require.Len(t, products, 2)
	assert.Equal(t, "Item 1", products[0].Name)
	assert.Equal(t, "Item 2", products[1].Name)
}

func TestNormalizeCapAfterDedup(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 40; i++ {
		candidates = append(candidates, candidate(i))
		if i < 10 {
			// duplicates must not consume cap slots
			candidates = append(candidates, candidate(i))
		}
	}

	products := Normalizer{MaxResults: 24}.Normalize(candidates, Request{Store: "amazon"})

	require.Len(t, products, 24)
	for i, p := range products {
		assert.Equal(t, fmt.Sprintf("Item %d", i), p.Name)
	}
}

func TestNormalizeDefaultCap(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 40; i++ {
		candidates = append(candidates, candidate(i))
	}
	assert.Len(t, Normalizer{}.Normalize(candidates, Request{}), DefaultMaxResults)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	candidates := []Candidate{candidate(1), candidate(2), {Title: "No URL"}, candidate(1)}
	n := Normalizer{DefaultCategory: "general", AffiliateTag: "scout-20"}
	req := Request{Query: "x", Store: "amazon"}

	first := n.Normalize(candidates, req)
	second := n.Normalize(candidates, req)
	assert.Equal(t, first, second)
}

func TestNormalizeDropsInvalidCandidates(t *testing.T) {
	sponsored := candidate(3)
	sponsored.Sponsored = true

	products := Normalizer{}.Normalize([]Candidate{
		{Title: "", DetailURL: "https://www.amazon.com/dp/B000000001"},
		{Title: "No link"},
		sponsored,
	}, Request{Store: "amazon"})

	assert.Empty(t, products)
}

func TestNormalizeInvariants(t *testing.T) {
	bad := candidate(5)
	bad.RawPriceText = "-12.00"
	bad.RatingText = "7 out of 5"
	bad.ReviewCountText = "no reviews"

	products := Normalizer{}.Normalize([]Candidate{bad, candidate(6)}, Request{Store: "amazon"})

	for _, p := range products {
		assert.NotEmpty(t, p.ID)
		if p.Price != nil {
			assert.GreaterOrEqual(t, *p.Price, 0.0)
		}
		if p.Rating != nil {
			assert.GreaterOrEqual(t, *p.Rating, 0.0)
			assert.LessOrEqual(t, *p.Rating, 5.0)
		}
	}
	assert.NotNil(t, products[0].Price, "digit filtering drops the sign")
	assert.Nil(t, products[0].Rating)
	assert.Nil(t, products[0].ReviewCount)
}

func TestAffiliateURL(t *testing.T) {
	n := Normalizer{AffiliateTag: "scout-20"}
	products := n.Normalize([]Candidate{candidate(1)}, Request{Store: "amazon"})

	require.Len(t, products, 1)
	assert.Contains(t, products[0].AffiliateURL, "tag=scout-20")
	assert.NotContains(t, products[0].DetailURL, "tag=")
}

func TestStableID(t *testing.T) {
	assert.Equal(t, "amazon:B07XYZ1234", StableID("amazon", "https://www.amazon.com/gp/product/B07XYZ1234?th=1", "IGNORED"))
	assert.Equal(t, "amazon:B0PROVIDER", StableID("amazon", "https://www.amazon.com/sspa/click?x=1", "B0PROVIDER"))

	hashed := StableID("amazon", "https://www.amazon.com/some/listing", "")
	assert.Len(t, hashed, len("amazon:")+16)
	assert.Equal(t, hashed, StableID("amazon", "https://www.amazon.com/some/listing", ""))
	assert.Equal(t, "item:B07XYZ1234", StableID("", "/dp/B07XYZ1234", ""))
}
