package product

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"

	"sjsage522/pricescout/helpers"
)

// DefaultMaxResults caps a normalized result list when no cap is configured.
const DefaultMaxResults = 24

var asinPattern = regexp.MustCompile(`/(?:dp|gp/product|gp/aw/d)/([A-Z0-9]{10})(?:[/?]|$)`)

// Normalizer maps candidates onto the canonical schema. It holds no state
// between calls, so the same input always produces the same output.
type Normalizer struct {
	DefaultCategory string
	MaxResults      int
	AffiliateTag    string
}

// Normalize converts candidates into products, dropping duplicates by ID
// (first occurrence wins) and capping the unique list at MaxResults.
func (n Normalizer) Normalize(candidates []Candidate, req Request) []Product {
	limit := n.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = n.DefaultCategory
	}
	if category == "" {
		category = "general"
	}

	seen := make(map[string]struct{}, len(candidates))
	products := make([]Product, 0, min(len(candidates), limit))

	for _, c := range candidates {
		if len(products) >= limit {
			break
		}
		if c.Sponsored {
			continue
		}

		name := helpers.CollapseSpace(c.Title)
		detailURL := strings.TrimSpace(c.DetailURL)
		if name == "" || detailURL == "" {
			continue
		}

		id := StableID(req.Store, detailURL, c.ProviderID)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		var image *string
		if img := strings.TrimSpace(c.ImageURL); img != "" {
			image = &img
		}

		products = append(products, Product{
			ID:           id,
			Name:         name,
			Description:  name,
			Price:        ParsePrice(c.RawPriceText),
			ImageURL:     image,
			Category:     category,
			Rating:       ParseRating(c.RatingText),
			ReviewCount:  ParseReviewCount(c.ReviewCountText),
			Store:        req.Store,
			AffiliateURL: n.affiliateURL(detailURL),
			DetailURL:    detailURL,
		})
	}

	return products
}

// StableID derives the product ID from the detail URL so that re-scraping
// the same item yields the same ID. The provider-native id is used when the
// URL carries no item number.
func StableID(store, detailURL, providerID string) string {
	prefix := store
	if prefix == "" {
		prefix = "item"
	}

	if m := asinPattern.FindStringSubmatch(detailURL); m != nil {
		return prefix + ":" + m[1]
	}
	if providerID = strings.TrimSpace(providerID); providerID != "" {
		return prefix + ":" + providerID
	}

	sum := sha1.Sum([]byte(detailURL))
	return prefix + ":" + hex.EncodeToString(sum[:])[:16]
}

func (n Normalizer) affiliateURL(detailURL string) string {
	if n.AffiliateTag == "" {
		return detailURL
	}
	u, err := url.Parse(detailURL)
	if err != nil {
		return detailURL
	}
	q := u.Query()
	q.Set("tag", n.AffiliateTag)
	u.RawQuery = q.Encode()
	return u.String()
}
