package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	cases := map[string]*float64{
		"$149.99":   ptr(149.99),
		"1,299.00":  ptr(1299),
		"149.99":    ptr(149.99),
		"":          nil,
		"Currently": nil,
	}
	for in, want := range cases {
		got := ParsePrice(in)
		if want == nil {
			assert.Nil(t, got, in)
			continue
		}
		require.NotNil(t, got, in)
		assert.Equal(t, *want, *got, in)
	}
}

func TestParseRating(t *testing.T) {
	got := ParseRating("4.7 out of 5 stars")
	require.NotNil(t, got)
	assert.Equal(t, 4.7, *got)

	got = ParseRating("4,2 von 5 Sternen")
	require.NotNil(t, got)
	assert.Equal(t, 4.2, *got)

	assert.Nil(t, ParseRating("out of 5 stars"))
	assert.Nil(t, ParseRating(""))
	assert.Nil(t, ParseRating("9.1 out of 5"))
}

func TestParseReviewCount(t *testing.T) {
	got := ParseReviewCount("12,345 ratings")
	require.NotNil(t, got)
	assert.Equal(t, 12345, *got)

	assert.Nil(t, ParseReviewCount("none"))
}

func ptr(v float64) *float64 { return &v }
