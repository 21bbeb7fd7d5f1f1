package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "1149", DigitsOnly("1,149."))
	assert.Equal(t, "", DigitsOnly("n/a"))
}

func TestDecimalOnly(t *testing.T) {
	assert.Equal(t, "1299.99", DecimalOnly("$1,299.99"))
	assert.Equal(t, "12.53", DecimalOnly("12.5.3"))
	assert.Equal(t, "149", DecimalOnly("149."))
	assert.Equal(t, "", DecimalOnly("free"))
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "cordless power drill", CollapseSpace("  cordless\n\t power   drill "))
}
