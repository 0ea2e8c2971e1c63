package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRupees(t *testing.T) {
	tests := map[int]string{
		0:       "₹0.00",
		12345:   "₹12345.00",
		-3:      "₹-3.00",
		9999999: "₹9999999.00",
	}
	for cost, expected := range tests {
		assert.Equal(t, expected, FormatRupees(cost))
	}

	assert.Equal(t, "₹4200.00", Estimate{Cost: 4200, Band: BandYoung}.Formatted())
}
