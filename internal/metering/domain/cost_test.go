package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenCostCents(t *testing.T) {
	tests := []struct {
		name   string
		tokens int64
		rate   int64
		want   int64
	}{
		{"zero tokens", 0, 250, 0},
		{"zero rate", 1000, 0, 0},
		{"negative tokens", -5, 250, 0},
		{"negative rate", 1000, -250, 0},
		{"exact million", 1_000_000, 250, 250},
		{"half million", 500_000, 250, 125},
		{"rounds down below half cent", 1999, 250, 0},
		{"rounds up at half cent", 2000, 250, 1},
		{"rounds up above half cent", 2001, 250, 1},
		{"one token cheap rate", 1, 15, 0},
		{"one token expensive rate", 1, 1_000_000, 1},
		{"large volume", 123_456_789, 300, 37037},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenCostCents(tt.tokens, tt.rate))
		})
	}
}

func TestTokenCostCentsHalfUpBoundary(t *testing.T) {
	// 1_500_000 token-cents is exactly half a cent above one cent.
	assert.Equal(t, int64(2), TokenCostCents(15_000, 100))
	assert.Equal(t, int64(1), TokenCostCents(14_999, 100))
}
