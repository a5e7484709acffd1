package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumbersMagnitude(t *testing.T) {
	got := Numbers("$2.5M")
	require.Len(t, got, 1)
	assert.InDelta(t, 2500000.0, got[0].Value, 1e-6)
	assert.Equal(t, "M", got[0].Unit)
	assert.Equal(t, "$2.5M", got[0].Text)
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		value float64
		unit  string
	}{
		{"plain", "about 42 widgets", 42, ""},
		{"thousands separator", "paid 1,250,000 total", 1250000, ""},
		{"kilo lower", "raised 3k", 3000, "k"},
		{"spaced billion word", "worth 1.2 billion", 1.2e9, "billion"},
		{"million word", "a 7 Million budget", 7e6, "Million"},
		{"percent", "up 12.5% today", 12.5, "%"},
		{"currency code", "costs 300 USD", 300, "USD"},
		{"euro sign", "€15", 15, ""},
		{"suffix must end word", "5 mice", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Numbers(tt.in)
			require.Len(t, got, 1)
			assert.InDelta(t, tt.value, got[0].Value, 1e-6)
			assert.Equal(t, tt.unit, got[0].Unit)
		})
	}
}

func TestNumbersMultiple(t *testing.T) {
	got := Numbers("Q1 revenue $4.2B, margin 18%, 2024-01-15")
	values := make([]float64, len(got))
	for i, q := range got {
		values[i] = q.Value
	}
	assert.Equal(t, []float64{1, 4.2e9, 18, 2024, 1, 15}, values)
}

func TestNumbersNone(t *testing.T) {
	got := Numbers("no digits, just words")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
