package analysis

import (
	"fmt"
	"testing"

	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dated(start int, closes ...float64) []models.DailyPrice {
	out := make([]models.DailyPrice, len(closes))
	for i, c := range closes {
		out[i] = models.DailyPrice{
			Date:  fmt.Sprintf("2024-03-%02d", start+i),
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return out
}

func TestCorrelate(t *testing.T) {
	a := dated(1, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11)
	b := dated(1, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110)

	got, err := Correlate(a, b)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Coefficient)
	assert.Equal(t, "very_strong", got.Strength)
	assert.Equal(t, 11, got.Points)

	inverse := dated(1, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1)
	got, err = Correlate(a, inverse)
	require.NoError(t, err)
	assert.Equal(t, -1.0, got.Coefficient)
}

func TestCorrelate_AlignsOnSharedDates(t *testing.T) {
	a := dated(1, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	// shifted by two days, so ten dates overlap
	b := dated(3, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)

	got, err := Correlate(a, b)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Points)
	assert.Equal(t, 1.0, got.Coefficient)
}

func TestCorrelate_InsufficientData(t *testing.T) {
	_, err := Correlate(dated(1, 1, 2, 3), dated(1, 1, 2, 3))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCorrelationStrength(t *testing.T) {
	assert.Equal(t, "strong", correlationStrength(-0.65))
	assert.Equal(t, "moderate", correlationStrength(0.4))
	assert.Equal(t, "weak", correlationStrength(0.2))
	assert.Equal(t, "very_weak", correlationStrength(0.1))
}

func TestAverageTrueRange(t *testing.T) {
	// constant closes with a 2-point high/low band
	prices := dated(1, 5, 5, 5, 5, 5, 5)
	assert.InDelta(t, 2.0, AverageTrueRange(prices, 3), 1e-9)
	assert.Equal(t, 0.0, AverageTrueRange(prices, 6))
}
