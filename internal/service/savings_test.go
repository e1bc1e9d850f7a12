package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateSavings(t *testing.T) {
	est := CalculateSavings(300000, 5)
	assert.Equal(t, 285000.0, est.LoanAmount)
	assert.Equal(t, 1000.0, est.HeroCredit)
	assert.Equal(t, 2100.0, est.MinSavings)
	assert.Equal(t, 2400.0, est.MaxSavings)
}

func TestHeroCreditTiers(t *testing.T) {
	cases := []struct {
		loan float64
		want float64
	}{
		{0, 500},
		{249_999, 500},
		{250_000, 1000},
		{499_999, 1000},
		{500_000, 1500},
		{750_000, 2000},
		{1_000_000, 2500},
		{1_499_999, 2500},
		{1_500_000, 3000},
		{9_000_000, 3000},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, heroCredit(tc.loan), "loan %.0f", tc.loan)
	}
}
