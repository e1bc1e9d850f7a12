package service

import "github.com/octobees/hero-savings/api/internal/entity"

// Fixed savings components added on top of the hero credit.
const (
	GuaranteedSavings = 850
	MinBonusSavings   = 250
	MaxBonusSavings   = 550
)

type creditTier struct {
	below  float64
	credit float64
}

var heroCreditTiers = []creditTier{
	{below: 250_000, credit: 500},
	{below: 500_000, credit: 1000},
	{below: 750_000, credit: 1500},
	{below: 1_000_000, credit: 2000},
	{below: 1_500_000, credit: 2500},
}

const topTierCredit = 3000

// CalculateSavings derives the savings estimate for a home price and down
// payment percentage.
func CalculateSavings(homePrice, downPaymentPercent float64) entity.SavingsEstimate {
	loan := homePrice - homePrice*downPaymentPercent/100
	credit := heroCredit(loan)
	return entity.SavingsEstimate{
		LoanAmount: loan,
		HeroCredit: credit,
		MinSavings: credit + GuaranteedSavings + MinBonusSavings,
		MaxSavings: credit + GuaranteedSavings + MaxBonusSavings,
	}
}

func heroCredit(loan float64) float64 {
	for _, tier := range heroCreditTiers {
		if loan < tier.below {
			return tier.credit
		}
	}
	return topTierCredit
}
