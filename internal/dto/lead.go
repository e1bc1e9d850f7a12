package dto

import "github.com/octobees/hero-savings/api/internal/entity"

// LeadRequest is the payload posted by the savings funnel.
type LeadRequest struct {
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Phone              string  `json:"phone"`
	HeroRole           string  `json:"hero_role"`
	HomePrice          float64 `json:"home_price"`
	DownPaymentPercent float64 `json:"down_payment_percent"`
	WantsText          bool    `json:"wants_text"`
	TCPAConsent        bool    `json:"tcpa_consent"`
}

// ToLead converts the request into the domain lead without sanitizing it.
func (r LeadRequest) ToLead() entity.Lead {
	return entity.Lead{
		Name:               r.Name,
		Email:              r.Email,
		Phone:              r.Phone,
		HeroRole:           entity.HeroRole(r.HeroRole),
		HomePrice:          r.HomePrice,
		DownPaymentPercent: r.DownPaymentPercent,
		WantsText:          r.WantsText,
		TCPAConsent:        r.TCPAConsent,
	}
}

// LeadResponse is returned once the estimate and notification copy are ready.
type LeadResponse struct {
	Savings entity.SavingsEstimate  `json:"savings"`
	Content entity.GeneratedContent `json:"content"`
}
