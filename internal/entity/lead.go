package entity

import "strings"

// HeroRole is the occupation picked on the first funnel screen.
type HeroRole string

// Supported hero roles.
const (
	HeroRolePolice      HeroRole = "Police Officer"
	HeroRoleFirefighter HeroRole = "Firefighter / EMT"
	HeroRoleNurse       HeroRole = "Nurse / Healthcare Worker"
	HeroRoleMilitary    HeroRole = "Military / Veteran"
	HeroRoleTeacher     HeroRole = "Teacher / Educator"
	HeroRoleTrade       HeroRole = "Skilled Trade / Union Worker"
	HeroRoleBlueCollar  HeroRole = "Blue-Collar Worker"
	HeroRoleOther       HeroRole = "Other Hero"
)

// Valid reports whether r is one of the supported roles.
func (r HeroRole) Valid() bool {
	switch r {
	case HeroRolePolice, HeroRoleFirefighter, HeroRoleNurse, HeroRoleMilitary,
		HeroRoleTeacher, HeroRoleTrade, HeroRoleBlueCollar, HeroRoleOther:
		return true
	}
	return false
}

// Lead is a funnel submission. The same shape carries both the raw input and
// its sanitized form.
type Lead struct {
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Phone              string   `json:"phone"`
	HeroRole           HeroRole `json:"hero_role,omitempty"`
	HomePrice          float64  `json:"home_price"`
	DownPaymentPercent float64  `json:"down_payment_percent"`
	WantsText          bool     `json:"wants_text"`
	TCPAConsent        bool     `json:"tcpa_consent"`
}

// FirstName returns the first word of the lead's name.
func (l Lead) FirstName() string {
	fields := strings.Fields(l.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// SavingsEstimate is the calculator output shown to the user and used as
// message template input.
type SavingsEstimate struct {
	LoanAmount float64 `json:"loan_amount"`
	HeroCredit float64 `json:"hero_credit"`
	MinSavings float64 `json:"min_savings"`
	MaxSavings float64 `json:"max_savings"`
}

// EmailContent is the generated email subject and body.
type EmailContent struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SMSContent is the generated text message body.
type SMSContent struct {
	Body string `json:"body"`
}

// GeneratedContent is the notification copy produced for one submission.
type GeneratedContent struct {
	Email EmailContent `json:"email"`
	SMS   SMSContent   `json:"sms"`
}
