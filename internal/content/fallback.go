package content

import (
	"context"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/octobees/hero-savings/api/internal/entity"
	"github.com/octobees/hero-savings/api/internal/service"
)

const (
	EmailSubject = "Your Hero Savings Report"
	BookingLink  = "https://calendly.com/malcolm-downtownfinancialgroup/quickintakecall"

	defaultFirstName = "Hero"

	longDisclaimer = "For information purposes only. This is not a commitment to lend or extend credit. " +
		"Information and/or dates are subject to change without notice. All loans are subject to credit approval. " +
		"Program availability, terms, and savings vary by state and are subject to change without notice. " +
		"Estimated savings include a lender closing credit determined by loan amount tier and may include partner discounts; " +
		"partner discounts are provided by third parties and are not guaranteed. " +
		"Insurance premium comparisons reflect quoted differences versus alternative carriers and will vary by property, coverage, and carrier underwriting. " +
		"Moving and inspection discounts are subject to vendor participation and availability. " +
		"This tool provides estimates only and does not constitute financial, legal, or tax advice."

	smsDisclaimer = "Reply STOP to opt out. Not a commitment to lend. Subject to credit approval. " +
		"Terms & savings vary by state & are not guaranteed. NMLS #1830011 & #2072896."

	signature = "Downtown Financial Group | NMLS #1830011 & #2072896\nPowered by Go Rascal"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Fallback renders the fixed notification templates. It never fails.
type Fallback struct{}

// Generate implements Generator.
func (Fallback) Generate(_ context.Context, lead entity.Lead, estimate entity.SavingsEstimate) entity.GeneratedContent {
	return Render(lead, estimate)
}

// Render fills the email and SMS templates for one lead.
func Render(lead entity.Lead, estimate entity.SavingsEstimate) entity.GeneratedContent {
	v := newTemplateValues(lead, estimate)

	body := printer.Sprintf("Hi %s,\n\n"+
		"Here’s your personalized Hero Savings Report.\n\n"+
		"Home Price: %s\n"+
		"Down Payment: %s%% (%s)\n"+
		"Estimated Loan Amount: %s\n\n"+
		"Your Savings\n"+
		"• Hero Credit (loan-based tier): %s\n"+
		"• Guaranteed Partner Savings: $%d\n"+
		"• Potential Bonus Savings: $%d–$%d\n\n"+
		"Total Estimated Savings: %s–%s\n\n"+
		"Book your free call to confirm numbers and next steps:\n%s\n\n"+
		"—\n%s\n\n%s",
		v.firstName,
		v.homePrice, v.downPercent, v.downAmount, v.loanAmount,
		v.heroCredit,
		service.GuaranteedSavings,
		service.MinBonusSavings, service.MaxBonusSavings,
		v.minSavings, v.maxSavings,
		BookingLink, signature, longDisclaimer)

	sms := printer.Sprintf("Hi %s, your Hero Savings Report is ready.\n\n"+
		"Home Price: %s | Down: %s%% (%s) | Loan: %s\n"+
		"Hero Credit: %s | Partner: $%d | Bonus: $%d–$%d\n"+
		"Total Est. Savings: %s–%s\n\n"+
		"Book your free call: %s\n\n%s",
		v.firstName,
		v.homePrice, v.downPercent, v.downAmount, v.loanAmount,
		v.heroCredit, service.GuaranteedSavings, service.MinBonusSavings, service.MaxBonusSavings,
		v.minSavings, v.maxSavings,
		BookingLink, smsDisclaimer)

	return entity.GeneratedContent{
		Email: entity.EmailContent{Subject: EmailSubject, Body: body},
		SMS:   entity.SMSContent{Body: sms},
	}
}

type templateValues struct {
	firstName   string
	homePrice   string
	downPercent string
	downAmount  string
	loanAmount  string
	heroCredit  string
	minSavings  string
	maxSavings  string
}

func newTemplateValues(lead entity.Lead, estimate entity.SavingsEstimate) templateValues {
	firstName := lead.FirstName()
	if firstName == "" {
		firstName = defaultFirstName
	}
	return templateValues{
		firstName:   firstName,
		homePrice:   FormatCurrency(lead.HomePrice),
		downPercent: strconv.FormatFloat(lead.DownPaymentPercent, 'f', -1, 64),
		downAmount:  FormatCurrency(lead.HomePrice * lead.DownPaymentPercent / 100),
		loanAmount:  FormatCurrency(estimate.LoanAmount),
		heroCredit:  FormatCurrency(estimate.HeroCredit),
		minSavings:  FormatCurrency(estimate.MinSavings),
		maxSavings:  FormatCurrency(estimate.MaxSavings),
	}
}

// FormatCurrency renders whole US dollars with thousands separators, e.g.
// "$285,000".
func FormatCurrency(amount float64) string {
	rounded := int64(math.Round(math.Abs(amount)))
	if amount < 0 && rounded != 0 {
		return printer.Sprintf("-$%d", rounded)
	}
	return printer.Sprintf("$%d", rounded)
}
