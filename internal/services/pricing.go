package services

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CreditPackage is a fixed price → credits bundle offered on the purchase page
type CreditPackage struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Price        int64    `json:"price"` // major currency units
	Credits      int64    `json:"credits"`
	Popular      bool     `json:"popular"`
	Description  string   `json:"description"`
	Discount     float64  `json:"discount,omitempty"`
	BillingCycle string   `json:"billingCycle"`
	Benefits     []string `json:"benefits"`
}

// DefaultPackages are the bundles sold when no others are configured
var DefaultPackages = []CreditPackage{
	{
		ID: 1, Name: "Starter", Price: 299, Credits: 300,
		Description:  "Perfect for students and job seekers",
		BillingCycle: "monthly",
		Benefits:     []string{"300 credits per month", "Basic resume templates", "Standard ATS optimization", "Email support"},
	},
	{
		ID: 2, Name: "Professional", Price: 799, Credits: 600, Popular: true, Discount: 8.25,
		Description:  "Ideal for professionals and career changers",
		BillingCycle: "monthly",
		Benefits:     []string{"600 credits per month", "Premium resume templates", "Advanced ATS optimization", "Priority email support", "Cover letter builder"},
	},
	{
		ID: 3, Name: "Enterprise", Price: 1499, Credits: 1600, Discount: 35.37,
		Description:  "For recruiters and HR professionals",
		BillingCycle: "monthly",
		Benefits:     []string{"1600 credits per month", "All premium templates", "AI-powered optimization", "24/7 priority support", "Team collaboration tools", "Bulk processing"},
	},
}

// Pricing decides how many credits a price may buy
type Pricing struct {
	Packages       []CreditPackage
	ConversionRate decimal.Decimal
}

func NewPricing(packages []CreditPackage, conversionRate float64) *Pricing {
	return &Pricing{Packages: packages, ConversionRate: decimal.NewFromFloat(conversionRate)}
}

// TopUpCredits is the number of credits a free-form top-up of price buys
func (p *Pricing) TopUpCredits(price decimal.Decimal) int64 {
	return price.Mul(p.ConversionRate).Floor().IntPart()
}

// Validate checks a requested (price, credits) pair: package prices must buy exactly
// the package credits, any other price buys at most the top-up amount.
func (p *Pricing) Validate(price decimal.Decimal, credits int64) error {
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidCheckout)
	}
	if credits <= 0 {
		return fmt.Errorf("%w: credits must be positive", ErrInvalidCheckout)
	}

	for _, pkg := range p.Packages {
		if price.Equal(decimal.NewFromInt(pkg.Price)) {
			if credits != pkg.Credits {
				return fmt.Errorf("%w: %s package includes %d credits", ErrInvalidCheckout, pkg.Name, pkg.Credits)
			}
			return nil
		}
	}

	if maxCredits := p.TopUpCredits(price); credits > maxCredits {
		return fmt.Errorf("%w: a top-up of %s buys at most %d credits", ErrInvalidCheckout, price.String(), maxCredits)
	}
	return nil
}

// ToMinorUnits converts a major-unit amount into the provider's smallest currency unit
func ToMinorUnits(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}
