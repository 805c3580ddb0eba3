package models

import "time"

// PaymentGateway identifies the hosted payment provider
type PaymentGateway string

const (
	PaymentGatewayStripe PaymentGateway = "stripe"
	PaymentGatewayManual PaymentGateway = "manual"
)

// Checkout session statuses as reported by the provider
const (
	CheckoutStatusOpen     = "open"
	CheckoutStatusComplete = "complete"
	CheckoutStatusExpired  = "expired"
)

// Checkout payment statuses as reported by the provider
const (
	PaymentStatusPaid              = "paid"
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

// CheckoutRecord mirrors a hosted checkout session created for an account.
// The provider stays the source of truth; this row only keeps the last known state.
type CheckoutRecord struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	SessionID      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"session_id"`
	AuthID         string         `gorm:"type:varchar(128);index;not null" json:"clerk_id"`
	PaymentGateway PaymentGateway `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	Credits        int64          `json:"credits"`
	AmountTotal    int64          `json:"amount_total"` // minor units
	Currency       string         `gorm:"type:varchar(10)" json:"currency"`
	Email          string         `gorm:"type:varchar(255)" json:"email"`
	Status         string         `gorm:"type:varchar(20);index" json:"status"`
	PaymentStatus  string         `gorm:"type:varchar(30)" json:"payment_status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
