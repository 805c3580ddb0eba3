package models

import (
	"encoding/json"
	"time"
)

// PaymentEventStatus is the outcome recorded for a received provider event
type PaymentEventStatus string

const (
	PaymentEventProcessed PaymentEventStatus = "processed"
	PaymentEventIgnored   PaymentEventStatus = "ignored"
	PaymentEventDuplicate PaymentEventStatus = "duplicate"
	PaymentEventRejected  PaymentEventStatus = "rejected"
	PaymentEventFailed    PaymentEventStatus = "failed"
)

// PaymentEvent is the audit trail of verified webhook deliveries
type PaymentEvent struct {
	ID              uint               `gorm:"primaryKey" json:"id"`
	PaymentGateway  PaymentGateway     `gorm:"type:varchar(50);not null;uniqueIndex:ux_payment_events_gateway_event,priority:1" json:"payment_gateway"`
	ProviderEventID string             `gorm:"type:varchar(191);not null;uniqueIndex:ux_payment_events_gateway_event,priority:2" json:"provider_event_id"`
	EventType       string             `gorm:"type:varchar(100);not null;index" json:"event_type"`
	SessionID       string             `gorm:"type:varchar(255);index" json:"session_id"`
	AuthID          string             `gorm:"type:varchar(128)" json:"clerk_id"`
	Status          PaymentEventStatus `gorm:"type:varchar(20);index" json:"status"`
	ProcessingError string             `gorm:"type:text" json:"processing_error,omitempty"`
	Metadata        json.RawMessage    `gorm:"type:jsonb" json:"metadata"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// CreditGrant records that a checkout session has been credited.
// The unique session ID is what makes a grant apply at most once.
type CreditGrant struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SessionID       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"session_id"`
	AuthID          string    `gorm:"type:varchar(128);index;not null" json:"clerk_id"`
	Credits         int64     `gorm:"not null" json:"credits"`
	ProviderEventID string    `gorm:"type:varchar(191)" json:"provider_event_id"`
	Source          string    `gorm:"type:varchar(30)" json:"source"` // webhook, reconcile, admin
	CreatedAt       time.Time `json:"created_at"`
}
