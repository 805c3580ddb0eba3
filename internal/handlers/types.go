package handlers

import "github.com/shopspring/decimal"

// CreateCheckoutRequest is the body of POST /api/checkout-sessions/create
type CreateCheckoutRequest struct {
	Price   decimal.Decimal `json:"price"`
	Credits int64           `json:"credits"`
	Email   string          `json:"email"`
	ClerkID string          `json:"clerkId"`
}

// SessionRequest identifies a checkout session
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// ListSessionsRequest is the body of POST /api/all-sessions
type ListSessionsRequest struct {
	Email   string `json:"email"`
	ClerkID string `json:"clerkId"`
}

// FetchProfileRequest is the body of POST /api/fetch-profile
type FetchProfileRequest struct {
	ClerkID string `json:"clerkId"`
}

// CreateResumeRequest is the body of POST /api/resumes
type CreateResumeRequest struct {
	TemplateID uint `json:"templateId"`
}
