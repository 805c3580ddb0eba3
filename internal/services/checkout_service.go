package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rez_app_echo/internal/metrics"
	"rez_app_echo/internal/models"
)

// maxListedSessions bounds how many sessions one listing call pages through
const maxListedSessions = 100

// CheckoutRequest is a purchase of credits by an account
type CheckoutRequest struct {
	Price   decimal.Decimal
	Credits int64
	Email   string
	AuthID  string
}

// CheckoutConfig holds the provider-independent checkout settings
type CheckoutConfig struct {
	Currency string
	// ReturnURL is the payment result page; the provider substitutes the session ID
	ReturnURL string
}

// CheckoutService starts, inspects and expires hosted checkout sessions
type CheckoutService struct {
	db       *gorm.DB
	provider CheckoutProvider
	pricing  *Pricing
	cfg      CheckoutConfig
}

func NewCheckoutService(db *gorm.DB, provider CheckoutProvider, pricing *Pricing, cfg CheckoutConfig) *CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = string(stripe.CurrencyINR)
	}
	return &CheckoutService{db: db, provider: provider, pricing: pricing, cfg: cfg}
}

// Pricing exposes the package list and conversion rate
func (s *CheckoutService) Pricing() *Pricing {
	return s.pricing
}

// BuildSessionParams builds a single-item, single-use payment session carrying
// the account ID and credit quantity as metadata.
func BuildSessionParams(req CheckoutRequest, cfg CheckoutConfig) *stripe.CheckoutSessionCreateParams {
	credits := strconv.FormatInt(req.Credits, 10)
	returnURL := cfg.ReturnURL + "?session_id={CHECKOUT_SESSION_ID}"

	params := &stripe.CheckoutSessionCreateParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		SuccessURL:               stripe.String(returnURL),
		CancelURL:                stripe.String(returnURL),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: stripe.String(cfg.Currency),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Rez AI Credits - %s credits", credits)),
						Description: stripe.String(fmt.Sprintf(
							"Get %s AI credits to use with Rez AI. Each credit allows you to generate one AI response. Credits never expire and can be used anytime.",
							credits,
						)),
						Metadata: map[string]string{MetadataCredits: credits},
					},
					UnitAmount: stripe.Int64(ToMinorUnits(req.Price)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			MetadataCredits:   credits,
			MetadataAccountID: req.AuthID,
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	return params
}

// CreateSession validates the purchase and creates a hosted checkout session.
// Nothing local is written before the provider accepts the session.
func (s *CheckoutService) CreateSession(ctx context.Context, req CheckoutRequest) (string, error) {
	if req.AuthID == "" {
		return "", fmt.Errorf("%w: account is required", ErrInvalidCheckout)
	}
	if err := s.pricing.Validate(req.Price, req.Credits); err != nil {
		return "", err
	}

	session, err := s.provider.CreateSession(ctx, BuildSessionParams(req, s.cfg))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCheckoutCreate, err)
	}
	metrics.CheckoutSessionsCreated.Inc()

	record := models.CheckoutRecord{
		SessionID:      session.ID,
		AuthID:         req.AuthID,
		PaymentGateway: models.PaymentGatewayStripe,
		Credits:        req.Credits,
		AmountTotal:    ToMinorUnits(req.Price),
		Currency:       s.cfg.Currency,
		Email:          req.Email,
		Status:         models.CheckoutStatusOpen,
		PaymentStatus:  models.PaymentStatusUnpaid,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		// the session is usable without its mirror row
		slog.WarnContext(ctx, "Failed to record checkout session", "session_id", session.ID, "error", err)
	}

	slog.InfoContext(ctx, "Checkout session created", "session_id", session.ID, "clerk_id", req.AuthID, "credits", req.Credits)
	return session.ID, nil
}

// FetchSession looks the session up at the provider; no caching
func (s *CheckoutService) FetchSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, classifyProviderError(err, ErrProvider)
	}
	return session, nil
}

// ExpireSession expires an open session. The provider rejects already terminal sessions.
func (s *CheckoutService) ExpireSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	session, err := s.provider.ExpireSession(ctx, sessionID)
	if err != nil {
		return nil, classifyProviderError(err, ErrSessionExpire)
	}
	s.SyncRecord(ctx, session)
	return session, nil
}

// ListSessions returns the account's sessions, newest first, with line items expanded
func (s *CheckoutService) ListSessions(ctx context.Context, email, authID string) ([]*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionListParams{}
	params.Limit = stripe.Int64(maxListedSessions)
	params.AddExpand("data.line_items")
	if email != "" {
		params.CustomerDetails = &stripe.CheckoutSessionListCustomerDetailsParams{Email: stripe.String(email)}
	}

	sessions, err := s.provider.ListSessions(ctx, params, maxListedSessions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	owned := sessions[:0]
	for _, session := range sessions {
		if OwnsSession(session, authID) {
			owned = append(owned, session)
		}
	}
	return owned, nil
}

// ListAllSessions returns recent sessions of every account
func (s *CheckoutService) ListAllSessions(ctx context.Context) ([]*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionListParams{}
	params.Limit = stripe.Int64(maxListedSessions)
	params.AddExpand("data.line_items")

	sessions, err := s.provider.ListSessions(ctx, params, maxListedSessions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return sessions, nil
}

// CompletedSince lists sessions created after since that finished with a payment
func (s *CheckoutService) CompletedSince(ctx context.Context, since time.Time, limit int) ([]*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionListParams{
		CreatedRange: &stripe.RangeQueryParams{GreaterThanOrEqual: since.Unix()},
		Status:       stripe.String(string(stripe.CheckoutSessionStatusComplete)),
	}
	params.Limit = stripe.Int64(maxListedSessions)

	sessions, err := s.provider.ListSessions(ctx, params, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	paid := sessions[:0]
	for _, session := range sessions {
		if IsPaid(session) {
			paid = append(paid, session)
		}
	}
	return paid, nil
}

// SyncRecord stores the provider's latest status on the local mirror row, creating it if needed
func (s *CheckoutService) SyncRecord(ctx context.Context, session *stripe.CheckoutSession) {
	if session == nil || session.ID == "" {
		return
	}

	credits, _ := strconv.ParseInt(session.Metadata[MetadataCredits], 10, 64)
	record := models.CheckoutRecord{
		SessionID:      session.ID,
		AuthID:         session.Metadata[MetadataAccountID],
		PaymentGateway: models.PaymentGatewayStripe,
		Credits:        credits,
		AmountTotal:    session.AmountTotal,
		Currency:       string(session.Currency),
		Email:          SessionEmail(session),
		Status:         string(session.Status),
		PaymentStatus:  string(session.PaymentStatus),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "payment_status", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		slog.WarnContext(ctx, "Failed to sync checkout record", "session_id", session.ID, "error", err)
	}
}

// OwnsSession reports whether the session was created for authID
func OwnsSession(session *stripe.CheckoutSession, authID string) bool {
	return session != nil && authID != "" && session.Metadata[MetadataAccountID] == authID
}

// IsPaid reports whether a completed session can be credited
func IsPaid(session *stripe.CheckoutSession) bool {
	return session.PaymentStatus != stripe.CheckoutSessionPaymentStatusUnpaid
}

// SessionEmail returns the purchaser email known to the provider
func SessionEmail(session *stripe.CheckoutSession) string {
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		return session.CustomerDetails.Email
	}
	return session.CustomerEmail
}
