package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Session metadata keys. The values are echoed back unchanged in webhook events.
const (
	MetadataAccountID = "clerkId"
	MetadataCredits   = "credits"
)

// CheckoutProvider is the hosted checkout API the app talks to
type CheckoutProvider interface {
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
	RetrieveSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	ExpireSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	ListSessions(ctx context.Context, params *stripe.CheckoutSessionListParams, limit int) ([]*stripe.CheckoutSession, error)
}

// EventVerifier authenticates inbound webhook payloads
type EventVerifier interface {
	ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error)
}

// StripeService implements CheckoutProvider and EventVerifier with stripe-go
type StripeService struct {
	client        *stripe.Client
	webhookSecret string
}

func NewStripeService(secretKey, webhookSecret string) *StripeService {
	return &StripeService{
		client:        stripe.NewClient(secretKey),
		webhookSecret: webhookSecret,
	}
}

// NewStripeServiceWithClient is used when the caller needs a custom backend (e.g. stripe-mock)
func NewStripeServiceWithClient(client *stripe.Client, webhookSecret string) *StripeService {
	return &StripeService{client: client, webhookSecret: webhookSecret}
}

func (s *StripeService) CreateSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	return s.client.V1CheckoutSessions.Create(ctx, params)
}

func (s *StripeService) RetrieveSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	return s.client.V1CheckoutSessions.Retrieve(ctx, id, nil)
}

func (s *StripeService) ExpireSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	return s.client.V1CheckoutSessions.Expire(ctx, id, nil)
}

// ListSessions follows pagination until limit sessions were collected
func (s *StripeService) ListSessions(ctx context.Context, params *stripe.CheckoutSessionListParams, limit int) ([]*stripe.CheckoutSession, error) {
	var sessions []*stripe.CheckoutSession
	for session, err := range s.client.V1CheckoutSessions.List(ctx, params) {
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
		if limit > 0 && len(sessions) >= limit {
			break
		}
	}
	return sessions, nil
}

// ConstructEvent verifies the Stripe-Signature header against the webhook secret.
// Events rendered with another API version are accepted: only metadata is read from them.
func (s *StripeService) ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, s.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}

// SessionFromEvent decodes the checkout session carried by a checkout.session.* event
func SessionFromEvent(event stripe.Event) (*stripe.CheckoutSession, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, errors.New("event has no data object")
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return &session, nil
}

// classifyProviderError maps stripe errors onto the service error taxonomy
func classifyProviderError(err error, fallback error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
		return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	return fmt.Errorf("%w: %v", fallback, err)
}
