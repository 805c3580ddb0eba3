package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rez_app_echo/internal/metrics"
	"rez_app_echo/internal/models"
)

const grantLockTTL = 30 * time.Second

// Outcome classifies how a payment event was handled
type Outcome string

const (
	// OutcomeProcessed means credits were granted
	OutcomeProcessed Outcome = "processed"
	// OutcomeIgnored means the event needs no balance change
	OutcomeIgnored Outcome = "ignored"
	// OutcomeDuplicate means the session was already credited
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeRejected is a permanent failure: redelivery cannot fix it
	OutcomeRejected Outcome = "rejected"
	// OutcomeRetryable is a transient failure: the provider should redeliver
	OutcomeRetryable Outcome = "retryable"
)

// EventResult is what happened to one event
type EventResult struct {
	Outcome   Outcome
	SessionID string
	AuthID    string
	Credits   int64
	Balance   int64
	Err       error
}

// Acknowledge reports whether the provider should consider the event delivered
func (r EventResult) Acknowledge() bool {
	return r.Outcome != OutcomeRetryable
}

func (r EventResult) eventStatus() models.PaymentEventStatus {
	switch r.Outcome {
	case OutcomeProcessed:
		return models.PaymentEventProcessed
	case OutcomeDuplicate:
		return models.PaymentEventDuplicate
	case OutcomeRejected:
		return models.PaymentEventRejected
	case OutcomeRetryable:
		return models.PaymentEventFailed
	default:
		return models.PaymentEventIgnored
	}
}

// GrantHook runs after credits were granted, e.g. to schedule a receipt
type GrantHook func(ctx context.Context, user *models.User, grant GrantRequest, email string)

// PaymentEventProcessor turns verified provider events into ledger grants
type PaymentEventProcessor struct {
	db       *gorm.DB
	ledger   *Ledger
	checkout *CheckoutService
	cache    *RedisCache
	onGrant  GrantHook
}

func NewPaymentEventProcessor(db *gorm.DB, ledger *Ledger, checkout *CheckoutService, cache *RedisCache) *PaymentEventProcessor {
	return &PaymentEventProcessor{db: db, ledger: ledger, checkout: checkout, cache: cache}
}

// OnGrant registers a hook called after every successful grant
func (p *PaymentEventProcessor) OnGrant(hook GrantHook) {
	p.onGrant = hook
}

// Handle processes one verified event and records it in payment_events
func (p *PaymentEventProcessor) Handle(ctx context.Context, event stripe.Event) EventResult {
	result := p.dispatch(ctx, event)

	metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), string(result.Outcome)).Inc()
	p.recordEvent(ctx, event, result)

	logAttrs := []any{
		"event_id", event.ID,
		"event_type", event.Type,
		"session_id", result.SessionID,
		"outcome", result.Outcome,
	}
	switch result.Outcome {
	case OutcomeRejected:
		slog.WarnContext(ctx, "Payment event rejected", append(logAttrs, "error", result.Err)...)
	case OutcomeRetryable:
		slog.ErrorContext(ctx, "Payment event failed", append(logAttrs, "error", result.Err)...)
	default:
		slog.InfoContext(ctx, "Payment event handled", logAttrs...)
	}
	return result
}

func (p *PaymentEventProcessor) dispatch(ctx context.Context, event stripe.Event) EventResult {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		session, err := SessionFromEvent(event)
		if err != nil {
			return EventResult{Outcome: OutcomeRejected, Err: err}
		}
		p.checkout.SyncRecord(ctx, session)
		if !IsPaid(session) {
			// delayed payment methods are credited on async_payment_succeeded
			return EventResult{Outcome: OutcomeIgnored, SessionID: session.ID}
		}
		return p.grant(ctx, session, event.ID, GrantSourceWebhook)

	case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		session, err := SessionFromEvent(event)
		if err != nil {
			return EventResult{Outcome: OutcomeRejected, Err: err}
		}
		p.checkout.SyncRecord(ctx, session)
		return p.grant(ctx, session, event.ID, GrantSourceWebhook)

	case stripe.EventTypeCheckoutSessionExpired, stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		session, err := SessionFromEvent(event)
		if err != nil {
			return EventResult{Outcome: OutcomeRejected, Err: err}
		}
		p.checkout.SyncRecord(ctx, session)
		return EventResult{Outcome: OutcomeIgnored, SessionID: session.ID}

	default:
		return EventResult{Outcome: OutcomeIgnored}
	}
}

// grant credits the session's account with the quantity bound at checkout creation
func (p *PaymentEventProcessor) grant(ctx context.Context, session *stripe.CheckoutSession, eventID, source string) EventResult {
	result := EventResult{SessionID: session.ID, AuthID: session.Metadata[MetadataAccountID]}

	credits, err := strconv.ParseInt(session.Metadata[MetadataCredits], 10, 64)
	if err != nil || credits <= 0 {
		result.Outcome = OutcomeRejected
		result.Err = fmt.Errorf("%w: metadata credits %q", ErrInvalidCredits, session.Metadata[MetadataCredits])
		return result
	}
	result.Credits = credits

	if result.AuthID == "" {
		result.Outcome = OutcomeRejected
		result.Err = fmt.Errorf("%w: session has no account metadata", ErrAccountNotFound)
		return result
	}

	locked, release, err := p.cache.Lock(ctx, grantLockKey(session.ID), grantLockTTL)
	if err != nil {
		// the grant key still deduplicates
		slog.WarnContext(ctx, "Grant lock unavailable", "session_id", session.ID, "error", err)
	} else if !locked {
		result.Outcome = OutcomeDuplicate
		return result
	}
	defer release()

	req := GrantRequest{
		AuthID:    result.AuthID,
		Credits:   credits,
		SessionID: session.ID,
		EventID:   eventID,
		Source:    source,
	}
	user, err := p.ledger.Grant(ctx, req)
	switch {
	case err == nil:
		result.Outcome = OutcomeProcessed
		result.Balance = user.Credits
		if p.onGrant != nil {
			p.onGrant(ctx, user, req, SessionEmail(session))
		}
	case errors.Is(err, ErrDuplicateGrant):
		result.Outcome = OutcomeDuplicate
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrInvalidCredits):
		result.Outcome = OutcomeRejected
		result.Err = err
	default:
		result.Outcome = OutcomeRetryable
		result.Err = err
	}
	return result
}

func (p *PaymentEventProcessor) recordEvent(ctx context.Context, event stripe.Event, result EventResult) {
	if event.ID == "" {
		return
	}

	row := models.PaymentEvent{
		PaymentGateway:  models.PaymentGatewayStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		SessionID:       result.SessionID,
		AuthID:          result.AuthID,
		Status:          result.eventStatus(),
	}
	if result.Err != nil {
		row.ProcessingError = result.Err.Error()
	}
	if event.Data != nil && len(event.Data.Raw) > 0 {
		var object struct {
			Metadata map[string]string `json:"metadata"`
		}
		if err := json.Unmarshal(event.Data.Raw, &object); err == nil && object.Metadata != nil {
			row.Metadata, _ = json.Marshal(object.Metadata)
		}
	}

	// a redelivery keeps the first row and records its latest outcome
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_gateway"}, {Name: "provider_event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "processing_error", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		slog.WarnContext(ctx, "Failed to record payment event", "event_id", event.ID, "error", err)
	}
}

// ReconcileReport summarizes a reconciliation pass
type ReconcileReport struct {
	Checked  int `json:"checked"`
	Granted  int `json:"granted"`
	Skipped  int `json:"skipped"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`
}

// Reconcile credits paid sessions created since the given time that have no grant yet.
// It recovers deliveries the webhook endpoint never acknowledged.
func (p *PaymentEventProcessor) Reconcile(ctx context.Context, since time.Time, limit int) (ReconcileReport, error) {
	var report ReconcileReport

	sessions, err := p.checkout.CompletedSince(ctx, since, limit)
	if err != nil {
		return report, err
	}

	for _, session := range sessions {
		report.Checked++

		granted, err := p.ledger.IsGranted(ctx, session.ID)
		if err != nil {
			report.Failed++
			continue
		}
		if granted {
			report.Skipped++
			continue
		}

		p.checkout.SyncRecord(ctx, session)
		result := p.grant(ctx, session, "", GrantSourceReconcile)
		switch result.Outcome {
		case OutcomeProcessed:
			report.Granted++
			slog.InfoContext(ctx, "Reconciled checkout session", "session_id", session.ID, "clerk_id", result.AuthID, "credits", result.Credits)
		case OutcomeDuplicate:
			report.Skipped++
		case OutcomeRejected:
			report.Rejected++
			slog.WarnContext(ctx, "Cannot reconcile checkout session", "session_id", session.ID, "error", result.Err)
		default:
			report.Failed++
		}
	}

	if report.Failed > 0 {
		return report, fmt.Errorf("%w: %d sessions could not be reconciled", ErrLedgerUnavailable, report.Failed)
	}
	return report, nil
}
