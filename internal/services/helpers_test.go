package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rez_app_echo/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, authID string, credits int64) *models.User {
	t.Helper()
	user := &models.User{
		AuthID:   authID,
		FullName: "Test " + authID,
		Emails:   []models.EmailAddress{{Email: authID + "@example.com"}},
		Role:     models.UserRoleMember,
		Credits:  credits,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func balanceOf(t *testing.T, db *gorm.DB, authID string) int64 {
	t.Helper()
	var user models.User
	require.NoError(t, db.Where("auth_id = ?", authID).First(&user).Error)
	return user.Credits
}

// fakeProvider is an in-memory CheckoutProvider
type fakeProvider struct {
	mu        sync.Mutex
	seq       int
	sessions  map[string]*stripe.CheckoutSession
	created   []*stripe.CheckoutSessionCreateParams
	createErr error
	listErr   error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: make(map[string]*stripe.CheckoutSession)}
}

func (f *fakeProvider) CreateSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, params)
	if f.createErr != nil {
		return nil, f.createErr
	}

	f.seq++
	metadata := make(map[string]string, len(params.Metadata))
	for k, v := range params.Metadata {
		metadata[k] = v
	}
	session := &stripe.CheckoutSession{
		ID:            fmt.Sprintf("cs_test_%03d", f.seq),
		Status:        stripe.CheckoutSessionStatusOpen,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		Metadata:      metadata,
		Created:       int64(f.seq),
	}
	if len(params.LineItems) > 0 && params.LineItems[0].PriceData != nil {
		session.AmountTotal = *params.LineItems[0].PriceData.UnitAmount
		session.Currency = stripe.Currency(*params.LineItems[0].PriceData.Currency)
	}
	if params.CustomerEmail != nil {
		session.CustomerEmail = *params.CustomerEmail
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeProvider) RetrieveSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such checkout.session: " + id, HTTPStatusCode: 404}
	}
	copied := *session
	return &copied, nil
}

func (f *fakeProvider) ExpireSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such checkout.session: " + id, HTTPStatusCode: 404}
	}
	if session.Status != stripe.CheckoutSessionStatusOpen {
		return nil, &stripe.Error{Msg: "Only Checkout Sessions with a status in [\"open\"] can be expired.", HTTPStatusCode: 400}
	}
	session.Status = stripe.CheckoutSessionStatusExpired
	copied := *session
	return &copied, nil
}

func (f *fakeProvider) ListSessions(ctx context.Context, params *stripe.CheckoutSessionListParams, limit int) ([]*stripe.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []*stripe.CheckoutSession
	for _, session := range f.sessions {
		if params != nil && params.Status != nil && string(session.Status) != *params.Status {
			continue
		}
		copied := *session
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created > out[j].Created })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// complete marks a session as paid at the provider
func (f *fakeProvider) complete(id string, paymentStatus stripe.CheckoutSessionPaymentStatus) *stripe.CheckoutSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := f.sessions[id]
	session.Status = stripe.CheckoutSessionStatusComplete
	session.PaymentStatus = paymentStatus
	copied := *session
	return &copied
}

func (f *fakeProvider) put(session *stripe.CheckoutSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
}

// sessionEvent builds a verified event carrying session as its data object
func sessionEvent(t *testing.T, eventID string, eventType stripe.EventType, session *stripe.CheckoutSession) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"id":             session.ID,
		"object":         "checkout.session",
		"status":         session.Status,
		"payment_status": session.PaymentStatus,
		"amount_total":   session.AmountTotal,
		"currency":       session.Currency,
		"customer_email": session.CustomerEmail,
		"metadata":       session.Metadata,
	})
	require.NoError(t, err)
	return stripe.Event{ID: eventID, Type: eventType, Data: &stripe.EventData{Raw: raw}}
}

type testEnv struct {
	db        *gorm.DB
	provider  *fakeProvider
	ledger    *Ledger
	checkout  *CheckoutService
	processor *PaymentEventProcessor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	provider := newFakeProvider()
	ledger := NewLedger(db, nil)
	checkout := NewCheckoutService(db, provider, NewPricing(DefaultPackages, 0.69), CheckoutConfig{
		Currency:  "inr",
		ReturnURL: "http://localhost:8080/payment",
	})
	return &testEnv{
		db:        db,
		provider:  provider,
		ledger:    ledger,
		checkout:  checkout,
		processor: NewPaymentEventProcessor(db, ledger, checkout, nil),
	}
}
