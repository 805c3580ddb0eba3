package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"rez_app_echo/internal/models"
)

func TestBuildSessionParams(t *testing.T) {
	params := BuildSessionParams(CheckoutRequest{
		Price:   decimal.NewFromInt(299),
		Credits: 300,
		Email:   "jo@example.com",
		AuthID:  "user_abc",
	}, CheckoutConfig{Currency: "inr", ReturnURL: "https://rez.example/payment"})

	assert.Equal(t, map[string]string{"credits": "300", "clerkId": "user_abc"}, params.Metadata)
	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, []*string{stripe.String("card")}, params.PaymentMethodTypes)
	assert.Equal(t, "required", *params.BillingAddressCollection)
	assert.Equal(t, "https://rez.example/payment?session_id={CHECKOUT_SESSION_ID}", *params.SuccessURL)
	assert.Equal(t, *params.SuccessURL, *params.CancelURL)
	assert.Equal(t, "jo@example.com", *params.CustomerEmail)

	require.Len(t, params.LineItems, 1)
	item := params.LineItems[0]
	assert.Equal(t, int64(1), *item.Quantity)
	assert.Equal(t, int64(29900), *item.PriceData.UnitAmount)
	assert.Equal(t, "inr", *item.PriceData.Currency)
	assert.Equal(t, map[string]string{"credits": "300"}, item.PriceData.ProductData.Metadata)
	assert.Contains(t, *item.PriceData.ProductData.Name, "300 credits")
}

func TestCreateSessionRecordsMirror(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.checkout.CreateSession(context.Background(), CheckoutRequest{
		Price: decimal.NewFromInt(799), Credits: 600, Email: "jo@example.com", AuthID: "user_abc",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Len(t, env.provider.created, 1)

	var record models.CheckoutRecord
	require.NoError(t, env.db.Where("session_id = ?", id).First(&record).Error)
	assert.Equal(t, "user_abc", record.AuthID)
	assert.Equal(t, int64(600), record.Credits)
	assert.Equal(t, int64(79900), record.AmountTotal)
	assert.Equal(t, models.CheckoutStatusOpen, record.Status)
}

func TestCreateSessionRejectsInvalidRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.checkout.CreateSession(ctx, CheckoutRequest{Price: decimal.NewFromInt(299), Credits: 5000, AuthID: "user_abc"})
	assert.ErrorIs(t, err, ErrInvalidCheckout)

	_, err = env.checkout.CreateSession(ctx, CheckoutRequest{Price: decimal.NewFromInt(299), Credits: 300})
	assert.ErrorIs(t, err, ErrInvalidCheckout)

	assert.Empty(t, env.provider.created, "rejected requests never reach the provider")
}

func TestCreateSessionProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.provider.createErr = errors.New("card payments are not enabled")

	_, err := env.checkout.CreateSession(context.Background(), CheckoutRequest{
		Price: decimal.NewFromInt(299), Credits: 300, AuthID: "user_abc",
	})
	assert.ErrorIs(t, err, ErrCheckoutCreate)
	assert.Contains(t, err.Error(), "card payments are not enabled")

	var count int64
	require.NoError(t, env.db.Model(&models.CheckoutRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFetchSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.checkout.CreateSession(ctx, CheckoutRequest{Price: decimal.NewFromInt(299), Credits: 300, AuthID: "user_abc"})
	require.NoError(t, err)

	session, err := env.checkout.FetchSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, OwnsSession(session, "user_abc"))
	assert.False(t, OwnsSession(session, "user_other"))
	assert.False(t, OwnsSession(session, ""))

	_, err = env.checkout.FetchSession(ctx, "cs_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = env.checkout.FetchSession(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExpireSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createUser(t, env.db, "user_abc", 10)

	id, err := env.checkout.CreateSession(ctx, CheckoutRequest{Price: decimal.NewFromInt(299), Credits: 300, AuthID: "user_abc"})
	require.NoError(t, err)

	session, err := env.checkout.ExpireSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, stripe.CheckoutSessionStatusExpired, session.Status)

	var record models.CheckoutRecord
	require.NoError(t, env.db.Where("session_id = ?", id).First(&record).Error)
	assert.Equal(t, models.CheckoutStatusExpired, record.Status)

	// expiring again is a provider rejection, not a panic, and leaves the balance alone
	_, err = env.checkout.ExpireSession(ctx, id)
	assert.ErrorIs(t, err, ErrSessionExpire)
	assert.Equal(t, int64(10), balanceOf(t, env.db, "user_abc"))
}

func TestListSessionsFiltersByOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mine, err := env.checkout.CreateSession(ctx, CheckoutRequest{Price: decimal.NewFromInt(299), Credits: 300, AuthID: "user_abc"})
	require.NoError(t, err)
	_, err = env.checkout.CreateSession(ctx, CheckoutRequest{Price: decimal.NewFromInt(299), Credits: 300, AuthID: "user_other"})
	require.NoError(t, err)

	sessions, err := env.checkout.ListSessions(ctx, "", "user_abc")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, mine, sessions[0].ID)

	all, err := env.checkout.ListAllSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	env.provider.listErr = errors.New("rate limited")
	_, err = env.checkout.ListSessions(ctx, "", "user_abc")
	assert.ErrorIs(t, err, ErrProvider)
}
