package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rez_app_echo/internal/models"
)

func TestLedgerGrant(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, nil)
	createUser(t, db, "user_abc", 10)

	user, err := ledger.Grant(context.Background(), GrantRequest{
		AuthID: "user_abc", Credits: 300, SessionID: "cs_1", EventID: "evt_1", Source: GrantSourceWebhook,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(310), user.Credits)
	assert.Equal(t, int64(310), balanceOf(t, db, "user_abc"))

	var grant models.CreditGrant
	require.NoError(t, db.Where("session_id = ?", "cs_1").First(&grant).Error)
	assert.Equal(t, "user_abc", grant.AuthID)
	assert.Equal(t, int64(300), grant.Credits)
	assert.Equal(t, "evt_1", grant.ProviderEventID)
}

func TestLedgerGrantIsIdempotentPerSession(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, nil)
	createUser(t, db, "user_abc", 0)
	ctx := context.Background()

	req := GrantRequest{AuthID: "user_abc", Credits: 300, SessionID: "cs_1", Source: GrantSourceWebhook}
	_, err := ledger.Grant(ctx, req)
	require.NoError(t, err)

	req.EventID = "evt_redelivered"
	_, err = ledger.Grant(ctx, req)
	assert.ErrorIs(t, err, ErrDuplicateGrant)
	assert.Equal(t, int64(300), balanceOf(t, db, "user_abc"))

	granted, err := ledger.IsGranted(ctx, "cs_1")
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestLedgerConcurrentGrantsCreditOnce(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, nil)
	createUser(t, db, "user_abc", 0)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Grant(context.Background(), GrantRequest{AuthID: "user_abc", Credits: 50, SessionID: "cs_same"})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(50), balanceOf(t, db, "user_abc"))
}

func TestLedgerGrantUnknownAccountLeavesNoTrace(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, nil)

	_, err := ledger.Grant(context.Background(), GrantRequest{AuthID: "user_missing", Credits: 300, SessionID: "cs_1"})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	var count int64
	require.NoError(t, db.Model(&models.CreditGrant{}).Count(&count).Error)
	assert.Zero(t, count, "grant row must be rolled back")
}

func TestLedgerGrantRejectsNonPositiveCredits(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, nil)
	createUser(t, db, "user_abc", 5)

	for _, credits := range []int64{0, -10} {
		_, err := ledger.Grant(context.Background(), GrantRequest{AuthID: "user_abc", Credits: credits, SessionID: "cs_neg"})
		assert.ErrorIs(t, err, ErrInvalidCredits)
	}
	assert.Equal(t, int64(5), balanceOf(t, db, "user_abc"))
}

func TestLedgerGrantStoreFailureIsRetryable(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, nil)
	createUser(t, db, "user_abc", 0)
	require.NoError(t, db.Migrator().DropTable(&models.CreditGrant{}))

	_, err := ledger.Grant(context.Background(), GrantRequest{AuthID: "user_abc", Credits: 10, SessionID: "cs_1"})
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
	assert.Equal(t, int64(0), balanceOf(t, db, "user_abc"))
}

func TestLedgerCredits(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, nil)
	createUser(t, db, "user_abc", 42)
	ctx := context.Background()

	credits, err := ledger.Credits(ctx, "user_abc")
	require.NoError(t, err)
	assert.Equal(t, int64(42), credits)

	credits, err = ledger.Credits(ctx, "user_missing")
	require.NoError(t, err)
	assert.Zero(t, credits)

	credits, err = ledger.Credits(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, credits)
}

func TestProvisionAccount(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, nil)
	ctx := context.Background()
	id := Identity{UID: "user_abc", Email: "jo@example.com", Name: "Jo", Provider: "google.com"}

	user, created, err := ledger.ProvisionAccount(ctx, id, 10, false)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(10), user.Credits)
	assert.Equal(t, "jo", user.Username)
	assert.Equal(t, "jo@example.com", user.PrimaryEmail())
	assert.False(t, user.IsAdmin())

	_, err = ledger.Grant(ctx, GrantRequest{AuthID: "user_abc", Credits: 300, SessionID: "cs_1"})
	require.NoError(t, err)

	// a later login refreshes the profile but never resets the balance
	id.Name = "Jo Doe"
	user, created, err = ledger.ProvisionAccount(ctx, id, 10, true)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(310), user.Credits)
	assert.Equal(t, "Jo Doe", user.FullName)
	assert.True(t, user.IsAdmin())
}

func TestDeleteAccount(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, nil)
	createUser(t, db, "user_abc", 0)
	createUser(t, db, "user_other", 0)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Interest{SectionBase: models.SectionBase{OwnerID: "user_abc"}, Name: "Chess"}).Error)
	require.NoError(t, db.Create(&models.Interest{SectionBase: models.SectionBase{OwnerID: "user_other"}, Name: "Go"}).Error)

	require.NoError(t, ledger.DeleteAccount(ctx, "user_abc"))
	assert.ErrorIs(t, ledger.DeleteAccount(ctx, "user_abc"), ErrAccountNotFound)

	_, err := ledger.Account(ctx, "user_abc")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	var interests []models.Interest
	require.NoError(t, db.Find(&interests).Error)
	require.Len(t, interests, 1)
	assert.Equal(t, "user_other", interests[0].OwnerID)
}
