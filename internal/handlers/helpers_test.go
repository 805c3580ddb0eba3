package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rez_app_echo/internal/middleware"
	"rez_app_echo/internal/models"
	"rez_app_echo/internal/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, services.AutoMigrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, authID string, credits int64) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{
		AuthID:  authID,
		Emails:  []models.EmailAddress{{Email: authID + "@example.com"}},
		Role:    models.UserRoleMember,
		Credits: credits,
	}).Error)
}

func balanceOf(t *testing.T, db *gorm.DB, authID string) int64 {
	t.Helper()
	var user models.User
	require.NoError(t, db.Where("auth_id = ?", authID).First(&user).Error)
	return user.Credits
}

// stubProvider keeps created sessions in memory
type stubProvider struct {
	sessions map[string]*stripe.CheckoutSession
	err      error
}

func newStubProvider() *stubProvider {
	return &stubProvider{sessions: make(map[string]*stripe.CheckoutSession)}
}

func (p *stubProvider) CreateSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	if p.err != nil {
		return nil, p.err
	}
	session := &stripe.CheckoutSession{
		ID:            fmt.Sprintf("cs_test_%d", len(p.sessions)+1),
		Status:        stripe.CheckoutSessionStatusOpen,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		Metadata:      params.Metadata,
	}
	p.sessions[session.ID] = session
	return session, nil
}

func (p *stubProvider) RetrieveSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	session, ok := p.sessions[id]
	if !ok {
		return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such checkout.session"}
	}
	return session, nil
}

func (p *stubProvider) ExpireSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	session, ok := p.sessions[id]
	if !ok {
		return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such checkout.session"}
	}
	session.Status = stripe.CheckoutSessionStatusExpired
	return session, nil
}

func (p *stubProvider) ListSessions(ctx context.Context, params *stripe.CheckoutSessionListParams, limit int) ([]*stripe.CheckoutSession, error) {
	var out []*stripe.CheckoutSession
	for _, session := range p.sessions {
		out = append(out, session)
	}
	return out, nil
}

func newCheckoutService(db *gorm.DB, provider services.CheckoutProvider) *services.CheckoutService {
	return services.NewCheckoutService(db, provider, services.NewPricing(services.DefaultPackages, 0.69), services.CheckoutConfig{
		Currency:  "inr",
		ReturnURL: "http://localhost:8080/payment",
	})
}

// newContext builds a request context as RequireAuth leaves it
func newContext(method, target, body, uid string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != "" {
		c.Set(middleware.ContextUserUID, uid)
		c.Set(middleware.ContextUserEmail, uid+"@example.com")
	}
	return c, rec
}

// statusOf returns the response code, including errors left for the HTTP error handler
func statusOf(t *testing.T, rec *httptest.ResponseRecorder, err error) int {
	t.Helper()
	if err == nil {
		return rec.Code
	}
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}
