package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v82"

	"rez_app_echo/internal/config"
	"rez_app_echo/internal/services"
	"rez_app_echo/internal/views"
)

// PageHandler renders the purchase flow pages
type PageHandler struct {
	checkout *services.CheckoutService
	ledger   *services.Ledger
	cfg      *config.Config
}

func NewPageHandler(checkout *services.CheckoutService, ledger *services.Ledger, cfg *config.Config) *PageHandler {
	return &PageHandler{checkout: checkout, ledger: ledger, cfg: cfg}
}

// Home sends visitors to the purchase page
func (h *PageHandler) Home(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/purchase")
}

// Purchase renders the caller's balance and the credit packages
func (h *PageHandler) Purchase(c echo.Context) error {
	ctx := c.Request().Context()
	credits, err := h.ledger.Credits(ctx, currentUID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read credits")
	}

	pricing := h.checkout.Pricing()
	props := views.PurchasePageProps{
		PageProps: pageProps(c, "Buy credits",
			views.Breadcrumb{Title: "Home", URL: "/"},
			views.Breadcrumb{Title: "Buy credits"},
		),
		Credits:        credits,
		Packages:       pricing.Packages,
		ConversionRate: pricing.ConversionRate.String(),
		Currency:       h.cfg.StripeCurrency,
		PublishableKey: h.cfg.StripePublishableKey,
		AuthID:         currentUID(c),
	}
	return views.Purchase(props).Render(ctx, c.Response())
}

// PaymentResult renders the outcome of the hosted checkout the caller returned from.
// Unknown sessions and sessions of other accounts redirect home.
func (h *PageHandler) PaymentResult(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	ctx := c.Request().Context()
	session, err := h.checkout.FetchSession(ctx, sessionID)
	if err != nil || !services.OwnsSession(session, currentUID(c)) {
		if err != nil {
			slog.WarnContext(ctx, "Payment result for unknown session", "session_id", sessionID, "error", err)
		}
		return c.Redirect(http.StatusSeeOther, "/")
	}

	balance, err := h.ledger.Credits(ctx, currentUID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read credits")
	}

	credits, _ := strconv.ParseInt(session.Metadata[services.MetadataCredits], 10, 64)
	props := views.PaymentResultProps{
		PageProps: pageProps(c, "Payment",
			views.Breadcrumb{Title: "Home", URL: "/"},
			views.Breadcrumb{Title: "Payment"},
		),
		State:         PaymentState(session),
		SessionID:     session.ID,
		Credits:       credits,
		AmountTotal:   session.AmountTotal,
		Currency:      string(session.Currency),
		Email:         services.SessionEmail(session),
		Balance:       balance,
		PaymentStatus: string(session.PaymentStatus),
	}
	if session.CustomerDetails != nil {
		props.CustomerName = session.CustomerDetails.Name
	}
	return views.PaymentResult(props).Render(ctx, c.Response())
}

// Packages lists the credit packages and the top-up conversion rate
func (h *PageHandler) Packages(c echo.Context) error {
	pricing := h.checkout.Pricing()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":        true,
		"packages":       pricing.Packages,
		"conversionRate": pricing.ConversionRate,
		"currency":       h.cfg.StripeCurrency,
	})
}

// PaymentState maps a checkout session onto the result page states
func PaymentState(session *stripe.CheckoutSession) string {
	switch session.Status {
	case stripe.CheckoutSessionStatusComplete:
		if services.IsPaid(session) {
			return views.PaymentStateSuccess
		}
		return views.PaymentStatePending
	case stripe.CheckoutSessionStatusExpired:
		return views.PaymentStateExpired
	default:
		return views.PaymentStateFailed
	}
}
