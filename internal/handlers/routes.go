package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"rez_app_echo/internal/middleware"
	"rez_app_echo/internal/services"
)

// Handlers groups every HTTP handler served by the app
type Handlers struct {
	Auth     *AuthHandler
	Checkout *CheckoutHandler
	Webhook  *WebhookHandler
	User     *UserHandler
	Profile  *ProfileHandler
	Pages    *PageHandler
}

// RegisterRoutes mounts the public, authenticated and admin routes
func RegisterRoutes(e *echo.Echo, h Handlers, verifier services.IdentityVerifier, isAdmin func(email string) bool) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public routes
	e.GET("/login", h.Auth.LoginPage)
	e.POST("/auth/login", h.Auth.HandleLogin)
	e.POST("/auth/logout", h.Auth.HandleLogout)
	e.GET("/api/packages", h.Pages.Packages)

	// Provider callbacks authenticate by signature
	e.POST("/api/webhooks/stripe-webhook", h.Webhook.StripeWebhook)

	// Protected routes
	protected := e.Group("")
	protected.Use(middleware.RequireAuth(verifier))
	protected.GET("/", h.Pages.Home)
	protected.GET("/purchase", h.Pages.Purchase)
	protected.GET("/payment", h.Pages.PaymentResult)

	api := e.Group("/api")
	api.Use(middleware.RequireAuth(verifier))

	api.POST("/checkout-sessions/create", h.Checkout.CreateSession)
	api.POST("/fetch-session", h.Checkout.FetchSession)
	api.POST("/expire-session", h.Checkout.ExpireSession)
	api.POST("/all-sessions", h.Checkout.ListSessions)
	api.GET("/all-sessions", h.Checkout.ListAllSessions, middleware.RequireAdmin(isAdmin))

	api.GET("/user", h.User.GetUser)
	api.DELETE("/user", h.User.DeleteUser)
	api.POST("/fetch-profile", h.User.FetchProfile)

	api.GET("/profile/:section", h.Profile.ListSection)
	api.POST("/profile/:section", h.Profile.CreateSection)
	api.PUT("/profile/:section/:id", h.Profile.UpdateSection)
	api.DELETE("/profile/:section/:id", h.Profile.DeleteSection)

	api.GET("/templates", h.Profile.Templates)
	api.POST("/resumes", h.Profile.CreateResume)
	api.DELETE("/resumes/:id", h.Profile.DeleteResume)
}
