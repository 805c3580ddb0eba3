package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"rez_app_echo/internal/config"
	"rez_app_echo/internal/middleware"
	"rez_app_echo/internal/services"
	"rez_app_echo/internal/views"
)

// sessionCookieTTL is how long a login lasts
const sessionCookieTTL = time.Hour * 24 * 5

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	verifier services.IdentityVerifier
	ledger   *services.Ledger
	cfg      *config.Config
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(verifier services.IdentityVerifier, ledger *services.Ledger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{verifier: verifier, ledger: ledger, cfg: cfg}
}

// LoginPage renders the login page
func (h *AuthHandler) LoginPage(c echo.Context) error {
	redirect := c.QueryParam("redirect")
	if !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") {
		redirect = "/purchase"
	}

	props := views.LoginPageProps{
		PageProps:          pageProps(c, "Sign in"),
		FirebaseAPIKey:     h.cfg.FirebaseAPIKey,
		FirebaseAuthDomain: h.cfg.FirebaseAuthDomain,
		FirebaseProjectID:  h.cfg.FirebaseProjectID,
		Redirect:           redirect,
	}
	if c.QueryParam("error") == "auth_not_configured" {
		props.Error = "Sign-in is not configured on this server."
	}

	return views.Login(props).Render(c.Request().Context(), c.Response())
}

// HandleLogin verifies the ID token, provisions the account and creates a session cookie
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	if h.verifier == nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Firebase not initialized",
		})
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Missing authorization header",
		})
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Invalid authorization format",
		})
	}

	ctx := c.Request().Context()
	token, err := h.verifier.VerifyIDToken(ctx, tokenString)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Invalid token",
		})
	}

	identity := services.IdentityFromToken(token)
	user, created, err := h.ledger.ProvisionAccount(ctx, identity, h.cfg.SignupCredits, h.cfg.IsAdminEmail(identity.Email))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to provision account", "clerk_id", identity.UID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to load account",
		})
	}

	cookieValue, err := h.verifier.SessionCookie(ctx, tokenString, sessionCookieTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to create session",
		})
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    cookieValue,
		MaxAge:   int(sessionCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"created": created,
		"user":    user,
	})
}

// HandleLogout clears the session cookie
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	middleware.ClearSessionCookie(c)

	return c.JSON(http.StatusOK, map[string]string{
		"status": "logged out",
	})
}
