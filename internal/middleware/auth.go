package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"rez_app_echo/internal/services"
)

// SessionCookieName is the cookie holding the identity provider session
const SessionCookieName = "session"

// Context keys set by RequireAuth
const (
	ContextUserUID   = "userUID"
	ContextUserEmail = "userEmail"
	ContextUserName  = "userName"
)

// RequireAuth verifies the session cookie, or a Bearer ID token on API routes.
// API requests get a JSON 401; pages redirect to /login.
func RequireAuth(verifier services.IdentityVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if verifier == nil {
				return unauthorized(c, "auth_not_configured")
			}

			ctx := c.Request().Context()

			if token, ok := bearerToken(c); ok && isAPI(c) {
				decoded, err := verifier.VerifyIDToken(ctx, token)
				if err != nil {
					return unauthorized(c, "")
				}
				setIdentity(c, services.IdentityFromToken(decoded))
				return next(c)
			}

			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return unauthorized(c, "")
			}

			decoded, err := verifier.VerifySessionCookie(ctx, cookie.Value)
			if err != nil {
				// Invalid session, clear cookie
				ClearSessionCookie(c)
				return unauthorized(c, "")
			}

			setIdentity(c, services.IdentityFromToken(decoded))
			return next(c)
		}
	}
}

// RequireAdmin allows the request only when isAdmin accepts the caller's email
func RequireAdmin(isAdmin func(email string) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email, _ := c.Get(ContextUserEmail).(string)
			if email == "" || !isAdmin(email) {
				return echo.NewHTTPError(http.StatusForbidden)
			}
			return next(c)
		}
	}
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})
}

func setIdentity(c echo.Context, id services.Identity) {
	c.Set(ContextUserUID, id.UID)
	c.Set(ContextUserEmail, id.Email)
	c.Set(ContextUserName, id.Name)
}

func unauthorized(c echo.Context, reason string) error {
	if isAPI(c) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	target := "/login?redirect=" + url.QueryEscape(c.Request().URL.RequestURI())
	if reason != "" {
		target += "&error=" + url.QueryEscape(reason)
	}
	return c.Redirect(http.StatusTemporaryRedirect, target)
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header || token == "" {
		return "", false
	}
	return token, true
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}
