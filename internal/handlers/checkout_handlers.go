package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"rez_app_echo/internal/services"
)

// CheckoutHandler serves the checkout session API
type CheckoutHandler struct {
	checkout *services.CheckoutService
}

func NewCheckoutHandler(checkout *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// CreateSession starts a hosted checkout for the caller
func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	var req CreateCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":        "Invalid request body",
			"errorMessage": err.Error(),
		})
	}

	uid := currentUID(c)
	if req.ClerkID != "" && req.ClerkID != uid {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot purchase credits for another account")
	}
	if req.Email == "" {
		req.Email = currentEmail(c)
	}

	id, err := h.checkout.CreateSession(c.Request().Context(), services.CheckoutRequest{
		Price:   req.Price,
		Credits: req.Credits,
		Email:   req.Email,
		AuthID:  uid,
	})
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, services.ErrInvalidCheckout) {
			code = http.StatusBadRequest
		}
		return c.JSON(code, map[string]string{
			"error":        "Failed to create checkout session",
			"errorMessage": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"id": id})
}

// FetchSession returns the caller's checkout session as the provider reports it
func (h *CheckoutHandler) FetchSession(c echo.Context) error {
	var req SessionRequest
	if err := c.Bind(&req); err != nil || req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "session_id is required",
		})
	}

	session, err := h.checkout.FetchSession(c.Request().Context(), req.SessionID)
	if err != nil {
		return sessionError(c, err)
	}
	if !services.OwnsSession(session, currentUID(c)) {
		return sessionError(c, services.ErrSessionNotFound)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"session": session,
	})
}

// ExpireSession expires one of the caller's open sessions
func (h *CheckoutHandler) ExpireSession(c echo.Context) error {
	var req SessionRequest
	if err := c.Bind(&req); err != nil || req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "session_id is required",
		})
	}

	ctx := c.Request().Context()
	current, err := h.checkout.FetchSession(ctx, req.SessionID)
	if err != nil {
		return sessionError(c, err)
	}
	if !services.OwnsSession(current, currentUID(c)) {
		return sessionError(c, services.ErrSessionNotFound)
	}

	session, err := h.checkout.ExpireSession(ctx, req.SessionID)
	if err != nil {
		return sessionError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"session": session,
	})
}

// ListSessions returns the caller's sessions
func (h *CheckoutHandler) ListSessions(c echo.Context) error {
	var req ListSessionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	uid := currentUID(c)
	if req.ClerkID != "" && req.ClerkID != uid {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot list sessions of another account")
	}

	sessions, err := h.checkout.ListSessions(c.Request().Context(), req.Email, uid)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"sessions": sessions,
	})
}

// ListAllSessions returns recent sessions of every account (admin only)
func (h *CheckoutHandler) ListAllSessions(c echo.Context) error {
	sessions, err := h.checkout.ListAllSessions(c.Request().Context())
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"sessions": sessions,
	})
}

func sessionError(c echo.Context, err error) error {
	code := http.StatusInternalServerError
	if errors.Is(err, services.ErrSessionNotFound) {
		code = http.StatusNotFound
	}
	return c.JSON(code, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}
