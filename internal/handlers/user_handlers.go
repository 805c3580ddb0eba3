package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"rez_app_echo/internal/middleware"
	"rez_app_echo/internal/services"
)

type UserHandler struct {
	ledger   *services.Ledger
	profiles *services.ProfileService
}

func NewUserHandler(ledger *services.Ledger, profiles *services.ProfileService) *UserHandler {
	return &UserHandler{ledger: ledger, profiles: profiles}
}

// GetUser returns the caller's account with its credit balance
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.ledger.Account(c.Request().Context(), currentUID(c))
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch user")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// DeleteUser removes the caller's account and profile, then logs them out
func (h *UserHandler) DeleteUser(c echo.Context) error {
	if err := h.ledger.DeleteAccount(c.Request().Context(), currentUID(c)); err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete user")
	}

	middleware.ClearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// FetchProfile returns the caller's account with every profile section and resume
func (h *UserHandler) FetchProfile(c echo.Context) error {
	var req FetchProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	uid := currentUID(c)
	if req.ClerkID != "" && req.ClerkID != uid {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot read another account's profile")
	}

	user, err := h.profiles.FetchProfile(c.Request().Context(), uid)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch profile")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}
