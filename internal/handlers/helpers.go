package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"rez_app_echo/internal/middleware"
	"rez_app_echo/internal/models"
	"rez_app_echo/internal/views"
)

// Helper to safely get string from context
func getStringFromContext(c echo.Context, key string) string {
	val := c.Get(key)
	if val == nil {
		return ""
	}
	strVal, ok := val.(string)
	if !ok {
		return ""
	}
	return strVal
}

func currentUID(c echo.Context) string {
	return getStringFromContext(c, middleware.ContextUserUID)
}

func currentEmail(c echo.Context) string {
	return getStringFromContext(c, middleware.ContextUserEmail)
}

func pageProps(c echo.Context, title string, breadcrumbs ...views.Breadcrumb) views.PageProps {
	return views.PageProps{
		Title:       title,
		Breadcrumbs: breadcrumbs,
		UserEmail:   currentEmail(c),
		UserUID:     currentUID(c),
	}
}

func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// validationResponse answers 400 with the offending fields when err is a validation failure
func validationResponse(c echo.Context, err error) (bool, error) {
	var verrs models.ValidationErrors
	if !errors.As(err, &verrs) {
		return false, nil
	}
	return true, c.JSON(http.StatusBadRequest, map[string]interface{}{
		"error":  verrs.Error(),
		"fields": verrs,
	})
}
