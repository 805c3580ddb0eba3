package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"rez_app_echo/internal/views"
)

// CustomErrorHandler renders JSON for API routes and an error page otherwise
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errorTitle := "Internal Server Error"
	errorMessage := ""

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code

		if msg, ok := he.Message.(string); ok && msg != "" {
			errorMessage = msg
		}

		switch code {
		case http.StatusNotFound:
			errorTitle = "Page Not Found"
			if errorMessage == "" || errorMessage == http.StatusText(code) {
				errorMessage = "The page you're looking for doesn't exist."
			}
		case http.StatusForbidden:
			errorTitle = "Access Denied"
			if errorMessage == "" || errorMessage == http.StatusText(code) {
				errorMessage = "You don't have permission to access this resource."
			}
		case http.StatusUnauthorized:
			errorTitle = "Unauthorized"
			if errorMessage == "" || errorMessage == http.StatusText(code) {
				errorMessage = "Please log in to continue."
			}
		case http.StatusBadRequest:
			errorTitle = "Bad Request"
			if errorMessage == "" {
				errorMessage = "The request could not be processed."
			}
		default:
			if code < http.StatusInternalServerError {
				errorTitle = http.StatusText(code)
			}
			if errorMessage == "" {
				errorMessage = "Something went wrong. Please try again later."
			}
		}
	} else {
		errorMessage = "Something went wrong. Please try again later."
	}

	if code >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "Request failed", "path", c.Request().URL.Path, "status", code, "error", err)
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, map[string]string{"error": errorMessage})
		return
	}

	userEmail, _ := c.Get(ContextUserEmail).(string)
	userUID, _ := c.Get(ContextUserUID).(string)

	props := views.ErrorPageProps{
		PageProps: views.PageProps{
			Title: errorTitle,
			Breadcrumbs: []views.Breadcrumb{
				{Title: "Home", URL: "/"},
				{Title: "Error", URL: ""},
			},
			UserEmail: userEmail,
			UserUID:   userUID,
		},
		ErrorTitle:   errorTitle,
		ErrorMessage: errorMessage,
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	if renderErr := views.ErrorPage(props).Render(c.Request().Context(), c.Response()); renderErr != nil {
		slog.ErrorContext(c.Request().Context(), "Failed to render error page", "error", renderErr)
	}
}
