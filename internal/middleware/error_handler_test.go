package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestCustomErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		err         error
		code        int
		contentType string
		body        string
	}{
		{"api not found", "/api/resumes/9", echo.NewHTTPError(http.StatusNotFound, "Record not found"), http.StatusNotFound, echo.MIMEApplicationJSON, `"error":"Record not found"`},
		{"api plain error", "/api/user", errors.New("boom"), http.StatusInternalServerError, echo.MIMEApplicationJSON, `"error":"Something went wrong. Please try again later."`},
		{"page forbidden", "/purchase", echo.NewHTTPError(http.StatusForbidden), http.StatusForbidden, echo.MIMETextHTML, "Access Denied"},
		{"page not found", "/nope", echo.ErrNotFound, http.StatusNotFound, echo.MIMETextHTML, "Page Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, tt.path, nil), rec)

			CustomErrorHandler(tt.err, c)

			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Header().Get(echo.HeaderContentType), tt.contentType)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}
