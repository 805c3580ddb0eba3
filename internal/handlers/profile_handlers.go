package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"rez_app_echo/internal/services"
)

const maxSectionBody = int64(1 << 20)

// ProfileHandler serves profile sections, resumes and the template gallery
type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// ListSection returns the caller's rows of one section
func (h *ProfileHandler) ListSection(c echo.Context) error {
	rows, err := h.profiles.ListSection(c.Request().Context(), c.Param("section"), currentUID(c))
	if err != nil {
		return profileError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": rows})
}

// CreateSection adds a row to one section of the caller's profile
func (h *ProfileHandler) CreateSection(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxSectionBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	row, err := h.profiles.CreateSection(c.Request().Context(), c.Param("section"), currentUID(c), body)
	if err != nil {
		return profileError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "data": row})
}

// UpdateSection replaces the fields of one of the caller's rows
func (h *ProfileHandler) UpdateSection(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxSectionBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	row, err := h.profiles.UpdateSection(c.Request().Context(), c.Param("section"), currentUID(c), id, body)
	if err != nil {
		return profileError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": row})
}

// DeleteSection removes one of the caller's rows
func (h *ProfileHandler) DeleteSection(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.profiles.DeleteSection(c.Request().Context(), c.Param("section"), currentUID(c), id); err != nil {
		return profileError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Templates returns the template gallery
func (h *ProfileHandler) Templates(c echo.Context) error {
	templates, err := h.profiles.Templates(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch templates")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "templates": templates})
}

// CreateResume starts a resume from a template
func (h *ProfileHandler) CreateResume(c echo.Context) error {
	var req CreateResumeRequest
	if err := c.Bind(&req); err != nil || req.TemplateID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "templateId is required")
	}

	resume, err := h.profiles.CreateResume(c.Request().Context(), currentUID(c), req.TemplateID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Template not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create resume")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "resume": resume})
}

// DeleteResume removes one of the caller's resumes
func (h *ProfileHandler) DeleteResume(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.profiles.DeleteResume(c.Request().Context(), currentUID(c), id); err != nil {
		return profileError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func profileError(c echo.Context, err error) error {
	if ok, resp := validationResponse(c, err); ok {
		return resp
	}
	switch {
	case errors.Is(err, services.ErrUnknownSection):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Record not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save profile")
	}
}
