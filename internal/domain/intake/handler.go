package intake

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/intake/document", h.Document)
	g.POST("/intake/manual", h.Manual)
}

type documentRequest struct {
	PatientID string `json:"patient_id"`
	Text      string `json:"text"`
}

type manualRequest struct {
	PatientID string `json:"patient_id"`
	ManualVitals
}

// Document triages a patient from pasted clinical text.
func (h *Handler) Document(c echo.Context) error {
	var req documentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.PatientID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}

	entry, err := h.service.ProcessDocument(c.Request().Context(), req.PatientID, req.Text)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusCreated, entry)
}

// Manual triages a patient from the structured intake form.
func (h *Handler) Manual(c echo.Context) error {
	var req manualRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.PatientID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	if req.ArrivalMode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "arrival_mode is required")
	}
	if req.PainLevel < 1 || req.PainLevel > 10 {
		return echo.NewHTTPError(http.StatusBadRequest, "pain_level must be between 1 and 10")
	}

	entry, err := h.service.ProcessManual(c.Request().Context(), req.PatientID, req.ManualVitals)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusCreated, entry)
}
