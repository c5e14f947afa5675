package diagnosis

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carewise/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Diagnosis extraction: physicians
	diagGroup := api.Group("", auth.RequireRole("admin", "physician"))
	diagGroup.POST("/visits/:id/diagnosis", h.AnalyzeVisit)

	// Triage guidance: physicians and nurses
	triageGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	triageGroup.POST("/ai/triage", h.Triage)

	// Quota status: all clinical staff
	quotaGroup := api.Group("", auth.RequireRole("admin", "registrar", "physician", "nurse", "ward_admin"))
	quotaGroup.GET("/ai/quota", h.QuotaStatus)
}

func (h *Handler) AnalyzeVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	result, err := h.svc.AnalyzeVisit(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"diagnosis": result})
}

type triageRequest struct {
	Symptoms string `json:"symptoms"`
}

func (h *Handler) Triage(c echo.Context) error {
	var req triageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Triage(c.Request().Context(), req.Symptoms)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"triage": result})
}

func (h *Handler) QuotaStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.QuotaStatus())
}
