package visit

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carewise/hms/internal/platform/auth"
	"github.com/carewise/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints: all clinical staff
	readGroup := api.Group("", auth.RequireRole("admin", "registrar", "physician", "nurse", "ward_admin"))
	readGroup.GET("/visits", h.ListVisits)
	readGroup.GET("/visits/queue", h.Queue)
	readGroup.GET("/visits/:id", h.GetVisit)

	// Check-in: front desk
	checkInGroup := api.Group("", auth.RequireRole("admin", "registrar", "nurse"))
	checkInGroup.POST("/visits", h.CheckIn)

	// Consultation flow: physicians
	consultGroup := api.Group("", auth.RequireRole("admin", "physician"))
	consultGroup.POST("/visits/call-next", h.CallNext)
	consultGroup.POST("/visits/:id/complete", h.CompleteConsultation)

	// Status and triage: physicians and nurses
	clinicalGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	clinicalGroup.PATCH("/visits/:id/status", h.UpdateStatus)
	clinicalGroup.POST("/visits/:id/triage", h.Triage)
}

func (h *Handler) CheckIn(c echo.Context) error {
	var v Visit
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CheckIn(c.Request().Context(), &v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.svc.GetVisit(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ListVisits(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter := ListFilter{Status: Status(c.QueryParam("status"))}
	if doctorID := c.QueryParam("doctor_id"); doctorID != "" {
		did, err := uuid.Parse(doctorID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		filter.DoctorID = &did
	}
	visits, total := h.svc.ListVisits(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if visits == nil {
		visits = []*Visit{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, pg.Limit, pg.Offset))
}

type statusUpdateRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		var te *TransitionError
		if errors.As(err, &te) {
			return echo.NewHTTPError(http.StatusConflict, te.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

type callNextRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
}

func (h *Handler) CallNext(c echo.Context) error {
	var req callNextRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.CallNext(c.Request().Context(), req.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if v == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"message": "no waiting visits",
			"visit":   nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"visit": v})
}

func (h *Handler) CompleteConsultation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var con Consultation
	if err := c.Bind(&con); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.CompleteConsultation(c.Request().Context(), id, &con)
	if err != nil {
		var te *TransitionError
		if errors.As(err, &te) {
			return echo.NewHTTPError(http.StatusConflict, te.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Queue(c echo.Context) error {
	doctorID, err := uuid.Parse(c.QueryParam("doctor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
	}
	visits, err := h.svc.Queue(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if visits == nil {
		visits = []*Visit{}
	}
	return c.JSON(http.StatusOK, visits)
}

func (h *Handler) Triage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Triage(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	return c.JSON(http.StatusOK, a)
}
