package admission

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
	// Filing a request: physicians and ward staff
	requestGroup := api.Group("", auth.RequireRole("admin", "physician", "ward_admin"))
	requestGroup.POST("/admissions", h.RequestAdmission)

	// Read endpoints: clinical staff
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse", "ward_admin"))
	readGroup.GET("/admissions", h.ListAdmissions)
	readGroup.GET("/admissions/:id", h.GetAdmission)
	readGroup.GET("/wards", h.ListWards)
	readGroup.GET("/wards/:id/beds", h.ListBeds)

	// Bed lifecycle: ward administration only
	wardGroup := api.Group("", auth.RequireRole("admin", "ward_admin"))
	wardGroup.POST("/admissions/:id/approve", h.Approve)
	wardGroup.POST("/admissions/:id/reject", h.Reject)
	wardGroup.POST("/admissions/:id/discharge", h.Discharge)
	wardGroup.PATCH("/beds/:id/status", h.UpdateBedStatus)
}

func (h *Handler) RequestAdmission(c echo.Context) error {
	var req AdmissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RequestAdmission(c.Request().Context(), &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) GetAdmission(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	req, err := h.svc.GetAdmission(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "admission request not found")
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) ListAdmissions(c echo.Context) error {
	pg := pagination.FromContext(c)
	reqs, total, err := h.svc.ListAdmissions(c.Request().Context(), Status(c.QueryParam("status")), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(reqs, total, pg.Limit, pg.Offset))
}

type approveRequest struct {
	BedID            uuid.UUID  `json:"bed_id"`
	ApprovedBy       uuid.UUID  `json:"approved_by"`
	AssignedDoctorID *uuid.UUID `json:"assigned_doctor_id,omitempty"`
}

func (h *Handler) Approve(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body approveRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := h.svc.Approve(c.Request().Context(), id, body.BedID, body.ApprovedBy, body.AssignedDoctorID)
	if err != nil {
		return admissionError(err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) Reject(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	req, err := h.svc.Reject(c.Request().Context(), id)
	if err != nil {
		return admissionError(err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	req, err := h.svc.Discharge(c.Request().Context(), id)
	if err != nil {
		return admissionError(err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) ListWards(c echo.Context) error {
	wards, err := h.svc.ListWards(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if wards == nil {
		wards = []*Ward{}
	}
	return c.JSON(http.StatusOK, wards)
}

func (h *Handler) ListBeds(c echo.Context) error {
	wardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid ward id")
	}
	beds, err := h.svc.ListBeds(c.Request().Context(), wardID, BedStatus(c.QueryParam("status")))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if beds == nil {
		beds = []*Bed{}
	}
	return c.JSON(http.StatusOK, beds)
}

type bedStatusRequest struct {
	Status BedStatus `json:"status"`
}

func (h *Handler) UpdateBedStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body bedStatusRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.UpdateBedStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return admissionError(err)
	}
	return c.JSON(http.StatusOK, b)
}

// admissionError maps typed domain errors onto HTTP statuses. Conflicts
// (lost bed claims, stale transitions) come back as 409 so the caller can
// refresh and retry.
func admissionError(err error) error {
	var bc *BedConflictError
	if errors.As(err, &bc) {
		return echo.NewHTTPError(http.StatusConflict, bc.Error())
	}
	var te *TransitionError
	if errors.As(err, &te) {
		return echo.NewHTTPError(http.StatusConflict, te.Error())
	}
	var bt *BedTransitionError
	if errors.As(err, &bt) {
		return echo.NewHTTPError(http.StatusConflict, bt.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
