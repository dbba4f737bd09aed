package patient

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ehr/riskcare/internal/platform/httpx"
	"github.com/ehr/riskcare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.CreatePatient)
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/summary", h.GetSummary)
	api.GET("/patients/:id", h.GetPatient)
	api.PUT("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var in PatientInput
	if err := c.Bind(&in); err != nil {
		return httpx.NewError(http.StatusBadRequest, "Invalid request body")
	}
	p, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return toHTTPError(err)
	}
	return httpx.OKWithMessage(c, http.StatusCreated, "Patient created successfully", p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	clinicianID, err := clinicianParam(c)
	if err != nil {
		return err
	}
	pg, err := pagination.FromContext(c)
	if err != nil {
		return httpx.NewError(http.StatusBadRequest, err.Error())
	}

	q := NewListQuery(clinicianID, c.QueryParam("riskLevel"), c.QueryParam("sortBy"))
	patients, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		return toHTTPError(err)
	}

	page := pagination.Apply(patients, pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, len(page), len(patients), pg))
}

func (h *Handler) GetSummary(c echo.Context) error {
	clinicianID, err := clinicianParam(c)
	if err != nil {
		return err
	}
	s, err := h.svc.Summary(c.Request().Context(), clinicianID)
	if err != nil {
		return toHTTPError(err)
	}
	return httpx.OK(c, http.StatusOK, s)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return httpx.OK(c, http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in PatientInput
	if err := c.Bind(&in); err != nil {
		return httpx.NewError(http.StatusBadRequest, "Invalid request body")
	}
	p, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return toHTTPError(err)
	}
	return httpx.OKWithMessage(c, http.StatusOK, "Patient updated successfully", p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return toHTTPError(err)
	}
	return httpx.OKWithMessage(c, http.StatusOK, "Patient deleted successfully", nil)
}

func idParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.NewError(http.StatusBadRequest, "Invalid patient id")
	}
	return id, nil
}

func clinicianParam(c echo.Context) (int64, error) {
	raw := c.QueryParam("clinician_id")
	if raw == "" {
		return 0, httpx.NewError(http.StatusBadRequest, "Validation failed", "Clinician ID is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.NewError(http.StatusBadRequest, "Invalid clinician_id")
	}
	return id, nil
}

var persistenceMessages = map[string]string{
	"insert": "Failed to create patient",
	"get":    "Failed to fetch patient",
	"list":   "Failed to fetch patients",
	"update": "Failed to update patient",
	"delete": "Failed to delete patient",
	"count":  "Failed to summarize patients",
}

// toHTTPError maps workflow errors to status codes. Infrastructure failures
// carry the underlying description as their single error entry.
func toHTTPError(err error) error {
	var ve *ValidationError
	var se *ScoringUnavailableError
	var pe *PersistenceError
	switch {
	case errors.As(err, &ve):
		return httpx.NewError(http.StatusBadRequest, "Validation failed", ve.Violations...)
	case errors.Is(err, ErrNotFound):
		return httpx.NewError(http.StatusNotFound, "Patient not found")
	case errors.Is(err, ErrConflict):
		return httpx.NewError(http.StatusConflict, "Patient was modified by another request", "Reload the patient and resubmit the full record")
	case errors.As(err, &se):
		return &httpx.Error{
			Status:  http.StatusInternalServerError,
			Message: "Risk scoring unavailable",
			Errors:  []string{se.Err.Error()},
			Err:     err,
		}
	case errors.As(err, &pe):
		return &httpx.Error{
			Status:  http.StatusInternalServerError,
			Message: persistenceMessages[pe.Op],
			Errors:  []string{pe.Err.Error()},
			Err:     err,
		}
	}
	return err
}
