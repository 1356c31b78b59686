package simulation

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Handler exposes the simulator over HTTP.
type Handler struct {
	cfg                 SimulatorConfig
	calibrationPatients int
	logger              zerolog.Logger
}

// NewHandler creates a handler that runs simulations against cfg, with
// per-request overrides for patient count and seed. calibrationPatients is
// the population size used when the calibration endpoint gets no override.
func NewHandler(cfg SimulatorConfig, calibrationPatients int, logger zerolog.Logger) *Handler {
	return &Handler{cfg: cfg, calibrationPatients: calibrationPatients, logger: logger}
}

// RegisterRoutes registers simulation routes on the given Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/run", h.handleRun)
	g.GET("/calibration", h.handleCalibration)
	g.GET("/export/visits.csv", h.handleExportVisitsCSV)
	g.GET("/export/home.csv", h.handleExportHomeCSV)
	g.GET("/export/visits.ndjson", h.handleExportVisitsNDJSON)
}

type runRequest struct {
	Patients     int    `json:"patients"`
	Seed         *int64 `json:"seed,omitempty"`
	ReturnLatent bool   `json:"returnLatent"`
}

func (h *Handler) newService(seed *int64) (*Service, error) {
	cfg := h.cfg
	if seed != nil {
		cfg.Seed = *seed
	}
	return NewService(cfg, h.logger)
}

func (h *Handler) handleRun(c echo.Context) error {
	req := runRequest{Patients: 10}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if req.Patients <= 0 {
		req.Patients = 10
	}

	svc, err := h.newService(req.Seed)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	cohort, err := svc.SimulateVisit1(req.Patients)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if !req.ReturnLatent {
		cohort.Latent = nil
	}
	return c.JSON(http.StatusOK, cohort)
}

func (h *Handler) handleCalibration(c echo.Context) error {
	patients := h.calibrationPatients
	if raw := c.QueryParam("patients"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "patients must be a positive integer"})
		}
		patients = p
	}

	svc, err := h.newService(nil)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	report, err := svc.Calibrate(patients)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, report)
}

// exportCohort re-runs the configured simulation for streaming exports.
func (h *Handler) exportCohort(c echo.Context) (*Cohort, error) {
	patients := 10
	if raw := c.QueryParam("patients"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p <= 0 {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "patients must be a positive integer")
		}
		patients = p
	}
	svc, err := h.newService(nil)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cohort, err := svc.SimulateVisit1(patients)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return cohort, nil
}

func (h *Handler) handleExportVisitsCSV(c echo.Context) error {
	cohort, err := h.exportCohort(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().WriteHeader(http.StatusOK)
	return WriteVisitCSV(c.Response(), cohort.Visits)
}

func (h *Handler) handleExportHomeCSV(c echo.Context) error {
	cohort, err := h.exportCohort(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().WriteHeader(http.StatusOK)
	return WriteHomeCSV(c.Response(), cohort.Home)
}

func (h *Handler) handleExportVisitsNDJSON(c echo.Context) error {
	cohort, err := h.exportCohort(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/x-ndjson")
	c.Response().WriteHeader(http.StatusOK)
	return WriteVisitNDJSON(c.Response(), cohort.Visits)
}
