package titration

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hfsim/hfsim/internal/domain/simulation"
)

// Handler exposes the titration advisor over HTTP.
type Handler struct {
	advisor *Advisor
	logger  zerolog.Logger
}

// NewHandler creates a handler evaluating the given protocol thresholds.
func NewHandler(advisor *Advisor, logger zerolog.Logger) *Handler {
	return &Handler{advisor: advisor, logger: logger}
}

// RegisterRoutes registers titration routes on the given Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/recommend", h.handleRecommend)
	g.POST("/batch", h.handleBatch)
}

// handleRecommend evaluates one record. Missing fields take the documented
// defaults (doses 0, flags false, TIR 0, Cr_pct_ch absent means renal-safe),
// so a minimal payload is always answerable.
func (h *Handler) handleRecommend(c echo.Context) error {
	var in VisitInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if in.Sex == "" {
		in.Sex = simulation.SexMale
	}
	return c.JSON(http.StatusOK, h.advisor.Recommend(in))
}

func (h *Handler) handleBatch(c echo.Context) error {
	var visits []simulation.VisitRecord
	if err := c.Bind(&visits); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	rows := AddTitrationColumns(h.advisor, visits)
	h.logger.Debug().Int("rows", len(rows)).Msg("batch titration applied")
	return c.JSON(http.StatusOK, rows)
}
