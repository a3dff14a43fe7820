package temporal

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hra/hra/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("admin", "physician", "nurse")

	g := api.Group("", role)
	g.GET("/subjects/:id/risk-trends", h.GetRiskTrends)
	g.GET("/subjects/:id/risk-history", h.GetRiskHistory)
}

func (h *Handler) GetRiskTrends(c echo.Context) error {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid subject id")
	}
	window := Window(c.QueryParam("window"))
	if window == "" {
		window = Window90Days
	}
	report, err := h.svc.Report(c.Request().Context(), subjectID, window)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) GetRiskHistory(c echo.Context) error {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid subject id")
	}
	window := Window(c.QueryParam("window"))
	if window == "" {
		window = Window1Year
	}
	series, err := h.svc.History(c.Request().Context(), subjectID, window)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, series)
}
