package questionnaire

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hra/hra/internal/platform/auth"
	"github.com/hra/hra/pkg/pagination"
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
	g.POST("/questionnaires", h.CreateQuestionnaire)
	g.GET("/questionnaires/:id", h.GetQuestionnaire)
	g.GET("/subjects/:id/questionnaires", h.ListQuestionnaires)
	g.GET("/subjects/:id/questionnaires/latest", h.GetLatestQuestionnaire)
}

func (h *Handler) CreateQuestionnaire(c echo.Context) error {
	var p Processed
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateProcessed(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetQuestionnaire(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetProcessed(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "questionnaire not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListQuestionnaires(c echo.Context) error {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid subject id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForSubject(c.Request().Context(), subjectID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetLatestQuestionnaire(c echo.Context) error {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid subject id")
	}
	p, err := h.svc.GetLatestForSubject(c.Request().Context(), subjectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no questionnaires for subject")
	}
	return c.JSON(http.StatusOK, p)
}
