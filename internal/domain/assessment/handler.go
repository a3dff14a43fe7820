package assessment

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hra/hra/internal/domain/questionnaire"
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
	g.POST("/assessments", h.CreateAssessment)
	g.POST("/assessments/bulk", h.BulkAssess)
	g.POST("/emergency-reassessments", h.EmergencyReassess)
}

// AssessmentRequest accepts either an inline questionnaire snapshot or a
// reference to a stored one.
type AssessmentRequest struct {
	SubjectID       uuid.UUID                `json:"subject_id"`
	QuestionnaireID uuid.UUID                `json:"questionnaire_id,omitempty"`
	Questionnaire   *questionnaire.Processed `json:"questionnaire,omitempty"`
	Profile         *SubjectProfile          `json:"profile,omitempty"`
}

func (h *Handler) CreateAssessment(c echo.Context) error {
	var req AssessmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var (
		result *Result
		err    error
	)
	if req.Questionnaire != nil {
		if req.Questionnaire.SubjectID == uuid.Nil {
			req.Questionnaire.SubjectID = req.SubjectID
		}
		result, err = h.svc.Assess(c.Request().Context(), req.Questionnaire, req.Profile)
	} else {
		result, err = h.svc.AssessStored(c.Request().Context(), BulkItem{
			SubjectID:       req.SubjectID,
			QuestionnaireID: req.QuestionnaireID,
			Profile:         req.Profile,
		})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

type BulkAssessmentRequest struct {
	Items []BulkItem `json:"items"`
}

type BulkAssessmentResponse struct {
	Total     int          `json:"total"`
	Completed int          `json:"completed"`
	Failed    int          `json:"failed"`
	Results   []BulkResult `json:"results"`
}

func (h *Handler) BulkAssess(c echo.Context) error {
	var req BulkAssessmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "items is required")
	}

	results := h.svc.BulkAssess(c.Request().Context(), req.Items)
	resp := BulkAssessmentResponse{Total: len(results), Results: results}
	for _, r := range results {
		if r.Status == BulkCompleted {
			resp.Completed++
		} else {
			resp.Failed++
		}
	}
	return c.JSON(http.StatusOK, resp)
}

type EmergencyReassessRequest struct {
	SubjectID uuid.UUID `json:"subject_id"`
	Symptoms  []string  `json:"symptoms"`
}

func (h *Handler) EmergencyReassess(c echo.Context) error {
	var req EmergencyReassessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	eval, err := h.svc.EmergencyReassess(c.Request().Context(), req.SubjectID, req.Symptoms)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, eval)
}
