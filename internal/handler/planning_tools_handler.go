package handler

import (
	"net/http"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// PlanningToolsHandler serves the side-effect free distribution and scenario previews
type PlanningToolsHandler struct {
	distributionService *service.DistributionService
	scenarioService     *service.ScenarioService
	planningService     *service.PlanningService
}

// NewPlanningToolsHandler creates a new PlanningToolsHandler
func NewPlanningToolsHandler(
	distributionService *service.DistributionService,
	scenarioService *service.ScenarioService,
	planningService *service.PlanningService,
) *PlanningToolsHandler {
	return &PlanningToolsHandler{
		distributionService: distributionService,
		scenarioService:     scenarioService,
		planningService:     planningService,
	}
}

// DistributionPreviewRequest represents the distribution preview request body
type DistributionPreviewRequest struct {
	Scheme      string            `json:"scheme" validate:"required,oneof=equal seasonal historical custom"`
	Year        int               `json:"year" validate:"required,gte=1900,lte=2100"`
	TotalValue  decimal.Decimal   `json:"totalValue"`
	TotalUnits  int64             `json:"totalUnits" validate:"gte=0"`
	Weights     []decimal.Decimal `json:"weights,omitempty"`
	Percentages []decimal.Decimal `json:"percentages,omitempty"`
}

// ScenarioPreviewRequest represents the scenario preview request body. The base is
// either a stored entity or an explicit set of months; the adjustments either a
// preset or explicit knobs.
type ScenarioPreviewRequest struct {
	EntityID    string                      `json:"entityId,omitempty"`
	Months      []domain.MonthlyRecord      `json:"months,omitempty" validate:"omitempty,len=12"`
	PresetID    string                      `json:"presetId,omitempty"`
	Adjustments *domain.ScenarioAdjustments `json:"adjustments,omitempty"`
}

// PreviewDistribution handles POST /api/v1/distributions/preview
func (h *PlanningToolsHandler) PreviewDistribution(c echo.Context) error {
	var req DistributionPreviewRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	dist, err := h.distributionService.Distribute(domain.DistributionRequest{
		TotalValue:  req.TotalValue,
		TotalUnits:  req.TotalUnits,
		Scheme:      domain.DistributionScheme(req.Scheme),
		Year:        req.Year,
		Weights:     req.Weights,
		Percentages: req.Percentages,
	})
	if err != nil {
		return NewServiceError(c, err, "preview distribution")
	}
	return c.JSON(http.StatusOK, dist)
}

// GetScenarioPresets handles GET /api/v1/scenarios/presets
func (h *PlanningToolsHandler) GetScenarioPresets(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scenarioService.Presets())
}

// PreviewScenario handles POST /api/v1/scenarios/preview
func (h *PlanningToolsHandler) PreviewScenario(c echo.Context) error {
	var req ScenarioPreviewRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	base := req.Months
	if req.EntityID != "" {
		entity, err := h.planningService.Get(c.Request().Context(), req.EntityID)
		if err != nil {
			return NewServiceError(c, err, "get planning entity")
		}
		base = entity.Months
	}
	if len(base) == 0 {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "months", Message: "Provide months or an entityId"},
		})
	}

	var adj domain.ScenarioAdjustments
	switch {
	case req.PresetID != "":
		preset, err := h.scenarioService.Preset(req.PresetID)
		if err != nil {
			return NewServiceError(c, err, "get scenario preset")
		}
		adj = preset.Adjustments
	case req.Adjustments != nil:
		adj = *req.Adjustments
	default:
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "adjustments", Message: "Provide adjustments or a presetId"},
		})
	}

	result, err := h.scenarioService.Preview(base, adj)
	if err != nil {
		return NewServiceError(c, err, "preview scenario")
	}
	return c.JSON(http.StatusOK, result)
}
