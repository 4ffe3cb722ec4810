package handler

import (
	"net/http"
	"strconv"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/middleware"
	"github.com/dafibh/salesplan/salesplan-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// EntityHandler handles budget and forecast line HTTP requests
type EntityHandler struct {
	planningService     *service.PlanningService
	distributionService *service.DistributionService
}

// NewEntityHandler creates a new EntityHandler
func NewEntityHandler(planningService *service.PlanningService, distributionService *service.DistributionService) *EntityHandler {
	return &EntityHandler{
		planningService:     planningService,
		distributionService: distributionService,
	}
}

// CreateEntityRequest represents the create entity request body
type CreateEntityRequest struct {
	Kind        string                 `json:"kind" validate:"required,oneof=budget forecast"`
	CustomerRef string                 `json:"customerRef" validate:"required"`
	ItemRef     string                 `json:"itemRef" validate:"required"`
	Year        int                    `json:"year" validate:"required,gte=1900,lte=2100"`
	UnitRate    string                 `json:"unitRate,omitempty"`
	Months      []domain.MonthlyRecord `json:"months,omitempty" validate:"omitempty,len=12"`
	Confidence  string                 `json:"confidence,omitempty" validate:"omitempty,oneof=high medium low"`
	Notes       string                 `json:"notes,omitempty" validate:"max=2000"`
}

// UpdateMonthsRequest represents the update months request body
type UpdateMonthsRequest struct {
	Months []domain.MonthlyRecord `json:"months" validate:"required,len=12"`
}

// ApplyDistributionRequest represents the apply distribution request body
type ApplyDistributionRequest struct {
	Scheme      string            `json:"scheme" validate:"required,oneof=equal seasonal historical custom"`
	TotalValue  decimal.Decimal   `json:"totalValue"`
	TotalUnits  int64             `json:"totalUnits" validate:"gte=0"`
	Weights     []decimal.Decimal `json:"weights,omitempty"`
	Percentages []decimal.Decimal `json:"percentages,omitempty"`
	UnitRate    decimal.Decimal   `json:"unitRate"`
}

// EntityResponse represents a planning entity in API responses
type EntityResponse struct {
	*domain.PlanningEntity
	YearlyUnits int64  `json:"yearlyUnits"`
	YearlyTotal string `json:"yearlyTotal"`
}

// ListEntities handles GET /api/v1/entities
func (h *EntityHandler) ListEntities(c echo.Context) error {
	filter := entityFilterFromQuery(c)
	if kind := c.QueryParam("kind"); kind != "" {
		filter.Kind = domain.EntityKind(kind)
		if !filter.Kind.IsValid() {
			return NewValidationError(c, "Invalid kind", []ValidationError{
				{Field: "kind", Message: "Must be one of: budget, forecast"},
			})
		}
	}
	if raw := c.QueryParam("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return invalidYear(c)
		}
		filter.Year = year
	}

	entities, err := h.planningService.List(c.Request().Context(), filter)
	if err != nil {
		return NewServiceError(c, err, "list planning entities")
	}

	response := make([]EntityResponse, len(entities))
	for i, e := range entities {
		response[i] = toEntityResponse(e)
	}
	return c.JSON(http.StatusOK, response)
}

// CreateEntity handles POST /api/v1/entities
func (h *EntityHandler) CreateEntity(c echo.Context) error {
	var req CreateEntityRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	unitRate := decimal.Zero
	if req.UnitRate != "" {
		var err error
		unitRate, err = decimal.NewFromString(req.UnitRate)
		if err != nil {
			return NewValidationError(c, "Invalid unit rate", []ValidationError{
				{Field: "unitRate", Message: "Must be a valid decimal number"},
			})
		}
	}

	actor := middleware.GetActor(c)
	entity, err := h.planningService.Create(c.Request().Context(), service.CreateEntityInput{
		Kind:        domain.EntityKind(req.Kind),
		CustomerRef: req.CustomerRef,
		ItemRef:     req.ItemRef,
		Year:        req.Year,
		UnitRate:    unitRate,
		Months:      req.Months,
		Confidence:  domain.Confidence(req.Confidence),
		Notes:       req.Notes,
	}, actor)
	if err != nil {
		return NewServiceError(c, err, "create planning entity")
	}

	return c.JSON(http.StatusCreated, toEntityResponse(entity))
}

// GetEntity handles GET /api/v1/entities/:id
func (h *EntityHandler) GetEntity(c echo.Context) error {
	entity, err := h.planningService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return NewServiceError(c, err, "get planning entity")
	}
	return c.JSON(http.StatusOK, toEntityResponse(entity))
}

// UpdateMonths handles PUT /api/v1/entities/:id/months
func (h *EntityHandler) UpdateMonths(c echo.Context) error {
	var req UpdateMonthsRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	entity, err := h.planningService.UpdateMonths(c.Request().Context(), c.Param("id"), req.Months)
	if err != nil {
		return NewServiceError(c, err, "update months")
	}
	return c.JSON(http.StatusOK, toEntityResponse(entity))
}

// ApplyDistribution handles POST /api/v1/entities/:id/distribution
func (h *EntityHandler) ApplyDistribution(c echo.Context) error {
	var req ApplyDistributionRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx := c.Request().Context()
	entity, err := h.planningService.Get(ctx, c.Param("id"))
	if err != nil {
		return NewServiceError(c, err, "get planning entity")
	}

	dist, err := h.distributionService.Distribute(domain.DistributionRequest{
		TotalValue:  req.TotalValue,
		TotalUnits:  req.TotalUnits,
		Scheme:      domain.DistributionScheme(req.Scheme),
		Year:        entity.Year,
		Weights:     req.Weights,
		Percentages: req.Percentages,
	})
	if err != nil {
		return NewServiceError(c, err, "distribute total")
	}

	updated, err := h.planningService.ApplyDistribution(ctx, entity.ID, dist, req.UnitRate)
	if err != nil {
		return NewServiceError(c, err, "apply distribution")
	}
	return c.JSON(http.StatusOK, toEntityResponse(updated))
}

// ReviseEntity handles POST /api/v1/entities/:id/revise
func (h *EntityHandler) ReviseEntity(c echo.Context) error {
	revision, err := h.planningService.Revise(c.Request().Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		return NewServiceError(c, err, "revise planning entity")
	}
	return c.JSON(http.StatusCreated, toEntityResponse(revision))
}

// DeleteEntity handles DELETE /api/v1/entities/:id
func (h *EntityHandler) DeleteEntity(c echo.Context) error {
	id := c.Param("id")
	if err := h.planningService.Delete(c.Request().Context(), id); err != nil {
		return NewServiceError(c, err, "delete planning entity")
	}

	log.Info().Str("entity_id", id).Str("actor", middleware.GetActorName(c)).Msg("Planning entity deleted via API")
	return c.NoContent(http.StatusNoContent)
}

func toEntityResponse(e *domain.PlanningEntity) EntityResponse {
	return EntityResponse{
		PlanningEntity: e,
		YearlyUnits:    e.YearlyUnits(),
		YearlyTotal:    e.YearlyTotal().StringFixed(2),
	}
}
