package handler

import (
	"net/http"
	"strconv"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// DashboardHandler handles dashboard-related HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// SeriesResponse is one value/units series in API responses
type SeriesResponse struct {
	Value string `json:"value"`
	Units int64  `json:"units"`
}

// StatusResponse is one status card in API responses
type StatusResponse struct {
	Count int    `json:"count"`
	Value string `json:"value"`
}

// TotalsResponse represents the dashboard totals API response
type TotalsResponse struct {
	Year            int                                   `json:"year"`
	Budget          SeriesResponse                        `json:"budget"`
	Actual          SeriesResponse                        `json:"actual"`
	Forecast        SeriesResponse                        `json:"forecast"`
	FallbackRatio   string                                `json:"fallbackRatio"`
	PastMonths      []domain.MonthName                    `json:"pastMonths"`
	RemainingMonths []domain.MonthName                    `json:"remainingMonths"`
	BudgetStatus    map[domain.EntityStatus]StatusResponse `json:"budgetStatus"`
	ForecastStatus  map[domain.EntityStatus]StatusResponse `json:"forecastStatus"`
}

// MonthTotalsResponse represents one month of the breakdown
type MonthTotalsResponse struct {
	Month    domain.MonthName `json:"month"`
	IsPast   bool             `json:"isPast"`
	Budget   SeriesResponse   `json:"budget"`
	Actual   SeriesResponse   `json:"actual"`
	Forecast SeriesResponse   `json:"forecast"`
}

// GetTotals handles GET /api/v1/dashboard/totals
func (h *DashboardHandler) GetTotals(c echo.Context) error {
	year, ok := parseYearQuery(c, h.dashboardService.CurrentYear())
	if !ok {
		return invalidYear(c)
	}

	summary, err := h.dashboardService.GetSummary(c.Request().Context(), year, entityFilterFromQuery(c))
	if err != nil {
		return NewServiceError(c, err, "get dashboard totals")
	}

	return c.JSON(http.StatusOK, TotalsResponse{
		Year:            summary.Year,
		Budget:          toSeriesResponse(summary.Totals.Budget),
		Actual:          toSeriesResponse(summary.Totals.Actual),
		Forecast:        toSeriesResponse(summary.Totals.Forecast),
		FallbackRatio:   summary.FallbackRatio,
		PastMonths:      summary.PastMonths,
		RemainingMonths: summary.RemainingMonths,
		BudgetStatus:    toStatusResponse(summary.BudgetStatus),
		ForecastStatus:  toStatusResponse(summary.ForecastStatus),
	})
}

// GetMonthly handles GET /api/v1/dashboard/monthly
func (h *DashboardHandler) GetMonthly(c echo.Context) error {
	year, ok := parseYearQuery(c, h.dashboardService.CurrentYear())
	if !ok {
		return invalidYear(c)
	}

	months, err := h.dashboardService.GetMonthly(c.Request().Context(), year, entityFilterFromQuery(c))
	if err != nil {
		return NewServiceError(c, err, "get monthly breakdown")
	}

	response := make([]MonthTotalsResponse, len(months))
	for i, m := range months {
		response[i] = MonthTotalsResponse{
			Month:    m.Month,
			IsPast:   m.IsPast,
			Budget:   toSeriesResponse(m.Budget),
			Actual:   toSeriesResponse(m.Actual),
			Forecast: toSeriesResponse(m.Forecast),
		}
	}
	return c.JSON(http.StatusOK, response)
}

// GetCalendar handles GET /api/v1/dashboard/calendar
func (h *DashboardHandler) GetCalendar(c echo.Context) error {
	year, ok := parseYearQuery(c, h.dashboardService.CurrentYear())
	if !ok {
		return invalidYear(c)
	}
	return c.JSON(http.StatusOK, h.dashboardService.GetCalendar(year))
}

// parseYearQuery reads the optional year query parameter
func parseYearQuery(c echo.Context, fallback int) (int, bool) {
	raw := c.QueryParam("year")
	if raw == "" {
		return fallback, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < domain.MinPlanningYear || year > domain.MaxPlanningYear {
		return 0, false
	}
	return year, true
}

func invalidYear(c echo.Context) error {
	return NewValidationError(c, "Invalid year", []ValidationError{
		{Field: "year", Message: "Must be an integer between 1900 and 2100"},
	})
}

// entityFilterFromQuery reads the shared listing filters
func entityFilterFromQuery(c echo.Context) domain.EntityFilter {
	return domain.EntityFilter{
		Status:      domain.EntityStatus(c.QueryParam("status")),
		CustomerRef: c.QueryParam("customer"),
		ItemRef:     c.QueryParam("item"),
		Category:    c.QueryParam("category"),
		Brand:       c.QueryParam("brand"),
		Search:      c.QueryParam("search"),
	}
}

func toSeriesResponse(s domain.SeriesTotal) SeriesResponse {
	return SeriesResponse{Value: s.Value.StringFixed(2), Units: s.Units}
}

func toStatusResponse(summary map[domain.EntityStatus]domain.StatusTotals) map[domain.EntityStatus]StatusResponse {
	out := make(map[domain.EntityStatus]StatusResponse, len(summary))
	for status, st := range summary {
		out[status] = StatusResponse{Count: st.Count, Value: st.Value.StringFixed(2)}
	}
	return out
}
