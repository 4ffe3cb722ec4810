package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEntity_Success(t *testing.T) {
	env := newTestEnv(t)
	body := `{"kind": "budget", "customerRef": "CUST-002", "itemRef": "ITEM-002", "year": 2025}`
	c, rec := env.newContext(http.MethodPost, "/api/v1/entities", body, "alice", domain.RoleSalesman)

	err := env.handlers.Entity.CreateEntity(c)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var response EntityResponse
	decodeJSON(t, rec, &response)

	assert.NotEmpty(t, response.ID)
	assert.Equal(t, "Globex Ltd", response.CustomerName)
	assert.Equal(t, "Gadget Lite", response.ItemName)
	assert.Equal(t, domain.EntityStatusDraft, response.Status)
	assert.Equal(t, "alice", response.CreatedBy)
	assert.Len(t, response.Months, 12)
	assert.Equal(t, "0.00", response.YearlyTotal)
	assert.Len(t, env.entities.Entities, 1)
}

func TestCreateEntity_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"missing customer", `{"kind": "budget", "itemRef": "ITEM-001", "year": 2025}`, "customerRef"},
		{"unknown kind", `{"kind": "plan", "customerRef": "CUST-001", "itemRef": "ITEM-001", "year": 2025}`, "kind"},
		{"year out of range", `{"kind": "budget", "customerRef": "CUST-001", "itemRef": "ITEM-001", "year": 1800}`, "year"},
		{"partial months", `{"kind": "budget", "customerRef": "CUST-001", "itemRef": "ITEM-001", "year": 2025, "months": [{"month": "Jan", "plannedQuantity": 1, "unitRate": "1"}]}`, "months"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			c, rec := env.newContext(http.MethodPost, "/api/v1/entities", tt.body, "alice", domain.RoleSalesman)

			require.NoError(t, env.handlers.Entity.CreateEntity(c))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var problem ProblemDetails
			decodeJSON(t, rec, &problem)
			require.NotEmpty(t, problem.Errors)
			assert.Equal(t, tt.wantField, problem.Errors[0].Field)
			assert.Equal(t, ErrorTypeValidation, problem.Type)
		})
	}
}

func TestCreateEntity_UnknownCustomer(t *testing.T) {
	env := newTestEnv(t)
	body := `{"kind": "forecast", "customerRef": "CUST-999", "itemRef": "ITEM-001", "year": 2025}`
	c, rec := env.newContext(http.MethodPost, "/api/v1/entities", body, "alice", domain.RoleSalesman)

	require.NoError(t, env.handlers.Entity.CreateEntity(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "CUST-999")
}

func TestCreateEntity_InvalidUnitRate(t *testing.T) {
	env := newTestEnv(t)
	body := `{"kind": "budget", "customerRef": "CUST-001", "itemRef": "ITEM-001", "year": 2025, "unitRate": "abc"}`
	c, rec := env.newContext(http.MethodPost, "/api/v1/entities", body, "alice", domain.RoleSalesman)

	require.NoError(t, env.handlers.Entity.CreateEntity(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unitRate")
}

func TestGetEntity_NotFound(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.newContext(http.MethodGet, "/api/v1/entities/missing", "", "alice", domain.RoleSalesman)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	require.NoError(t, env.handlers.Entity.GetEntity(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEntities_Filters(t *testing.T) {
	env := newTestEnv(t)
	env.entities.AddEntity(testutil.NewEntity("b-1", domain.KindBudget, 2025, testutil.SampleRate, testutil.SamplePlanned, nil))
	env.entities.AddEntity(testutil.NewEntity("b-2", domain.KindBudget, 2026, testutil.SampleRate, nil, nil))
	env.entities.AddEntity(testutil.NewEntity("f-1", domain.KindForecast, 2025, testutil.SampleRate, nil, nil))

	c, rec := env.newContext(http.MethodGet, "/api/v1/entities?kind=budget&year=2025", "", "alice", domain.RoleSalesman)
	require.NoError(t, env.handlers.Entity.ListEntities(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var response []EntityResponse
	decodeJSON(t, rec, &response)
	require.Len(t, response, 1)
	assert.Equal(t, "b-1", response[0].ID)
	assert.Equal(t, int64(770), response[0].YearlyUnits)
	assert.Equal(t, "219835.00", response[0].YearlyTotal)

	c, rec = env.newContext(http.MethodGet, "/api/v1/entities?kind=plan", "", "alice", domain.RoleSalesman)
	require.NoError(t, env.handlers.Entity.ListEntities(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMonths_LockedEntity(t *testing.T) {
	env := newTestEnv(t)
	submitted := testutil.NewEntity("b-1", domain.KindBudget, 2025, testutil.SampleRate, nil, nil)
	submitted.Status = domain.EntityStatusSubmitted
	env.entities.AddEntity(submitted)

	body := `{"months": [` + monthsJSON(2025, 10) + `]}`
	c, rec := env.newContext(http.MethodPut, "/api/v1/entities/b-1/months", body, "alice", domain.RoleSalesman)
	c.SetParamNames("id")
	c.SetParamValues("b-1")

	require.NoError(t, env.handlers.Entity.UpdateMonths(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var problem ProblemDetails
	decodeJSON(t, rec, &problem)
	assert.Equal(t, ErrorTypeConflict, problem.Type)
}

func TestUpdateMonths_Success(t *testing.T) {
	env := newTestEnv(t)
	env.entities.AddEntity(testutil.NewEntity("b-1", domain.KindBudget, 2025, testutil.SampleRate, nil, nil))

	body := `{"months": [` + monthsJSON(2025, 10) + `]}`
	c, rec := env.newContext(http.MethodPut, "/api/v1/entities/b-1/months", body, "alice", domain.RoleSalesman)
	c.SetParamNames("id")
	c.SetParamValues("b-1")

	require.NoError(t, env.handlers.Entity.UpdateMonths(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response EntityResponse
	decodeJSON(t, rec, &response)
	assert.Equal(t, int64(120), response.YearlyUnits)
	assert.Equal(t, "34260.00", response.YearlyTotal)
}

func TestApplyDistribution_Equal(t *testing.T) {
	env := newTestEnv(t)
	env.entities.AddEntity(testutil.NewEntity("b-1", domain.KindBudget, 2025, testutil.SampleRate, nil, nil))

	body := `{"scheme": "equal", "totalValue": "120000", "totalUnits": 770}`
	c, rec := env.newContext(http.MethodPost, "/api/v1/entities/b-1/distribution", body, "alice", domain.RoleSalesman)
	c.SetParamNames("id")
	c.SetParamValues("b-1")

	require.NoError(t, env.handlers.Entity.ApplyDistribution(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response EntityResponse
	decodeJSON(t, rec, &response)
	assert.Equal(t, int64(770), response.YearlyUnits)
	assert.Equal(t, int64(65), response.Months[0].PlannedQuantity)
	assert.Equal(t, int64(64), response.Months[2].PlannedQuantity)
	assert.Equal(t, "153.8462", response.Months[0].UnitRate.String())
	assert.Equal(t, "156.25", response.Months[2].UnitRate.String())
	assert.Equal(t, "120000.00", response.YearlyTotal)
}

func TestApplyDistribution_InvalidCustom(t *testing.T) {
	env := newTestEnv(t)
	env.entities.AddEntity(testutil.NewEntity("b-1", domain.KindBudget, 2025, testutil.SampleRate, nil, nil))

	body := `{"scheme": "custom", "totalValue": "1200", "totalUnits": 12, "percentages": ["50", "50"]}`
	c, rec := env.newContext(http.MethodPost, "/api/v1/entities/b-1/distribution", body, "alice", domain.RoleSalesman)
	c.SetParamNames("id")
	c.SetParamValues("b-1")

	require.NoError(t, env.handlers.Entity.ApplyDistribution(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int64(0), env.entities.Entities["b-1"].YearlyUnits())
}

func TestReviseEntity(t *testing.T) {
	env := newTestEnv(t)
	approved := testutil.NewEntity("b-1", domain.KindBudget, 2025, testutil.SampleRate, testutil.SamplePlanned, nil)
	approved.Status = domain.EntityStatusApproved
	approved.Revision = 1
	env.entities.AddEntity(approved)

	c, rec := env.newContext(http.MethodPost, "/api/v1/entities/b-1/revise", "", "alice", domain.RoleSalesman)
	c.SetParamNames("id")
	c.SetParamValues("b-1")

	require.NoError(t, env.handlers.Entity.ReviseEntity(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var response EntityResponse
	decodeJSON(t, rec, &response)
	assert.Equal(t, 2, response.Revision)
	require.NotNil(t, response.RevisionOf)
	assert.Equal(t, "b-1", *response.RevisionOf)
	assert.Equal(t, domain.EntityStatusRevised, env.entities.Entities["b-1"].Status)
}

func TestDeleteEntity(t *testing.T) {
	env := newTestEnv(t)
	env.entities.AddEntity(testutil.NewEntity("b-1", domain.KindBudget, 2025, testutil.SampleRate, nil, nil))
	approved := testutil.NewEntity("b-2", domain.KindBudget, 2025, testutil.SampleRate, nil, nil)
	approved.Status = domain.EntityStatusApproved
	env.entities.AddEntity(approved)

	c, rec := env.newContext(http.MethodDelete, "/api/v1/entities/b-1", "", "alice", domain.RoleSalesman)
	c.SetParamNames("id")
	c.SetParamValues("b-1")
	require.NoError(t, env.handlers.Entity.DeleteEntity(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, env.entities.Entities, "b-1")

	c, rec = env.newContext(http.MethodDelete, "/api/v1/entities/b-2", "", "alice", domain.RoleSalesman)
	c.SetParamNames("id")
	c.SetParamValues("b-2")
	require.NoError(t, env.handlers.Entity.DeleteEntity(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// monthsJSON renders twelve month records of units each at the sample rate
func monthsJSON(year int, units int64) string {
	parts := make([]string, 0, domain.MonthsPerYear)
	for _, name := range domain.CanonicalMonths {
		parts = append(parts, fmt.Sprintf(`{"month": %q, "year": %d, "plannedQuantity": %d, "unitRate": %q}`, name, year, units, testutil.SampleRate))
	}
	return strings.Join(parts, ", ")
}
