package handler

import (
	"net/http"
	"testing"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// submitDraft seeds a draft budget line and submits it as alice
func submitDraft(t *testing.T, env *testEnv) domain.WorkflowItem {
	t.Helper()
	env.entities.AddEntity(testutil.NewEntity("b-1", domain.KindBudget, 2025, testutil.SampleRate, testutil.SamplePlanned, nil))

	c, rec := env.newContext(http.MethodPost, "/api/v1/workflows", `{"entityIds": ["b-1"], "message": "Q1 numbers"}`, "alice", domain.RoleSalesman)
	if err := env.handlers.Workflow.Submit(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var item domain.WorkflowItem
	decodeJSON(t, rec, &item)
	return item
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func TestSubmit_Success(t *testing.T) {
	env := newTestEnv(t)
	item := submitDraft(t, env)

	assert.Equal(t, domain.StateSubmitted, item.CurrentState)
	assert.Equal(t, domain.ItemTypeBudget, item.ItemType)
	assert.Equal(t, []string{"b-1"}, item.EntityIDs)
	assert.Equal(t, "alice", item.CreatedBy)
	assert.Equal(t, int64(770), item.Summary.TotalUnits)
	require.Len(t, item.Comments, 1)
	assert.Equal(t, "Q1 numbers", item.Comments[0].Message)
	assert.Equal(t, domain.EntityStatusSubmitted, env.entities.Entities["b-1"].Status)
}

func TestSubmit_Validation(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.newContext(http.MethodPost, "/api/v1/workflows", `{"entityIds": []}`, "alice", domain.RoleSalesman)

	require.NoError(t, env.handlers.Workflow.Submit(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.workflows.Items)
}

func TestSubmit_UnknownEntity(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.newContext(http.MethodPost, "/api/v1/workflows", `{"entityIds": ["missing"]}`, "alice", domain.RoleSalesman)

	require.NoError(t, env.handlers.Workflow.Submit(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmit_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	env.entities.AddEntity(testutil.NewEntity("b-1", domain.KindBudget, 2025, testutil.SampleRate, nil, nil))

	c, rec := env.newContext(http.MethodPost, "/api/v1/workflows", `{"entityIds": ["b-1"]}`, "carol", domain.RoleSupplyChain)
	require.NoError(t, env.handlers.Workflow.Submit(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.EntityStatusDraft, env.entities.Entities["b-1"].Status)
}

func TestDecide_Approve(t *testing.T) {
	env := newTestEnv(t)
	item := submitDraft(t, env)

	c, rec := env.newContext(http.MethodPost, "/api/v1/workflows/"+item.ID+"/decision", `{"decision": "approve", "message": "ok"}`, "mona", domain.RoleManager)
	require.NoError(t, env.handlers.Workflow.Decide(withID(c, item.ID)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var decided domain.WorkflowItem
	decodeJSON(t, rec, &decided)
	assert.Equal(t, domain.StateApproved, decided.CurrentState)
	require.NotNil(t, decided.ApprovedBy)
	assert.Equal(t, "mona", *decided.ApprovedBy)
	assert.Equal(t, domain.CommentKindApproval, decided.Comments[len(decided.Comments)-1].Kind)
	assert.Equal(t, domain.EntityStatusApproved, env.entities.Entities["b-1"].Status)
}

func TestDecide_TerminalItem(t *testing.T) {
	env := newTestEnv(t)
	item := submitDraft(t, env)

	c, rec := env.newContext(http.MethodPost, "/", `{"decision": "reject"}`, "mona", domain.RoleManager)
	require.NoError(t, env.handlers.Workflow.Decide(withID(c, item.ID)))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = env.newContext(http.MethodPost, "/", `{"decision": "approve"}`, "mona", domain.RoleManager)
	require.NoError(t, env.handlers.Workflow.Decide(withID(c, item.ID)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.EntityStatusRejected, env.entities.Entities["b-1"].Status)
}

func TestDecide_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	item := submitDraft(t, env)

	c, rec := env.newContext(http.MethodPost, "/", `{"decision": "approve"}`, "alice", domain.RoleSalesman)
	require.NoError(t, env.handlers.Workflow.Decide(withID(c, item.ID)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.StateSubmitted, env.workflows.Items[item.ID].CurrentState)
}

func TestDecide_InvalidDecision(t *testing.T) {
	env := newTestEnv(t)
	item := submitDraft(t, env)

	c, rec := env.newContext(http.MethodPost, "/", `{"decision": "maybe"}`, "mona", domain.RoleManager)
	require.NoError(t, env.handlers.Workflow.Decide(withID(c, item.ID)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var problem ProblemDetails
	decodeJSON(t, rec, &problem)
	require.NotEmpty(t, problem.Errors)
	assert.Equal(t, "decision", problem.Errors[0].Field)
}

func TestForward_Success(t *testing.T) {
	env := newTestEnv(t)
	item := submitDraft(t, env)

	c, rec := env.newContext(http.MethodPost, "/", `{"targetRole": "supply_chain", "message": "please check stock"}`, "mona", domain.RoleManager)
	require.NoError(t, env.handlers.Workflow.Forward(withID(c, item.ID)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var forwarded domain.WorkflowItem
	decodeJSON(t, rec, &forwarded)
	assert.Equal(t, domain.StateInProgress, forwarded.CurrentState)
	require.NotNil(t, forwarded.ForwardedTo)
	assert.Equal(t, domain.RoleSupplyChain, *forwarded.ForwardedTo)
	assert.Equal(t, domain.EntityStatusInProgress, env.entities.Entities["b-1"].Status)
}

func TestForward_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	item := submitDraft(t, env)

	c, rec := env.newContext(http.MethodPost, "/", `{"targetRole": "manager"}`, "alice", domain.RoleSalesman)
	require.NoError(t, env.handlers.Workflow.Forward(withID(c, item.ID)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t)
	item := submitDraft(t, env)

	c, rec := env.newContext(http.MethodPost, "/", `{"message": "  looks high for March  "}`, "carol", domain.RoleSupplyChain)
	require.NoError(t, env.handlers.Workflow.AddComment(withID(c, item.ID)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var commented domain.WorkflowItem
	decodeJSON(t, rec, &commented)
	require.Len(t, commented.Comments, 2)
	last := commented.Comments[1]
	assert.Equal(t, "carol", last.Author)
	assert.Equal(t, domain.RoleSupplyChain, last.AuthorRole)
	assert.Equal(t, domain.CommentKindComment, last.Kind)
	assert.Equal(t, domain.StateSubmitted, commented.CurrentState)

	c, rec = env.newContext(http.MethodPost, "/", `{}`, "carol", domain.RoleSupplyChain)
	require.NoError(t, env.handlers.Workflow.AddComment(withID(c, item.ID)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAndListWorkflows(t *testing.T) {
	env := newTestEnv(t)
	item := submitDraft(t, env)

	c, rec := env.newContext(http.MethodGet, "/", "", "alice", domain.RoleSalesman)
	require.NoError(t, env.handlers.Workflow.GetWorkflow(withID(c, item.ID)))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = env.newContext(http.MethodGet, "/", "", "alice", domain.RoleSalesman)
	require.NoError(t, env.handlers.Workflow.GetWorkflow(withID(c, "missing")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = env.newContext(http.MethodGet, "/api/v1/workflows?state=submitted&type=budget", "", "alice", domain.RoleSalesman)
	require.NoError(t, env.handlers.Workflow.ListWorkflows(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []domain.WorkflowItem
	decodeJSON(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)

	c, rec = env.newContext(http.MethodGet, "/api/v1/workflows?state=approved", "", "alice", domain.RoleSalesman)
	require.NoError(t, env.handlers.Workflow.ListWorkflows(c))
	decodeJSON(t, rec, &items)
	assert.Empty(t, items)
}
