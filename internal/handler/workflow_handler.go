package handler

import (
	"net/http"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/middleware"
	"github.com/dafibh/salesplan/salesplan-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// WorkflowHandler handles approval workflow HTTP requests
type WorkflowHandler struct {
	workflowService *service.WorkflowService
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(workflowService *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{
		workflowService: workflowService,
	}
}

// SubmitRequest represents the submit for approval request body
type SubmitRequest struct {
	EntityIDs []string `json:"entityIds" validate:"required,min=1"`
	Message   string   `json:"message" validate:"max=2000"`
}

// DecisionRequest represents the approve/reject request body
type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Message  string `json:"message" validate:"max=2000"`
}

// ForwardRequest represents the forward request body
type ForwardRequest struct {
	TargetRole string `json:"targetRole" validate:"required,oneof=admin salesman manager supply_chain"`
	Message    string `json:"message" validate:"max=2000"`
}

// CommentRequest represents the add comment request body
type CommentRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// ListWorkflows handles GET /api/v1/workflows
func (h *WorkflowHandler) ListWorkflows(c echo.Context) error {
	filter := domain.WorkflowFilter{
		State:    domain.WorkflowState(c.QueryParam("state")),
		ItemType: domain.WorkflowItemType(c.QueryParam("type")),
		Search:   c.QueryParam("search"),
	}

	items, err := h.workflowService.List(c.Request().Context(), filter)
	if err != nil {
		return NewServiceError(c, err, "list workflow items")
	}
	return c.JSON(http.StatusOK, items)
}

// GetWorkflow handles GET /api/v1/workflows/:id
func (h *WorkflowHandler) GetWorkflow(c echo.Context) error {
	item, err := h.workflowService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return NewServiceError(c, err, "get workflow item")
	}
	return c.JSON(http.StatusOK, item)
}

// Submit handles POST /api/v1/workflows
func (h *WorkflowHandler) Submit(c echo.Context) error {
	var req SubmitRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	item, err := h.workflowService.SubmitForApproval(c.Request().Context(), req.EntityIDs, middleware.GetActor(c), req.Message)
	if err != nil {
		return NewServiceError(c, err, "submit for approval")
	}
	return c.JSON(http.StatusCreated, item)
}

// Decide handles POST /api/v1/workflows/:id/decision
func (h *WorkflowHandler) Decide(c echo.Context) error {
	var req DecisionRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	item, err := h.workflowService.Decide(c.Request().Context(), c.Param("id"), domain.Decision(req.Decision), middleware.GetActor(c), req.Message)
	if err != nil {
		return NewServiceError(c, err, "record decision")
	}
	return c.JSON(http.StatusOK, item)
}

// Forward handles POST /api/v1/workflows/:id/forward
func (h *WorkflowHandler) Forward(c echo.Context) error {
	var req ForwardRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	item, err := h.workflowService.Forward(c.Request().Context(), c.Param("id"), middleware.GetActor(c), domain.Role(req.TargetRole), req.Message)
	if err != nil {
		return NewServiceError(c, err, "forward workflow item")
	}
	return c.JSON(http.StatusOK, item)
}

// AddComment handles POST /api/v1/workflows/:id/comments
func (h *WorkflowHandler) AddComment(c echo.Context) error {
	var req CommentRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	item, err := h.workflowService.AddComment(c.Request().Context(), c.Param("id"), middleware.GetActor(c), req.Message)
	if err != nil {
		return NewServiceError(c, err, "add comment")
	}
	return c.JSON(http.StatusCreated, item)
}
