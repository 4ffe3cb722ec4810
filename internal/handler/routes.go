package handler

import (
	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers bundles every API handler
type Handlers struct {
	Auth      *AuthHandler
	Dashboard *DashboardHandler
	Entity    *EntityHandler
	Tools     *PlanningToolsHandler
	Workflow  *WorkflowHandler
	File      *FileHandler
	Catalog   *CatalogHandler
}

// RegisterRoutes sets up all API routes. authenticate establishes the caller's identity,
// rateLimit runs after it so limits are keyed by subject.
func RegisterRoutes(e *echo.Echo, authenticate, rateLimit echo.MiddlewareFunc, authorizer domain.Authorizer, h Handlers) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(authenticate, rateLimit)

	// Identity (any known role)
	api.GET("/auth/me", h.Auth.Me)

	// Everything below needs dashboard access
	planning := api.Group("", middleware.RequireDashboardAccess(authorizer))

	// Catalog routes
	planning.GET("/catalog/customers", h.Catalog.GetCustomers)
	planning.GET("/catalog/items", h.Catalog.GetItems)

	// Dashboard routes
	dashboard := planning.Group("/dashboard")
	dashboard.GET("/totals", h.Dashboard.GetTotals)
	dashboard.GET("/monthly", h.Dashboard.GetMonthly)
	dashboard.GET("/calendar", h.Dashboard.GetCalendar)

	// Planning entity routes
	entities := planning.Group("/entities")
	entities.GET("", h.Entity.ListEntities)
	entities.POST("", h.Entity.CreateEntity)
	entities.GET("/:id", h.Entity.GetEntity)
	entities.DELETE("/:id", h.Entity.DeleteEntity)
	entities.PUT("/:id/months", h.Entity.UpdateMonths)
	entities.POST("/:id/revise", h.Entity.ReviseEntity)
	entities.POST("/:id/distribution", h.Entity.ApplyDistribution)

	// Preview routes (no side effects)
	planning.POST("/distributions/preview", h.Tools.PreviewDistribution)
	planning.GET("/scenarios/presets", h.Tools.GetScenarioPresets)
	planning.POST("/scenarios/preview", h.Tools.PreviewScenario)

	// Workflow routes
	workflows := planning.Group("/workflows")
	workflows.GET("", h.Workflow.ListWorkflows)
	workflows.POST("", h.Workflow.Submit)
	workflows.GET("/:id", h.Workflow.GetWorkflow)
	workflows.POST("/:id/decision", h.Workflow.Decide)
	workflows.POST("/:id/forward", h.Workflow.Forward)
	workflows.POST("/:id/comments", h.Workflow.AddComment)

	// File routes
	planning.POST("/exports", h.File.Export)
	planning.POST("/imports", h.File.Import)
}
