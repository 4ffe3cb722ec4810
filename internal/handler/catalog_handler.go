package handler

import (
	"net/http"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/labstack/echo/v4"
)

// CatalogLister lists every known customer and item
type CatalogLister interface {
	Customers() []domain.Customer
	Items() []domain.Item
}

// CatalogHandler serves the customer and item pickers
type CatalogHandler struct {
	catalog CatalogLister
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog CatalogLister) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GetCustomers handles GET /api/v1/catalog/customers
func (h *CatalogHandler) GetCustomers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Customers())
}

// GetItems handles GET /api/v1/catalog/items
func (h *CatalogHandler) GetItems(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Items())
}
