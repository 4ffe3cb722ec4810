package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
customers:
  - ref: CUST-002
    name: Globex Ltd
    region: South
    active: true
  - ref: CUST-001
    name: Acme Corporation
    seasonality: high
    active: true
items:
  - ref: ITEM-001
    sku: WP-100
    name: Widget Pro
    category: Widgets
    brand: Acme
    unitPrice: "285.50"
    active: true
`

func TestParse_Resolves(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	ctx := context.Background()

	cust, err := c.Customer(ctx, " CUST-001 ")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corporation", cust.Name)
	assert.Equal(t, domain.ConfidenceHigh, cust.Seasonality)

	item, err := c.Item(ctx, "ITEM-001")
	require.NoError(t, err)
	assert.Equal(t, "Widgets", item.Category)
	assert.Equal(t, "Acme", item.Brand)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("285.5")), "got %s", item.UnitPrice)
}

func TestParse_UnknownRefs(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	_, err = c.Customer(context.Background(), "CUST-999")
	assert.True(t, errors.Is(err, domain.ErrUnknownCustomer))

	_, err = c.Item(context.Background(), "ITEM-999")
	assert.True(t, errors.Is(err, domain.ErrUnknownItem))
}

func TestParse_ReturnsCopies(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	cust, _ := c.Customer(context.Background(), "CUST-001")
	cust.Name = "changed"

	again, _ := c.Customer(context.Background(), "CUST-001")
	assert.Equal(t, "Acme Corporation", again.Name)
}

func TestParse_ListsSortedByName(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	customers := c.Customers()
	require.Len(t, customers, 2)
	assert.Equal(t, "Acme Corporation", customers[0].Name)
	assert.Equal(t, "Globex Ltd", customers[1].Name)
	assert.Len(t, c.Items(), 1)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "customers: [unterminated"},
		{"customer without ref", "customers:\n  - name: Nobody\n"},
		{"duplicate customer", "customers:\n  - ref: C\n    name: A\n  - ref: C\n    name: B\n"},
		{"item without price", "items:\n  - ref: I\n    name: Thing\n"},
		{"item with zero price", "items:\n  - ref: I\n    name: Thing\n    unitPrice: \"0\"\n"},
		{"duplicate item", "items:\n  - ref: I\n    name: A\n    unitPrice: \"1\"\n  - ref: I\n    name: B\n    unitPrice: \"2\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, c.Customers(), 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
