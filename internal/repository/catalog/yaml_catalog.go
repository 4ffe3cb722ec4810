package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type itemEntry struct {
	domain.Item `yaml:",inline"`
	UnitPrice   string `yaml:"unitPrice"`
}

type catalogFile struct {
	Customers []domain.Customer `yaml:"customers"`
	Items     []itemEntry       `yaml:"items"`
}

// YAMLCatalog implements domain.Catalog over a read-only YAML file
type YAMLCatalog struct {
	customers map[string]domain.Customer
	items     map[string]domain.Item
}

var _ domain.Catalog = (*YAMLCatalog)(nil)

// LoadFile reads a catalog from path
func LoadFile(path string) (*YAMLCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML. Refs must be unique and prices positive.
func Parse(data []byte) (*YAMLCatalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: catalog: %v", domain.ErrInvalidInput, err)
	}

	c := &YAMLCatalog{
		customers: make(map[string]domain.Customer, len(file.Customers)),
		items:     make(map[string]domain.Item, len(file.Items)),
	}
	for _, cust := range file.Customers {
		ref := strings.TrimSpace(cust.Ref)
		if ref == "" || cust.Name == "" {
			return nil, fmt.Errorf("%w: customer needs ref and name", domain.ErrInvalidInput)
		}
		if _, dup := c.customers[ref]; dup {
			return nil, fmt.Errorf("%w: duplicate customer %s", domain.ErrInvalidInput, ref)
		}
		cust.Ref = ref
		c.customers[ref] = cust
	}
	for _, entry := range file.Items {
		item := entry.Item
		item.Ref = strings.TrimSpace(item.Ref)
		if item.Ref == "" || item.Name == "" {
			return nil, fmt.Errorf("%w: item needs ref and name", domain.ErrInvalidInput)
		}
		if _, dup := c.items[item.Ref]; dup {
			return nil, fmt.Errorf("%w: duplicate item %s", domain.ErrInvalidInput, item.Ref)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(entry.UnitPrice))
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("%w: item %s unit price %q", domain.ErrInvalidInput, item.Ref, entry.UnitPrice)
		}
		item.UnitPrice = price
		c.items[item.Ref] = item
	}
	return c, nil
}

// Customer resolves a customer reference
func (c *YAMLCatalog) Customer(ctx context.Context, ref string) (*domain.Customer, error) {
	cust, ok := c.customers[strings.TrimSpace(ref)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCustomer, ref)
	}
	return &cust, nil
}

// Item resolves an item reference
func (c *YAMLCatalog) Item(ctx context.Context, ref string) (*domain.Item, error) {
	item, ok := c.items[strings.TrimSpace(ref)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownItem, ref)
	}
	return &item, nil
}

// Customers lists every customer ordered by name
func (c *YAMLCatalog) Customers() []domain.Customer {
	out := make([]domain.Customer, 0, len(c.customers))
	for _, cust := range c.customers {
		out = append(out, cust)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Items lists every item ordered by name
func (c *YAMLCatalog) Items() []domain.Item {
	out := make([]domain.Item, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
