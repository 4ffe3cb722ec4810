package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntityKind distinguishes budget lines from forecast lines
type EntityKind string

const (
	KindBudget   EntityKind = "budget"
	KindForecast EntityKind = "forecast"
)

// IsValid reports whether the kind is known
func (k EntityKind) IsValid() bool {
	return k == KindBudget || k == KindForecast
}

// EntityStatus is the lifecycle status of a planning entity
type EntityStatus string

const (
	EntityStatusDraft      EntityStatus = "draft"
	EntityStatusSubmitted  EntityStatus = "submitted"
	EntityStatusInProgress EntityStatus = "in_progress"
	EntityStatusApproved   EntityStatus = "approved"
	EntityStatusRejected   EntityStatus = "rejected"
	EntityStatusRevised    EntityStatus = "revised"
)

// IsValid reports whether s is a known lifecycle status
func (s EntityStatus) IsValid() bool {
	switch s {
	case EntityStatusDraft, EntityStatusSubmitted, EntityStatusInProgress,
		EntityStatusApproved, EntityStatusRejected, EntityStatusRevised:
		return true
	}
	return false
}

// Confidence is the forecaster's confidence in a forecast line
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// PlanningEntity is a customer×item budget or forecast line for one year
type PlanningEntity struct {
	ID           string          `json:"id"`
	Kind         EntityKind      `json:"kind"`
	CustomerRef  string          `json:"customerRef"`
	ItemRef      string          `json:"itemRef"`
	CustomerName string          `json:"customerName"`
	ItemName     string          `json:"itemName"`
	Category     string          `json:"category"`
	Brand        string          `json:"brand"`
	Year         int             `json:"year"`
	Months       []MonthlyRecord `json:"months"`
	Status       EntityStatus    `json:"status"`
	Confidence   Confidence      `json:"confidence,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	RevisionOf   *string         `json:"revisionOf,omitempty"`
	Revision     int             `json:"revision"`
	CreatedBy    string          `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// YearlyTotal is the sum of planned values over the entity's months
func (e *PlanningEntity) YearlyTotal() decimal.Decimal {
	total := decimal.Zero
	for _, m := range e.Months {
		total = total.Add(m.TotalValue())
	}
	return total
}

// YearlyUnits is the sum of planned quantities over the entity's months
func (e *PlanningEntity) YearlyUnits() int64 {
	var units int64
	for _, m := range e.Months {
		units += m.PlannedQuantity
	}
	return units
}

// IsEditable reports whether the entity may still be changed in place
func (e *PlanningEntity) IsEditable() bool {
	return e.Status == EntityStatusDraft
}

// Clone returns a deep copy of the entity
func (e *PlanningEntity) Clone() *PlanningEntity {
	if e == nil {
		return nil
	}
	out := *e
	out.Months = CloneRecords(e.Months)
	if e.RevisionOf != nil {
		ref := *e.RevisionOf
		out.RevisionOf = &ref
	}
	return &out
}

// EntityFilter scopes a rollup or listing; empty fields match everything
type EntityFilter struct {
	Kind        EntityKind
	Year        int
	Status      EntityStatus
	CustomerRef string
	ItemRef     string
	Category    string
	Brand       string
	Search      string
}

// Matches reports whether the entity passes every set field of the filter
func (f EntityFilter) Matches(e *PlanningEntity) bool {
	if e == nil {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Year != 0 && e.Year != f.Year {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.CustomerRef != "" && e.CustomerRef != f.CustomerRef {
		return false
	}
	if f.ItemRef != "" && e.ItemRef != f.ItemRef {
		return false
	}
	if f.Category != "" && !strings.EqualFold(e.Category, f.Category) {
		return false
	}
	if f.Brand != "" && !strings.EqualFold(e.Brand, f.Brand) {
		return false
	}
	if needle := strings.ToLower(strings.TrimSpace(f.Search)); needle != "" {
		haystack := strings.ToLower(strings.Join([]string{e.CustomerName, e.ItemName, e.Category, e.Brand}, "\n"))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

// Customer is a catalog customer record
type Customer struct {
	Ref         string     `json:"ref" yaml:"ref"`
	Name        string     `json:"name" yaml:"name"`
	Region      string     `json:"region,omitempty" yaml:"region"`
	Seasonality Confidence `json:"seasonality,omitempty" yaml:"seasonality"`
	Active      bool       `json:"active" yaml:"active"`
}

// Item is a catalog item record
type Item struct {
	Ref       string          `json:"ref" yaml:"ref"`
	SKU       string          `json:"sku" yaml:"sku"`
	Name      string          `json:"name" yaml:"name"`
	Category  string          `json:"category" yaml:"category"`
	Brand     string          `json:"brand" yaml:"brand"`
	UnitPrice decimal.Decimal `json:"unitPrice" yaml:"-"`
	Active    bool            `json:"active" yaml:"active"`
}

// Catalog resolves customer and item references. The engine never owns catalog data.
type Catalog interface {
	Customer(ctx context.Context, ref string) (*Customer, error)
	Item(ctx context.Context, ref string) (*Item, error)
}

// PlanningEntityRepository stores planning entities
type PlanningEntityRepository interface {
	Create(entity *PlanningEntity) (*PlanningEntity, error)
	GetByID(id string) (*PlanningEntity, error)
	GetByIDs(ids []string) ([]*PlanningEntity, error)
	List(filter EntityFilter) ([]*PlanningEntity, error)
	Update(entity *PlanningEntity) (*PlanningEntity, error)
	Delete(id string) error
	ReplaceAll(kind EntityKind, entities []*PlanningEntity) error
}
