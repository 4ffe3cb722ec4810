// Package repository holds the JSON document shape shared by every persistence driver.
package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// entityDocument is one planning line as stored in a namespace document. Unknown fields
// are ignored on decode so older and newer documents load alike.
type entityDocument struct {
	ID          flexID          `json:"id"`
	Kind        string          `json:"kind,omitempty"`
	Customer    string          `json:"customer"`
	CustomerRef string          `json:"customerRef,omitempty"`
	Item        string          `json:"item"`
	ItemRef     string          `json:"itemRef,omitempty"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Year        flexYear        `json:"year"`
	TotalBudget json.Number     `json:"totalBudget"`
	MonthlyData []monthDocument `json:"monthlyData"`
	Status      string          `json:"status,omitempty"`
	Confidence  string          `json:"confidence,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	RevisionOf  *string         `json:"revisionOf,omitempty"`
	Revision    int             `json:"revision,omitempty"`
	CreatedBy   string          `json:"createdBy,omitempty"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

type monthDocument struct {
	Month       string          `json:"month"`
	BudgetValue int64           `json:"budgetValue"`
	ActualValue *int64          `json:"actualValue"`
	Rate        decimal.Decimal `json:"rate"`
	Stock       int64           `json:"stock"`
	Git         int64           `json:"git"`
	Discount    decimal.Decimal `json:"discount"`
	Notes       string          `json:"notes,omitempty"`
}

// MarshalJSON writes rate and discount as plain numbers
func (m monthDocument) MarshalJSON() ([]byte, error) {
	type plain struct {
		Month       string      `json:"month"`
		BudgetValue int64       `json:"budgetValue"`
		ActualValue *int64      `json:"actualValue"`
		Rate        json.Number `json:"rate"`
		Stock       int64       `json:"stock"`
		Git         int64       `json:"git"`
		Discount    json.Number `json:"discount"`
		Notes       string      `json:"notes,omitempty"`
	}
	return json.Marshal(plain{
		Month:       m.Month,
		BudgetValue: m.BudgetValue,
		ActualValue: m.ActualValue,
		Rate:        json.Number(m.Rate.String()),
		Stock:       m.Stock,
		Git:         m.Git,
		Discount:    json.Number(m.Discount.String()),
		Notes:       m.Notes,
	})
}

// flexID accepts an id written either as a string or as a number
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id %s: %w", raw, err)
	}
	*id = flexID(n.String())
	return nil
}

// flexYear accepts a year written either as a number or as a string
type flexYear int

func (y *flexYear) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*y = 0
		return nil
	}
	raw = strings.Trim(raw, `"`)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("year %s: %w", string(data), err)
	}
	*y = flexYear(n)
	return nil
}

// EncodeEntities renders entities as the namespace document
func EncodeEntities(entities []*domain.PlanningEntity) ([]byte, error) {
	docs := make([]entityDocument, 0, len(entities))
	for _, e := range entities {
		createdAt, updatedAt := e.CreatedAt, e.UpdatedAt
		doc := entityDocument{
			ID:          flexID(e.ID),
			Kind:        string(e.Kind),
			Customer:    e.CustomerName,
			CustomerRef: e.CustomerRef,
			Item:        e.ItemName,
			ItemRef:     e.ItemRef,
			Category:    e.Category,
			Brand:       e.Brand,
			Year:        flexYear(e.Year),
			TotalBudget: json.Number(e.YearlyTotal().StringFixed(2)),
			MonthlyData: make([]monthDocument, 0, len(e.Months)),
			Status:      string(e.Status),
			Confidence:  string(e.Confidence),
			Notes:       e.Notes,
			RevisionOf:  e.RevisionOf,
			Revision:    e.Revision,
			CreatedBy:   e.CreatedBy,
			CreatedAt:   &createdAt,
			UpdatedAt:   &updatedAt,
		}
		for _, m := range e.Months {
			doc.MonthlyData = append(doc.MonthlyData, monthDocument{
				Month:       string(m.Month),
				BudgetValue: m.PlannedQuantity,
				ActualValue: m.ActualQuantity,
				Rate:        m.UnitRate,
				Stock:       m.StockOnHand,
				Git:         m.GoodsInTransit,
				Discount:    m.Discount,
				Notes:       m.Notes,
			})
		}
		docs = append(docs, doc)
	}
	return json.Marshal(docs)
}

// DecodeEntities parses a namespace document. Entities without a kind get defaultKind;
// a missing status reads as draft. Ids, statuses and month sets are validated.
func DecodeEntities(data []byte, defaultKind domain.EntityKind) ([]*domain.PlanningEntity, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var docs []entityDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}

	out := make([]*domain.PlanningEntity, 0, len(docs))
	for i, doc := range docs {
		e, err := doc.toEntity(defaultKind)
		if err != nil {
			return nil, fmt.Errorf("entity %d (%s): %w", i, doc.ID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (d entityDocument) toEntity(defaultKind domain.EntityKind) (*domain.PlanningEntity, error) {
	if strings.TrimSpace(string(d.ID)) == "" {
		return nil, fmt.Errorf("%w: missing id", domain.ErrMalformedRecord)
	}
	kind := domain.EntityKind(d.Kind)
	if kind == "" {
		kind = defaultKind
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrMalformedRecord, d.Kind)
	}
	status := domain.EntityStatus(d.Status)
	if status == "" {
		status = domain.EntityStatusDraft
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrMalformedRecord, d.Status)
	}

	records := make([]domain.MonthlyRecord, 0, len(d.MonthlyData))
	for _, m := range d.MonthlyData {
		rec := domain.MonthlyRecord{
			Month:           domain.MonthName(m.Month),
			Year:            int(d.Year),
			PlannedQuantity: m.BudgetValue,
			ActualQuantity:  m.ActualValue,
			UnitRate:        m.Rate,
			StockOnHand:     m.Stock,
			GoodsInTransit:  m.Git,
			Discount:        m.Discount,
			Notes:           m.Notes,
		}
		records = append(records, rec)
	}
	months, err := domain.ValidateMonthSet(records)
	if err != nil {
		return nil, err
	}

	e := &domain.PlanningEntity{
		ID:           string(d.ID),
		Kind:         kind,
		CustomerRef:  d.CustomerRef,
		ItemRef:      d.ItemRef,
		CustomerName: d.Customer,
		ItemName:     d.Item,
		Category:     d.Category,
		Brand:        d.Brand,
		Year:         int(d.Year),
		Months:       months,
		Status:       status,
		Confidence:   domain.Confidence(d.Confidence),
		Notes:        d.Notes,
		RevisionOf:   d.RevisionOf,
		Revision:     d.Revision,
		CreatedBy:    d.CreatedBy,
	}
	if e.CustomerRef == "" {
		e.CustomerRef = d.Customer
	}
	if e.ItemRef == "" {
		e.ItemRef = d.Item
	}
	if d.CreatedAt != nil {
		e.CreatedAt = *d.CreatedAt
	}
	if d.UpdatedAt != nil {
		e.UpdatedAt = *d.UpdatedAt
	}
	return e, nil
}

// EncodeWorkflows renders workflow items as the namespace document
func EncodeWorkflows(items []*domain.WorkflowItem) ([]byte, error) {
	if items == nil {
		items = []*domain.WorkflowItem{}
	}
	return json.Marshal(items)
}

// DecodeWorkflows parses the workflow namespace document
func DecodeWorkflows(data []byte) ([]*domain.WorkflowItem, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var items []*domain.WorkflowItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: workflow document: %v", domain.ErrMalformedRecord, err)
	}
	return items, nil
}
