package service

import (
	"strconv"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
)

// Column headers of the tabular planning layout, one row per entity × month.
// Exports write it and imports read it back.
const (
	colID          = "ID"
	colKind        = "Kind"
	colCustomerRef = "Customer Ref"
	colCustomer    = "Customer"
	colItemRef     = "Item Ref"
	colItem        = "Item"
	colCategory    = "Category"
	colBrand       = "Brand"
	colYear        = "Year"
	colStatus      = "Status"
	colMonth       = "Month"
	colPlanned     = "Planned Units"
	colActual      = "Actual Units"
	colRate        = "Unit Rate"
	colValue       = "Total Value"
	colStock       = "Stock"
	colGit         = "Goods In Transit"
	colDiscount    = "Discount"
	colNotes       = "Notes"
)

var tableHeader = []string{
	colID, colKind, colCustomerRef, colCustomer, colItemRef, colItem, colCategory, colBrand,
	colYear, colStatus, colMonth, colPlanned, colActual, colRate, colValue, colStock, colGit,
	colDiscount, colNotes,
}

// tableRows flattens entities into rows matching tableHeader
func tableRows(entities []*domain.PlanningEntity) [][]string {
	rows := make([][]string, 0, len(entities)*domain.MonthsPerYear)
	for _, e := range entities {
		for _, m := range e.Months {
			actual := ""
			if m.ActualQuantity != nil {
				actual = strconv.FormatInt(*m.ActualQuantity, 10)
			}
			rows = append(rows, []string{
				e.ID,
				string(e.Kind),
				e.CustomerRef,
				e.CustomerName,
				e.ItemRef,
				e.ItemName,
				e.Category,
				e.Brand,
				strconv.Itoa(e.Year),
				string(e.Status),
				string(m.Month),
				strconv.FormatInt(m.PlannedQuantity, 10),
				actual,
				m.UnitRate.String(),
				m.TotalValue().StringFixed(2),
				strconv.FormatInt(m.StockOnHand, 10),
				strconv.FormatInt(m.GoodsInTransit, 10),
				m.Discount.String(),
				m.Notes,
			})
		}
	}
	return rows
}
