package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/metrics"
	"github.com/jung-kurt/gofpdf/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportRequest selects what to export
type ExportRequest struct {
	Kind   domain.EntityKind
	Year   int
	Format domain.FileFormat
	Filter domain.EntityFilter
	// Upload stores the file in export storage and returns a download link
	Upload bool
}

// ExportFile is a rendered export
type ExportFile struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
	ObjectKey   string `json:"objectKey,omitempty"`
	URL         string `json:"url,omitempty"`
}

// ExportService renders planning data as CSV, Excel or PDF files
type ExportService struct {
	entityRepo    domain.PlanningEntityRepository
	aggregation   *AggregationService
	clock         domain.Clock
	storage       domain.ExportStorage
	presignExpiry time.Duration
	metrics       *metrics.Metrics
}

// NewExportService creates a new ExportService
func NewExportService(entityRepo domain.PlanningEntityRepository, aggregation *AggregationService, clock domain.Clock) *ExportService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &ExportService{
		entityRepo:  entityRepo,
		aggregation: aggregation,
		clock:       clock,
	}
}

// SetStorage enables uploads of exported files
func (s *ExportService) SetStorage(storage domain.ExportStorage, presignExpiry time.Duration) {
	s.storage = storage
	s.presignExpiry = presignExpiry
}

// SetMetrics sets the collectors exports are counted on
func (s *ExportService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Export renders the entities of one kind and year matching the filter
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*ExportFile, error) {
	if !req.Format.IsExportable() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, req.Format)
	}
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, req.Kind)
	}
	if req.Year < domain.MinPlanningYear || req.Year > domain.MaxPlanningYear {
		return nil, fmt.Errorf("%w: year %d out of range", domain.ErrInvalidInput, req.Year)
	}
	if req.Upload && s.storage == nil {
		return nil, fmt.Errorf("%w: export storage is not configured", domain.ErrInvalidInput)
	}

	filter := req.Filter
	filter.Kind, filter.Year = req.Kind, req.Year
	entities, err := s.entityRepo.List(filter)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch req.Format {
	case domain.FormatCSV:
		data, err = renderCSV(entities)
	case domain.FormatExcel:
		data, err = s.renderExcel(req, entities)
	case domain.FormatPDF:
		data, err = s.renderPDF(req, entities)
	}
	if err != nil {
		return nil, fmt.Errorf("rendering %s export: %w", req.Format, err)
	}

	file := &ExportFile{
		Name:        domain.ExportFileName(req.Kind, req.Year, req.Format),
		ContentType: req.Format.ContentType(),
		Data:        data,
	}

	if req.Upload {
		key := fmt.Sprintf("exports/%s/%s", s.clock.Now().Format("20060102T150405Z"), file.Name)
		file.ObjectKey, err = s.storage.Upload(ctx, key, bytes.NewReader(data), file.ContentType, int64(len(data)))
		if err != nil {
			return nil, err
		}
		file.URL, err = s.storage.PresignedURL(ctx, file.ObjectKey, s.presignExpiry)
		if err != nil {
			return nil, err
		}
	}

	s.metrics.ExportGenerated(string(req.Format))
	log.Info().
		Str("file", file.Name).
		Int("entities", len(entities)).
		Int("bytes", len(data)).
		Bool("uploaded", req.Upload).
		Msg("Export generated")

	return file, nil
}

func renderCSV(entities []*domain.PlanningEntity) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(tableHeader); err != nil {
		return nil, err
	}
	if err := w.WriteAll(tableRows(entities)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// totals computes the three series for the export's year and filter
func (s *ExportService) totals(req ExportRequest) (domain.Totals, []domain.MonthTotals, error) {
	filter := req.Filter
	filter.Year = req.Year

	filter.Kind = domain.KindBudget
	budgets, err := s.entityRepo.List(filter)
	if err != nil {
		return domain.Totals{}, nil, err
	}
	filter.Kind = domain.KindForecast
	forecasts, err := s.entityRepo.List(filter)
	if err != nil {
		return domain.Totals{}, nil, err
	}

	today := s.clock.Now()
	return s.aggregation.ComputeTotals(budgets, forecasts, req.Year, today, req.Filter),
		s.aggregation.MonthlyBreakdown(budgets, forecasts, req.Year, today, req.Filter),
		nil
}

func sheetTitle(kind domain.EntityKind) string {
	if kind == domain.KindForecast {
		return "Rolling Forecast"
	}
	return "Sales Budget"
}

func (s *ExportService) renderExcel(req ExportRequest, entities []*domain.PlanningEntity) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := sheetTitle(req.Kind)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(tableHeader))
	for i, h := range tableHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	row := 2
	for _, e := range entities {
		for _, m := range e.Months {
			var actual interface{} = ""
			if m.ActualQuantity != nil {
				actual = *m.ActualQuantity
			}
			values := []interface{}{
				e.ID, string(e.Kind), e.CustomerRef, e.CustomerName, e.ItemRef, e.ItemName,
				e.Category, e.Brand, e.Year, string(e.Status), string(m.Month),
				m.PlannedQuantity, actual, m.UnitRate.InexactFloat64(), m.TotalValue().Round(2).InexactFloat64(),
				m.StockOnHand, m.GoodsInTransit, m.Discount.InexactFloat64(), m.Notes,
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, err
			}
			row++
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(tableHeader), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return nil, err
	}

	if err := s.writeTotalsSheet(f, req, bold); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ExportService) writeTotalsSheet(f *excelize.File, req ExportRequest, bold int) error {
	totals, months, err := s.totals(req)
	if err != nil {
		return err
	}

	const sheet = "Totals"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Month", "Budget Value", "Budget Units", "Actual Value", "Actual Units", "Forecast Value", "Forecast Units"},
	}
	for _, m := range months {
		rows = append(rows, []interface{}{
			string(m.Month),
			m.Budget.Value.Round(2).InexactFloat64(), m.Budget.Units,
			m.Actual.Value.Round(2).InexactFloat64(), m.Actual.Units,
			m.Forecast.Value.Round(2).InexactFloat64(), m.Forecast.Units,
		})
	}
	rows = append(rows, []interface{}{
		"Total",
		totals.Budget.Value.Round(2).InexactFloat64(), totals.Budget.Units,
		totals.Actual.Value.Round(2).InexactFloat64(), totals.Actual.Units,
		totals.Forecast.Value.Round(2).InexactFloat64(), totals.Forecast.Units,
	})

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "G1", bold); err != nil {
		return err
	}
	totalRow := fmt.Sprintf("A%d", len(rows))
	return f.SetCellStyle(sheet, totalRow, fmt.Sprintf("G%d", len(rows)), bold)
}

func (s *ExportService) renderPDF(req ExportRequest, entities []*domain.PlanningEntity) ([]byte, error) {
	totals, _, err := s.totals(req)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "") // landscape for the twelve month columns
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, fmt.Sprintf("%s %d", sheetTitle(req.Kind), req.Year), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(277, 6, fmt.Sprintf("Generated: %s", s.clock.Now().Format("02-Jan-2006 15:04 MST")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Table header
	pdf.SetFont("Arial", "B", 7)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(40, 6, "Customer", "1", 0, "C", true, 0, "")
	pdf.CellFormat(36, 6, "Item", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 6, "Status", "1", 0, "C", true, 0, "")
	for _, name := range domain.CanonicalMonths {
		pdf.CellFormat(11, 6, string(name), "1", 0, "C", true, 0, "")
	}
	pdf.CellFormat(20, 6, "Units", "1", 0, "C", true, 0, "")
	pdf.CellFormat(29, 6, "Value", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 7)
	monthUnits := make([]int64, domain.MonthsPerYear)
	var units int64
	value := decimal.Zero
	for _, e := range entities {
		pdf.CellFormat(40, 5, tr(e.CustomerName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(36, 5, tr(e.ItemName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 5, string(e.Status), "1", 0, "C", false, 0, "")
		for i, m := range e.Months {
			pdf.CellFormat(11, 5, fmt.Sprintf("%d", m.PlannedQuantity), "1", 0, "R", false, 0, "")
			monthUnits[i] += m.PlannedQuantity
		}
		pdf.CellFormat(20, 5, fmt.Sprintf("%d", e.YearlyUnits()), "1", 0, "R", false, 0, "")
		pdf.CellFormat(29, 5, e.YearlyTotal().StringFixed(2), "1", 1, "R", false, 0, "")
		units += e.YearlyUnits()
		value = value.Add(e.YearlyTotal())
	}

	pdf.SetFont("Arial", "B", 7)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(96, 6, fmt.Sprintf("Total (%d lines)", len(entities)), "1", 0, "L", true, 0, "")
	for _, u := range monthUnits {
		pdf.CellFormat(11, 6, fmt.Sprintf("%d", u), "1", 0, "R", true, 0, "")
	}
	pdf.CellFormat(20, 6, fmt.Sprintf("%d", units), "1", 0, "R", true, 0, "")
	pdf.CellFormat(29, 6, value.StringFixed(2), "1", 1, "R", true, 0, "")
	pdf.Ln(5)

	// Series summary
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(277, 8, "Yearly Totals", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(92, 8, fmt.Sprintf("Budget: %s (%d units)", totals.Budget.Value.StringFixed(2), totals.Budget.Units), "1", 0, "C", false, 0, "")
	pdf.CellFormat(92, 8, fmt.Sprintf("Actual: %s (%d units)", totals.Actual.Value.StringFixed(2), totals.Actual.Units), "1", 0, "C", false, 0, "")
	pdf.CellFormat(93, 8, fmt.Sprintf("Forecast: %s (%d units)", totals.Forecast.Value.StringFixed(2), totals.Forecast.Units), "1", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
