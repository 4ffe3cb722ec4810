package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ImportRequest describes an uploaded planning file
type ImportRequest struct {
	Kind     domain.EntityKind
	Format   domain.FileFormat
	Strategy domain.ImportStrategy
	Data     io.Reader
}

// ImportResult summarizes an import
type ImportResult struct {
	Kind     domain.EntityKind     `json:"kind"`
	Strategy domain.ImportStrategy `json:"strategy"`
	Imported int                   `json:"imported"`
	Total    int                   `json:"total"`
}

// ImportService reads CSV or Excel planning files back into entities
type ImportService struct {
	planning *PlanningService
	catalog  domain.Catalog
	clock    domain.Clock
	metrics  *metrics.Metrics
}

// NewImportService creates a new ImportService
func NewImportService(planning *PlanningService, catalog domain.Catalog, clock domain.Clock) *ImportService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &ImportService{
		planning: planning,
		catalog:  catalog,
		clock:    clock,
	}
}

// SetMetrics sets the collectors imports are counted on
func (s *ImportService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Import parses the file and applies it with the requested strategy. Either every
// row is accepted or nothing changes. Imported entities are always drafts.
func (s *ImportService) Import(ctx context.Context, req ImportRequest, author domain.Actor) (*ImportResult, error) {
	if !req.Format.IsImportable() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, req.Format)
	}
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, req.Kind)
	}
	if !req.Strategy.IsValid() {
		return nil, fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidInput, req.Strategy)
	}

	var rows [][]string
	var err error
	switch req.Format {
	case domain.FormatCSV:
		rows, err = readCSV(req.Data)
	case domain.FormatExcel:
		rows, err = readExcel(req.Data)
	}
	if err != nil {
		return nil, err
	}

	imported, err := s.parse(ctx, req.Kind, rows, author)
	if err != nil {
		return nil, err
	}
	if len(imported) == 0 {
		return nil, fmt.Errorf("%w: file holds no planning rows", domain.ErrInvalidInput)
	}

	result, err := s.planning.ReplaceKind(ctx, req.Kind, func(existing []*domain.PlanningEntity) ([]*domain.PlanningEntity, error) {
		return combine(req.Strategy, existing, imported, s.clock)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.EntitiesImported(string(req.Strategy), len(imported))
	log.Info().
		Str("kind", string(req.Kind)).
		Str("strategy", string(req.Strategy)).
		Int("imported", len(imported)).
		Int("total", len(result)).
		Str("author", author.Name).
		Msg("Planning data imported")

	return &ImportResult{Kind: req.Kind, Strategy: req.Strategy, Imported: len(imported), Total: len(result)}, nil
}

// combine merges imported entities into the existing set according to strategy
func combine(strategy domain.ImportStrategy, existing, imported []*domain.PlanningEntity, clock domain.Clock) ([]*domain.PlanningEntity, error) {
	active := make(map[domain.PlanKey]*domain.PlanningEntity, len(existing))
	for _, e := range existing {
		if e.Status != domain.EntityStatusRevised {
			active[e.Key()] = e
		}
	}

	switch strategy {
	case domain.ImportReplace:
		// entities held by a workflow survive a replace
		out := make([]*domain.PlanningEntity, 0, len(existing)+len(imported))
		for _, e := range existing {
			if !e.IsEditable() {
				out = append(out, e)
			}
		}
		for _, e := range imported {
			if held, ok := active[e.Key()]; ok && !held.IsEditable() {
				return nil, fmt.Errorf("%w: %s / %s %d is %s", domain.ErrEntityLocked, e.CustomerName, e.ItemName, e.Year, held.Status)
			}
			out = append(out, e)
		}
		return out, nil

	case domain.ImportMerge:
		out := make([]*domain.PlanningEntity, 0, len(existing)+len(imported))
		replaced := make(map[string]*domain.PlanningEntity)
		var added []*domain.PlanningEntity
		for _, e := range imported {
			current, ok := active[e.Key()]
			if !ok {
				added = append(added, e)
				continue
			}
			if !current.IsEditable() {
				return nil, fmt.Errorf("%w: %s / %s %d is %s", domain.ErrEntityLocked, e.CustomerName, e.ItemName, e.Year, current.Status)
			}
			merged := current.Clone()
			merged.Months = e.Months
			merged.Category, merged.Brand = e.Category, e.Brand
			merged.UpdatedAt = clock.Now()
			replaced[current.ID] = merged
		}
		for _, e := range existing {
			if merged, ok := replaced[e.ID]; ok {
				out = append(out, merged)
				continue
			}
			out = append(out, e)
		}
		return append(out, added...), nil

	default:
		for _, e := range imported {
			if _, ok := active[e.Key()]; ok {
				return nil, fmt.Errorf("%w: %s / %s %d is already planned", domain.ErrInvalidInput, e.CustomerName, e.ItemName, e.Year)
			}
		}
		return append(append([]*domain.PlanningEntity{}, existing...), imported...), nil
	}
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return rows, nil
}

func readExcel(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	defer func() { _ = f.Close() }()

	// the first sheet carries the rows, later sheets are summaries
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return rows, nil
}

// parsedGroup collects the rows of one entity
type parsedGroup struct {
	key      domain.PlanKey
	row      int
	category string
	brand    string
	records  []domain.MonthlyRecord
}

// parse turns the table rows into draft entities, one per customer × item × year
func (s *ImportService) parse(ctx context.Context, kind domain.EntityKind, rows [][]string, author domain.Actor) ([]*domain.PlanningEntity, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file is empty", domain.ErrInvalidInput)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		columns[normalizeHeader(h)] = i
	}
	for _, required := range []string{colYear, colMonth, colPlanned, colRate} {
		if _, ok := columns[normalizeHeader(required)]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", domain.ErrInvalidInput, required)
		}
	}

	var groups []*parsedGroup
	byKey := make(map[domain.PlanKey]*parsedGroup)
	for i, raw := range rows[1:] {
		line := i + 2
		get := func(col string) string {
			idx, ok := columns[normalizeHeader(col)]
			if !ok || idx >= len(raw) {
				return ""
			}
			return strings.TrimSpace(raw[idx])
		}
		if isBlank(raw) {
			continue
		}

		if k := get(colKind); k != "" && domain.EntityKind(strings.ToLower(k)) != kind {
			return nil, fmt.Errorf("row %d: %w: kind %q in a %s import", line, domain.ErrInvalidInput, k, kind)
		}
		year, err := strconv.Atoi(get(colYear))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w: year %q", line, domain.ErrMalformedRecord, get(colYear))
		}
		rec, err := parseRecord(year, get)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		key := domain.PlanKey{CustomerRef: firstNonEmpty(get(colCustomerRef), get(colCustomer)), ItemRef: firstNonEmpty(get(colItemRef), get(colItem)), Year: year}
		if key.CustomerRef == "" || key.ItemRef == "" {
			return nil, fmt.Errorf("row %d: %w: customer and item are required", line, domain.ErrInvalidInput)
		}
		g, ok := byKey[key]
		if !ok {
			g = &parsedGroup{key: key, row: line, category: get(colCategory), brand: get(colBrand)}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.records = append(g.records, rec)
	}

	now := s.clock.Now()
	out := make([]*domain.PlanningEntity, 0, len(groups))
	for _, g := range groups {
		customer, err := s.catalog.Customer(ctx, g.key.CustomerRef)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", g.row, err)
		}
		item, err := s.catalog.Item(ctx, g.key.ItemRef)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", g.row, err)
		}
		if g.key.Year < domain.MinPlanningYear || g.key.Year > domain.MaxPlanningYear {
			return nil, fmt.Errorf("row %d: %w: year %d out of range", g.row, domain.ErrInvalidInput, g.key.Year)
		}
		months, err := domain.ValidateMonthSet(g.records)
		if err != nil {
			return nil, fmt.Errorf("%s / %s %d: %w", customer.Name, item.Name, g.key.Year, err)
		}

		out = append(out, &domain.PlanningEntity{
			ID:           uuid.NewString(),
			Kind:         kind,
			CustomerRef:  customer.Ref,
			ItemRef:      item.Ref,
			CustomerName: customer.Name,
			ItemName:     item.Name,
			Category:     firstNonEmpty(g.category, item.Category),
			Brand:        firstNonEmpty(g.brand, item.Brand),
			Year:         g.key.Year,
			Months:       months,
			Status:       domain.EntityStatusDraft,
			Revision:     1,
			CreatedBy:    author.Name,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return out, nil
}

func parseRecord(year int, get func(string) string) (domain.MonthlyRecord, error) {
	rec := domain.MonthlyRecord{
		Month: domain.MonthName(get(colMonth)),
		Year:  year,
		Notes: get(colNotes),
	}

	var err error
	if rec.PlannedQuantity, err = parseUnits(get(colPlanned), colPlanned); err != nil {
		return rec, err
	}
	if raw := get(colActual); raw != "" {
		actual, err := parseUnits(raw, colActual)
		if err != nil {
			return rec, err
		}
		rec.ActualQuantity = &actual
	}
	if rec.StockOnHand, err = parseUnits(get(colStock), colStock); err != nil {
		return rec, err
	}
	if rec.GoodsInTransit, err = parseUnits(get(colGit), colGit); err != nil {
		return rec, err
	}
	if rec.UnitRate, err = parseAmount(get(colRate), colRate); err != nil {
		return rec, err
	}
	if rec.Discount, err = parseAmount(get(colDiscount), colDiscount); err != nil {
		return rec, err
	}
	return rec, rec.Validate()
}

var errNotWholeNumber = errors.New("not a whole number")

// parseUnits reads a whole quantity. Spreadsheets may render integers as "65.0".
func parseUnits(raw, col string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err == nil && !d.IsInteger() {
		err = errNotWholeNumber
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", domain.ErrMalformedRecord, col, raw, err)
	}
	return d.IntPart(), nil
}

func parseAmount(raw, col string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q", domain.ErrMalformedRecord, col, raw)
	}
	return d, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), ""))
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
