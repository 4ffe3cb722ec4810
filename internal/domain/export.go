package domain

import "fmt"

// FileFormat is an export/import file format
type FileFormat string

const (
	FormatCSV   FileFormat = "csv"
	FormatExcel FileFormat = "excel"
	FormatPDF   FileFormat = "pdf"
)

// Extension returns the file extension without the dot
func (f FileFormat) Extension() string {
	switch f {
	case FormatExcel:
		return "xlsx"
	default:
		return string(f)
	}
}

// ContentType returns the MIME type of files in this format
func (f FileFormat) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// IsExportable reports whether files can be exported in this format
func (f FileFormat) IsExportable() bool {
	return f == FormatCSV || f == FormatExcel || f == FormatPDF
}

// IsImportable reports whether files in this format can be imported
func (f FileFormat) IsImportable() bool {
	return f == FormatCSV || f == FormatExcel
}

// ExportFileName names an export the way the planning pages do,
// e.g. sales_budget_2025.csv or rolling_forecast_2025.xlsx
func ExportFileName(kind EntityKind, year int, format FileFormat) string {
	base := "sales_budget"
	if kind == KindForecast {
		base = "rolling_forecast"
	}
	return fmt.Sprintf("%s_%d.%s", base, year, format.Extension())
}

// ImportStrategy decides how imported entities combine with the existing ones
type ImportStrategy string

const (
	// ImportReplace drops every draft of the kind before adding the imported entities
	ImportReplace ImportStrategy = "replace"
	// ImportMerge overwrites matching drafts and adds the rest
	ImportMerge ImportStrategy = "merge"
	// ImportAppend only adds; any match with an existing entity fails the import
	ImportAppend ImportStrategy = "append"
)

// IsValid reports whether the strategy is known
func (s ImportStrategy) IsValid() bool {
	return s == ImportReplace || s == ImportMerge || s == ImportAppend
}

// PlanKey identifies the customer × item × year line an entity plans
type PlanKey struct {
	CustomerRef string
	ItemRef     string
	Year        int
}

// Key returns the entity's plan key
func (e *PlanningEntity) Key() PlanKey {
	return PlanKey{CustomerRef: e.CustomerRef, ItemRef: e.ItemRef, Year: e.Year}
}
