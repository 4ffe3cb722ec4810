package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/middleware"
	"github.com/dafibh/salesplan/salesplan-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// MaxImportSize caps the size of an uploaded planning file
const MaxImportSize = 10 << 20

// FileHandler handles export and import of planning files
type FileHandler struct {
	exportService *service.ExportService
	importService *service.ImportService
}

// NewFileHandler creates a new FileHandler
func NewFileHandler(exportService *service.ExportService, importService *service.ImportService) *FileHandler {
	return &FileHandler{
		exportService: exportService,
		importService: importService,
	}
}

// ExportFileRequest represents the export request body
type ExportFileRequest struct {
	Kind     string `json:"kind" validate:"required,oneof=budget forecast"`
	Year     int    `json:"year" validate:"required,gte=1900,lte=2100"`
	Format   string `json:"format" validate:"required,oneof=csv excel pdf"`
	Upload   bool   `json:"upload"`
	Customer string `json:"customer,omitempty"`
	Item     string `json:"item,omitempty"`
	Category string `json:"category,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Search   string `json:"search,omitempty"`
}

// Export handles POST /api/v1/exports. The file is streamed back unless an upload
// was requested, in which case its download link is returned.
func (h *FileHandler) Export(c echo.Context) error {
	var req ExportFileRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	file, err := h.exportService.Export(c.Request().Context(), service.ExportRequest{
		Kind:   domain.EntityKind(req.Kind),
		Year:   req.Year,
		Format: domain.FileFormat(req.Format),
		Filter: domain.EntityFilter{
			CustomerRef: req.Customer,
			ItemRef:     req.Item,
			Category:    req.Category,
			Brand:       req.Brand,
			Search:      req.Search,
		},
		Upload: req.Upload,
	})
	if err != nil {
		return NewServiceError(c, err, "export planning data")
	}

	if req.Upload {
		return c.JSON(http.StatusCreated, file)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Name))
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}

// Import handles POST /api/v1/imports (multipart: file, kind, strategy, optional format)
func (h *FileHandler) Import(c echo.Context) error {
	var errs []ValidationError

	kind := domain.EntityKind(c.FormValue("kind"))
	if !kind.IsValid() {
		errs = append(errs, ValidationError{Field: "kind", Message: "Must be one of: budget, forecast"})
	}
	strategy := domain.ImportStrategy(c.FormValue("strategy"))
	if !strategy.IsValid() {
		errs = append(errs, ValidationError{Field: "strategy", Message: "Must be one of: replace, merge, append"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		errs = append(errs, ValidationError{Field: "file", Message: "Is required"})
	} else if fileHeader.Size > MaxImportSize {
		errs = append(errs, ValidationError{Field: "file", Message: "File too large. Maximum size is 10MB"})
	}
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	format := domain.FileFormat(c.FormValue("format"))
	if format == "" {
		format = formatFromFileName(fileHeader.Filename)
	}
	if !format.IsImportable() {
		return NewValidationError(c, "Unsupported file format", []ValidationError{
			{Field: "format", Message: "Must be one of: csv, excel"},
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to read uploaded file")
	}
	defer src.Close()

	result, err := h.importService.Import(c.Request().Context(), service.ImportRequest{
		Kind:     kind,
		Format:   format,
		Strategy: strategy,
		Data:     src,
	}, middleware.GetActor(c))
	if err != nil {
		return NewServiceError(c, err, "import planning data")
	}
	return c.JSON(http.StatusOK, result)
}

// formatFromFileName infers the format from the upload's extension
func formatFromFileName(name string) domain.FileFormat {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return domain.FormatCSV
	case ".xlsx", ".xlsm":
		return domain.FormatExcel
	default:
		return ""
	}
}
