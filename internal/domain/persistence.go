package domain

import (
	"context"
	"io"
	"time"
)

// Storage namespaces, one JSON document each
const (
	NamespaceSalesBudget     = "salesBudgetData"
	NamespaceRollingForecast = "rollingForecastData"
	NamespaceWorkflowItems   = "workflowItems"
)

// NamespaceForKind returns the storage namespace holding entities of a kind
func NamespaceForKind(kind EntityKind) string {
	if kind == KindForecast {
		return NamespaceRollingForecast
	}
	return NamespaceSalesBudget
}

// DocumentStore loads and saves one structured JSON document per namespace.
// Load returns (nil, nil) when the namespace has never been saved.
type DocumentStore interface {
	Load(ctx context.Context, namespace string) ([]byte, error)
	Save(ctx context.Context, namespace string, document []byte) error
}

// ExportStorage keeps exported files and hands out download links
type ExportStorage interface {
	Upload(ctx context.Context, objectKey string, data io.Reader, contentType string, size int64) (string, error)
	PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

// Clock supplies "today" to the engine so rollups never read the wall clock directly
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant
func (c FixedClock) Now() time.Time {
	return c.At
}
