package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// MockEntityRepository is a mock implementation of domain.PlanningEntityRepository
type MockEntityRepository struct {
	Entities     map[string]*domain.PlanningEntity
	CreateFn     func(entity *domain.PlanningEntity) (*domain.PlanningEntity, error)
	UpdateFn     func(entity *domain.PlanningEntity) (*domain.PlanningEntity, error)
	ReplaceAllFn func(kind domain.EntityKind, entities []*domain.PlanningEntity) error
}

// NewMockEntityRepository creates a new MockEntityRepository
func NewMockEntityRepository() *MockEntityRepository {
	return &MockEntityRepository{
		Entities: make(map[string]*domain.PlanningEntity),
	}
}

// AddEntity adds an entity to the mock repository (helper for tests)
func (m *MockEntityRepository) AddEntity(entity *domain.PlanningEntity) {
	m.Entities[entity.ID] = entity.Clone()
}

// Create stores a new entity
func (m *MockEntityRepository) Create(entity *domain.PlanningEntity) (*domain.PlanningEntity, error) {
	if m.CreateFn != nil {
		return m.CreateFn(entity)
	}
	if _, exists := m.Entities[entity.ID]; exists {
		return nil, fmt.Errorf("%w: entity %s already exists", domain.ErrInvalidInput, entity.ID)
	}
	m.Entities[entity.ID] = entity.Clone()
	return entity.Clone(), nil
}

// GetByID retrieves an entity by ID
func (m *MockEntityRepository) GetByID(id string) (*domain.PlanningEntity, error) {
	if e, ok := m.Entities[id]; ok {
		return e.Clone(), nil
	}
	return nil, domain.ErrEntityNotFound
}

// GetByIDs retrieves entities in the order requested
func (m *MockEntityRepository) GetByIDs(ids []string) ([]*domain.PlanningEntity, error) {
	out := make([]*domain.PlanningEntity, 0, len(ids))
	for _, id := range ids {
		e, ok := m.Entities[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
		}
		out = append(out, e.Clone())
	}
	return out, nil
}

// List returns entities matching the filter ordered by id
func (m *MockEntityRepository) List(filter domain.EntityFilter) ([]*domain.PlanningEntity, error) {
	out := make([]*domain.PlanningEntity, 0)
	for _, e := range m.Entities {
		if filter.Matches(e) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update replaces a stored entity
func (m *MockEntityRepository) Update(entity *domain.PlanningEntity) (*domain.PlanningEntity, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(entity)
	}
	if _, ok := m.Entities[entity.ID]; !ok {
		return nil, domain.ErrEntityNotFound
	}
	m.Entities[entity.ID] = entity.Clone()
	return entity.Clone(), nil
}

// Delete removes an entity
func (m *MockEntityRepository) Delete(id string) error {
	if _, ok := m.Entities[id]; !ok {
		return domain.ErrEntityNotFound
	}
	delete(m.Entities, id)
	return nil
}

// ReplaceAll swaps every entity of a kind
func (m *MockEntityRepository) ReplaceAll(kind domain.EntityKind, entities []*domain.PlanningEntity) error {
	if m.ReplaceAllFn != nil {
		return m.ReplaceAllFn(kind, entities)
	}
	for id, e := range m.Entities {
		if e.Kind == kind {
			delete(m.Entities, id)
		}
	}
	for _, e := range entities {
		m.Entities[e.ID] = e.Clone()
	}
	return nil
}

// MockWorkflowRepository is a mock implementation of domain.WorkflowRepository.
// Commit updates entity statuses in the linked entity mock.
type MockWorkflowRepository struct {
	Items    map[string]*domain.WorkflowItem
	Entities *MockEntityRepository
	CommitFn func(item *domain.WorkflowItem, status domain.EntityStatus) (*domain.WorkflowItem, error)
}

// NewMockWorkflowRepository creates a new MockWorkflowRepository linked to entities
func NewMockWorkflowRepository(entities *MockEntityRepository) *MockWorkflowRepository {
	return &MockWorkflowRepository{
		Items:    make(map[string]*domain.WorkflowItem),
		Entities: entities,
	}
}

// AddItem adds a workflow item to the mock repository (helper for tests)
func (m *MockWorkflowRepository) AddItem(item *domain.WorkflowItem) {
	m.Items[item.ID] = item.Clone()
}

// GetByID retrieves a workflow item by ID
func (m *MockWorkflowRepository) GetByID(id string) (*domain.WorkflowItem, error) {
	if w, ok := m.Items[id]; ok {
		return w.Clone(), nil
	}
	return nil, domain.ErrWorkflowNotFound
}

// List returns items matching the filter ordered by id
func (m *MockWorkflowRepository) List(filter domain.WorkflowFilter) ([]*domain.WorkflowItem, error) {
	out := make([]*domain.WorkflowItem, 0)
	for _, w := range m.Items {
		if filter.Matches(w) {
			out = append(out, w.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Commit stores the item and sets the status of its entities
func (m *MockWorkflowRepository) Commit(item *domain.WorkflowItem, status domain.EntityStatus) (*domain.WorkflowItem, error) {
	if m.CommitFn != nil {
		return m.CommitFn(item, status)
	}
	if m.Entities != nil && status != "" {
		for _, id := range item.EntityIDs {
			if _, ok := m.Entities.Entities[id]; !ok {
				return nil, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
			}
		}
		for _, id := range item.EntityIDs {
			m.Entities.Entities[id].Status = status
		}
	}
	m.Items[item.ID] = item.Clone()
	return item.Clone(), nil
}

// ReplaceAll swaps every workflow item
func (m *MockWorkflowRepository) ReplaceAll(items []*domain.WorkflowItem) error {
	m.Items = make(map[string]*domain.WorkflowItem, len(items))
	for _, w := range items {
		m.Items[w.ID] = w.Clone()
	}
	return nil
}

// MockCatalog is a mock implementation of domain.Catalog
type MockCatalog struct {
	Customers map[string]*domain.Customer
	Items     map[string]*domain.Item
}

// NewMockCatalog creates a catalog holding the sample customer and item
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		Customers: map[string]*domain.Customer{
			"CUST-001": {Ref: "CUST-001", Name: "Acme Corporation", Region: "North", Active: true},
			"CUST-002": {Ref: "CUST-002", Name: "Globex Ltd", Region: "South", Active: true},
		},
		Items: map[string]*domain.Item{
			"ITEM-001": {Ref: "ITEM-001", SKU: "WP-100", Name: "Widget Pro", Category: "Widgets", Brand: "Acme", UnitPrice: decimal.RequireFromString(SampleRate), Active: true},
			"ITEM-002": {Ref: "ITEM-002", SKU: "GL-200", Name: "Gadget Lite", Category: "Gadgets", Brand: "Globex", UnitPrice: decimal.RequireFromString("120.00"), Active: true},
		},
	}
}

// Customer resolves a customer reference
func (m *MockCatalog) Customer(ctx context.Context, ref string) (*domain.Customer, error) {
	if c, ok := m.Customers[ref]; ok {
		out := *c
		return &out, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCustomer, ref)
}

// Item resolves an item reference
func (m *MockCatalog) Item(ctx context.Context, ref string) (*domain.Item, error) {
	if i, ok := m.Items[ref]; ok {
		out := *i
		return &out, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownItem, ref)
}

// MockDocumentStore is a mock implementation of domain.DocumentStore
type MockDocumentStore struct {
	mu        sync.Mutex
	Documents map[string][]byte
	SaveFn    func(namespace string, document []byte) error
	Saves     int
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{Documents: make(map[string][]byte)}
}

// Load returns the stored document or nil when the namespace was never saved
func (m *MockDocumentStore) Load(ctx context.Context, namespace string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.Documents[namespace]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), doc...), nil
}

// Save stores the document under the namespace
func (m *MockDocumentStore) Save(ctx context.Context, namespace string, document []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveFn != nil {
		if err := m.SaveFn(namespace, document); err != nil {
			return err
		}
	}
	m.Documents[namespace] = append([]byte(nil), document...)
	m.Saves++
	return nil
}

// MockExportStorage is a mock implementation of domain.ExportStorage
type MockExportStorage struct {
	Objects  map[string][]byte
	UploadFn func(objectKey string) (string, error)
}

// NewMockExportStorage creates a new MockExportStorage
func NewMockExportStorage() *MockExportStorage {
	return &MockExportStorage{Objects: make(map[string][]byte)}
}

// Upload stores the object and returns its key
func (m *MockExportStorage) Upload(ctx context.Context, objectKey string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadFn != nil {
		return m.UploadFn(objectKey)
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Objects[objectKey] = body
	return objectKey, nil
}

// PresignedURL returns a fake download link
func (m *MockExportStorage) PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if _, ok := m.Objects[objectKey]; !ok {
		return "", domain.ErrNotFound
	}
	return fmt.Sprintf("https://exports.example.com/%s?expires=%d", objectKey, int(expiry.Seconds())), nil
}

// PublishedEvent is one call recorded by MockEventPublisher
type PublishedEvent struct {
	Roles []domain.Role
	Event websocket.Event
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(roles []domain.Role, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{Roles: append([]domain.Role(nil), roles...), Event: event})
}

// Types returns the type of every recorded event in order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Event.Type
	}
	return out
}
