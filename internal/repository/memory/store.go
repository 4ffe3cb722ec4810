package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
)

// Store holds planning entities and workflow items in memory. Both repositories share
// one mutex so a workflow commit and its entity status change land together.
type Store struct {
	mu        sync.RWMutex
	entities  map[string]*domain.PlanningEntity
	workflows map[string]*domain.WorkflowItem
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		entities:  make(map[string]*domain.PlanningEntity),
		workflows: make(map[string]*domain.WorkflowItem),
	}
}

// Entities returns the planning entity repository view of the store
func (s *Store) Entities() *EntityRepository {
	return &EntityRepository{store: s}
}

// Workflows returns the workflow repository view of the store
func (s *Store) Workflows() *WorkflowRepository {
	return &WorkflowRepository{store: s}
}

// EntityRepository implements domain.PlanningEntityRepository
type EntityRepository struct {
	store *Store
}

var _ domain.PlanningEntityRepository = (*EntityRepository)(nil)

// Create stores a new entity; the id must be unused
func (r *EntityRepository) Create(entity *domain.PlanningEntity) (*domain.PlanningEntity, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if entity.ID == "" {
		return nil, fmt.Errorf("%w: entity id is required", domain.ErrInvalidInput)
	}
	if _, exists := s.entities[entity.ID]; exists {
		return nil, fmt.Errorf("%w: entity %s already exists", domain.ErrInvalidInput, entity.ID)
	}
	s.entities[entity.ID] = entity.Clone()
	return entity.Clone(), nil
}

// GetByID returns a copy of the entity
func (r *EntityRepository) GetByID(id string) (*domain.PlanningEntity, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id]
	if !ok {
		return nil, domain.ErrEntityNotFound
	}
	return e.Clone(), nil
}

// GetByIDs returns copies in the order requested; any unknown id fails the whole call
func (r *EntityRepository) GetByIDs(ids []string) ([]*domain.PlanningEntity, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.PlanningEntity, 0, len(ids))
	for _, id := range ids {
		e, ok := s.entities[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
		}
		out = append(out, e.Clone())
	}
	return out, nil
}

// List returns entities matching the filter ordered by creation time
func (r *EntityRepository) List(filter domain.EntityFilter) ([]*domain.PlanningEntity, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.PlanningEntity, 0)
	for _, e := range s.entities {
		if filter.Matches(e) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces a stored entity
func (r *EntityRepository) Update(entity *domain.PlanningEntity) (*domain.PlanningEntity, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[entity.ID]; !ok {
		return nil, domain.ErrEntityNotFound
	}
	s.entities[entity.ID] = entity.Clone()
	return entity.Clone(), nil
}

// Delete removes an entity
func (r *EntityRepository) Delete(id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[id]; !ok {
		return domain.ErrEntityNotFound
	}
	delete(s.entities, id)
	return nil
}

// ReplaceAll swaps every entity of a kind for the given set
func (r *EntityRepository) ReplaceAll(kind domain.EntityKind, entities []*domain.PlanningEntity) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*domain.PlanningEntity, len(entities))
	for _, e := range entities {
		if e.Kind != kind {
			return fmt.Errorf("%w: %s entity %s in %s set", domain.ErrInvalidInput, e.Kind, e.ID, kind)
		}
		if _, dup := next[e.ID]; dup {
			return fmt.Errorf("%w: duplicate entity id %s", domain.ErrInvalidInput, e.ID)
		}
		next[e.ID] = e.Clone()
	}

	for id, e := range s.entities {
		if e.Kind == kind {
			delete(s.entities, id)
		}
	}
	for id, e := range next {
		s.entities[id] = e
	}
	return nil
}

// WorkflowRepository implements domain.WorkflowRepository
type WorkflowRepository struct {
	store *Store
}

var _ domain.WorkflowRepository = (*WorkflowRepository)(nil)

// GetByID returns a copy of the workflow item
func (r *WorkflowRepository) GetByID(id string) (*domain.WorkflowItem, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.workflows[id]
	if !ok {
		return nil, domain.ErrWorkflowNotFound
	}
	return w.Clone(), nil
}

// List returns items matching the filter, newest submission first
func (r *WorkflowRepository) List(filter domain.WorkflowFilter) ([]*domain.WorkflowItem, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.WorkflowItem, 0)
	for _, w := range s.workflows {
		if filter.Matches(w) {
			out = append(out, w.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

// Commit stores the item and moves every bundled entity to entityStatus. Nothing is
// changed when a bundled entity is missing. An empty status only stores the item.
func (r *WorkflowRepository) Commit(item *domain.WorkflowItem, entityStatus domain.EntityStatus) (*domain.WorkflowItem, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if entityStatus == "" {
		s.workflows[item.ID] = item.Clone()
		return item.Clone(), nil
	}

	for _, id := range item.EntityIDs {
		if _, ok := s.entities[id]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
		}
	}

	for _, id := range item.EntityIDs {
		e := s.entities[id].Clone()
		e.Status = entityStatus
		if !item.SubmittedAt.IsZero() {
			e.UpdatedAt = latest(item)
		}
		s.entities[id] = e
	}
	s.workflows[item.ID] = item.Clone()
	return item.Clone(), nil
}

// ReplaceAll swaps every workflow item for the given set
func (r *WorkflowRepository) ReplaceAll(items []*domain.WorkflowItem) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*domain.WorkflowItem, len(items))
	for _, w := range items {
		if _, dup := next[w.ID]; dup {
			return fmt.Errorf("%w: duplicate workflow id %s", domain.ErrInvalidInput, w.ID)
		}
		next[w.ID] = w.Clone()
	}
	s.workflows = next
	return nil
}

// latest returns the timestamp of the most recent trail entry
func latest(item *domain.WorkflowItem) time.Time {
	at := item.SubmittedAt
	if n := len(item.Comments); n > 0 && item.Comments[n-1].Timestamp.After(at) {
		at = item.Comments[n-1].Timestamp
	}
	return at
}
