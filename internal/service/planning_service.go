package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/lock"
	"github.com/dafibh/salesplan/salesplan-backend/internal/repository"
	"github.com/dafibh/salesplan/salesplan-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PlanningService owns the lifecycle of budget and forecast lines and their persistence
type PlanningService struct {
	entityRepo     domain.PlanningEntityRepository
	workflowRepo   domain.WorkflowRepository
	catalog        domain.Catalog
	store          domain.DocumentStore
	locker         lock.Locker
	clock          domain.Clock
	eventPublisher websocket.EventPublisher
	saveMu         sync.Mutex
}

// NewPlanningService creates a new PlanningService. The locker must be the one the
// workflow service uses so that edits and submissions never interleave.
func NewPlanningService(
	entityRepo domain.PlanningEntityRepository,
	workflowRepo domain.WorkflowRepository,
	catalog domain.Catalog,
	store domain.DocumentStore,
	locker lock.Locker,
	clock domain.Clock,
) *PlanningService {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &PlanningService{
		entityRepo:   entityRepo,
		workflowRepo: workflowRepo,
		catalog:      catalog,
		store:        store,
		locker:       locker,
		clock:        clock,
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *PlanningService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateEntityInput contains input for creating a planning entity
type CreateEntityInput struct {
	Kind        domain.EntityKind
	CustomerRef string
	ItemRef     string
	Year        int
	// UnitRate overrides the catalog price when positive
	UnitRate   decimal.Decimal
	Months     []domain.MonthlyRecord
	Confidence domain.Confidence
	Notes      string
}

// Create adds a draft entity for a customer × item × year
func (s *PlanningService) Create(ctx context.Context, input CreateEntityInput, author domain.Actor) (*domain.PlanningEntity, error) {
	if !input.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, input.Kind)
	}
	if input.Year < domain.MinPlanningYear || input.Year > domain.MaxPlanningYear {
		return nil, fmt.Errorf("%w: year %d out of range", domain.ErrInvalidInput, input.Year)
	}
	if err := checkConfidence(input.Confidence); err != nil {
		return nil, err
	}
	notes := strings.TrimSpace(input.Notes)
	if err := checkMessage(notes); err != nil {
		return nil, err
	}

	customer, err := s.catalog.Customer(ctx, input.CustomerRef)
	if err != nil {
		return nil, err
	}
	item, err := s.catalog.Item(ctx, input.ItemRef)
	if err != nil {
		return nil, err
	}

	rate := item.UnitPrice
	if input.UnitRate.IsPositive() {
		rate = input.UnitRate
	}
	months, err := buildMonths(input.Year, rate, input.Months)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	entity := &domain.PlanningEntity{
		ID:           uuid.NewString(),
		Kind:         input.Kind,
		CustomerRef:  customer.Ref,
		ItemRef:      item.Ref,
		CustomerName: customer.Name,
		ItemName:     item.Name,
		Category:     item.Category,
		Brand:        item.Brand,
		Year:         input.Year,
		Months:       months,
		Status:       domain.EntityStatusDraft,
		Confidence:   input.Confidence,
		Notes:        notes,
		Revision:     1,
		CreatedBy:    author.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.withEntities(ctx, func() (*domain.PlanningEntity, error) {
		existing, err := s.entityRepo.List(domain.EntityFilter{
			Kind:        entity.Kind,
			Year:        entity.Year,
			CustomerRef: entity.CustomerRef,
			ItemRef:     entity.ItemRef,
		})
		if err != nil {
			return nil, err
		}
		for _, e := range existing {
			if e.Status != domain.EntityStatusRevised {
				return nil, fmt.Errorf("%w: %s already planned for %s / %s in %d", domain.ErrInvalidInput, e.Kind, customer.Name, item.Name, e.Year)
			}
		}
		return s.entityRepo.Create(entity)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("entity_id", created.ID).
		Str("kind", string(created.Kind)).
		Str("customer", created.CustomerRef).
		Str("item", created.ItemRef).
		Int("year", created.Year).
		Msg("Planning entity created")

	s.changed(ctx, websocket.EventTypeCreated, created)
	return created, nil
}

// ApplyDistribution replaces the planned quantities and rates of a draft entity with an
// allocation. Recorded actuals, stock figures, discounts and notes are kept. A zero
// unitRate prices each month from the allocation's own values so the entity totals the
// allocated value; months left without a rate keep their current one.
func (s *PlanningService) ApplyDistribution(ctx context.Context, id string, dist *domain.Distribution, unitRate decimal.Decimal) (*domain.PlanningEntity, error) {
	if dist == nil || len(dist.Months) != domain.MonthsPerYear {
		return nil, fmt.Errorf("%w: allocation must cover %d months", domain.ErrInvalidDistribution, domain.MonthsPerYear)
	}
	if unitRate.IsNegative() {
		return nil, fmt.Errorf("%w: unit rate is negative", domain.ErrInvalidInput)
	}

	return s.mutateDraft(ctx, id, func(e *domain.PlanningEntity) error {
		if dist.Year != e.Year {
			return fmt.Errorf("%w: allocation is for %d, entity is for %d", domain.ErrInvalidInput, dist.Year, e.Year)
		}
		planned := dist.Records(unitRate)
		months := domain.CloneRecords(e.Months)
		for i := range months {
			idx, _ := domain.MonthIndex(planned[i].Month)
			months[idx].PlannedQuantity = planned[i].PlannedQuantity
			if planned[i].UnitRate.IsPositive() {
				months[idx].UnitRate = planned[i].UnitRate
			}
		}
		ordered, err := domain.ValidateMonthSet(months)
		if err != nil {
			return err
		}
		e.Months = ordered
		return nil
	})
}

// UpdateMonths replaces the twelve monthly records of a draft entity
func (s *PlanningService) UpdateMonths(ctx context.Context, id string, months []domain.MonthlyRecord) (*domain.PlanningEntity, error) {
	return s.mutateDraft(ctx, id, func(e *domain.PlanningEntity) error {
		records := domain.CloneRecords(months)
		for i := range records {
			records[i].Year = e.Year
		}
		ordered, err := domain.ValidateMonthSet(records)
		if err != nil {
			return err
		}
		e.Months = ordered
		return nil
	})
}

// Revise opens a new draft revision of a decided entity. The source entity is marked revised.
func (s *PlanningService) Revise(ctx context.Context, id string, author domain.Actor) (*domain.PlanningEntity, error) {
	revision, err := s.withEntities(ctx, func() (*domain.PlanningEntity, error) {
		source, err := s.entityRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if source.Status != domain.EntityStatusApproved && source.Status != domain.EntityStatusRejected {
			return nil, fmt.Errorf("%w: only approved or rejected entities can be revised (entity is %s)", domain.ErrInvalidTransition, source.Status)
		}

		now := s.clock.Now()
		next := source.Clone()
		next.ID = uuid.NewString()
		next.Status = domain.EntityStatusDraft
		next.RevisionOf = &source.ID
		next.Revision = source.Revision + 1
		next.CreatedBy = author.Name
		next.CreatedAt = now
		next.UpdatedAt = now

		created, err := s.entityRepo.Create(next)
		if err != nil {
			return nil, err
		}

		source.Status = domain.EntityStatusRevised
		source.UpdatedAt = now
		if _, err := s.entityRepo.Update(source); err != nil {
			_ = s.entityRepo.Delete(created.ID)
			return nil, err
		}
		return created, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("entity_id", revision.ID).
		Str("revision_of", id).
		Int("revision", revision.Revision).
		Str("author", author.Name).
		Msg("Planning entity revised")

	s.changed(ctx, websocket.EventTypeRevised, revision)
	return revision, nil
}

// Delete removes a draft entity
func (s *PlanningService) Delete(ctx context.Context, id string) error {
	deleted, err := s.withEntities(ctx, func() (*domain.PlanningEntity, error) {
		e, err := s.entityRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if !e.IsEditable() {
			return nil, fmt.Errorf("%w: entity is %s", domain.ErrEntityLocked, e.Status)
		}
		if err := s.entityRepo.Delete(id); err != nil {
			return nil, err
		}
		return e, nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("entity_id", id).Msg("Planning entity deleted")
	s.changed(ctx, websocket.EventTypeDeleted, deleted)
	return nil
}

// Get returns a planning entity by ID
func (s *PlanningService) Get(ctx context.Context, id string) (*domain.PlanningEntity, error) {
	return s.entityRepo.GetByID(id)
}

// List returns the entities matching the filter
func (s *PlanningService) List(ctx context.Context, filter domain.EntityFilter) ([]*domain.PlanningEntity, error) {
	return s.entityRepo.List(filter)
}

// ReplaceKind swaps the whole entity set of a kind for what build returns. build runs
// under the entity lock and receives the current set.
func (s *PlanningService) ReplaceKind(ctx context.Context, kind domain.EntityKind, build func(existing []*domain.PlanningEntity) ([]*domain.PlanningEntity, error)) ([]*domain.PlanningEntity, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, kind)
	}

	var result []*domain.PlanningEntity
	_, err := s.withEntities(ctx, func() (*domain.PlanningEntity, error) {
		existing, err := s.entityRepo.List(domain.EntityFilter{Kind: kind})
		if err != nil {
			return nil, err
		}
		next, err := build(existing)
		if err != nil {
			return nil, err
		}
		if err := s.entityRepo.ReplaceAll(kind, next); err != nil {
			return nil, err
		}
		result = next
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(nil, websocket.PlanningEntityEvent(websocket.EventTypeImported, map[string]interface{}{
			"kind":  kind,
			"count": len(result),
		}))
	}
	s.persist(ctx)
	return result, nil
}

// Load seeds the repositories from the document store. Every namespace is decoded
// before anything is replaced.
func (s *PlanningService) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	decoded := make(map[domain.EntityKind][]*domain.PlanningEntity, 2)
	for _, kind := range []domain.EntityKind{domain.KindBudget, domain.KindForecast} {
		ns := domain.NamespaceForKind(kind)
		doc, err := s.store.Load(ctx, ns)
		if err != nil {
			return err
		}
		entities, err := repository.DecodeEntities(doc, kind)
		if err != nil {
			return fmt.Errorf("%s: %w", ns, err)
		}
		decoded[kind] = entities
	}

	doc, err := s.store.Load(ctx, domain.NamespaceWorkflowItems)
	if err != nil {
		return err
	}
	items, err := repository.DecodeWorkflows(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", domain.NamespaceWorkflowItems, err)
	}

	for kind, entities := range decoded {
		if err := s.entityRepo.ReplaceAll(kind, entities); err != nil {
			return fmt.Errorf("%s: %w", domain.NamespaceForKind(kind), err)
		}
	}
	if err := s.workflowRepo.ReplaceAll(items); err != nil {
		return fmt.Errorf("%s: %w", domain.NamespaceWorkflowItems, err)
	}

	log.Info().
		Int("budgets", len(decoded[domain.KindBudget])).
		Int("forecasts", len(decoded[domain.KindForecast])).
		Int("workflow_items", len(items)).
		Msg("Planning data loaded")
	return nil
}

// Save writes every namespace to the document store
func (s *PlanningService) Save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	for _, kind := range []domain.EntityKind{domain.KindBudget, domain.KindForecast} {
		entities, err := s.entityRepo.List(domain.EntityFilter{Kind: kind})
		if err != nil {
			return err
		}
		doc, err := repository.EncodeEntities(entities)
		if err != nil {
			return err
		}
		if err := s.store.Save(ctx, domain.NamespaceForKind(kind), doc); err != nil {
			return err
		}
	}

	items, err := s.workflowRepo.List(domain.WorkflowFilter{})
	if err != nil {
		return err
	}
	doc, err := repository.EncodeWorkflows(items)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, domain.NamespaceWorkflowItems, doc)
}

// Persist saves the current state, logging instead of failing. The repositories stay
// the source of truth and the next save rewrites every namespace.
func (s *PlanningService) Persist(ctx context.Context) {
	s.persist(ctx)
}

func (s *PlanningService) persist(ctx context.Context) {
	if err := s.Save(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to persist planning data")
	}
}

func (s *PlanningService) changed(ctx context.Context, eventType websocket.EventType, entity *domain.PlanningEntity) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(nil, websocket.PlanningEntityEvent(eventType, entity))
	}
	s.persist(ctx)
}

func (s *PlanningService) withEntities(ctx context.Context, fn func() (*domain.PlanningEntity, error)) (*domain.PlanningEntity, error) {
	unlock, err := s.locker.Lock(ctx, entitiesLockKey)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return fn()
}

func (s *PlanningService) mutateDraft(ctx context.Context, id string, fn func(*domain.PlanningEntity) error) (*domain.PlanningEntity, error) {
	updated, err := s.withEntities(ctx, func() (*domain.PlanningEntity, error) {
		e, err := s.entityRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if !e.IsEditable() {
			return nil, fmt.Errorf("%w: entity is %s", domain.ErrEntityLocked, e.Status)
		}
		if err := fn(e); err != nil {
			return nil, err
		}
		e.UpdatedAt = s.clock.Now()
		return s.entityRepo.Update(e)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("entity_id", updated.ID).
		Str("yearly_total", updated.YearlyTotal().StringFixed(2)).
		Msg("Planning entity updated")

	s.changed(ctx, websocket.EventTypeUpdated, updated)
	return updated, nil
}

// buildMonths returns twelve canonical records for year. With no records given every
// month starts at zero units priced at rate; given records without a rate take it too.
func buildMonths(year int, rate decimal.Decimal, records []domain.MonthlyRecord) ([]domain.MonthlyRecord, error) {
	if len(records) == 0 {
		records = make([]domain.MonthlyRecord, domain.MonthsPerYear)
		for i, name := range domain.CanonicalMonths {
			records[i] = domain.MonthlyRecord{Month: name, Discount: decimal.Zero}
		}
	} else {
		records = domain.CloneRecords(records)
	}
	for i := range records {
		records[i].Year = year
		if records[i].UnitRate.IsZero() {
			records[i].UnitRate = rate
		}
	}
	return domain.ValidateMonthSet(records)
}

func checkConfidence(c domain.Confidence) error {
	switch c {
	case "", domain.ConfidenceLow, domain.ConfidenceMedium, domain.ConfidenceHigh:
		return nil
	}
	return fmt.Errorf("%w: unknown confidence %q", domain.ErrInvalidInput, c)
}
