package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/lock"
	"github.com/dafibh/salesplan/salesplan-backend/internal/metrics"
	"github.com/dafibh/salesplan/salesplan-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// entitiesLockKey guards every change to draft entities, submissions included
const entitiesLockKey = "planning:entities"

// WorkflowService moves planning entities through submission and review
type WorkflowService struct {
	entityRepo     domain.PlanningEntityRepository
	workflowRepo   domain.WorkflowRepository
	authorizer     domain.Authorizer
	locker         lock.Locker
	clock          domain.Clock
	eventPublisher websocket.EventPublisher
	metrics        *metrics.Metrics
	onChange       func(ctx context.Context)
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	entityRepo domain.PlanningEntityRepository,
	workflowRepo domain.WorkflowRepository,
	authorizer domain.Authorizer,
	locker lock.Locker,
	clock domain.Clock,
) *WorkflowService {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &WorkflowService{
		entityRepo:   entityRepo,
		workflowRepo: workflowRepo,
		authorizer:   authorizer,
		locker:       locker,
		clock:        clock,
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *WorkflowService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the collectors transitions are counted on
func (s *WorkflowService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// OnChange registers a hook run after every committed transition
func (s *WorkflowService) OnChange(fn func(ctx context.Context)) {
	s.onChange = fn
}

// SubmitForApproval bundles draft entities into a new submitted workflow item
func (s *WorkflowService) SubmitForApproval(ctx context.Context, entityIDs []string, author domain.Actor, message string) (*domain.WorkflowItem, error) {
	if len(entityIDs) == 0 {
		return nil, domain.ErrEmptySubmission
	}
	if err := checkMessage(message); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, entitiesLockKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ids := dedupe(entityIDs)
	if len(ids) == 0 {
		return nil, domain.ErrEmptySubmission
	}
	entities, err := s.entityRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}

	itemType := domain.ItemTypeForKind(entities[0].Kind)
	if !s.authorizer.CanSubmit(author.Role, itemType) {
		return nil, fmt.Errorf("%w: %s may not submit %s", domain.ErrForbidden, author.Role, itemType)
	}

	now := s.clock.Now()
	item, err := domain.NewSubmission(uuid.NewString(), uuid.NewString(), entities, author, message, now)
	if err != nil {
		return nil, err
	}

	saved, err := s.workflowRepo.Commit(item, domain.EntityStatusSubmitted)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("workflow_id", saved.ID).
		Str("item_type", string(saved.ItemType)).
		Str("author", author.Name).
		Int("entity_count", len(saved.EntityIDs)).
		Msg("Workflow item submitted")

	s.committed(ctx, saved, websocket.EventTypeSubmitted, s.reviewers(saved.ItemType, author.Role))
	return saved, nil
}

// Decide approves or rejects a submitted or in-progress item
func (s *WorkflowService) Decide(ctx context.Context, itemID string, decision domain.Decision, reviewer domain.Actor, message string) (*domain.WorkflowItem, error) {
	if err := checkMessage(message); err != nil {
		return nil, err
	}

	return s.transition(ctx, itemID, func(item *domain.WorkflowItem) (*domain.WorkflowItem, error) {
		// a finished item reports the transition error whatever the reviewer's role
		if item.CurrentState.IsTerminal() {
			return nil, fmt.Errorf("%w: item %s is already %s", domain.ErrInvalidTransition, item.ID, item.CurrentState)
		}
		if !s.authorizer.CanDecide(reviewer.Role, item.ItemType) {
			return nil, fmt.Errorf("%w: %s may not decide %s items", domain.ErrForbidden, reviewer.Role, item.ItemType)
		}
		return item.Decide(decision, uuid.NewString(), reviewer, message, s.clock.Now())
	})
}

// Forward hands a submitted item to a downstream role for review
func (s *WorkflowService) Forward(ctx context.Context, itemID string, actor domain.Actor, target domain.Role, message string) (*domain.WorkflowItem, error) {
	if err := checkMessage(message); err != nil {
		return nil, err
	}

	return s.transition(ctx, itemID, func(item *domain.WorkflowItem) (*domain.WorkflowItem, error) {
		if item.CurrentState != domain.StateSubmitted {
			return nil, fmt.Errorf("%w: cannot forward an item in %s", domain.ErrInvalidTransition, item.CurrentState)
		}
		if !s.authorizer.CanForward(actor.Role) {
			return nil, fmt.Errorf("%w: %s may not forward items", domain.ErrForbidden, actor.Role)
		}
		return item.Forward(target, uuid.NewString(), actor, message, s.clock.Now())
	})
}

// AddComment appends a plain comment to the item's trail
func (s *WorkflowService) AddComment(ctx context.Context, itemID string, author domain.Actor, message string) (*domain.WorkflowItem, error) {
	if err := checkMessage(message); err != nil {
		return nil, err
	}
	if !author.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrForbidden, author.Role)
	}

	return s.transition(ctx, itemID, func(item *domain.WorkflowItem) (*domain.WorkflowItem, error) {
		return item.AddComment(uuid.NewString(), author, message, s.clock.Now())
	})
}

// List returns workflow items matching the filter
func (s *WorkflowService) List(ctx context.Context, filter domain.WorkflowFilter) ([]*domain.WorkflowItem, error) {
	return s.workflowRepo.List(filter)
}

// Get returns a workflow item by ID
func (s *WorkflowService) Get(ctx context.Context, id string) (*domain.WorkflowItem, error) {
	return s.workflowRepo.GetByID(id)
}

// transition runs step on the current item and commits the result. It holds the item's
// lock and then the entity lock, since a commit rewrites the bundled entities' status.
func (s *WorkflowService) transition(ctx context.Context, itemID string, step func(*domain.WorkflowItem) (*domain.WorkflowItem, error)) (*domain.WorkflowItem, error) {
	unlockItem, err := s.locker.Lock(ctx, "workflow:"+itemID)
	if err != nil {
		return nil, err
	}
	defer unlockItem()

	unlockEntities, err := s.locker.Lock(ctx, entitiesLockKey)
	if err != nil {
		return nil, err
	}
	defer unlockEntities()

	current, err := s.workflowRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}

	next, err := step(current)
	if err != nil {
		return nil, err
	}

	status := domain.EntityStatusForState(next.CurrentState)
	if next.CurrentState == current.CurrentState {
		status = ""
	}
	saved, err := s.workflowRepo.Commit(next, status)
	if err != nil {
		return nil, err
	}

	last := saved.Comments[len(saved.Comments)-1]
	log.Info().
		Str("workflow_id", saved.ID).
		Str("from", string(current.CurrentState)).
		Str("to", string(saved.CurrentState)).
		Str("actor", last.Author).
		Str("kind", string(last.Kind)).
		Msg("Workflow item updated")

	eventType, roles := websocket.EventTypeCommented, []domain.Role(nil)
	switch last.Kind {
	case domain.CommentKindApproval:
		eventType = websocket.EventTypeApproved
	case domain.CommentKindRejection:
		eventType = websocket.EventTypeRejected
	case domain.CommentKindForward:
		eventType = websocket.EventTypeForwarded
		roles = s.reviewers(saved.ItemType, saved.CreatedByRole, *saved.ForwardedTo)
	}
	s.committed(ctx, saved, eventType, roles)
	return saved, nil
}

func (s *WorkflowService) committed(ctx context.Context, item *domain.WorkflowItem, eventType websocket.EventType, roles []domain.Role) {
	if eventType != websocket.EventTypeCommented {
		s.metrics.WorkflowTransition(string(item.ItemType), string(item.CurrentState))
	}
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(roles, websocket.WorkflowEvent(eventType, item))
	}
	if s.onChange != nil {
		s.onChange(ctx)
	}
}

// reviewers lists every role able to decide itemType plus the extra roles
func (s *WorkflowService) reviewers(itemType domain.WorkflowItemType, extra ...domain.Role) []domain.Role {
	roles := make([]domain.Role, 0, len(domain.AllRoles))
	for _, role := range domain.AllRoles {
		if s.authorizer.CanDecide(role, itemType) {
			roles = append(roles, role)
		}
	}
	return append(roles, extra...)
}

func checkMessage(message string) error {
	if len(message) > domain.MaxCommentLength {
		return fmt.Errorf("%w: message exceeds %d characters", domain.ErrInvalidInput, domain.MaxCommentLength)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
