package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WorkflowItemType is the kind of planning data a workflow item carries
type WorkflowItemType string

const (
	ItemTypeBudget   WorkflowItemType = "budget"
	ItemTypeForecast WorkflowItemType = "forecast"
)

// ItemTypeForKind maps an entity kind to the workflow item type that bundles it
func ItemTypeForKind(kind EntityKind) WorkflowItemType {
	if kind == KindForecast {
		return ItemTypeForecast
	}
	return ItemTypeBudget
}

// WorkflowState is the state of a workflow item
type WorkflowState string

const (
	StateDraft      WorkflowState = "draft"
	StateSubmitted  WorkflowState = "submitted"
	StateInProgress WorkflowState = "in_progress"
	StateApproved   WorkflowState = "approved"
	StateRejected   WorkflowState = "rejected"
)

// IsTerminal reports whether no transition may leave the state
func (s WorkflowState) IsTerminal() bool {
	return s == StateApproved || s == StateRejected
}

// CommentKind tags each entry of the audit trail
type CommentKind string

const (
	CommentKindComment   CommentKind = "comment"
	CommentKindApproval  CommentKind = "approval"
	CommentKindRejection CommentKind = "rejection"
	CommentKindForward   CommentKind = "forward"
)

// Decision is a reviewer's verdict
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// IsValid reports whether the decision is known
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Comment is one append-only entry in a workflow item's trail
type Comment struct {
	ID         string      `json:"id"`
	Author     string      `json:"author"`
	AuthorRole Role        `json:"authorRole"`
	Message    string      `json:"message"`
	Timestamp  time.Time   `json:"timestamp"`
	Kind       CommentKind `json:"kind"`
}

// WorkflowSummary holds the headline figures of the bundled entities
type WorkflowSummary struct {
	TotalValue    decimal.Decimal `json:"totalValue"`
	TotalUnits    int64           `json:"totalUnits"`
	CustomerCount int             `json:"customerCount"`
	ItemCount     int             `json:"itemCount"`
}

// WorkflowItem is the trackable approval unit created at submission time
type WorkflowItem struct {
	ID            string           `json:"id"`
	ItemType      WorkflowItemType `json:"itemType"`
	Title         string           `json:"title"`
	EntityIDs     []string         `json:"entityIds"`
	CurrentState  WorkflowState    `json:"currentState"`
	CreatedBy     string           `json:"createdBy"`
	CreatedByRole Role             `json:"createdByRole"`
	SubmittedAt   time.Time        `json:"submittedAt"`
	ApprovedBy    *string          `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time       `json:"approvedAt,omitempty"`
	ForwardedTo   *Role            `json:"forwardedTo,omitempty"`
	Comments      []Comment        `json:"comments"`
	Summary       WorkflowSummary  `json:"summary"`
}

// Clone returns a deep copy of the item
func (w *WorkflowItem) Clone() *WorkflowItem {
	if w == nil {
		return nil
	}
	out := *w
	out.EntityIDs = append([]string(nil), w.EntityIDs...)
	out.Comments = append([]Comment(nil), w.Comments...)
	if w.ApprovedBy != nil {
		by := *w.ApprovedBy
		out.ApprovedBy = &by
	}
	if w.ApprovedAt != nil {
		at := *w.ApprovedAt
		out.ApprovedAt = &at
	}
	if w.ForwardedTo != nil {
		to := *w.ForwardedTo
		out.ForwardedTo = &to
	}
	return &out
}

// Actor identifies who performs a transition
type Actor struct {
	Name string
	Role Role
}

// NewSubmission builds a submitted workflow item from draft entities. Entities are not
// modified; the caller commits their status change together with the item.
func NewSubmission(id, commentID string, entities []*PlanningEntity, author Actor, message string, now time.Time) (*WorkflowItem, error) {
	if len(entities) == 0 {
		return nil, ErrEmptySubmission
	}

	kind := entities[0].Kind
	customers := make(map[string]struct{})
	items := make(map[string]struct{})
	summary := WorkflowSummary{TotalValue: decimal.Zero}
	ids := make([]string, 0, len(entities))

	for _, e := range entities {
		if e.Status != EntityStatusDraft {
			return nil, fmt.Errorf("%w: entity %s is %s", ErrEmptySubmission, e.ID, e.Status)
		}
		if e.Kind != kind {
			return nil, fmt.Errorf("%w: cannot bundle %s and %s entities", ErrInvalidInput, kind, e.Kind)
		}
		ids = append(ids, e.ID)
		customers[e.CustomerRef] = struct{}{}
		items[e.ItemRef] = struct{}{}
		summary.TotalValue = summary.TotalValue.Add(e.YearlyTotal())
		summary.TotalUnits += e.YearlyUnits()
	}
	summary.CustomerCount = len(customers)
	summary.ItemCount = len(items)

	itemType := ItemTypeForKind(kind)
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("Submitted %d %s line(s) for approval", len(entities), kind)
	}

	return &WorkflowItem{
		ID:            id,
		ItemType:      itemType,
		Title:         submissionTitle(itemType, entities[0].Year, author.Name),
		EntityIDs:     ids,
		CurrentState:  StateSubmitted,
		CreatedBy:     author.Name,
		CreatedByRole: author.Role,
		SubmittedAt:   now,
		Comments: []Comment{{
			ID:         commentID,
			Author:     author.Name,
			AuthorRole: author.Role,
			Message:    message,
			Timestamp:  now,
			Kind:       CommentKindComment,
		}},
		Summary: summary,
	}, nil
}

func submissionTitle(itemType WorkflowItemType, year int, author string) string {
	label := "Sales Budget"
	if itemType == ItemTypeForecast {
		label = "Rolling Forecast"
	}
	return fmt.Sprintf("%d %s - %s", year, label, author)
}

// Decide returns the item after a reviewer decision. The receiver is left untouched.
func (w *WorkflowItem) Decide(decision Decision, commentID string, reviewer Actor, message string, now time.Time) (*WorkflowItem, error) {
	if w.CurrentState.IsTerminal() {
		return nil, fmt.Errorf("%w: item %s is already %s", ErrInvalidTransition, w.ID, w.CurrentState)
	}
	if w.CurrentState != StateSubmitted && w.CurrentState != StateInProgress {
		return nil, fmt.Errorf("%w: cannot decide an item in %s", ErrInvalidTransition, w.CurrentState)
	}
	if !decision.IsValid() {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrInvalidInput, decision)
	}

	next := w.Clone()
	kind := CommentKindRejection
	next.CurrentState = StateRejected
	if decision == DecisionApprove {
		kind = CommentKindApproval
		next.CurrentState = StateApproved
		by := reviewer.Name
		at := now
		next.ApprovedBy = &by
		next.ApprovedAt = &at
	}
	next.Comments = append(next.Comments, Comment{
		ID:         commentID,
		Author:     reviewer.Name,
		AuthorRole: reviewer.Role,
		Message:    message,
		Timestamp:  now,
		Kind:       kind,
	})
	return next, nil
}

// Forward hands a submitted item to a downstream role
func (w *WorkflowItem) Forward(target Role, commentID string, actor Actor, message string, now time.Time) (*WorkflowItem, error) {
	if w.CurrentState != StateSubmitted {
		return nil, fmt.Errorf("%w: cannot forward an item in %s", ErrInvalidTransition, w.CurrentState)
	}
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: unknown target role %q", ErrInvalidInput, target)
	}

	next := w.Clone()
	next.CurrentState = StateInProgress
	next.ForwardedTo = &target
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("Forwarded to %s", target.DisplayName())
	}
	next.Comments = append(next.Comments, Comment{
		ID:         commentID,
		Author:     actor.Name,
		AuthorRole: actor.Role,
		Message:    message,
		Timestamp:  now,
		Kind:       CommentKindForward,
	})
	return next, nil
}

// AddComment appends a plain comment without changing state
func (w *WorkflowItem) AddComment(commentID string, author Actor, message string, now time.Time) (*WorkflowItem, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: comment message is required", ErrInvalidInput)
	}
	next := w.Clone()
	next.Comments = append(next.Comments, Comment{
		ID:         commentID,
		Author:     author.Name,
		AuthorRole: author.Role,
		Message:    message,
		Timestamp:  now,
		Kind:       CommentKindComment,
	})
	return next, nil
}

// EntityStatusForState maps a workflow state onto the status of its bundled entities
func EntityStatusForState(state WorkflowState) EntityStatus {
	switch state {
	case StateSubmitted:
		return EntityStatusSubmitted
	case StateInProgress:
		return EntityStatusInProgress
	case StateApproved:
		return EntityStatusApproved
	case StateRejected:
		return EntityStatusRejected
	default:
		return EntityStatusDraft
	}
}

// WorkflowFilter scopes a workflow listing
type WorkflowFilter struct {
	State    WorkflowState
	ItemType WorkflowItemType
	Search   string
}

// Matches reports whether the item passes every set field of the filter
func (f WorkflowFilter) Matches(w *WorkflowItem) bool {
	if w == nil {
		return false
	}
	if f.State != "" && w.CurrentState != f.State {
		return false
	}
	if f.ItemType != "" && w.ItemType != f.ItemType {
		return false
	}
	if needle := strings.ToLower(strings.TrimSpace(f.Search)); needle != "" {
		if !strings.Contains(strings.ToLower(w.Title+"\n"+w.CreatedBy), needle) {
			return false
		}
	}
	return true
}

// WorkflowRepository stores workflow items
type WorkflowRepository interface {
	GetByID(id string) (*WorkflowItem, error)
	List(filter WorkflowFilter) ([]*WorkflowItem, error)
	// Commit stores the item and applies the entity status change in one step. An empty
	// status leaves the bundled entities untouched.
	Commit(item *WorkflowItem, entityStatus EntityStatus) (*WorkflowItem, error)
	ReplaceAll(items []*WorkflowItem) error
}
