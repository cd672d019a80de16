package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// impactPriorityLabels maps the caller-declared incident impact onto the
// priority label resolved at creation.
var impactPriorityLabels = map[domain.Impact]string{
	domain.ImpactIndividual: domain.PriorityLabelLow,
	domain.ImpactSeveral:    domain.PriorityLabelMedium,
	domain.ImpactService:    domain.PriorityLabelHigh,
	domain.ImpactGlobal:     domain.PriorityLabelCritical,
}

// taskCategories is the enumerated set of request categories a task may
// be filed under.
var taskCategories = map[string]struct{}{
	"Acces":    {},
	"Materiel": {},
	"Logiciel": {},
	"Reseau":   {},
	"Autre":    {},
}

// TicketService owns the creation workflow along with reads, listings
// and comments.
type TicketService struct {
	tickets    repository.TicketRepository
	refs       repository.ReferenceStore
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	RefStore    repository.ReferenceStore
	CommentRepo repository.CommentRepository
	Dispatcher  events.Dispatcher
	Now         func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		refs:       deps.RefStore,
		comments:   deps.CommentRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// CreateTicketInput describes the creation payload.
type CreateTicketInput struct {
	Type           domain.TicketType
	Title          string
	Description    string
	Category       string
	Impact         domain.Impact
	RequestedFor   string
	AdditionalInfo *string
}

// TicketListFilter describes listing parameters.
type TicketListFilter struct {
	Type         *domain.TicketType
	StatusID     *int64
	LocationID   *int64
	AssignedToID *string
	Mine         bool
	Limit        int
	Offset       int
}

// CreateTicket resolves the full initial state of a ticket and persists
// it. Every resolution failure aborts before any write.
func (s *TicketService) CreateTicket(ctx context.Context, caller domain.Caller, input CreateTicketInput) (*domain.Ticket, error) {
	if !input.Type.Valid() {
		return nil, apperrors.NewValidationError("type must be incident or task", nil)
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	if input.Title == "" || input.Description == "" || input.Category == "" {
		return nil, apperrors.NewValidationError("title, description and categorie are required", nil)
	}
	if caller.LocationID == nil {
		return nil, apperrors.NewValidationError("caller has no location configured", nil)
	}

	openStatus, err := s.refs.GetStatusByLabel(ctx, domain.StatusLabelOpen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewReferenceDataMissing("status", domain.StatusLabelOpen)
		}
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	ticket := &domain.Ticket{
		Type:        input.Type,
		Title:       input.Title,
		Description: input.Description,
		StatusID:    openStatus.ID,
		LocationID:  *caller.LocationID,
		CreatedByID: caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch input.Type {
	case domain.TicketTypeIncident:
		if err := s.resolveIncidentState(ctx, caller, input, ticket); err != nil {
			return nil, err
		}
	case domain.TicketTypeTask:
		if err := s.resolveTaskState(ctx, caller, input, ticket); err != nil {
			return nil, err
		}
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload: events.TicketCreatedPayload{
			Number:            ticket.Number,
			Type:              ticket.Type,
			PriorityID:        ticket.PriorityID,
			AssignmentGroupID: ticket.AssignmentGroupID,
			ApproverID:        ticket.ApproverID,
			ResponseDueAt:     ticket.ResponseDueAt,
		},
	})
	return ticket, nil
}

// resolveIncidentState derives priority from impact, attaches the SLA for
// that priority and arms the response timer.
func (s *TicketService) resolveIncidentState(ctx context.Context, caller domain.Caller, input CreateTicketInput, ticket *domain.Ticket) error {
	priorityLabel, ok := impactPriorityLabels[input.Impact]
	if !ok {
		return apperrors.NewValidationError("unknown impact", map[string]any{"impact": string(input.Impact)})
	}
	priority, err := s.refs.GetPriorityByLabel(ctx, priorityLabel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewReferenceDataMissing("priority", priorityLabel)
		}
		return apperrors.MapError(err)
	}
	category, err := s.refs.GetCategoryByLabel(ctx, input.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("unknown categorie", map[string]any{"categorie": input.Category})
		}
		return apperrors.MapError(err)
	}

	policy, err := s.refs.GetSLAForPriority(ctx, priority.ID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}
		policy = nil
	}

	group, err := s.refs.FindAssignmentGroup(ctx, domain.GroupPrefixIncidents, *caller.LocationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNoSupportGroup(domain.GroupPrefixIncidents, *caller.LocationID)
		}
		return apperrors.MapError(err)
	}

	ticket.PriorityID = priority.ID
	ticket.CategoryID = category.ID
	ticket.AssignmentGroupID = group.ID
	ticket.IsApproved = true
	if policy != nil {
		id := policy.ID
		ticket.SLAID = &id
		ticket.ResponseDueAt = sla.ResponseDeadline(ticket.CreatedAt, policy)
	}
	return nil
}

// resolveTaskState fixes priority to Medium, validates the request
// category allowlist and routes the task to its approver. Tasks carry no
// response SLA.
func (s *TicketService) resolveTaskState(ctx context.Context, caller domain.Caller, input CreateTicketInput, ticket *domain.Ticket) error {
	requestedFor := strings.TrimSpace(input.RequestedFor)
	if requestedFor == "" {
		return apperrors.NewValidationError("demandePour is required for tasks", nil)
	}
	if _, ok := taskCategories[input.Category]; !ok {
		return apperrors.NewValidationError("unknown request categorie", map[string]any{"categorie": input.Category})
	}

	priority, err := s.refs.GetPriorityByLabel(ctx, domain.PriorityLabelMedium)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewReferenceDataMissing("priority", domain.PriorityLabelMedium)
		}
		return apperrors.MapError(err)
	}
	category, err := s.refs.GetCategoryByLabel(ctx, input.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("unknown request categorie", map[string]any{"categorie": input.Category})
		}
		return apperrors.MapError(err)
	}
	group, err := s.refs.FindAssignmentGroup(ctx, domain.GroupPrefixTasks, *caller.LocationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNoSupportGroup(domain.GroupPrefixTasks, *caller.LocationID)
		}
		return apperrors.MapError(err)
	}

	// Self-approval when no manager is configured.
	approverID := caller.ID
	if caller.ManagerID != nil {
		approverID = *caller.ManagerID
	}

	ticket.PriorityID = priority.ID
	ticket.CategoryID = category.ID
	ticket.AssignmentGroupID = group.ID
	ticket.IsApproved = false
	ticket.ApproverID = &approverID
	ticket.RequestedFor = &requestedFor
	ticket.AdditionalInfo = input.AdditionalInfo
	return nil
}

// GetTicket fetches a ticket with its comment thread.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	return s.withComments(ctx, ticket)
}

// GetTicketByNumber fetches a ticket by its human-readable number.
func (s *TicketService) GetTicketByNumber(ctx context.Context, number string) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"number": number})
		}
		return nil, nil, apperrors.MapError(err)
	}
	return s.withComments(ctx, ticket)
}

func (s *TicketService) withComments(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, []domain.Comment, error) {
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, comments, nil
}

// ListTickets returns an operational listing. Unapproved tasks never
// appear here except in the creator's own listing; non-admin callers are
// scoped to their own location.
func (s *TicketService) ListTickets(ctx context.Context, caller domain.Caller, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Type:              filter.Type,
		StatusID:          filter.StatusID,
		LocationID:        filter.LocationID,
		AssignedToID:      filter.AssignedToID,
		ExcludeUnapproved: !filter.Mine,
		Limit:             filter.Limit,
		Offset:            filter.Offset,
	}
	if filter.Mine {
		callerID := caller.ID
		repoFilter.CreatedByID = &callerID
	} else if !caller.IsAdmin && repoFilter.LocationID == nil {
		repoFilter.LocationID = caller.LocationID
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListPendingApprovals returns the caller's queue of tasks awaiting
// their decision.
func (s *TicketService) ListPendingApprovals(ctx context.Context, caller domain.Caller, limit, offset int) ([]domain.Ticket, error) {
	callerID := caller.ID
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		PendingApproverID: &callerID,
		Limit:             limit,
		Offset:            offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// AddComment appends an annotation to the ticket thread.
func (s *TicketService) AddComment(ctx context.Context, caller domain.Caller, ticketID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	comment := &domain.Comment{
		TicketID:    ticket.ID,
		CreatedByID: caller.ID,
		Content:     content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload: events.CommentAddedPayload{
			CommentID: comment.ID,
			Preview:   stringPreview(comment.Content, 120),
		},
	})
	return comment, nil
}

// SLAReadout is the live deadline view rendered to readers. It is
// recomputed on every read from the stored deadline fields; the
// persisted breach flag only records deadlines missed at decision
// points.
type SLAReadout struct {
	ResponseDueAt   *time.Time
	ResponseLate    bool
	ResolutionDueAt *time.Time
	ResolutionLate  bool
}

// SLAReadoutFor computes the live deadline view for a ticket. A closed
// ticket's resolution lateness is measured at its close instant.
func (s *TicketService) SLAReadoutFor(ctx context.Context, ticket *domain.Ticket) SLAReadout {
	now := s.now()
	out := SLAReadout{ResponseDueAt: ticket.ResponseDueAt}
	if ticket.ResponseDueAt != nil {
		out.ResponseLate = sla.IsLate(*ticket.ResponseDueAt, now)
	}
	if ticket.SLAID != nil {
		if policy, err := s.refs.GetSLAByID(ctx, *ticket.SLAID); err == nil {
			if deadline := sla.ResolutionDeadline(ticket.CreatedAt, policy); deadline != nil {
				out.ResolutionDueAt = deadline
				ref := now
				if ticket.ClosedAt != nil {
					ref = *ticket.ClosedAt
				}
				out.ResolutionLate = sla.IsLate(*deadline, ref)
			}
		}
	}
	return out
}

// ListComments returns the thread in creation order.
func (s *TicketService) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

func publish(ctx context.Context, d events.Dispatcher, event events.Event) {
	if d == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = d.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
