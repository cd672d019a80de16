package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TransitionService mutates existing tickets: status moves, assignment
// changes and closing, with the SLA timer rules applied at the two
// decision points.
type TransitionService struct {
	tickets    repository.TicketRepository
	refs       repository.ReferenceStore
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TransitionDependencies bundles collaborators.
type TransitionDependencies struct {
	TicketRepo repository.TicketRepository
	RefStore   repository.ReferenceStore
	Dispatcher events.Dispatcher
	Now        func() time.Time
}

// NewTransitionService constructs the service.
func NewTransitionService(deps TransitionDependencies) *TransitionService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TransitionService{
		tickets:    deps.TicketRepo,
		refs:       deps.RefStore,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// TransitionInput carries the requested changes. AssigneeSet
// distinguishes "unassign" (set, nil value) from "leave unchanged"
// (not set).
type TransitionInput struct {
	StatusID    *int64
	AssigneeID  *string
	AssigneeSet bool
	Close       bool
}

// TransitionTicket applies the freeze and close rules against the
// ticket's current persisted state, layers the explicit overrides on
// top, and persists the whole new state in one write.
//
// The response timer is one-way: once the ticket leaves its initial
// status the stored deadline is cleared and never re-armed, even if the
// ticket later returns to that status.
func (s *TransitionService) TransitionTicket(ctx context.Context, caller domain.Caller, ticketID string, input TransitionInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	currentStatus, err := s.refs.GetStatusByID(ctx, ticket.StatusID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	oldStatusID := ticket.StatusID
	wasBreached := ticket.SLABreached

	// Response-timer freeze: fires when the ticket leaves its initial
	// status for the first time. Breach or not, the timer stops here.
	leavingOpen := currentStatus.Label == domain.StatusLabelOpen &&
		input.StatusID != nil && *input.StatusID != ticket.StatusID
	if leavingOpen {
		freezeResponseTimer(ticket, now)
	}

	// Close: stamps the terminal timestamp once and evaluates the
	// resolution deadline at that instant. A later close request leaves
	// both untouched.
	if input.Close && ticket.ClosedAt == nil {
		ticket.ClosedAt = &now
		ticket.ClosedByID = &caller.ID
		if input.StatusID == nil {
			if closed := s.resolveClosedStatus(ctx); closed != nil {
				ticket.StatusID = closed.ID
			}
		}
		// Closing a ticket still in its initial status ends the
		// response window too, even without an explicit status change.
		if currentStatus.Label == domain.StatusLabelOpen {
			freezeResponseTimer(ticket, now)
		}
		breached, err := s.resolutionBreached(ctx, ticket, now)
		if err != nil {
			return nil, err
		}
		if breached {
			ticket.SLABreached = true
		}
	}

	if input.StatusID != nil {
		ticket.StatusID = *input.StatusID
	}
	if input.AssigneeSet {
		ticket.AssignedToID = input.AssigneeID
	}

	ticket.UpdatedAt = now
	ticket.UpdatedByID = &caller.ID

	if err := s.tickets.UpdateState(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatusID: oldStatusID,
			NewStatusID: ticket.StatusID,
			Closed:      ticket.ClosedAt != nil,
			Breached:    ticket.SLABreached,
		},
	})
	if ticket.SLABreached && !wasBreached {
		publish(ctx, s.dispatcher, events.Event{
			Type:     events.EventTicketBreached,
			TicketID: ticket.ID,
			ActorID:  caller.ID,
		})
	}
	return ticket, nil
}

// resolveClosedStatus returns the first configured status among the
// accepted terminal labels, nil when none exist.
func (s *TransitionService) resolveClosedStatus(ctx context.Context) *domain.Status {
	return firstStatusByLabels(ctx, s.refs, domain.ClosedStatusLabels)
}

// resolutionBreached evaluates the resolution deadline of the ticket's
// frozen SLA policy against now.
func (s *TransitionService) resolutionBreached(ctx context.Context, ticket *domain.Ticket, now time.Time) (bool, error) {
	return resolutionBreached(ctx, s.refs, ticket, now)
}

// freezeResponseTimer stops the response clock, recording a breach when
// the deadline has already passed. Once cleared the deadline never
// re-arms.
func freezeResponseTimer(ticket *domain.Ticket, now time.Time) {
	if ticket.ResponseDueAt == nil {
		return
	}
	if sla.IsLate(*ticket.ResponseDueAt, now) {
		ticket.SLABreached = true
	}
	ticket.ResponseDueAt = nil
}

func firstStatusByLabels(ctx context.Context, refs repository.ReferenceStore, labels []string) *domain.Status {
	for _, label := range labels {
		status, err := refs.GetStatusByLabel(ctx, label)
		if err == nil {
			return status
		}
	}
	return nil
}

func resolutionBreached(ctx context.Context, refs repository.ReferenceStore, ticket *domain.Ticket, now time.Time) (bool, error) {
	if ticket.SLAID == nil {
		return false, nil
	}
	policy, err := refs.GetSLAByID(ctx, *ticket.SLAID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, apperrors.MapError(err)
	}
	deadline := sla.ResolutionDeadline(ticket.CreatedAt, policy)
	return deadline != nil && sla.IsLate(*deadline, now), nil
}
