package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// rejectionNote is written when the approver rejects without a comment.
const rejectionNote = "Demande rejetée par l'approbateur."

// ApprovalService gates task visibility through manager approval. Only
// tasks go through it; incidents are created pre-approved.
type ApprovalService struct {
	tickets    repository.TicketRepository
	refs       repository.ReferenceStore
	dispatcher events.Dispatcher
	now        func() time.Time
}

// ApprovalDependencies bundles collaborators.
type ApprovalDependencies struct {
	TicketRepo repository.TicketRepository
	RefStore   repository.ReferenceStore
	Dispatcher events.Dispatcher
	Now        func() time.Time
}

// NewApprovalService constructs the service.
func NewApprovalService(deps ApprovalDependencies) *ApprovalService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &ApprovalService{
		tickets:    deps.TicketRepo,
		refs:       deps.RefStore,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// Decide records the approver's decision. Approval unlocks the task for
// support staff; rejection forces it terminal.
func (s *ApprovalService) Decide(ctx context.Context, caller domain.Caller, ticketID string, approve bool, comment *string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.MapError(err)
	}
	if ticket.Type != domain.TicketTypeTask {
		return apperrors.NewForbidden("only tasks go through approval")
	}
	if ticket.ApproverID == nil || *ticket.ApproverID != caller.ID {
		return apperrors.NewForbidden("caller is not the approver of this ticket")
	}

	now := s.now()
	if approve {
		ticket.IsApproved = true
		if comment != nil {
			ticket.AdditionalInfo = comment
		}
	} else {
		ticket.IsApproved = false
		if closed := firstStatusByLabels(ctx, s.refs, domain.ClosedStatusLabels); closed != nil {
			ticket.StatusID = closed.ID
		}
		if ticket.ClosedAt == nil {
			ticket.ClosedAt = &now
			ticket.ClosedByID = &caller.ID
			breached, err := resolutionBreached(ctx, s.refs, ticket, now)
			if err != nil {
				return err
			}
			if breached {
				ticket.SLABreached = true
			}
		}
		note := rejectionNote
		if comment != nil && *comment != "" {
			note = *comment
		}
		ticket.AdditionalInfo = &note
	}

	ticket.UpdatedAt = now
	ticket.UpdatedByID = &caller.ID

	if err := s.tickets.UpdateState(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.MapError(err)
	}

	payload := events.ApprovalDecidedPayload{Approved: approve}
	if comment != nil {
		payload.Comment = *comment
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventApprovalDecided,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload:  payload,
	})
	return nil
}
