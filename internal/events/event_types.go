package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketClosed        EventType = "ticket_closed"
	EventTicketBreached      EventType = "ticket_sla_breached"
	EventApprovalDecided     EventType = "ticket_approval_decided"
	EventCommentAdded        EventType = "ticket_comment_added"
)

// Event represents a domain event emitted by services. Consumers are
// fire-and-forget; the workflows never depend on their success.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Number            string            `json:"number"`
	Type              domain.TicketType `json:"type"`
	PriorityID        int64             `json:"priority_id"`
	AssignmentGroupID int64             `json:"assignment_group_id"`
	ApproverID        *string           `json:"approver_id,omitempty"`
	ResponseDueAt     *time.Time        `json:"response_due_at,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatusID int64 `json:"old_status_id"`
	NewStatusID int64 `json:"new_status_id"`
	Closed      bool  `json:"closed"`
	Breached    bool  `json:"breached"`
}

// ApprovalDecidedPayload payload.
type ApprovalDecidedPayload struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID string `json:"comment_id"`
	Preview   string `json:"preview"`
}
