package domain

import "time"

// TicketType distinguishes incidents from service-request tasks.
type TicketType string

const (
	TicketTypeIncident TicketType = "incident"
	TicketTypeTask     TicketType = "task"
)

// NumberPrefix returns the human-readable number prefix for the type.
func (t TicketType) NumberPrefix() string {
	if t == TicketTypeTask {
		return "TSK"
	}
	return "INC"
}

// Valid reports whether the type is one of the known ticket types.
func (t TicketType) Valid() bool {
	return t == TicketTypeIncident || t == TicketTypeTask
}

// Impact is the caller-declared blast radius of an incident.
type Impact string

const (
	ImpactIndividual Impact = "individuel"
	ImpactSeveral    Impact = "plusieurs"
	ImpactService    Impact = "service"
	ImpactGlobal     Impact = "global"
)

// Ticket is the aggregate tracked through the lifecycle. Number, type,
// priority, SLA and assignment group are frozen at creation; status,
// assignee and the SLA bookkeeping fields move only through the
// transition and approval workflows.
type Ticket struct {
	ID                string
	Number            string
	Type              TicketType
	Title             string
	Description       string
	StatusID          int64
	PriorityID        int64
	CategoryID        int64
	SLAID             *int64
	AssignmentGroupID int64
	AssignedToID      *string
	LocationID        int64
	CreatedByID       string
	ApproverID        *string
	IsApproved        bool
	RequestedFor      *string
	AdditionalInfo    *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ResponseDueAt     *time.Time
	ClosedAt          *time.Time
	SLABreached       bool
	UpdatedByID       *string
	ClosedByID        *string
}

// Closed reports whether the ticket reached a terminal state.
func (t *Ticket) Closed() bool {
	return t.ClosedAt != nil
}
