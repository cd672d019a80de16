package domain

import "time"

// Comment is an append-only annotation on a ticket, ordered by creation
// time ascending. Comments carry no SLA semantics.
type Comment struct {
	ID          string
	TicketID    string
	CreatedByID string
	Content     string
	CreatedAt   time.Time
}
