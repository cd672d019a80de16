package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload. Field names follow the portal's intake
// forms: categorie is a label, impact applies to incidents, demandePour
// and informationsAdditionnelles to tasks.
type CreateTicketRequest struct {
	Type           string  `json:"type"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Category       string  `json:"categorie"`
	Impact         string  `json:"impact,omitempty"`
	RequestedFor   string  `json:"demandePour,omitempty"`
	AdditionalInfo *string `json:"informationsAdditionnelles,omitempty"`
}

// CreateTicketResponse returns the allocated identity.
type CreateTicketResponse struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

// TransitionRequest payload. assignedToId is tri-state: absent leaves
// the assignment unchanged, an explicit null unassigns.
type TransitionRequest struct {
	StatusID    *int64
	AssigneeID  *string
	AssigneeSet bool
	Close       bool
}

// UnmarshalJSON keeps the absent/null distinction for assignedToId.
func (r *TransitionRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		StatusID   *int64          `json:"statusId"`
		AssignedTo json.RawMessage `json:"assignedToId"`
		Close      *bool           `json:"close"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.StatusID = raw.StatusID
	if raw.Close != nil {
		r.Close = *raw.Close
	}
	if raw.AssignedTo != nil {
		r.AssigneeSet = true
		if string(raw.AssignedTo) != "null" {
			var assignee string
			if err := json.Unmarshal(raw.AssignedTo, &assignee); err != nil {
				return err
			}
			r.AssigneeID = &assignee
		}
	}
	return nil
}

// ApprovalRequest payload.
type ApprovalRequest struct {
	Approve bool    `json:"approve"`
	Comment *string `json:"comment,omitempty"`
}

// ApprovalResponse acknowledges the decision.
type ApprovalResponse struct {
	Success bool `json:"success"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID          string    `json:"id"`
	CreatedByID string    `json:"createdById"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TicketResponse renders the persisted ticket state plus the live SLA
// readout (responseLate/resolutionLate are computed at read time, the
// stored isBreached flag only moves at decision points).
type TicketResponse struct {
	ID                string            `json:"id"`
	Number            string            `json:"number"`
	Type              domain.TicketType `json:"type"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	StatusID          int64             `json:"statusId"`
	PriorityID        int64             `json:"priorityId"`
	CategoryID        int64             `json:"categoryId"`
	SLAID             *int64            `json:"slaId"`
	AssignmentGroupID int64             `json:"assignmentGroupId"`
	AssignedToID      *string           `json:"assignedToId"`
	LocationID        int64             `json:"locationId"`
	CreatedByID       string            `json:"createdById"`
	ApproverID        *string           `json:"approverId"`
	IsApproved        bool              `json:"isApproved"`
	RequestedFor      *string           `json:"demandePour,omitempty"`
	AdditionalInfo    *string           `json:"additionalInfo"`
	CreationDate      time.Time         `json:"creationDate"`
	UpdateDate        time.Time         `json:"updateDate"`
	ResponseDate      *time.Time        `json:"responseDate"`
	ClosedDate        *time.Time        `json:"closedDate"`
	IsBreached        bool              `json:"isBreached"`
	UpdatedByID       *string           `json:"updatedById"`
	ClosedByID        *string           `json:"closedById"`
	ResponseLate      bool              `json:"responseLate"`
	ResolutionDate    *time.Time        `json:"resolutionDate,omitempty"`
	ResolutionLate    bool              `json:"resolutionLate"`
	Comments          []CommentResponse `json:"comments,omitempty"`
}
