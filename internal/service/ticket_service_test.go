package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

var creationTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTicketService(repo *fakeTicketRepo, refs *fakeRefStore, now time.Time) (*TicketService, *recordingDispatcher) {
	dispatcher := &recordingDispatcher{}
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  repo,
		RefStore:    refs,
		CommentRepo: &fakeCommentRepo{},
		Dispatcher:  dispatcher,
		Now:         func() time.Time { return now },
	})
	return svc, dispatcher
}

func requester() domain.Caller {
	return domain.Caller{ID: "user-1", LocationID: int64Ptr(1)}
}

func incidentInput(impact domain.Impact) CreateTicketInput {
	return CreateTicketInput{
		Type:        domain.TicketTypeIncident,
		Title:       "Printer on fire",
		Description: "The third-floor printer is smoking",
		Category:    "Materiel",
		Impact:      impact,
	}
}

func taskInput() CreateTicketInput {
	return CreateTicketInput{
		Type:         domain.TicketTypeTask,
		Title:        "New laptop",
		Description:  "Laptop for the new hire",
		Category:     "Materiel",
		RequestedFor: "Jean Dupont",
	}
}

func domainErrCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return de.Code
}

func TestCreateIncident_GlobalImpact(t *testing.T) {
	repo := newFakeTicketRepo()
	svc, dispatcher := newTicketService(repo, newFakeRefStore(), creationTime)

	ticket, err := svc.CreateTicket(context.Background(), requester(), incidentInput(domain.ImpactGlobal))
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	if ticket.Number != "INC000001" {
		t.Errorf("number = %q, want INC000001", ticket.Number)
	}
	if ticket.PriorityID != 4 {
		t.Errorf("priority id = %d, want Critical (4)", ticket.PriorityID)
	}
	if !ticket.IsApproved {
		t.Error("incidents must be created approved")
	}
	if ticket.ApproverID != nil {
		t.Errorf("incident approver = %v, want nil", *ticket.ApproverID)
	}
	if ticket.SLAID == nil || *ticket.SLAID != 4 {
		t.Fatalf("sla id = %v, want 4", ticket.SLAID)
	}
	wantDue := creationTime.Add(30 * time.Minute)
	if ticket.ResponseDueAt == nil || !ticket.ResponseDueAt.Equal(wantDue) {
		t.Errorf("response due = %v, want %v", ticket.ResponseDueAt, wantDue)
	}
	if ticket.SLABreached {
		t.Error("new ticket must not be breached")
	}
	if ticket.AssignmentGroupID != 10 {
		t.Errorf("assignment group = %d, want incident support group", ticket.AssignmentGroupID)
	}
	if got := dispatcher.byType(events.EventTicketCreated); len(got) != 1 {
		t.Errorf("created events = %d, want 1", len(got))
	}
}

func TestCreateIncident_ImpactMapping(t *testing.T) {
	tests := []struct {
		impact       domain.Impact
		wantPriority int64
	}{
		{domain.ImpactIndividual, 1},
		{domain.ImpactSeveral, 2},
		{domain.ImpactService, 3},
		{domain.ImpactGlobal, 4},
	}
	for _, tt := range tests {
		t.Run(string(tt.impact), func(t *testing.T) {
			svc, _ := newTicketService(newFakeTicketRepo(), newFakeRefStore(), creationTime)
			ticket, err := svc.CreateTicket(context.Background(), requester(), incidentInput(tt.impact))
			if err != nil {
				t.Fatalf("CreateTicket: %v", err)
			}
			if ticket.PriorityID != tt.wantPriority {
				t.Errorf("priority = %d, want %d", ticket.PriorityID, tt.wantPriority)
			}
		})
	}
}

func TestCreateIncident_UnknownImpact(t *testing.T) {
	svc, _ := newTicketService(newFakeTicketRepo(), newFakeRefStore(), creationTime)
	_, err := svc.CreateTicket(context.Background(), requester(), incidentInput("continental"))
	if code := domainErrCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", code)
	}
}

func TestCreateIncident_MissingOpenStatus(t *testing.T) {
	refs := newFakeRefStore()
	refs.statuses = nil
	svc, _ := newTicketService(newFakeTicketRepo(), refs, creationTime)
	_, err := svc.CreateTicket(context.Background(), requester(), incidentInput(domain.ImpactGlobal))
	if code := domainErrCode(t, err); code != "REFERENCE_DATA_MISSING" {
		t.Errorf("code = %q, want REFERENCE_DATA_MISSING", code)
	}
}

func TestCreateIncident_UnknownCategory(t *testing.T) {
	svc, _ := newTicketService(newFakeTicketRepo(), newFakeRefStore(), creationTime)
	input := incidentInput(domain.ImpactGlobal)
	input.Category = "Spaceships"
	_, err := svc.CreateTicket(context.Background(), requester(), input)
	if code := domainErrCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", code)
	}
}

func TestCreateIncident_NoSupportGroupForLocation(t *testing.T) {
	svc, _ := newTicketService(newFakeTicketRepo(), newFakeRefStore(), creationTime)
	caller := domain.Caller{ID: "user-1", LocationID: int64Ptr(99)}
	_, err := svc.CreateTicket(context.Background(), caller, incidentInput(domain.ImpactGlobal))
	if code := domainErrCode(t, err); code != "NO_SUPPORT_GROUP" {
		t.Errorf("code = %q, want NO_SUPPORT_GROUP", code)
	}
}

func TestCreateIncident_NoSLAConfigured(t *testing.T) {
	refs := newFakeRefStore()
	refs.slas = nil
	svc, _ := newTicketService(newFakeTicketRepo(), refs, creationTime)
	ticket, err := svc.CreateTicket(context.Background(), requester(), incidentInput(domain.ImpactIndividual))
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.SLAID != nil {
		t.Errorf("sla id = %v, want nil", ticket.SLAID)
	}
	if ticket.ResponseDueAt != nil {
		t.Errorf("response due = %v, want nil without SLA", ticket.ResponseDueAt)
	}
}

func TestCreateIncident_MissingCallerLocation(t *testing.T) {
	svc, _ := newTicketService(newFakeTicketRepo(), newFakeRefStore(), creationTime)
	caller := domain.Caller{ID: "user-1"}
	_, err := svc.CreateTicket(context.Background(), caller, incidentInput(domain.ImpactGlobal))
	if code := domainErrCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", code)
	}
}

func TestCreateTask_ManagerBecomesApprover(t *testing.T) {
	svc, _ := newTicketService(newFakeTicketRepo(), newFakeRefStore(), creationTime)
	caller := domain.Caller{ID: "user-1", LocationID: int64Ptr(1), ManagerID: strPtr("manager-1")}

	ticket, err := svc.CreateTicket(context.Background(), caller, taskInput())
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.Number != "TSK000001" {
		t.Errorf("number = %q, want TSK000001", ticket.Number)
	}
	if ticket.IsApproved {
		t.Error("tasks must start unapproved")
	}
	if ticket.ApproverID == nil || *ticket.ApproverID != "manager-1" {
		t.Errorf("approver = %v, want manager-1", ticket.ApproverID)
	}
	if ticket.PriorityID != 2 {
		t.Errorf("priority = %d, want Medium (2)", ticket.PriorityID)
	}
	if ticket.SLAID != nil || ticket.ResponseDueAt != nil {
		t.Error("tasks carry no SLA or response deadline")
	}
	if ticket.AssignmentGroupID != 11 {
		t.Errorf("assignment group = %d, want task support group", ticket.AssignmentGroupID)
	}
}

func TestCreateTask_SelfApprovalWithoutManager(t *testing.T) {
	svc, _ := newTicketService(newFakeTicketRepo(), newFakeRefStore(), creationTime)
	ticket, err := svc.CreateTicket(context.Background(), requester(), taskInput())
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.ApproverID == nil || *ticket.ApproverID != "user-1" {
		t.Errorf("approver = %v, want the caller itself", ticket.ApproverID)
	}
}

func TestCreateTask_CategoryOutsideAllowlist(t *testing.T) {
	svc, _ := newTicketService(newFakeTicketRepo(), newFakeRefStore(), creationTime)
	input := taskInput()
	input.Category = "Painting"
	_, err := svc.CreateTicket(context.Background(), requester(), input)
	if code := domainErrCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", code)
	}
}

func TestCreateTask_MissingRequestedFor(t *testing.T) {
	svc, _ := newTicketService(newFakeTicketRepo(), newFakeRefStore(), creationTime)
	input := taskInput()
	input.RequestedFor = "  "
	_, err := svc.CreateTicket(context.Background(), requester(), input)
	if code := domainErrCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", code)
	}
}

func TestCreate_NumbersArePerTypeSequences(t *testing.T) {
	repo := newFakeTicketRepo()
	svc, _ := newTicketService(repo, newFakeRefStore(), creationTime)
	ctx := context.Background()

	first, err := svc.CreateTicket(ctx, requester(), incidentInput(domain.ImpactGlobal))
	if err != nil {
		t.Fatalf("create incident: %v", err)
	}
	second, err := svc.CreateTicket(ctx, requester(), incidentInput(domain.ImpactIndividual))
	if err != nil {
		t.Fatalf("create incident: %v", err)
	}
	task, err := svc.CreateTicket(ctx, requester(), taskInput())
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if first.Number != "INC000001" || second.Number != "INC000002" {
		t.Errorf("incident numbers = %q, %q; want INC000001, INC000002", first.Number, second.Number)
	}
	if task.Number != "TSK000001" {
		t.Errorf("task number = %q, want its own TSK sequence", task.Number)
	}
}

func TestListTickets_ExcludesUnapprovedTasks(t *testing.T) {
	repo := newFakeTicketRepo()
	svc, _ := newTicketService(repo, newFakeRefStore(), creationTime)
	ctx := context.Background()

	if _, err := svc.CreateTicket(ctx, requester(), incidentInput(domain.ImpactGlobal)); err != nil {
		t.Fatalf("create incident: %v", err)
	}
	if _, err := svc.CreateTicket(ctx, requester(), taskInput()); err != nil {
		t.Fatalf("create task: %v", err)
	}

	staff := domain.Caller{ID: "staff-1", LocationID: int64Ptr(1)}
	listed, err := svc.ListTickets(ctx, staff, TicketListFilter{})
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if len(listed) != 1 || listed[0].Type != domain.TicketTypeIncident {
		t.Fatalf("operational listing = %d tickets, want only the incident", len(listed))
	}
}

func TestListPendingApprovals(t *testing.T) {
	repo := newFakeTicketRepo()
	svc, _ := newTicketService(repo, newFakeRefStore(), creationTime)
	ctx := context.Background()
	caller := domain.Caller{ID: "user-1", LocationID: int64Ptr(1), ManagerID: strPtr("manager-1")}

	task, err := svc.CreateTicket(ctx, caller, taskInput())
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	manager := domain.Caller{ID: "manager-1", LocationID: int64Ptr(1)}
	pending, err := svc.ListPendingApprovals(ctx, manager, 20, 0)
	if err != nil {
		t.Fatalf("ListPendingApprovals: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != task.ID {
		t.Fatalf("pending = %v, want the created task", pending)
	}

	stranger := domain.Caller{ID: "other", LocationID: int64Ptr(1)}
	pending, err = svc.ListPendingApprovals(ctx, stranger, 20, 0)
	if err != nil {
		t.Fatalf("ListPendingApprovals: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("stranger's queue = %d tickets, want none", len(pending))
	}
}

func TestGetTicketByNumber(t *testing.T) {
	repo := newFakeTicketRepo()
	svc, _ := newTicketService(repo, newFakeRefStore(), creationTime)
	ctx := context.Background()

	created, err := svc.CreateTicket(ctx, requester(), incidentInput(domain.ImpactGlobal))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ticket, _, err := svc.GetTicketByNumber(ctx, created.Number)
	if err != nil {
		t.Fatalf("GetTicketByNumber: %v", err)
	}
	if ticket.ID != created.ID {
		t.Errorf("ticket id = %q, want %q", ticket.ID, created.ID)
	}

	_, _, err = svc.GetTicketByNumber(ctx, "INC999999")
	if code := domainErrCode(t, err); code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", code)
	}
}

func TestAddComment(t *testing.T) {
	repo := newFakeTicketRepo()
	svc, dispatcher := newTicketService(repo, newFakeRefStore(), creationTime)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, requester(), incidentInput(domain.ImpactGlobal))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	comment, err := svc.AddComment(ctx, requester(), ticket.ID, "still broken")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if comment.TicketID != ticket.ID || comment.Content != "still broken" {
		t.Errorf("unexpected comment %+v", comment)
	}
	if got := dispatcher.byType(events.EventCommentAdded); len(got) != 1 {
		t.Errorf("comment events = %d, want 1", len(got))
	}

	if _, err := svc.AddComment(ctx, requester(), "missing", "x"); err == nil {
		t.Error("expected NotFound for unknown ticket")
	}
}
