package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/numbering"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// fakeTicketRepo is an in-memory TicketRepository mirroring the
// postgres implementation's number allocation and copy-on-write
// semantics.
type fakeTicketRepo struct {
	tickets map[string]*domain.Ticket
	seq     int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) lastNumber(ticketType domain.TicketType) string {
	last := ""
	for _, t := range r.tickets {
		if t.Type != ticketType {
			continue
		}
		if len(t.Number) > len(last) || (len(t.Number) == len(last) && t.Number > last) {
			last = t.Number
		}
	}
	return last
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	ticket.Number = numbering.Next(ticket.Type.NumberPrefix(), r.lastNumber(ticket.Type))
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *stored
	return &copy, nil
}

func (r *fakeTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	for _, stored := range r.tickets {
		if stored.Number == number {
			copy := *stored
			return &copy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) UpdateState(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, t := range r.tickets {
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if filter.StatusID != nil && t.StatusID != *filter.StatusID {
			continue
		}
		if filter.LocationID != nil && t.LocationID != *filter.LocationID {
			continue
		}
		if filter.CreatedByID != nil && t.CreatedByID != *filter.CreatedByID {
			continue
		}
		if filter.AssignedToID != nil && (t.AssignedToID == nil || *t.AssignedToID != *filter.AssignedToID) {
			continue
		}
		if filter.PendingApproverID != nil {
			if t.Type != domain.TicketTypeTask || t.IsApproved || t.ClosedAt != nil {
				continue
			}
			if t.ApproverID == nil || *t.ApproverID != *filter.PendingApproverID {
				continue
			}
		}
		if filter.ExcludeUnapproved && t.Type == domain.TicketTypeTask && !t.IsApproved {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

// fakeRefStore serves reference data from slices; absent rows read as
// pgx.ErrNoRows like the postgres store.
type fakeRefStore struct {
	statuses   []domain.Status
	priorities []domain.Priority
	categories []domain.Category
	slas       []domain.SLAPolicy
	groups     []domain.AssignmentGroup
}

func newFakeRefStore() *fakeRefStore {
	return &fakeRefStore{
		statuses: []domain.Status{
			{ID: 1, Label: "Open"},
			{ID: 2, Label: "In Progress"},
			{ID: 3, Label: "Fermé"},
		},
		priorities: []domain.Priority{
			{ID: 1, Label: "Low"},
			{ID: 2, Label: "Medium"},
			{ID: 3, Label: "High"},
			{ID: 4, Label: "Critical"},
		},
		categories: []domain.Category{
			{ID: 1, Label: "Materiel"},
			{ID: 2, Label: "Logiciel"},
			{ID: 3, Label: "Reseau"},
			{ID: 4, Label: "Acces"},
			{ID: 5, Label: "Autre"},
		},
		slas: []domain.SLAPolicy{
			{ID: 1, PriorityID: 1, ResponseMinutes: 480, ResolutionMinutes: 2880},
			{ID: 2, PriorityID: 2, ResponseMinutes: 240, ResolutionMinutes: 1440},
			{ID: 3, PriorityID: 3, ResponseMinutes: 60, ResolutionMinutes: 480},
			{ID: 4, PriorityID: 4, ResponseMinutes: 30, ResolutionMinutes: 240},
		},
		groups: []domain.AssignmentGroup{
			{ID: 10, Name: "Support.Incidents.Paris", LocationID: 1},
			{ID: 11, Name: "Support.Taches.Paris", LocationID: 1},
		},
	}
}

func (r *fakeRefStore) GetStatusByLabel(_ context.Context, label string) (*domain.Status, error) {
	for i := range r.statuses {
		if r.statuses[i].Label == label {
			return &r.statuses[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRefStore) GetStatusByID(_ context.Context, id int64) (*domain.Status, error) {
	for i := range r.statuses {
		if r.statuses[i].ID == id {
			return &r.statuses[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRefStore) GetPriorityByLabel(_ context.Context, label string) (*domain.Priority, error) {
	for i := range r.priorities {
		if r.priorities[i].Label == label {
			return &r.priorities[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRefStore) GetCategoryByLabel(_ context.Context, label string) (*domain.Category, error) {
	for i := range r.categories {
		if r.categories[i].Label == label {
			return &r.categories[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRefStore) GetSLAForPriority(_ context.Context, priorityID int64) (*domain.SLAPolicy, error) {
	for i := range r.slas {
		if r.slas[i].PriorityID == priorityID {
			return &r.slas[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRefStore) GetSLAByID(_ context.Context, id int64) (*domain.SLAPolicy, error) {
	for i := range r.slas {
		if r.slas[i].ID == id {
			return &r.slas[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRefStore) FindAssignmentGroup(_ context.Context, prefix string, locationID int64) (*domain.AssignmentGroup, error) {
	for i := range r.groups {
		g := &r.groups[i]
		if g.LocationID == locationID && len(g.Name) >= len(prefix) && g.Name[:len(prefix)] == prefix {
			return g, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// fakeCommentRepo is an in-memory CommentRepository.
type fakeCommentRepo struct {
	comments []domain.Comment
	seq      int
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	var result []domain.Comment
	for _, c := range r.comments {
		if c.TicketID == ticketID {
			result = append(result, c)
		}
	}
	return result, nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, e := range d.events {
		if e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}

func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }
