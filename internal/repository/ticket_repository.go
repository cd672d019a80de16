package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/numbering"
)

const numberAllocRetries = 3

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Type              *domain.TicketType
	StatusID          *int64
	LocationID        *int64
	CreatedByID       *string
	AssignedToID      *string
	PendingApproverID *string
	ExcludeUnapproved bool
	Limit             int
	Offset            int
}

// TicketRepository encapsulates ticket persistence. Create allocates the
// ticket number inside the insertion transaction; UpdateState writes the
// full mutable state in one statement.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	UpdateState(ctx context.Context, ticket *domain.Ticket) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, number, type, title, description, status_id, priority_id, category_id,
        sla_id, assignment_group_id, assigned_to_id, location_id, created_by_id, approver_id,
        is_approved, requested_for, additional_info, created_at, updated_at, response_due_at,
        closed_at, sla_breached, updated_by_id, closed_by_id`

// Create inserts the ticket with a freshly allocated number. The last
// stored number is read and the row inserted within one transaction; a
// concurrent creation of the same type loses the race on the unique
// number constraint and is retried with a re-read.
func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	var lastErr error
	for attempt := 0; attempt < numberAllocRetries; attempt++ {
		err := r.tryCreate(ctx, ticket)
		if err == nil {
			return nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "number") {
			lastErr = err
			continue
		}
		return err
	}
	return fmt.Errorf("allocate ticket number: %w", lastErr)
}

func (r *ticketRepository) tryCreate(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Length-first ordering keeps INC1000000 above INC999999 once the
	// padding widens past six digits.
	var last string
	err = tx.QueryRow(ctx,
		`SELECT number FROM tickets WHERE type=$1
         ORDER BY char_length(number) DESC, number DESC LIMIT 1`,
		ticket.Type,
	).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	ticket.Number = numbering.Next(ticket.Type.NumberPrefix(), last)

	err = tx.QueryRow(ctx, `
        INSERT INTO tickets (number, type, title, description, status_id, priority_id, category_id,
            sla_id, assignment_group_id, assigned_to_id, location_id, created_by_id, approver_id,
            is_approved, requested_for, additional_info, created_at, updated_at, response_due_at,
            closed_at, sla_breached)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
        RETURNING id`,
		ticket.Number,
		ticket.Type,
		ticket.Title,
		ticket.Description,
		ticket.StatusID,
		ticket.PriorityID,
		ticket.CategoryID,
		ticket.SLAID,
		ticket.AssignmentGroupID,
		ticket.AssignedToID,
		ticket.LocationID,
		ticket.CreatedByID,
		ticket.ApproverID,
		ticket.IsApproved,
		ticket.RequestedFor,
		ticket.AdditionalInfo,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.ResponseDueAt,
		ticket.ClosedAt,
		ticket.SLABreached,
	).Scan(&ticket.ID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE number=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, arg), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateState persists every mutable field in a single statement so a
// concurrent reader never observes a half-applied transition.
func (r *ticketRepository) UpdateState(ctx context.Context, ticket *domain.Ticket) error {
	cmd, err := r.pool.Exec(ctx, `
        UPDATE tickets SET status_id=$1, assigned_to_id=$2, is_approved=$3, additional_info=$4,
            response_due_at=$5, closed_at=$6, sla_breached=$7, updated_at=$8, updated_by_id=$9,
            closed_by_id=$10
        WHERE id=$11`,
		ticket.StatusID,
		ticket.AssignedToID,
		ticket.IsApproved,
		ticket.AdditionalInfo,
		ticket.ResponseDueAt,
		ticket.ClosedAt,
		ticket.SLABreached,
		ticket.UpdatedAt,
		ticket.UpdatedByID,
		ticket.ClosedByID,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	if filter.StatusID != nil {
		args = append(args, *filter.StatusID)
		clauses = append(clauses, fmt.Sprintf("status_id=$%d", len(args)))
	}
	if filter.LocationID != nil {
		args = append(args, *filter.LocationID)
		clauses = append(clauses, fmt.Sprintf("location_id=$%d", len(args)))
	}
	if filter.CreatedByID != nil {
		args = append(args, *filter.CreatedByID)
		clauses = append(clauses, fmt.Sprintf("created_by_id=$%d", len(args)))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if filter.PendingApproverID != nil {
		args = append(args, *filter.PendingApproverID)
		clauses = append(clauses, fmt.Sprintf(
			"approver_id=$%d AND type='task' AND is_approved=FALSE AND closed_at IS NULL", len(args)))
	}
	if filter.ExcludeUnapproved {
		clauses = append(clauses, "(type <> 'task' OR is_approved=TRUE)")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row, t *domain.Ticket) error {
	return row.Scan(
		&t.ID,
		&t.Number,
		&t.Type,
		&t.Title,
		&t.Description,
		&t.StatusID,
		&t.PriorityID,
		&t.CategoryID,
		&t.SLAID,
		&t.AssignmentGroupID,
		&t.AssignedToID,
		&t.LocationID,
		&t.CreatedByID,
		&t.ApproverID,
		&t.IsApproved,
		&t.RequestedFor,
		&t.AdditionalInfo,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.ResponseDueAt,
		&t.ClosedAt,
		&t.SLABreached,
		&t.UpdatedByID,
		&t.ClosedByID,
	)
}
