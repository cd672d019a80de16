package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ReferenceStore exposes read-only lookups over reference data. Absent
// rows surface as pgx.ErrNoRows; callers decide whether that is a
// validation failure, missing configuration or simply "no SLA".
type ReferenceStore interface {
	GetStatusByLabel(ctx context.Context, label string) (*domain.Status, error)
	GetStatusByID(ctx context.Context, id int64) (*domain.Status, error)
	GetPriorityByLabel(ctx context.Context, label string) (*domain.Priority, error)
	GetCategoryByLabel(ctx context.Context, label string) (*domain.Category, error)
	GetSLAForPriority(ctx context.Context, priorityID int64) (*domain.SLAPolicy, error)
	GetSLAByID(ctx context.Context, id int64) (*domain.SLAPolicy, error)
	FindAssignmentGroup(ctx context.Context, prefix string, locationID int64) (*domain.AssignmentGroup, error)
}

type referenceRepository struct {
	pool *pgxpool.Pool
}

// NewReferenceRepository instantiates the postgres-backed store.
func NewReferenceRepository(pool *pgxpool.Pool) ReferenceStore {
	return &referenceRepository{pool: pool}
}

func (r *referenceRepository) GetStatusByLabel(ctx context.Context, label string) (*domain.Status, error) {
	var s domain.Status
	err := r.pool.QueryRow(ctx,
		`SELECT id, label FROM statuses WHERE label=$1`, label,
	).Scan(&s.ID, &s.Label)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *referenceRepository) GetStatusByID(ctx context.Context, id int64) (*domain.Status, error) {
	var s domain.Status
	err := r.pool.QueryRow(ctx,
		`SELECT id, label FROM statuses WHERE id=$1`, id,
	).Scan(&s.ID, &s.Label)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *referenceRepository) GetPriorityByLabel(ctx context.Context, label string) (*domain.Priority, error) {
	var p domain.Priority
	err := r.pool.QueryRow(ctx,
		`SELECT id, label FROM priorities WHERE label=$1`, label,
	).Scan(&p.ID, &p.Label)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *referenceRepository) GetCategoryByLabel(ctx context.Context, label string) (*domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx,
		`SELECT id, label FROM categories WHERE label=$1`, label,
	).Scan(&c.ID, &c.Label)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *referenceRepository) GetSLAForPriority(ctx context.Context, priorityID int64) (*domain.SLAPolicy, error) {
	var s domain.SLAPolicy
	err := r.pool.QueryRow(ctx,
		`SELECT id, priority_id, response_minutes, resolution_minutes FROM sla_policies WHERE priority_id=$1`,
		priorityID,
	).Scan(&s.ID, &s.PriorityID, &s.ResponseMinutes, &s.ResolutionMinutes)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *referenceRepository) GetSLAByID(ctx context.Context, id int64) (*domain.SLAPolicy, error) {
	var s domain.SLAPolicy
	err := r.pool.QueryRow(ctx,
		`SELECT id, priority_id, response_minutes, resolution_minutes FROM sla_policies WHERE id=$1`,
		id,
	).Scan(&s.ID, &s.PriorityID, &s.ResponseMinutes, &s.ResolutionMinutes)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *referenceRepository) FindAssignmentGroup(ctx context.Context, prefix string, locationID int64) (*domain.AssignmentGroup, error) {
	var g domain.AssignmentGroup
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, location_id FROM assignment_groups
         WHERE name LIKE $1 || '%' AND location_id=$2
         ORDER BY name LIMIT 1`,
		prefix, locationID,
	).Scan(&g.ID, &g.Name, &g.LocationID)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
