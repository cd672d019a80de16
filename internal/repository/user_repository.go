package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// UserRepository reads directory entries.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, full_name, location_id, manager_id, is_admin FROM users WHERE id=$1`,
		id,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.LocationID, &u.ManagerID, &u.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
