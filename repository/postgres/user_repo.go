package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
		SELECT u.id, u.username, u.full_name, u.district, u.email, u.phone, u.role,
		       COALESCE(array_agg(a.category_id ORDER BY a.category_id) FILTER (WHERE a.category_id IS NOT NULL), '{}'),
		       u.created_at, u.updated_at
		FROM users u
		LEFT JOIN employee_categories a ON a.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id
	`
	row := r.pool.QueryRow(ctx, query, id)

	var user domain.User
	var role string

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FullName,
		&user.District,
		&user.Email,
		&user.Phone,
		&role,
		&user.AssignedCategories,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	user.Role = domain.Role(role)
	if user.Role != domain.RoleEmployee {
		user.AssignedCategories = nil
	}

	return &user, nil
}
