package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/repository"
)

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a Postgres-backed category catalog reader.
func NewCategoryRepository(pool *pgxpool.Pool) repository.CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	const query = `
	SELECT id, name, description, color
	FROM categories
	ORDER BY position, id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Category, error) {
		var c domain.Category
		err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Color)
		return c, err
	})
}
