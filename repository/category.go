package repository

import (
	"context"

	"github.com/fastygo/citydesk/domain"
)

// CategoryRepository is the read side of the category catalog.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
}
