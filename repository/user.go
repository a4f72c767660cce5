package repository

import (
	"context"

	"github.com/fastygo/citydesk/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
