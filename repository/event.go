package repository

import (
	"context"

	"github.com/fastygo/citydesk/domain"
)

type EventFilter struct {
	RequestID string
	Limit     int
	Offset    int
}

// EventRepository stores exported request events.
type EventRepository interface {
	Append(ctx context.Context, event domain.Event) error
	List(ctx context.Context, filter EventFilter) ([]domain.Event, error)
}
