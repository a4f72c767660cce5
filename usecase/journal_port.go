package usecase

import (
	"context"

	"github.com/fastygo/citydesk/domain"
)

// EventJournal abstracts where request events go once a mutation has completed,
// so use cases stay storage-agnostic.
type EventJournal interface {
	Record(ctx context.Context, events []domain.Event) error
}
