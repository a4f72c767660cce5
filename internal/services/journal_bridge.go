package services

import (
	"context"

	"github.com/samber/lo"

	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/internal/infrastructure/journal"
	"github.com/fastygo/citydesk/usecase"
)

// JournalBridge adapts the bolt journal to the use case port.
type JournalBridge struct {
	store *journal.Store
}

func NewJournalBridge(store *journal.Store) *JournalBridge {
	return &JournalBridge{store: store}
}

func (b *JournalBridge) Record(ctx context.Context, events []domain.Event) error {
	if b.store == nil {
		return domain.NewError(domain.ErrCodeInternal, "journal not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	entries := lo.Map(events, func(evt domain.Event, _ int) journal.Entry {
		return journal.Entry{Event: evt}
	})
	return b.store.Append(entries...)
}

var _ usecase.EventJournal = (*JournalBridge)(nil)
