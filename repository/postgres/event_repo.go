package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a Postgres-backed EventRepository implementation.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

// Append is idempotent on the event id so journal retries never duplicate rows.
func (r *eventRepository) Append(ctx context.Context, event domain.Event) error {
	if event.ID == "" || event.RequestID == "" {
		return domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO request_events (id, request_id, name, actor_id, actor_role, payload, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
	ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.RequestID,
		event.Name,
		event.ActorID,
		string(event.ActorRole),
		[]byte(event.Payload),
		nullTime(event.CreatedAt),
	)
	return err
}

func (r *eventRepository) List(ctx context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	const query = `
	SELECT id, request_id, name, actor_id, actor_role, payload, created_at
	FROM request_events
	WHERE ($1 = '' OR request_id = $1)
	ORDER BY created_at, id
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.RequestID, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Event, error) {
		var (
			evt     domain.Event
			role    string
			payload []byte
		)
		if err := row.Scan(&evt.ID, &evt.RequestID, &evt.Name, &evt.ActorID, &role, &payload, &evt.CreatedAt); err != nil {
			return evt, err
		}
		evt.ActorRole = domain.Role(role)
		evt.Payload = payload
		return evt, nil
	})
}
