package requests

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/pkg/logger"
	"github.com/fastygo/citydesk/repository"
	"github.com/fastygo/citydesk/usecase"
	"github.com/fastygo/citydesk/usecase/conversation"
	"github.com/fastygo/citydesk/usecase/lifecycle"
	"github.com/fastygo/citydesk/usecase/visibility"
)

// UseCase exposes the conversation store to transport layers. Store
// operations run first and to completion; journaling happens afterwards and
// never fails the operation.
type UseCase struct {
	store   *conversation.Store
	journal usecase.EventJournal
	history repository.EventRepository
	logger  *zap.Logger
	now     func() time.Time

	// flushMu keeps journal order equal to outbox order.
	flushMu sync.Mutex
}

func New(store *conversation.Store, journal usecase.EventJournal, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:   store,
		journal: journal,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the wall clock, mostly for tests.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	if now != nil {
		uc.now = now
	}
	return uc
}

// WithHistory enables History on top of the exported event log.
func (uc *UseCase) WithHistory(events repository.EventRepository) *UseCase {
	uc.history = events
	return uc
}

func (uc *UseCase) ListRequests(ctx context.Context, actor domain.Actor) []*domain.Request {
	return visibility.NewestFirst(uc.store.Visible(actor))
}

func (uc *UseCase) GetRequest(ctx context.Context, actor domain.Actor, id string) (*domain.Request, error) {
	return uc.store.Get(actor, id)
}

func (uc *UseCase) Grouped(ctx context.Context, actor domain.Actor) []visibility.CategoryGroup {
	return uc.store.Grouped(actor)
}

func (uc *UseCase) Summary(ctx context.Context, actor domain.Actor) visibility.Stats {
	return uc.store.Summary(actor, uc.now())
}

func (uc *UseCase) UnreadCount(ctx context.Context, actor domain.Actor) (int, bool) {
	return uc.store.UnreadCount(actor)
}

func (uc *UseCase) Categories(ctx context.Context) []domain.Category {
	return uc.store.Categories()
}

func (uc *UseCase) CreateRequest(ctx context.Context, actor domain.Actor, in lifecycle.CreateInput) (*domain.Request, error) {
	req, err := uc.store.Create(actor, in, uc.now())
	if err != nil {
		uc.logFailure(ctx, "create request", actor, err)
		return nil, err
	}
	uc.flush(ctx)
	logger.WithRequestID(ctx, uc.logger).Info("request created",
		zap.String("request_id", req.ID),
		zap.String("category_id", req.CategoryID))
	return req, nil
}

func (uc *UseCase) SendMessage(ctx context.Context, actor domain.Actor, requestID, content string) (domain.Message, error) {
	msg, err := uc.store.Append(actor, requestID, content, uc.now())
	if err != nil {
		uc.logFailure(ctx, "send message", actor, err, zap.String("request_id", requestID))
		return domain.Message{}, err
	}
	uc.flush(ctx)
	return msg, nil
}

func (uc *UseCase) CloseRequest(ctx context.Context, actor domain.Actor, requestID string) (*domain.Request, error) {
	req, err := uc.store.Close(actor, requestID, uc.now())
	if err != nil {
		uc.logFailure(ctx, "close request", actor, err, zap.String("request_id", requestID))
		return nil, err
	}
	uc.flush(ctx)
	logger.WithRequestID(ctx, uc.logger).Info("request closed",
		zap.String("request_id", requestID),
		zap.String("actor_id", actor.ID()))
	return req, nil
}

func (uc *UseCase) MarkRead(ctx context.Context, actor domain.Actor, requestID string, messageIDs []string) (int, error) {
	changed, err := uc.store.MarkRead(actor, requestID, messageIDs, uc.now())
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		uc.flush(ctx)
	}
	return changed, nil
}

func (uc *UseCase) SetFocus(ctx context.Context, actor domain.Actor, requestID string) error {
	return uc.store.SetFocus(actor, requestID)
}

func (uc *UseCase) Focused(ctx context.Context, actor domain.Actor) (*domain.Request, bool) {
	return uc.store.Focused(actor)
}

// History returns the exported events of a request the actor can see. Events
// still waiting in the journal are not included.
func (uc *UseCase) History(ctx context.Context, actor domain.Actor, requestID string, limit, offset int) ([]domain.Event, error) {
	if _, err := uc.store.Get(actor, requestID); err != nil {
		return nil, err
	}
	if uc.history == nil {
		return []domain.Event{}, nil
	}
	events, err := uc.history.List(ctx, repository.EventFilter{RequestID: requestID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "load request history", err)
	}
	return events, nil
}

func (uc *UseCase) flush(ctx context.Context) {
	if uc.journal == nil {
		uc.store.DrainEvents()
		return
	}
	uc.flushMu.Lock()
	defer uc.flushMu.Unlock()

	events := uc.store.DrainEvents()
	if len(events) == 0 {
		return
	}
	// The mutation already happened; a cancelled caller must not lose its events.
	if err := uc.journal.Record(context.WithoutCancel(ctx), events); err != nil {
		logger.WithRequestID(ctx, uc.logger).Error("failed to journal request events",
			zap.Int("events", len(events)),
			zap.Error(err))
	}
}

func (uc *UseCase) logFailure(ctx context.Context, op string, actor domain.Actor, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", op), zap.String("code", string(domain.CodeOf(err))), zap.Error(err))
	if actor != nil {
		fields = append(fields, zap.String("actor_id", actor.ID()))
	}
	logger.WithRequestID(ctx, uc.logger).Debug("request operation rejected", fields...)
}
