// Package conversation holds the process-wide request collection and exposes
// the lifecycle and visibility rules over it as one API.
//
// Store serializes mutations with a single writer lock; reads share a read
// lock. Every request handed out is a deep copy, so nothing outside the store
// can observe or cause a half-applied mutation.
package conversation

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/usecase/lifecycle"
	"github.com/fastygo/citydesk/usecase/visibility"
)

type Store struct {
	mu sync.RWMutex

	// requests is kept most-recent-first: new requests are prepended, so
	// reading it backwards yields creation order.
	requests []*domain.Request
	byID     map[string]*domain.Request

	categories []domain.Category
	catIndex   map[string]domain.Category

	focus  map[string]string
	outbox []domain.Event

	engine *lifecycle.Engine
	logger *zap.Logger
}

func New(logger *zap.Logger, opts ...lifecycle.Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		byID:     make(map[string]*domain.Request),
		catIndex: make(map[string]domain.Category),
		focus:    make(map[string]string),
		logger:   logger,
	}
	s.engine = lifecycle.New(catalogView{s}, append([]lifecycle.Option{lifecycle.WithLogger(logger)}, opts...)...)
	return s
}

// catalogView lets the engine resolve categories while the store lock is held.
type catalogView struct{ s *Store }

func (c catalogView) Category(id string) (domain.Category, bool) {
	cat, ok := c.s.catIndex[id]
	return cat, ok
}

// ReplaceCategories swaps the category catalog snapshot.
func (s *Store) ReplaceCategories(categories []domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories = append([]domain.Category(nil), categories...)
	s.catIndex = lo.KeyBy(s.categories, func(c domain.Category) string { return c.ID })
}

// Categories returns the catalog snapshot.
func (s *Store) Categories() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Category(nil), s.categories...)
}

// Seed loads pre-existing requests, oldest first. Requests whose id is
// already present or that break a request invariant are skipped.
func (s *Store) Seed(requests []*domain.Request) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, req := range requests {
		if req == nil || req.ID == "" {
			continue
		}
		if _, exists := s.byID[req.ID]; exists {
			continue
		}
		if err := s.checkInvariants(req); err != nil {
			s.logger.Warn("skipping seeded request", zap.String("request_id", req.ID), zap.Error(err))
			continue
		}
		s.insert(req.Clone())
		added++
	}
	return added
}

// All returns every request, most recent first.
func (s *Store) All() []*domain.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.snapshot())
}

// Visible returns the requests the actor may see, most recent first.
func (s *Store) Visible(actor domain.Actor) []*domain.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(visibility.Visible(actor, s.snapshot()))
}

// Get returns one request if the actor may see it.
func (s *Store) Get(actor domain.Actor, requestID string) (*domain.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.byID[requestID]
	if !ok || !visibility.CanSee(actor, req) {
		return nil, domain.ErrRequestNotFound
	}
	return req.Clone(), nil
}

// UnreadCount returns the staff badge count; ok is false for residents.
func (s *Store) UnreadCount(actor domain.Actor) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return visibility.UnreadCount(actor, s.snapshot())
}

// Summary returns dashboard counters over the actor's visible requests.
func (s *Store) Summary(actor domain.Actor, now time.Time) visibility.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return visibility.Summarize(visibility.Visible(actor, s.snapshot()), now)
}

// Grouped returns the actor's visible requests bucketed by category.
func (s *Store) Grouped(actor domain.Actor) []visibility.CategoryGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := visibility.GroupByCategory(s.categories, visibility.Visible(actor, s.snapshot()))
	for i := range groups {
		groups[i].Requests = cloneAll(groups[i].Requests)
	}
	return groups
}

// Create opens a new request for a resident.
func (s *Store) Create(actor domain.Actor, in lifecycle.CreateInput, now time.Time) (*domain.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.engine.Create(actor, in, now)
	if err != nil {
		return nil, err
	}
	if _, exists := s.byID[req.ID]; exists {
		return nil, domain.NewError(domain.ErrCodeInternal, "duplicate request id")
	}
	s.insert(req)
	s.record(domain.EventRequestCreated, actor, req.ID, req, req.CreatedAt)
	return req.Clone(), nil
}

// Append adds a message to a request's thread.
func (s *Store) Append(actor domain.Actor, requestID, content string, now time.Time) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.byID[requestID]
	if !ok {
		return domain.Message{}, domain.ErrRequestNotFound
	}
	msg, err := s.engine.Append(actor, req, content, now)
	if err != nil {
		return domain.Message{}, err
	}
	s.record(domain.EventMessageAppended, actor, requestID, msg, msg.Timestamp)
	return msg, nil
}

// Close moves a request to the closed state.
func (s *Store) Close(actor domain.Actor, requestID string, now time.Time) (*domain.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.byID[requestID]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if err := s.engine.Close(actor, req, now); err != nil {
		return nil, err
	}
	s.record(domain.EventRequestClosed, actor, requestID, closedPayload{Status: req.Status}, req.UpdatedAt)
	return req.Clone(), nil
}

// MarkRead flags messages of a visible request as read. Re-marking is a no-op.
func (s *Store) MarkRead(actor domain.Actor, requestID string, messageIDs []string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.byID[requestID]
	if !ok || !visibility.CanSee(actor, req) {
		return 0, domain.ErrRequestNotFound
	}
	changed := lifecycle.MarkRead(req, messageIDs)
	if changed > 0 {
		s.record(domain.EventMessagesRead, actor, requestID, readPayload{MessageIDs: messageIDs}, now.UTC())
	}
	return changed, nil
}

// SetFocus points the actor's session at a request; an empty id clears it.
func (s *Store) SetFocus(actor domain.Actor, requestID string) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if requestID == "" {
		delete(s.focus, actor.ID())
		return nil
	}
	req, ok := s.byID[requestID]
	if !ok || !visibility.CanSee(actor, req) {
		return domain.ErrRequestNotFound
	}
	s.focus[actor.ID()] = requestID
	return nil
}

// Focused returns the current state of the actor's focused request.
func (s *Store) Focused(actor domain.Actor) (*domain.Request, bool) {
	if actor == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.focus[actor.ID()]
	if !ok {
		return nil, false
	}
	req, ok := s.byID[id]
	if !ok || !visibility.CanSee(actor, req) {
		return nil, false
	}
	return req.Clone(), true
}

// DrainEvents returns and clears the events recorded since the last drain.
func (s *Store) DrainEvents() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.outbox
	s.outbox = nil
	return events
}

func (s *Store) insert(req *domain.Request) {
	s.byID[req.ID] = req
	s.requests = append([]*domain.Request{req}, s.requests...)
}

func (s *Store) snapshot() []*domain.Request {
	return s.requests
}

type closedPayload struct {
	Status domain.RequestStatus `json:"status"`
}

type readPayload struct {
	MessageIDs []string `json:"message_ids"`
}

func (s *Store) record(name string, actor domain.Actor, requestID string, payload any, at time.Time) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("event payload not encodable", zap.String("event", name), zap.Error(err))
		raw = nil
	}
	s.outbox = append(s.outbox, domain.Event{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Name:      name,
		ActorID:   actor.ID(),
		ActorRole: actor.Role(),
		Payload:   raw,
		CreatedAt: at,
	})
}

// checkInvariants validates a request that did not go through the engine.
// Callers hold s.mu.
func (s *Store) checkInvariants(req *domain.Request) error {
	if len(req.Messages) == 0 {
		return fmt.Errorf("%w: no messages", domain.ErrInvalidPayload)
	}
	if req.Status != domain.StatusOpen && req.Status != domain.StatusClosed {
		return fmt.Errorf("%w: status %q", domain.ErrInvalidPayload, req.Status)
	}
	if _, ok := s.catIndex[req.CategoryID]; !ok {
		return fmt.Errorf("%w: category %q", domain.ErrCategoryNotFound, req.CategoryID)
	}
	if req.UpdatedAt.Before(req.CreatedAt) {
		return fmt.Errorf("%w: updated before created", domain.ErrInvalidPayload)
	}
	if req.Messages[0].Timestamp.Before(req.CreatedAt) {
		return fmt.Errorf("%w: first message older than request", domain.ErrInvalidPayload)
	}
	for i, msg := range req.Messages {
		if msg.RequestID != req.ID {
			return fmt.Errorf("%w: message %s belongs to %s", domain.ErrInvalidPayload, msg.ID, msg.RequestID)
		}
		if msg.Timestamp.After(req.UpdatedAt) {
			return fmt.Errorf("%w: message %s newer than request", domain.ErrInvalidPayload, msg.ID)
		}
		if i > 0 && msg.Timestamp.Before(req.Messages[i-1].Timestamp) {
			return fmt.Errorf("%w: message %s out of order", domain.ErrInvalidPayload, msg.ID)
		}
	}
	return nil
}

func cloneAll(requests []*domain.Request) []*domain.Request {
	return lo.Map(requests, func(req *domain.Request, _ int) *domain.Request { return req.Clone() })
}
