// Package lifecycle enforces how a request is created, talked on and closed.
//
// The engine never performs I/O. Callers resolve everything it needs (the
// request under mutation, the category catalog, the clock) beforehand and
// serialize mutations on the same request.
package lifecycle

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/usecase/visibility"
)

// DefaultDeadline is the time a request has to be handled after creation.
const DefaultDeadline = 30 * 24 * time.Hour

// Catalog resolves category ids synchronously.
type Catalog interface {
	Category(id string) (domain.Category, bool)
}

// CreateInput carries what a resident submits when opening a request.
type CreateInput struct {
	CategoryID string
	Subject    string
	Message    string
}

type Option func(*Engine)

// WithIDGenerator replaces the uuid generator, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithDeadline overrides DefaultDeadline.
func WithDeadline(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.deadline = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

type Engine struct {
	catalog  Catalog
	newID    func() string
	deadline time.Duration
	logger   *zap.Logger
}

func New(catalog Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:  catalog,
		newID:    uuid.NewString,
		deadline: DefaultDeadline,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create opens a new request with its seed message. Only residents open requests.
func (e *Engine) Create(actor domain.Actor, in CreateInput, now time.Time) (*domain.Request, error) {
	resident, ok := actor.(domain.Resident)
	if !ok {
		return nil, domain.ErrForbidden
	}

	if strings.TrimSpace(in.Subject) == "" {
		return nil, domain.ErrEmptySubject
	}
	if err := checkContent(in.Message); err != nil {
		return nil, err
	}

	if e.catalog == nil {
		return nil, domain.ErrCategoryNotFound
	}
	category, ok := e.catalog.Category(in.CategoryID)
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}

	now = now.UTC()
	req := &domain.Request{
		ID:           e.newID(),
		ResidentID:   resident.UserID,
		ResidentName: resident.FullName,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Subject:      in.Subject,
		Status:       domain.StatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
		Deadline:     now.Add(e.deadline),
	}
	req.Messages = []domain.Message{e.newMessage(actor, req.ID, in.Message, now)}

	e.logger.Debug("request created",
		zap.String("request_id", req.ID),
		zap.String("category_id", req.CategoryID),
		zap.String("resident_id", req.ResidentID))
	return req, nil
}

// Append adds a message to an open request. A closed request rejects every
// append regardless of actor or content; the request is untouched on failure.
func (e *Engine) Append(actor domain.Actor, req *domain.Request, content string, now time.Time) (domain.Message, error) {
	if req == nil {
		return domain.Message{}, domain.ErrRequestNotFound
	}
	if req.IsClosed() {
		return domain.Message{}, domain.ErrRequestClosed
	}
	if !visibility.CanSee(actor, req) {
		return domain.Message{}, domain.ErrForbidden
	}
	if err := checkContent(content); err != nil {
		return domain.Message{}, err
	}

	now = monotonic(req, now)
	msg := e.newMessage(actor, req.ID, content, now)
	req.Messages = append(req.Messages, msg)
	req.UpdatedAt = now

	e.logger.Debug("message appended",
		zap.String("request_id", req.ID),
		zap.String("message_id", msg.ID),
		zap.String("sender_role", string(msg.SenderRole)))
	return msg, nil
}

// Close moves an open request to the terminal closed state. Residents may not
// close; closing twice is an error, not a no-op.
func (e *Engine) Close(actor domain.Actor, req *domain.Request, now time.Time) error {
	if req == nil {
		return domain.ErrRequestNotFound
	}
	if actor == nil || !actor.Role().IsStaff() || !visibility.CanSee(actor, req) {
		return domain.ErrForbidden
	}
	if req.IsClosed() {
		return domain.ErrAlreadyClosed
	}

	req.Status = domain.StatusClosed
	req.UpdatedAt = monotonic(req, now)

	e.logger.Debug("request closed",
		zap.String("request_id", req.ID),
		zap.String("closed_by", actor.ID()))
	return nil
}

// MarkRead flags the named messages as read and returns how many changed.
// Already-read and unknown ids are ignored.
func MarkRead(req *domain.Request, messageIDs []string) int {
	if req == nil || len(messageIDs) == 0 {
		return 0
	}
	wanted := make(map[string]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		wanted[id] = struct{}{}
	}

	changed := 0
	for i := range req.Messages {
		if _, ok := wanted[req.Messages[i].ID]; !ok || req.Messages[i].IsRead {
			continue
		}
		req.Messages[i].IsRead = true
		changed++
	}
	return changed
}

// checkContent rejects blank or over-long message bodies. The content itself
// is stored as sent.
func checkContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return domain.ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > domain.MaxMessageLength {
		return domain.ErrContentTooLong
	}
	return nil
}

func (e *Engine) newMessage(actor domain.Actor, requestID, content string, now time.Time) domain.Message {
	return domain.Message{
		ID:         e.newID(),
		RequestID:  requestID,
		SenderID:   actor.ID(),
		SenderName: actor.Name(),
		SenderRole: actor.Role(),
		Content:    content,
		Timestamp:  now,
		IsRead:     false,
	}
}

// monotonic keeps updatedAt from moving backwards when the caller's clock is behind.
func monotonic(req *domain.Request, now time.Time) time.Time {
	now = now.UTC()
	if now.Before(req.UpdatedAt) {
		return req.UpdatedAt
	}
	return now
}
