package domain

import "time"

// RequestStatus is the lifecycle state of a request.
type RequestStatus string

const (
	StatusOpen   RequestStatus = "open"
	StatusClosed RequestStatus = "closed"
	// StatusPending is reserved; no operation produces or consumes it.
	StatusPending RequestStatus = "pending"
)

// DueSoonWindow marks open requests whose deadline is close.
const DueSoonWindow = 7 * 24 * time.Hour

// DeadlineState classifies a request against its deadline.
type DeadlineState string

const (
	DeadlineOnTrack DeadlineState = "on_track"
	DeadlineDueSoon DeadlineState = "due_soon"
	DeadlineExpired DeadlineState = "expired"
)

// Request represents a citizen-submitted service ticket with its conversation.
type Request struct {
	ID           string        `json:"id"`
	ResidentID   string        `json:"resident_id"`
	ResidentName string        `json:"resident_name"`
	CategoryID   string        `json:"category_id"`
	CategoryName string        `json:"category_name"`
	Subject      string        `json:"subject"`
	Status       RequestStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Deadline     time.Time     `json:"deadline"`
	Messages     []Message     `json:"messages"`
}

func (r *Request) IsClosed() bool {
	return r != nil && r.Status == StatusClosed
}

// Clone returns a deep copy so callers never share the message slice.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Messages = make([]Message, len(r.Messages))
	copy(cp.Messages, r.Messages)
	return &cp
}

// LastMessage returns the most recent message of the thread.
func (r *Request) LastMessage() (Message, bool) {
	if r == nil || len(r.Messages) == 0 {
		return Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}

// UnreadCount counts unread resident-authored messages of this request.
func (r *Request) UnreadCount() int {
	if r == nil {
		return 0
	}
	count := 0
	for _, msg := range r.Messages {
		if msg.IsStaffNotification() {
			count++
		}
	}
	return count
}

// DeadlineState reports how the request stands against its deadline at the
// reference time. Closed requests are always on track.
func (r *Request) DeadlineState(reference time.Time) DeadlineState {
	if r == nil || r.IsClosed() {
		return DeadlineOnTrack
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	switch {
	case r.Deadline.Before(reference):
		return DeadlineExpired
	case r.Deadline.Sub(reference) < DueSoonWindow:
		return DeadlineDueSoon
	default:
		return DeadlineOnTrack
	}
}
