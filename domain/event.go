package domain

import (
	"encoding/json"
	"time"
)

// Event names recorded by the conversation store.
const (
	EventRequestCreated  = "request.created"
	EventMessageAppended = "message.appended"
	EventRequestClosed   = "request.closed"
	EventMessagesRead    = "messages.read"
)

// Event represents a change applied to a request. Events are exported to the
// persistence collaborator after the mutation has completed.
type Event struct {
	ID        string          `json:"id"`
	RequestID string          `json:"request_id"`
	Name      string          `json:"name"`
	ActorID   string          `json:"actor_id"`
	ActorRole Role            `json:"actor_role"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}
