package transport

import (
	"encoding/json"
	"time"

	"github.com/fastygo/citydesk/domain"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// ListMeta accompanies collection responses.
type ListMeta struct {
	Count  int `json:"count"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// SessionResponse carries the issued session and the bearer token bound to it.
type SessionResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RequestSummary is the list-row projection of a request.
type RequestSummary struct {
	ID            string               `json:"id"`
	Subject       string               `json:"subject"`
	CategoryID    string               `json:"category_id"`
	CategoryName  string               `json:"category_name"`
	ResidentName  string               `json:"resident_name"`
	Status        domain.RequestStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Deadline      time.Time            `json:"deadline"`
	DeadlineState domain.DeadlineState `json:"deadline_state"`
	Unread        int                  `json:"unread"`
	LastMessage   *domain.Message      `json:"last_message,omitempty"`
}

func NewRequestSummary(req *domain.Request, now time.Time) RequestSummary {
	summary := RequestSummary{
		ID:            req.ID,
		Subject:       req.Subject,
		CategoryID:    req.CategoryID,
		CategoryName:  req.CategoryName,
		ResidentName:  req.ResidentName,
		Status:        req.Status,
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
		Deadline:      req.Deadline,
		DeadlineState: req.DeadlineState(now),
		Unread:        req.UnreadCount(),
	}
	if last, ok := req.LastMessage(); ok {
		summary.LastMessage = &last
	}
	return summary
}

type GroupResponse struct {
	Category domain.Category  `json:"category"`
	Requests []RequestSummary `json:"requests"`
}

// UnreadResponse omits Count for actors without an unread badge.
type UnreadResponse struct {
	Applicable bool `json:"applicable"`
	Count      *int `json:"count,omitempty"`
}

type MarkReadResponse struct {
	Marked int `json:"marked"`
}
