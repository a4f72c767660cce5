package domain

import "time"

// MaxMessageLength bounds a message body, in characters.
const MaxMessageLength = 4000

// Message is one entry of a request's conversation. Only IsRead ever
// changes after creation, and only from false to true.
type Message struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	SenderRole Role      `json:"sender_role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	IsRead     bool      `json:"is_read"`
}

// IsStaffNotification reports whether the message should count towards a
// staff member's unread badge.
func (m Message) IsStaffNotification() bool {
	return !m.IsRead && m.SenderRole == RoleResident
}
