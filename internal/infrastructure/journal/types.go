package journal

import (
	"time"

	"github.com/fastygo/citydesk/domain"
)

// Entry is one request event waiting to be exported.
type Entry struct {
	Event      domain.Event `json:"event"`
	Retries    int          `json:"retries"`
	EnqueuedAt time.Time    `json:"enqueued_at"`

	key []byte
}

func (e *Entry) normalize() {
	if e.EnqueuedAt.IsZero() {
		e.EnqueuedAt = time.Now().UTC()
	}
}
