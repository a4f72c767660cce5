package visibility

import (
	"time"

	"github.com/samber/lo"

	"github.com/fastygo/citydesk/domain"
)

// UnreadCount sums unread resident-authored messages over the requests the
// staff actor can see. Residents have no aggregate badge: ok is false for them
// and for nil actors.
func UnreadCount(actor domain.Actor, all []*domain.Request) (count int, ok bool) {
	if actor == nil || !actor.Role().IsStaff() {
		return 0, false
	}
	return lo.SumBy(Visible(actor, all), func(req *domain.Request) int {
		return req.UnreadCount()
	}), true
}

// Stats summarizes a request list the way the dashboards show it.
type Stats struct {
	Total  int `json:"total"`
	Open   int `json:"open"`
	Closed int `json:"closed"`
	Urgent int `json:"urgent"`
}

// Summarize counts requests by status. Urgent requests are open ones with
// less than domain.DueSoonWindow left, expired ones included.
func Summarize(requests []*domain.Request, now time.Time) Stats {
	return Stats{
		Total: len(requests),
		Open: lo.CountBy(requests, func(req *domain.Request) bool {
			return req.Status == domain.StatusOpen
		}),
		Closed: lo.CountBy(requests, func(req *domain.Request) bool {
			return req.Status == domain.StatusClosed
		}),
		Urgent: lo.CountBy(requests, func(req *domain.Request) bool {
			return req.Status == domain.StatusOpen && req.Deadline.Sub(now) < domain.DueSoonWindow
		}),
	}
}
