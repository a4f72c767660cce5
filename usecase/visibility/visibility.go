// Package visibility decides which requests an actor may observe and derives
// read-only projections (unread badge, stats, grouping) from that subset.
// Every function here is pure: no I/O, no mutation of its inputs.
package visibility

import (
	"sort"

	"github.com/samber/lo"

	"github.com/fastygo/citydesk/domain"
)

// CanSee reports whether the actor is authorized to observe the request.
// Unknown or nil actors see nothing.
func CanSee(actor domain.Actor, req *domain.Request) bool {
	if req == nil {
		return false
	}
	switch a := actor.(type) {
	case domain.Admin:
		return true
	case domain.Employee:
		return a.Assigned(req.CategoryID)
	case domain.Resident:
		return req.ResidentID == a.UserID
	default:
		return false
	}
}

// Visible returns the requests the actor may see, preserving input order.
func Visible(actor domain.Actor, all []*domain.Request) []*domain.Request {
	if actor == nil {
		return []*domain.Request{}
	}
	return lo.Filter(all, func(req *domain.Request, _ int) bool {
		return CanSee(actor, req)
	})
}

// NewestFirst returns a copy of the requests ordered by creation time, newest first.
func NewestFirst(requests []*domain.Request) []*domain.Request {
	out := append([]*domain.Request(nil), requests...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// CategoryGroup is one bucket of a staff work queue.
type CategoryGroup struct {
	Category domain.Category   `json:"category"`
	Requests []*domain.Request `json:"requests"`
}

// GroupByCategory buckets requests by category following catalog order.
// Requests inside a bucket are oldest first; empty buckets are skipped.
func GroupByCategory(categories []domain.Category, requests []*domain.Request) []CategoryGroup {
	byCategory := lo.GroupBy(requests, func(req *domain.Request) string {
		return req.CategoryID
	})

	groups := make([]CategoryGroup, 0, len(byCategory))
	for _, category := range categories {
		bucket, ok := byCategory[category.ID]
		if !ok || len(bucket) == 0 {
			continue
		}
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].CreatedAt.Before(bucket[j].CreatedAt)
		})
		groups = append(groups, CategoryGroup{Category: category, Requests: bucket})
	}
	return groups
}
