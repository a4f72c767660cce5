package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/usecase/lifecycle"
)

var (
	t0 = time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC)

	categories = []domain.Category{
		{ID: "cat-1", Name: "Road Maintenance", Color: "#3B82F6"},
		{ID: "cat-2", Name: "Waste Management", Color: "#10B981"},
	}

	r1    = domain.Resident{UserID: "res-1", FullName: "James Resident"}
	r2    = domain.Resident{UserID: "res-2", FullName: "Emily Resident"}
	admin = domain.Admin{UserID: "admin-1", FullName: "System Administrator"}
	emp1  = domain.Employee{UserID: "emp-1", FullName: "John Employee", Categories: domain.NewCategorySet("cat-1")}
	emp2  = domain.Employee{UserID: "emp-2", FullName: "Sarah Employee", Categories: domain.NewCategorySet("cat-2")}
)

func newStore(t *testing.T) *Store {
	t.Helper()
	n := 0
	s := New(nil, lifecycle.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
	s.ReplaceCategories(categories)
	return s
}

func TestStore_CreateRequest(t *testing.T) {
	s := newStore(t)

	req, err := s.Create(r1, lifecycle.CreateInput{CategoryID: "cat-1", Subject: "Pothole", Message: "There is a hole"}, t0)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOpen, req.Status)
	require.Len(t, req.Messages, 1)
	require.Equal(t, t0.Add(30*24*time.Hour), req.Deadline)

	all := s.All()
	require.Len(t, all, 1)
	require.Equal(t, req, all[0])
}

func TestStore_CreatePrependsNewest(t *testing.T) {
	s := newStore(t)
	first, err := s.Create(r1, lifecycle.CreateInput{CategoryID: "cat-1", Subject: "a", Message: "a"}, t0)
	require.NoError(t, err)
	second, err := s.Create(r2, lifecycle.CreateInput{CategoryID: "cat-2", Subject: "b", Message: "b"}, t0.Add(time.Minute))
	require.NoError(t, err)

	all := s.All()
	require.Equal(t, []string{second.ID, first.ID}, []string{all[0].ID, all[1].ID})
}

func TestStore_CreateFailureLeavesStoreUntouched(t *testing.T) {
	s := newStore(t)

	_, err := s.Create(r1, lifecycle.CreateInput{CategoryID: "cat-9", Subject: "a", Message: "a"}, t0)
	require.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	require.Empty(t, s.All())
	require.Empty(t, s.DrainEvents())
}

func TestStore_VisibleByRole(t *testing.T) {
	s := newStore(t)
	_, err := s.Create(r1, lifecycle.CreateInput{CategoryID: "cat-1", Subject: "a", Message: "a"}, t0)
	require.NoError(t, err)
	_, err = s.Create(r2, lifecycle.CreateInput{CategoryID: "cat-2", Subject: "b", Message: "b"}, t0)
	require.NoError(t, err)

	require.Len(t, s.Visible(admin), 2)
	require.Len(t, s.Visible(r1), 1)
	require.Equal(t, "cat-2", s.Visible(emp2)[0].CategoryID)
	require.Empty(t, s.Visible(domain.Employee{UserID: "emp-3"}))
	require.Empty(t, s.Visible(nil))
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	s := newStore(t)
	req, err := s.Create(r1, lifecycle.CreateInput{CategoryID: "cat-1", Subject: "a", Message: "a"}, t0)
	require.NoError(t, err)

	req.Status = domain.StatusClosed
	req.Messages[0].Content = "tampered"

	stored, err := s.Get(admin, req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOpen, stored.Status)
	require.Equal(t, "a", stored.Messages[0].Content)
}

func TestStore_AppendThenClose(t *testing.T) {
	s := newStore(t)
	req, err := s.Create(r1, lifecycle.CreateInput{CategoryID: "cat-1", Subject: "Pothole", Message: "There is a hole"}, t0)
	require.NoError(t, err)

	t1 := t0.Add(time.Hour)
	msg, err := s.Append(emp1, req.ID, "On it", t1)
	require.NoError(t, err)
	got, err := s.Get(r1, req.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	require.Equal(t, msg.Timestamp, got.UpdatedAt)

	t2 := t1.Add(time.Hour)
	closed, err := s.Close(admin, req.ID, t2)
	require.NoError(t, err)
	require.Equal(t, domain.StatusClosed, closed.Status)

	_, err = s.Append(r1, req.ID, "hello", t2.Add(time.Hour))
	require.True(t, domain.IsDomainError(err, domain.ErrCodeClosed))

	got, err = s.Get(r1, req.ID)
	require.NoError(t, err)
	require.Equal(t, t2, got.UpdatedAt)
	require.Len(t, got.Messages, 2)
}

func TestStore_CloseTwice(t *testing.T) {
	s := newStore(t)
	req, err := s.Create(r1, lifecycle.CreateInput{CategoryID: "cat-1", Subject: "a", Message: "a"}, t0)
	require.NoError(t, err)

	t1 := t0.Add(time.Hour)
	_, err = s.Close(emp1, req.ID, t1)
	require.NoError(t, err)

	_, err = s.Close(emp1, req.ID, t1.Add(time.Hour))
	require.True(t, domain.IsDomainError(err, domain.ErrCodeAlreadyClosed))

	got, err := s.Get(admin, req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusClosed, got.Status)
	require.Equal(t, t1, got.UpdatedAt)
}

func TestStore_UnknownRequest(t *testing.T) {
	s := newStore(t)

	_, err := s.Append(admin, "missing", "x", t0)
	require.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	_, err = s.Close(admin, "missing", t0)
	require.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	_, err = s.MarkRead(admin, "missing", []string{"x"}, t0)
	require.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	require.True(t, domain.IsDomainError(s.SetFocus(admin, "missing"), domain.ErrCodeNotFound))
}

func TestStore_UnreadCount(t *testing.T) {
	s := newStore(t)
	for i, cat := range []string{"cat-1", "cat-2"} {
		req, err := s.Create(r1, lifecycle.CreateInput{CategoryID: cat, Subject: "s", Message: "m"}, t0)
		require.NoError(t, err)
		staff := domain.Actor(emp1)
		if i == 1 {
			staff = emp2
		}
		msg, err := s.Append(staff, req.ID, "reply", t0.Add(time.Minute))
		require.NoError(t, err)
		_, err = s.MarkRead(admin, req.ID, []string{msg.ID}, t0.Add(2*time.Minute))
		require.NoError(t, err)
	}

	count, ok := s.UnreadCount(admin)
	require.True(t, ok)
	require.Equal(t, 2, count)

	count, ok = s.UnreadCount(emp1)
	require.True(t, ok)
	require.Equal(t, 1, count)

	_, ok = s.UnreadCount(r1)
	require.False(t, ok)
}

func TestStore_MarkReadIdempotent(t *testing.T) {
	s := newStore(t)
	req, err := s.Create(r1, lifecycle.CreateInput{CategoryID: "cat-1", Subject: "a", Message: "a"}, t0)
	require.NoError(t, err)
	seed := req.Messages[0].ID

	changed, err := s.MarkRead(emp1, req.ID, []string{seed}, t0)
	require.NoError(t, err)
	require.Equal(t, 1, changed)

	changed, err = s.MarkRead(emp1, req.ID, []string{seed}, t0)
	require.NoError(t, err)
	require.Zero(t, changed)

	_, err = s.MarkRead(emp2, req.ID, []string{seed}, t0)
	require.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestStore_FocusReflectsMutations(t *testing.T) {
	s := newStore(t)
	req, err := s.Create(r1, lifecycle.CreateInput{CategoryID: "cat-1", Subject: "a", Message: "a"}, t0)
	require.NoError(t, err)

	_, ok := s.Focused(admin)
	require.False(t, ok)

	require.NoError(t, s.SetFocus(admin, req.ID))
	_, err = s.Append(r1, req.ID, "more details", t0.Add(time.Minute))
	require.NoError(t, err)
	_, err = s.Close(admin, req.ID, t0.Add(2*time.Minute))
	require.NoError(t, err)

	focused, ok := s.Focused(admin)
	require.True(t, ok)
	require.Equal(t, domain.StatusClosed, focused.Status)
	require.Len(t, focused.Messages, 2)
	require.Equal(t, t0.Add(2*time.Minute), focused.UpdatedAt)

	require.NoError(t, s.SetFocus(admin, ""))
	_, ok = s.Focused(admin)
	require.False(t, ok)
}

func TestStore_FocusIsPerActorAndRespectsVisibility(t *testing.T) {
	s := newStore(t)
	req, err := s.Create(r1, lifecycle.CreateInput{CategoryID: "cat-1", Subject: "a", Message: "a"}, t0)
	require.NoError(t, err)

	require.NoError(t, s.SetFocus(r1, req.ID))
	require.True(t, domain.IsDomainError(s.SetFocus(r2, req.ID), domain.ErrCodeNotFound))
	require.True(t, domain.IsDomainError(s.SetFocus(emp2, req.ID), domain.ErrCodeNotFound))
	require.True(t, domain.IsDomainError(s.SetFocus(nil, req.ID), domain.ErrCodeUnauthorized))

	_, ok := s.Focused(r2)
	require.False(t, ok)
	got, ok := s.Focused(r1)
	require.True(t, ok)
	require.Equal(t, req.ID, got.ID)
}

func TestStore_DrainEvents(t *testing.T) {
	s := newStore(t)
	req, err := s.Create(r1, lifecycle.CreateInput{CategoryID: "cat-1", Subject: "a", Message: "a"}, t0)
	require.NoError(t, err)
	_, err = s.Append(emp1, req.ID, "reply", t0.Add(time.Minute))
	require.NoError(t, err)
	_, err = s.MarkRead(emp1, req.ID, []string{req.Messages[0].ID}, t0.Add(2*time.Minute))
	require.NoError(t, err)
	_, err = s.Close(emp1, req.ID, t0.Add(3*time.Minute))
	require.NoError(t, err)
	_, err = s.Close(emp1, req.ID, t0.Add(4*time.Minute))
	require.Error(t, err)

	events := s.DrainEvents()
	require.Len(t, events, 4)
	names := []string{events[0].Name, events[1].Name, events[2].Name, events[3].Name}
	require.Equal(t, []string{
		domain.EventRequestCreated,
		domain.EventMessageAppended,
		domain.EventMessagesRead,
		domain.EventRequestClosed,
	}, names)
	for _, evt := range events {
		require.Equal(t, req.ID, evt.RequestID)
		require.NotEmpty(t, evt.Payload)
	}
	require.Equal(t, domain.RoleResident, events[0].ActorRole)
	require.Empty(t, s.DrainEvents())
}

func TestStore_SeedSkipsInvalid(t *testing.T) {
	s := newStore(t)
	valid := &domain.Request{
		ID: "req-1", ResidentID: "res-1", CategoryID: "cat-1", Status: domain.StatusOpen,
		CreatedAt: t0, UpdatedAt: t0,
		Messages: []domain.Message{{ID: "msg-1", RequestID: "req-1", SenderRole: domain.RoleResident, Timestamp: t0}},
	}
	empty := &domain.Request{ID: "req-2", Status: domain.StatusOpen, CreatedAt: t0, UpdatedAt: t0}
	foreign := &domain.Request{
		ID: "req-3", Status: domain.StatusOpen, CreatedAt: t0, UpdatedAt: t0,
		Messages: []domain.Message{{ID: "msg-9", RequestID: "req-1", Timestamp: t0}},
	}
	pending := valid.Clone()
	pending.ID = "req-4"
	pending.Status = domain.StatusPending
	pending.Messages[0].RequestID = "req-4"

	added := s.Seed([]*domain.Request{valid, empty, foreign, pending, valid, nil})
	require.Equal(t, 1, added)
	require.Len(t, s.All(), 1)
}

func TestStore_SeedChecksCatalogAndMessageOrder(t *testing.T) {
	s := newStore(t)
	seeded := func(id, category string, created time.Time, stamps ...time.Time) *domain.Request {
		req := &domain.Request{
			ID: id, ResidentID: "res-1", CategoryID: category, Status: domain.StatusOpen,
			CreatedAt: created, UpdatedAt: stamps[len(stamps)-1],
		}
		for i, ts := range stamps {
			req.Messages = append(req.Messages, domain.Message{
				ID: fmt.Sprintf("%s-msg-%d", id, i), RequestID: id, SenderRole: domain.RoleResident, Timestamp: ts,
			})
		}
		return req
	}

	unknownCategory := seeded("req-1", "cat-9", t0, t0)
	outOfOrder := seeded("req-2", "cat-1", t0, t0, t0.Add(2*time.Hour), t0.Add(time.Hour), t0.Add(3*time.Hour))
	messageBeforeRequest := seeded("req-3", "cat-1", t0, t0.Add(-time.Minute), t0.Add(time.Hour))
	inOrder := seeded("req-4", "cat-2", t0, t0, t0, t0.Add(time.Hour))

	added := s.Seed([]*domain.Request{unknownCategory, outOfOrder, messageBeforeRequest, inOrder})
	require.Equal(t, 1, added)

	all := s.All()
	require.Len(t, all, 1)
	require.Equal(t, "req-4", all[0].ID)
}

func TestStore_SummaryAndGrouped(t *testing.T) {
	s := newStore(t)
	a, err := s.Create(r1, lifecycle.CreateInput{CategoryID: "cat-1", Subject: "a", Message: "a"}, t0)
	require.NoError(t, err)
	_, err = s.Create(r2, lifecycle.CreateInput{CategoryID: "cat-1", Subject: "b", Message: "b"}, t0.Add(time.Hour))
	require.NoError(t, err)
	_, err = s.Create(r2, lifecycle.CreateInput{CategoryID: "cat-2", Subject: "c", Message: "c"}, t0.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = s.Close(admin, a.ID, t0.Add(3*time.Hour))
	require.NoError(t, err)

	stats := s.Summary(admin, t0.Add(25*24*time.Hour))
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.Open)
	require.Equal(t, 1, stats.Closed)
	require.Equal(t, 2, stats.Urgent)

	groups := s.Grouped(emp1)
	require.Len(t, groups, 1)
	require.Equal(t, "cat-1", groups[0].Category.ID)
	require.Len(t, groups[0].Requests, 2)
	require.Equal(t, a.ID, groups[0].Requests[0].ID)
}

func TestStore_ConcurrentMutationsKeepInvariants(t *testing.T) {
	s := newStore(t)
	req, err := s.Create(r1, lifecycle.CreateInput{CategoryID: "cat-1", Subject: "a", Message: "a"}, t0)
	require.NoError(t, err)

	s2 := New(nil)
	s2.ReplaceCategories(categories)
	s2.Seed([]*domain.Request{req})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = s2.Append(emp1, req.ID, fmt.Sprintf("msg %d", i), t0.Add(time.Duration(i)*time.Second))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s2.UnreadCount(admin)
			_ = s2.Visible(r1)
		}()
	}
	wg.Wait()

	got, err := s2.Get(admin, req.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 21)
	for _, msg := range got.Messages {
		require.False(t, msg.Timestamp.After(got.UpdatedAt))
		require.Equal(t, req.ID, msg.RequestID)
	}
}
