package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/internal/infrastructure/journal"
	"github.com/fastygo/citydesk/repository"
)

type eventRepoMock struct {
	mock.Mock
}

func (m *eventRepoMock) Append(ctx context.Context, event domain.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *eventRepoMock) List(ctx context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	args := m.Called(ctx, filter)
	events, _ := args.Get(0).([]domain.Event)
	return events, args.Error(1)
}

type categoryRepoMock struct {
	mock.Mock
}

func (m *categoryRepoMock) List(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	categories, _ := args.Get(0).([]domain.Category)
	return categories, args.Error(1)
}

type catalogSink struct {
	calls [][]domain.Category
}

func (c *catalogSink) ReplaceCategories(categories []domain.Category) {
	c.calls = append(c.calls, categories)
}

type online bool

func (o online) IsOnline() bool { return bool(o) }

func openJournal(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func events(ids ...string) []domain.Event {
	out := make([]domain.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Event{ID: id, RequestID: "req-1", Name: domain.EventMessageAppended})
	}
	return out
}

func eventID(id string) interface{} {
	return mock.MatchedBy(func(evt domain.Event) bool { return evt.ID == id })
}

func TestJournalBridge_RecordAppendsEntries(t *testing.T) {
	store := openJournal(t)
	bridge := NewJournalBridge(store)

	require.NoError(t, bridge.Record(context.Background(), events("e1", "e2")))

	size, err := store.Size()
	require.NoError(t, err)
	require.Equal(t, 2, size)
}

func TestJournalBridge_WithoutStore(t *testing.T) {
	err := NewJournalBridge(nil).Record(context.Background(), events("e1"))
	require.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
}

func TestJournalProcessor_DrainExportsInOrder(t *testing.T) {
	store := openJournal(t)
	require.NoError(t, NewJournalBridge(store).Record(context.Background(), events("e1", "e2", "e3")))

	repo := &eventRepoMock{}
	var order []string
	repo.On("Append", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		order = append(order, args.Get(1).(domain.Event).ID)
	}).Return(nil)

	jp := NewJournalProcessor(store, online(true), repo, nil, ProcessorConfig{BatchSize: 10})
	exported, err := jp.Drain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, exported)
	require.Equal(t, []string{"e1", "e2", "e3"}, order)
	require.Zero(t, jp.Size())
}

func TestJournalProcessor_SkipsWhenOffline(t *testing.T) {
	store := openJournal(t)
	require.NoError(t, NewJournalBridge(store).Record(context.Background(), events("e1")))

	repo := &eventRepoMock{}
	jp := NewJournalProcessor(store, online(false), repo, nil, ProcessorConfig{})

	exported, err := jp.Drain(context.Background())
	require.NoError(t, err)
	require.Zero(t, exported)
	require.Equal(t, 1, jp.Size())
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestJournalProcessor_RequeuesThenDrops(t *testing.T) {
	store := openJournal(t)
	require.NoError(t, NewJournalBridge(store).Record(context.Background(), events("bad", "good")))

	repo := &eventRepoMock{}
	repo.On("Append", mock.Anything, eventID("bad")).Return(errors.New("insert failed"))
	repo.On("Append", mock.Anything, eventID("good")).Return(nil)

	jp := NewJournalProcessor(store, nil, repo, nil, ProcessorConfig{BatchSize: 10, MaxRetries: 2})

	exported, err := jp.Drain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, exported)

	pending, err := store.Peek(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "bad", pending[0].Event.ID)
	require.Equal(t, 1, pending[0].Retries)

	exported, err = jp.Drain(context.Background())
	require.NoError(t, err)
	require.Zero(t, exported)
	require.Zero(t, jp.Size())
}

func TestJournalProcessor_NilSafe(t *testing.T) {
	var jp *JournalProcessor
	exported, err := jp.Drain(context.Background())
	require.NoError(t, err)
	require.Zero(t, exported)
	require.Zero(t, jp.Size())
	jp.Start()
	jp.Stop(context.Background())
}

func TestCatalogSync_ReplacesSnapshot(t *testing.T) {
	repo := &categoryRepoMock{}
	catalog := []domain.Category{{ID: "cat-1", Name: "Road Maintenance"}, {ID: "cat-2", Name: "Waste Collection"}}
	repo.On("List", mock.Anything).Return(catalog, nil).Once()

	sink := &catalogSink{}
	count, err := NewCatalogSync(repo, sink, time.Minute, nil).Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Equal(t, [][]domain.Category{catalog}, sink.calls)
	repo.AssertExpectations(t)
}

func TestCatalogSync_KeepsSnapshotOnEmptyOrError(t *testing.T) {
	repo := &categoryRepoMock{}
	repo.On("List", mock.Anything).Return([]domain.Category{}, nil).Once()
	repo.On("List", mock.Anything).Return(nil, errors.New("connection reset")).Once()

	sink := &catalogSink{}
	cs := NewCatalogSync(repo, sink, 0, nil)

	count, err := cs.Sync(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)

	_, err = cs.Sync(context.Background())
	require.Error(t, err)
	require.Empty(t, sink.calls)
}

type seedRecorder struct {
	got []*domain.Request
}

func (s *seedRecorder) Seed(requests []*domain.Request) int {
	s.got = requests
	return len(requests)
}

func TestSeedFromFile_SortsOldestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.json")
	body := `[
		{"id":"req-2","created_at":"2025-05-10T16:20:00Z","status":"open"},
		null,
		{"id":"req-1","created_at":"2025-05-01T10:30:00Z","status":"open"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	rec := &seedRecorder{}
	added, err := SeedFromFile(path, rec, nil)
	require.NoError(t, err)
	require.Equal(t, 2, added)
	require.Equal(t, "req-1", rec.got[0].ID)
	require.Equal(t, "req-2", rec.got[1].ID)
}

func TestSeedFromFile_MissingOrBroken(t *testing.T) {
	rec := &seedRecorder{}
	added, err := SeedFromFile(filepath.Join(t.TempDir(), "absent.json"), rec, nil)
	require.NoError(t, err)
	require.Zero(t, added)

	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"id":`), 0o600))
	_, err = SeedFromFile(broken, rec, nil)
	require.Error(t, err)
}
