package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pinger is satisfied by anything that can be probed for liveness.
type Pinger func(ctx context.Context) error

// JournalSizer reports how many events wait for export.
type JournalSizer interface {
	Size() (int, error)
}

// Monitor polls Postgres, Redis and the local journal.
type Monitor struct {
	pg      Pinger
	redis   Pinger
	journal JournalSizer

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(pg *pgxpool.Pool, redis redislib.UniversalClient, journal JournalSizer, interval time.Duration, logger *zap.Logger) *Monitor {
	m := newMonitor(nil, nil, journal, interval, logger)
	if pg != nil {
		m.pg = pg.Ping
	}
	if redis != nil {
		m.redis = func(ctx context.Context) error { return redis.Ping(ctx).Err() }
	}
	return m
}

func newMonitor(pg, redis Pinger, journal JournalSizer, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		pg:       pg,
		redis:    redis,
		journal:  journal,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline gates the journal export: events only leave the journal when
// Postgres answers.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.PostgreSQL
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	journalOK, journalSize := m.checkJournal()
	status := Status{
		PostgreSQL:  m.probe("postgres", m.pg, 3*time.Second),
		Redis:       m.probe("redis", m.redis, 2*time.Second),
		Journal:     journalOK,
		JournalSize: journalSize,
		LastCheck:   time.Now(),
	}

	m.mu.Lock()
	prev := m.status
	m.status = status
	m.mu.Unlock()

	if prev.PostgreSQL != status.PostgreSQL || prev.Redis != status.Redis {
		m.logger.Info("dependency status changed",
			zap.Bool("postgresql", status.PostgreSQL),
			zap.Bool("redis", status.Redis))
	}
}

func (m *Monitor) probe(name string, ping Pinger, timeout time.Duration) bool {
	if ping == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := ping(ctx); err != nil {
		m.logger.Debug("dependency ping failed", zap.String("dependency", name), zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkJournal() (bool, int) {
	if m.journal == nil {
		return false, 0
	}
	size, err := m.journal.Size()
	if err != nil {
		m.logger.Warn("journal size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
