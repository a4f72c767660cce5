package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/citydesk/internal/infrastructure/journal"
	"github.com/fastygo/citydesk/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the journal is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// JournalProcessor exports journaled request events to the event repository.
type JournalProcessor struct {
	store   *journal.Store
	monitor ConnectionHealth
	events  repository.EventRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewJournalProcessor(
	store *journal.Store,
	monitor ConnectionHealth,
	events repository.EventRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *JournalProcessor {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	jp := &JournalProcessor{
		store:   store,
		monitor: monitor,
		events:  events,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = jp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if _, err := jp.Drain(ctx); err != nil {
			jp.logger.Error("journal drain failed", zap.Error(err))
		}
	})
	if cfg.Retention > 0 {
		_, _ = jp.cron.AddFunc("@hourly", func() {
			removed, err := jp.store.Cleanup(time.Now().Add(-cfg.Retention))
			if err != nil {
				jp.logger.Error("journal cleanup failed", zap.Error(err))
				return
			}
			if removed > 0 {
				jp.logger.Warn("expired journal entries dropped", zap.Int("count", removed))
			}
		})
	}

	return jp
}

// Start launches the cron scheduler.
func (jp *JournalProcessor) Start() {
	if jp == nil || jp.cron == nil {
		return
	}
	jp.cron.Start()
	jp.logger.Info("journal processor started", zap.Duration("interval", jp.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (jp *JournalProcessor) Stop(ctx context.Context) {
	if jp == nil || jp.cron == nil {
		return
	}
	stopCtx := jp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	jp.logger.Info("journal processor stopped")
}

// Drain exports one batch synchronously and returns how many events were exported.
func (jp *JournalProcessor) Drain(ctx context.Context) (int, error) {
	if jp == nil || jp.store == nil {
		return 0, nil
	}
	if jp.monitor != nil && !jp.monitor.IsOnline() {
		jp.logger.Debug("skipping journal drain (offline)")
		return 0, nil
	}

	entries, err := jp.store.Peek(jp.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	exported := 0
	for _, entry := range entries {
		if err := jp.events.Append(ctx, entry.Event); err != nil {
			jp.logger.Error("failed to export request event",
				zap.String("event_id", entry.Event.ID),
				zap.String("event", entry.Event.Name),
				zap.Error(err))

			if entry.Retries+1 >= jp.cfg.MaxRetries {
				jp.logger.Warn("dropping journal entry (max retries reached)", zap.String("event_id", entry.Event.ID))
				_ = jp.store.Remove(entry)
				continue
			}
			if err := jp.store.Requeue(entry); err != nil {
				jp.logger.Error("failed to requeue journal entry", zap.Error(err))
			}
			continue
		}

		if err := jp.store.Remove(entry); err != nil {
			jp.logger.Warn("failed to purge exported journal entry", zap.Error(err))
			continue
		}
		exported++
	}
	return exported, nil
}

// Size returns the number of pending entries.
func (jp *JournalProcessor) Size() int {
	if jp == nil || jp.store == nil {
		return 0
	}
	size, err := jp.store.Size()
	if err != nil {
		return 0
	}
	return size
}
