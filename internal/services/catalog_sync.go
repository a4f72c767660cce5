package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/repository"
)

// CatalogTarget receives category snapshots.
type CatalogTarget interface {
	ReplaceCategories(categories []domain.Category)
}

// CatalogSync reloads the category catalog from the repository on a schedule.
type CatalogSync struct {
	source   repository.CategoryRepository
	target   CatalogTarget
	logger   *zap.Logger
	cron     *cron.Cron
	interval time.Duration
}

func NewCatalogSync(source repository.CategoryRepository, target CatalogTarget, interval time.Duration, logger *zap.Logger) *CatalogSync {
	if interval < time.Second {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cs := &CatalogSync{
		source:   source,
		target:   target,
		logger:   logger,
		interval: interval,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	_, _ = cs.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := cs.Sync(ctx); err != nil {
			cs.logger.Error("category sync failed", zap.Error(err))
		}
	})
	return cs
}

// Sync loads the catalog once. An empty result keeps the previous snapshot,
// so a truncated table never hides every request from its employees.
func (cs *CatalogSync) Sync(ctx context.Context) (int, error) {
	categories, err := cs.source.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(categories) == 0 {
		cs.logger.Warn("category catalog is empty, keeping previous snapshot")
		return 0, nil
	}
	cs.target.ReplaceCategories(categories)
	cs.logger.Debug("category catalog synced", zap.Int("count", len(categories)))
	return len(categories), nil
}

func (cs *CatalogSync) Start() {
	cs.cron.Start()
	cs.logger.Info("category sync started", zap.Duration("interval", cs.interval))
}

func (cs *CatalogSync) Stop(ctx context.Context) {
	stopCtx := cs.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}
