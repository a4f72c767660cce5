package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"go.uber.org/zap"

	"github.com/fastygo/citydesk/domain"
)

// RequestSeeder accepts pre-existing requests, oldest first.
type RequestSeeder interface {
	Seed(requests []*domain.Request) int
}

// SeedFromFile loads a JSON array of requests into the store. A missing file
// is not an error: the service simply starts empty.
func SeedFromFile(path string, target RequestSeeder, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		return 0, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("no request seed file", zap.String("path", path))
			return 0, nil
		}
		return 0, err
	}

	var requests []*domain.Request
	if err := json.Unmarshal(raw, &requests); err != nil {
		return 0, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	requests = slices.DeleteFunc(requests, func(r *domain.Request) bool { return r == nil })
	slices.SortStableFunc(requests, func(a, b *domain.Request) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	added := target.Seed(requests)
	logger.Info("requests seeded",
		zap.String("path", path),
		zap.Int("loaded", len(requests)),
		zap.Int("added", added))
	return added, nil
}
