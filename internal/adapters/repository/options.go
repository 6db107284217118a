package repository

import (
	"time"

	"github.com/okian/snaptrust/internal/domain/scoring"
	"github.com/okian/snaptrust/pkg/logger"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithReloadInterval sets how often Start reloads the dataset. Zero disables
// periodic reloads.
func WithReloadInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval >= 0 {
			s.reloadInterval = interval
		}
	}
}

// WithScorer sets the trust scorer applied on every load.
func WithScorer(sc *scoring.Scorer) Option {
	return func(s *MemoryStore) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *MemoryStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock sets the clock used to stamp loads.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
