package words

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type refresher interface {
	Refresh(ctx context.Context, listID string) (List, error)
}

// Warmer keeps frequently played lists hot in the cache so matchmaking never
// waits on Postgres.
type Warmer struct {
	service  refresher
	listIDs  []string
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewWarmer refreshes listIDs every interval. The interval should sit below the
// cache TTL.
func NewWarmer(service refresher, listIDs []string, interval time.Duration, logger zerolog.Logger) *Warmer {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Warmer{
		service:  service,
		listIDs:  listIDs,
		interval: interval,
		timeout:  4 * time.Second,
		logger:   logger.With().Str("component", "words_warmer").Logger(),
	}
}

// Run warms the lists immediately and then on every tick until ctx ends.
func (w *Warmer) Run(ctx context.Context) error {
	if len(w.listIDs) == 0 {
		return nil
	}

	w.warm(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("word list warmer stopping")
			return ctx.Err()
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

func (w *Warmer) warm(ctx context.Context) {
	for _, id := range w.listIDs {
		reqCtx, cancel := context.WithTimeout(ctx, w.timeout)
		list, err := w.service.Refresh(reqCtx, id)
		cancel()
		if err != nil {
			w.logger.Warn().Err(err).Str("list_id", id).Msg("word list refresh failed")
			continue
		}
		w.logger.Debug().Str("list_id", id).Int("entries", len(list.Entries)).Msg("word list refreshed")
	}
}
