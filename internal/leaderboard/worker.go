package leaderboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	sqlcgen "github.com/gokatarajesh/word-duel/internal/db/sqlc"
)

type topSource interface {
	Top(ctx context.Context, window string, limit int) ([]Entry, error)
}

type snapshotWriter interface {
	InsertLeaderboardSnapshot(ctx context.Context, arg sqlcgen.InsertLeaderboardSnapshotParams) (sqlcgen.LeaderboardSnapshot, error)
}

// SnapshotWorker copies the live Redis rankings into Postgres on an interval so
// reads survive a Redis outage. A window whose ranking has not changed since the
// previous tick is not written again.
type SnapshotWorker struct {
	source   topSource
	store    snapshotWriter
	windows  []string
	interval time.Duration
	limit    int
	logger   zerolog.Logger
	now      func() time.Time

	lastHash map[string]string
}

func NewSnapshotWorker(source topSource, store snapshotWriter, interval time.Duration, limit int, logger zerolog.Logger) *SnapshotWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if limit <= 0 {
		limit = defaultTopN
	}
	return &SnapshotWorker{
		source:   source,
		store:    store,
		windows:  defaultWindows,
		interval: interval,
		limit:    limit,
		logger:   logger.With().Str("component", "leaderboard_snapshots").Logger(),
		now:      time.Now,
		lastHash: make(map[string]string),
	}
}

// Run snapshots immediately and then every interval until ctx is done.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	if w.source == nil || w.store == nil {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.tick(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick is only called from Run's goroutine, so lastHash needs no lock.
func (w *SnapshotWorker) tick(ctx context.Context) {
	written := 0
	for _, window := range w.windows {
		ok, err := w.persist(ctx, window)
		if err != nil {
			w.logger.Warn().Err(err).Str("window", window).Msg("snapshot failed")
			continue
		}
		if ok {
			written++
		}
	}
	if written > 0 {
		w.logger.Debug().Int("windows", written).Msg("leaderboard snapshots persisted")
	}
}

func (w *SnapshotWorker) persist(ctx context.Context, window string) (bool, error) {
	entries, err := w.source.Top(ctx, window, w.limit)
	if err != nil {
		return false, fmt.Errorf("read %s top: %w", window, err)
	}
	if len(entries) == 0 {
		return false, nil
	}

	data, err := json.Marshal(toWSEntries(entries))
	if err != nil {
		return false, fmt.Errorf("encode %s snapshot: %w", window, err)
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	if w.lastHash[window] == hash {
		return false, nil
	}

	_, err = w.store.InsertLeaderboardSnapshot(ctx, sqlcgen.InsertLeaderboardSnapshotParams{
		TimeWindow:  window,
		GeneratedAt: pgtype.Timestamptz{Time: w.now().UTC(), Valid: true},
		Entries:     data,
		SourceHash:  hash,
	})
	if err != nil {
		return false, fmt.Errorf("insert %s snapshot: %w", window, err)
	}
	w.lastHash[window] = hash
	return true, nil
}
