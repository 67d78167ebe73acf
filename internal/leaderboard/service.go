// Package leaderboard ranks players by duel score over rolling calendar windows.
//
// Each window period is a Redis sorted set of user ids scored by total points,
// with a hash per member carrying display name and win/game/accuracy counters.
// Completed duels publish the refreshed top of every touched window on a
// Pub/Sub channel so all API instances can push it to their sockets.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	ws "github.com/gokatarajesh/word-duel/pkg/http/ws"
)

// Supported leaderboard windows.
const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowMonthly = "monthly"
	WindowAllTime = "all_time"
)

const (
	defaultChannel   = "lb:updates"
	defaultPrefix    = "lb"
	defaultTopN      = 50
	defaultSnapshotN = 100
	publishTopN      = 10
)

var defaultWindows = []string{WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime}

// Entry is one ranked player.
type Entry struct {
	UserID        uuid.UUID `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	Score         float64   `json:"score"`
	Wins          int       `json:"wins"`
	Games         int       `json:"games"`
	Accuracy      float64   `json:"accuracy"`
	CorrectTotal  int       `json:"-"`
	QuestionTotal int       `json:"-"`
}

// RecordRequest is one player's side of a completed duel.
type RecordRequest struct {
	UserID        uuid.UUID
	DisplayName   string
	Score         float64
	CorrectCount  int
	QuestionCount int
	Won           bool
	DuelID        uuid.UUID
	// Windows defaults to every window the service maintains.
	Windows []string
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	TopN             int
	PubSubChannel    string
	Windows          []string
	RedisKeyPrefix   string
	SnapshotTopLimit int
	Now              func() time.Time
}

// Service maintains the Redis leaderboards.
type Service struct {
	redis    *redis.Client
	logger   zerolog.Logger
	topN     int
	channel  string
	windows  []string
	prefix   string
	snapshot int
	now      func() time.Time
}

// NewService applies option defaults; redis may be nil only in tests that never
// touch storage.
func NewService(client *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	s := &Service{
		redis:    client,
		logger:   logger.With().Str("component", "leaderboard").Logger(),
		topN:     lo.Ternary(opts.TopN > 0, opts.TopN, defaultTopN),
		channel:  lo.Ternary(opts.PubSubChannel != "", opts.PubSubChannel, defaultChannel),
		windows:  lo.Ternary(len(opts.Windows) > 0, opts.Windows, defaultWindows),
		prefix:   lo.Ternary(opts.RedisKeyPrefix != "", opts.RedisKeyPrefix, defaultPrefix),
		snapshot: lo.Ternary(opts.SnapshotTopLimit > 0, opts.SnapshotTopLimit, defaultSnapshotN),
		now:      opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Windows lists the windows this service maintains.
func (s *Service) Windows() []string {
	return append([]string(nil), s.windows...)
}

// RecordResult adds a duel result to every requested window in one
// transaction, then publishes the new tops in the background.
func (s *Service) RecordResult(ctx context.Context, req RecordRequest) error {
	windows := lo.Filter(lo.Ternary(len(req.Windows) > 0, req.Windows, s.windows), func(w string, _ int) bool {
		return isValidWindow(w)
	})
	if len(windows) == 0 {
		return fmt.Errorf("record result: no valid window in %v", req.Windows)
	}

	now := s.now()
	member := req.UserID.String()
	wins := int64(lo.Ternary(req.Won, 1, 0))

	pipe := s.redis.TxPipeline()
	for _, window := range windows {
		zKey := s.leaderboardKey(window, now)
		hKey := s.metaKey(zKey, req.UserID)

		pipe.ZIncrBy(ctx, zKey, req.Score, member)
		pipe.HIncrBy(ctx, hKey, "wins", wins)
		pipe.HIncrBy(ctx, hKey, "games", 1)
		pipe.HIncrBy(ctx, hKey, "correct", int64(req.CorrectCount))
		pipe.HIncrBy(ctx, hKey, "questions", int64(req.QuestionCount))
		pipe.HSet(ctx, hKey, "display_name", req.DisplayName)
		if ttl := windowTTL(window); ttl > 0 {
			pipe.Expire(ctx, zKey, ttl)
			pipe.Expire(ctx, hKey, ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record result for %s: %w", member, err)
	}

	go s.publishUpdate(context.Background(), req.DuelID, windows)
	return nil
}

// Top returns up to limit entries of the current period of window, highest
// score first. limit is capped at the configured top N.
func (s *Service) Top(ctx context.Context, window string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	zKey := s.leaderboardKey(window, s.now())
	ranked, err := s.redis.ZRevRangeWithScores(ctx, zKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard %s: %w", window, err)
	}
	if len(ranked) == 0 {
		return []Entry{}, nil
	}

	type row struct {
		userID uuid.UUID
		score  float64
		meta   *redis.MapStringStringCmd
	}
	rows := make([]row, 0, len(ranked))
	pipe := s.redis.Pipeline()
	for _, z := range ranked {
		member, _ := z.Member.(string)
		userID, err := uuid.Parse(member)
		if err != nil {
			s.logger.Warn().Str("member", member).Msg("skip malformed leaderboard member")
			continue
		}
		rows = append(rows, row{userID: userID, score: z.Score, meta: pipe.HGetAll(ctx, s.metaKey(zKey, userID))})
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("fetch leaderboard metadata %s: %w", window, err)
	}

	return lo.Map(rows, func(r row, _ int) Entry {
		return entryFromMeta(r.userID, r.score, r.meta.Val())
	}), nil
}

// SnapshotTop returns the configured snapshot size for persistence jobs.
func (s *Service) SnapshotTop(ctx context.Context, window string) ([]Entry, error) {
	return s.Top(ctx, window, s.snapshot)
}

func (s *Service) publishUpdate(ctx context.Context, duelID uuid.UUID, windows []string) {
	for _, window := range windows {
		entries, err := s.Top(ctx, window, publishTopN)
		if err != nil {
			s.logger.Warn().Err(err).Str("window", window).Msg("failed to collect leaderboard update")
			continue
		}
		if len(entries) == 0 {
			continue
		}

		data, err := json.Marshal(ws.LeaderboardUpdatePayload{
			Window: window,
			DuelID: duelID.String(),
			Top:    toWSEntries(entries),
		})
		if err != nil {
			continue
		}
		if err := s.redis.Publish(ctx, s.channel, data).Err(); err != nil {
			s.logger.Warn().Err(err).Str("window", window).Msg("failed to publish leaderboard update")
		}
	}
}

func entryFromMeta(userID uuid.UUID, score float64, meta map[string]string) Entry {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(meta[key])
		return n
	}
	e := Entry{
		UserID:        userID,
		DisplayName:   meta["display_name"],
		Score:         score,
		Wins:          atoi("wins"),
		Games:         atoi("games"),
		CorrectTotal:  atoi("correct"),
		QuestionTotal: atoi("questions"),
	}
	if e.QuestionTotal > 0 {
		e.Accuracy = float64(e.CorrectTotal) / float64(e.QuestionTotal)
	}
	return e
}

// leaderboardKey names the sorted set for the period of window containing now.
func (s *Service) leaderboardKey(window string, now time.Time) string {
	if bucket := windowBucket(window, now); bucket != "" {
		return fmt.Sprintf("%s:%s:%s", s.prefix, window, bucket)
	}
	return fmt.Sprintf("%s:%s", s.prefix, window)
}

func (s *Service) metaKey(zKey string, userID uuid.UUID) string {
	return zKey + ":meta:" + userID.String()
}

func windowBucket(window string, now time.Time) string {
	now = now.UTC()
	switch window {
	case WindowDaily:
		return now.Format("2006-01-02")
	case WindowWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case WindowMonthly:
		return now.Format("2006-01")
	default:
		return ""
	}
}

// windowTTL keeps a finished period readable for a while after it closes.
func windowTTL(window string) time.Duration {
	switch window {
	case WindowDaily:
		return 48 * time.Hour
	case WindowWeekly:
		return 14 * 24 * time.Hour
	case WindowMonthly:
		return 62 * 24 * time.Hour
	default:
		return 0
	}
}
