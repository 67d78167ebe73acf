package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	sqlcgen "github.com/gokatarajesh/word-duel/internal/db/sqlc"
	httperrors "github.com/gokatarajesh/word-duel/pkg/http/errors"
	ws "github.com/gokatarajesh/word-duel/pkg/http/ws"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	sourceRedis    = "redis"
	sourceSnapshot = "snapshot"
)

type snapshotReader interface {
	ListRecentSnapshots(ctx context.Context, arg sqlcgen.ListRecentSnapshotsParams) ([]sqlcgen.LeaderboardSnapshot, error)
}

// HTTPHandler serves GET /v1/leaderboards/{window}. Live Redis data is
// preferred; the newest Postgres snapshot is served when Redis is empty or down.
type HTTPHandler struct {
	live      topSource
	snapshots snapshotReader
	logger    zerolog.Logger
	now       func() time.Time
}

// NewHTTPHandler accepts nil for either source.
func NewHTTPHandler(live topSource, snapshots snapshotReader, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		live:      live,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "leaderboard_http").Logger(),
		now:       time.Now,
	}
}

type topResponse struct {
	Window      string                `json:"window"`
	Top         []ws.LeaderboardEntry `json:"top"`
	Source      string                `json:"source"`
	RetrievedAt string                `json:"retrievedAt"`
}

func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	window := chi.URLParam(r, "window")
	if !isValidWindow(window) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownWindow, "unknown leaderboard window")
		return
	}
	limit := pageSize(r.URL.Query().Get("limit"))

	resp := topResponse{
		Window:      window,
		Top:         h.fromRedis(r.Context(), window, limit),
		Source:      sourceRedis,
		RetrievedAt: h.now().UTC().Format(time.RFC3339),
	}
	if len(resp.Top) == 0 {
		resp.Source = sourceSnapshot
		resp.Top = h.fromSnapshot(r.Context(), window, limit)
	}
	if resp.Top == nil {
		resp.Top = []ws.LeaderboardEntry{}
	}
	httperrors.RespondJSON(w, http.StatusOK, resp)
}

// pageSize falls back to the default for anything outside 1..maxPageSize.
func pageSize(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxPageSize {
		return defaultPageSize
	}
	return n
}

func (h *HTTPHandler) fromRedis(ctx context.Context, window string, limit int) []ws.LeaderboardEntry {
	if h.live == nil {
		return nil
	}
	entries, err := h.live.Top(ctx, window, limit)
	if err != nil {
		h.logger.Warn().Err(err).Str("window", window).Msg("live leaderboard unavailable")
		return nil
	}
	return toWSEntries(entries)
}

func (h *HTTPHandler) fromSnapshot(ctx context.Context, window string, limit int) []ws.LeaderboardEntry {
	if h.snapshots == nil {
		return nil
	}
	rows, err := h.snapshots.ListRecentSnapshots(ctx, sqlcgen.ListRecentSnapshotsParams{TimeWindow: window, Limit: 1})
	if err != nil {
		h.logger.Warn().Err(err).Str("window", window).Msg("snapshot lookup failed")
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	var entries []ws.LeaderboardEntry
	if err := json.Unmarshal(rows[0].Entries, &entries); err != nil {
		h.logger.Warn().Err(err).Int64("snapshot_id", rows[0].SnapshotID).Msg("snapshot payload unreadable")
		return nil
	}
	return entries[:min(limit, len(entries))]
}
