// Package queue pairs users waiting for a random opponent.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrTokenNotFound is returned for unknown or already matched queue tokens.
var ErrTokenNotFound = errors.New("queue token not found")

// Manager handles random 1v1 matchmaking. Players are matched first come, first
// served among those asking for the same duel settings.
type Manager struct {
	logger  zerolog.Logger
	mu      sync.Mutex
	waiting []*WaitingPlayer
	now     func() time.Time
	onSize  func(int)
}

// WaitingPlayer represents a queued player.
type WaitingPlayer struct {
	UserID      uuid.UUID
	DisplayName string
	Mode        string
	Preset      string
	WordListID  string
	QueuedAt    time.Time
	QueueToken  uuid.UUID
}

// Request describes who wants a duel and on what terms.
type Request struct {
	UserID      uuid.UUID
	DisplayName string
	Mode        string
	Preset      string
	WordListID  string
}

// Pair is a matched challenger/opponent couple. Opponent is the player who
// waited, Challenger the one whose arrival completed the pair.
type Pair struct {
	Challenger WaitingPlayer
	Opponent   WaitingPlayer
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSizeObserver is called with the waiting count after every change.
func WithSizeObserver(fn func(int)) Option {
	return func(m *Manager) { m.onSize = fn }
}

// NewManager creates a matchmaking queue manager.
func NewManager(logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		logger: logger.With().Str("component", "queue").Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enqueue adds a player and tries to match them immediately. A user already
// waiting is re-queued under the new token.
func (m *Manager) Enqueue(_ context.Context, req Request) (uuid.UUID, *Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.reportSize()

	m.removeUserLocked(req.UserID)

	token := uuid.New()
	player := &WaitingPlayer{
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		Mode:        req.Mode,
		Preset:      req.Preset,
		WordListID:  req.WordListID,
		QueuedAt:    m.now(),
		QueueToken:  token,
	}

	for i, other := range m.waiting {
		if !compatible(player, other) {
			continue
		}
		m.waiting = append(m.waiting[:i:i], m.waiting[i+1:]...)
		m.logger.Info().
			Str("challenger", player.UserID.String()).
			Str("opponent", other.UserID.String()).
			Dur("waited", player.QueuedAt.Sub(other.QueuedAt)).
			Msg("players matched")
		return token, &Pair{Challenger: *player, Opponent: *other}, nil
	}

	m.waiting = append(m.waiting, player)
	m.logger.Info().
		Str("queue_token", token.String()).
		Str("user_id", req.UserID.String()).
		Msg("player enqueued")
	return token, nil, nil
}

// Dequeue removes a waiting player.
func (m *Manager) Dequeue(_ context.Context, token uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.waiting {
		if p.QueueToken == token {
			m.waiting = append(m.waiting[:i:i], m.waiting[i+1:]...)
			m.reportSize()
			m.logger.Info().Str("queue_token", token.String()).Msg("player dequeued")
			return nil
		}
	}
	return ErrTokenNotFound
}

// RemoveUser drops any entry held by userID, e.g. after a disconnect.
func (m *Manager) RemoveUser(userID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := m.removeUserLocked(userID)
	if removed {
		m.reportSize()
	}
	return removed
}

// Position returns the 0-based queue position, or -1 if the token is not waiting.
func (m *Manager) Position(token uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.waiting {
		if p.QueueToken == token {
			return i
		}
	}
	return -1
}

// Len returns how many players are waiting.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiting)
}

func (m *Manager) removeUserLocked(userID uuid.UUID) bool {
	for i, p := range m.waiting {
		if p.UserID == userID {
			m.waiting = append(m.waiting[:i:i], m.waiting[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Manager) reportSize() {
	if m.onSize != nil {
		m.onSize(len(m.waiting))
	}
}

func compatible(a, b *WaitingPlayer) bool {
	return a.UserID != b.UserID &&
		a.Mode == b.Mode &&
		a.Preset == b.Preset &&
		a.WordListID == b.WordListID
}
