package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/gokatarajesh/word-duel/pkg/http/ws"
)

// fanout is the part of the WebSocket hub the broadcaster pushes to.
type fanout interface {
	BroadcastAll(msg ws.Message) error
}

// Broadcaster relays leaderboard changes published by any API instance to the
// players connected to this one.
type Broadcaster struct {
	redis   *redis.Client
	hub     fanout
	channel string
	logger  zerolog.Logger

	mu   sync.Mutex
	last map[string]string // window -> last forwarded top
}

// NewBroadcaster subscribes to channel (default "lb:updates") once Run is called.
func NewBroadcaster(client *redis.Client, hub fanout, channel string, logger zerolog.Logger) *Broadcaster {
	if channel == "" {
		channel = defaultChannel
	}
	return &Broadcaster{
		redis:   client,
		hub:     hub,
		channel: channel,
		logger:  logger.With().Str("component", "leaderboard_broadcaster").Logger(),
		last:    make(map[string]string),
	}
}

// Run blocks until ctx is cancelled or the subscription drops.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.hub == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Surface a bad address or auth failure instead of idling on a dead channel.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.logger.Info().Str("channel", b.channel).Msg("listening for leaderboard updates")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.forward([]byte(msg.Payload))
		}
	}
}

// forward pushes one published update to every connection. Repeats of the
// window's previous top are dropped; each finished duel publishes once per
// window even when the visible ranking did not move.
func (b *Broadcaster) forward(payload []byte) {
	var evt ws.LeaderboardUpdatePayload
	if err := json.Unmarshal(payload, &evt); err != nil {
		b.logger.Warn().Err(err).Msg("dropping malformed leaderboard update")
		return
	}
	if !isValidWindow(evt.Window) {
		b.logger.Warn().Str("window", evt.Window).Msg("dropping update for unknown window")
		return
	}

	top, err := json.Marshal(evt.Top)
	if err != nil {
		return
	}
	b.mu.Lock()
	unchanged := b.last[evt.Window] == string(top)
	b.last[evt.Window] = string(top)
	b.mu.Unlock()
	if unchanged {
		return
	}

	msg, err := ws.NewMessage(ws.TypeLeaderboardUpdate, evt)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to build leaderboard message")
		return
	}
	if err := b.hub.BroadcastAll(msg); err != nil {
		b.logger.Debug().Err(err).Str("window", evt.Window).Msg("leaderboard update not delivered to every client")
	}
}
