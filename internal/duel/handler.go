package duel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/word-duel/internal/auth"
	"github.com/gokatarajesh/word-duel/internal/duel/hint"
	"github.com/gokatarajesh/word-duel/internal/duel/queue"
	httperrors "github.com/gokatarajesh/word-duel/pkg/http/errors"
	ws "github.com/gokatarajesh/word-duel/pkg/http/ws"
)

const (
	messageTimeout = 5 * time.Second
	// timerGrace lets answers sent right at the deadline land before the
	// question is closed.
	timerGrace = 250 * time.Millisecond
)

// Handler routes WebSocket and REST traffic to the duel service and drives the
// per-question timers.
type Handler struct {
	service  *Service
	queue    *queue.Manager
	hub      *ws.Hub
	tokens   auth.TokenValidator
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
	closed bool
}

// NewHandler creates a duel handler.
func NewHandler(service *Service, queueMgr *queue.Manager, hub *ws.Hub, tokens auth.TokenValidator, upgrader websocket.Upgrader, logger zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		queue:    queueMgr,
		hub:      hub,
		tokens:   tokens,
		upgrader: upgrader,
		logger:   logger.With().Str("component", "duel_handler").Logger(),
		timers:   make(map[uuid.UUID]*time.Timer),
	}
}

// Close stops every pending question timer and finalizes the duels those
// timers were driving, since nothing else would ever close their questions.
// Unanswered questions count as missed.
func (h *Handler) Close(ctx context.Context) {
	h.mu.Lock()
	h.closed = true
	pending := make([]uuid.UUID, 0, len(h.timers))
	for id, t := range h.timers {
		t.Stop()
		delete(h.timers, id)
		pending = append(pending, id)
	}
	h.mu.Unlock()

	for _, id := range pending {
		rec, err := h.service.Finalize(ctx, id)
		switch {
		case errors.Is(err, ErrDuelNotActive), errors.Is(err, ErrDuelNotFound):
			continue
		case err != nil:
			h.logger.Warn().Err(err).Str("duel_id", id.String()).Msg("failed to finalize duel on shutdown")
			continue
		}
		h.progressed(rec)
	}
	if len(pending) > 0 {
		h.logger.Info().Int("duels", len(pending)).Msg("finalized in-flight duels")
	}
}

// HandleConnection serves one authenticated WebSocket until it closes.
func (h *Handler) HandleConnection(conn *websocket.Conn, userID uuid.UUID, displayName string) {
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(userID, wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
		defer cancel()
		return h.handleMessage(ctx, userID, displayName, msg)
	})

	h.hub.UnregisterConnection(userID, wsConn)
	if h.queue.RemoveUser(userID) {
		h.logger.Debug().Str("user_id", userID.String()).Msg("removed disconnected user from queue")
	}
}

func (h *Handler) handleMessage(ctx context.Context, userID uuid.UUID, displayName string, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoinQueue:
		return h.handleJoinQueue(ctx, userID, displayName, msg.Payload)
	case ws.TypeCancelQueue:
		return h.handleCancelQueue(ctx, userID, msg.Payload)
	case ws.TypeJoinDuel:
		return h.handleJoinDuel(ctx, userID, msg.Payload)
	case ws.TypeSubmitAnswer:
		return h.handleSubmitAnswer(ctx, userID, msg.Payload)
	case ws.TypeRequestHint:
		return h.withDuel(ctx, userID, msg.Payload, h.service.RequestHint)
	case ws.TypeAcceptHint:
		return h.withDuel(ctx, userID, msg.Payload, h.service.AcceptHint)
	case ws.TypeEliminateOption:
		return h.handleEliminate(ctx, userID, msg.Payload)
	case ws.TypeTriggerSabotage:
		return h.handleSabotage(ctx, userID, msg.Payload)
	case ws.TypeRequestQuestion:
		return h.handleRequestQuestion(ctx, userID, msg.Payload)
	default:
		return h.sendError(userID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleJoinQueue(ctx context.Context, userID uuid.UUID, displayName string, payload json.RawMessage) error {
	var req ws.JoinQueuePayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid join_queue payload")
		}
	}

	opts := h.service.Options()
	if req.Mode == "" {
		req.Mode = string(opts.Mode)
	}
	if req.Preset == "" {
		req.Preset = string(opts.Preset)
	}

	token, pair, err := h.queue.Enqueue(ctx, queue.Request{
		UserID:      userID,
		DisplayName: displayName,
		Mode:        req.Mode,
		Preset:      req.Preset,
		WordListID:  req.WordListID,
	})
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeEnqueueFailed, err.Error())
	}

	if pair == nil {
		return h.send(userID, ws.TypeQueueUpdate, ws.QueueUpdatePayload{
			QueueToken: token.String(),
			Status:     "waiting",
			Position:   h.queue.Position(token),
		})
	}

	rec, err := h.service.CreateDuel(ctx, CreateRequest{
		ChallengerID:          pair.Challenger.UserID,
		ChallengerDisplayName: pair.Challenger.DisplayName,
		OpponentID:            pair.Opponent.UserID,
		OpponentDisplayName:   pair.Opponent.DisplayName,
		Mode:                  Mode(req.Mode),
		Preset:                req.Preset,
		WordListID:            req.WordListID,
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to create duel for matched pair")
		_, code := errorCode(err)
		for _, uid := range []uuid.UUID{pair.Challenger.UserID, pair.Opponent.UserID} {
			_ = h.sendError(uid, code, err.Error())
		}
		return nil
	}

	h.Announce(rec)
	return nil
}

func (h *Handler) handleCancelQueue(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.CancelQueuePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid cancel_queue payload")
	}

	token, err := uuid.Parse(req.QueueToken)
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidQueueToken, "Invalid queue token")
	}

	if err := h.queue.Dequeue(ctx, token); err != nil {
		return h.sendError(userID, httperrors.ErrCodeQueueTokenNotFound, err.Error())
	}
	return h.send(userID, ws.TypeQueueUpdate, ws.QueueUpdatePayload{
		QueueToken: token.String(),
		Status:     "cancelled",
		Position:   -1,
	})
}

func (h *Handler) handleJoinDuel(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	duelID, ok := h.parseDuelRef(userID, payload)
	if !ok {
		return nil
	}

	rec, err := h.service.Get(ctx, duelID)
	if err != nil {
		return h.sendServiceError(userID, err)
	}
	role := rec.RoleOf(userID)
	if role == "" {
		return h.sendServiceError(userID, ErrNotParticipant)
	}

	h.hub.JoinDuel(rec.ID, userID)
	if err := h.send(userID, ws.TypeDuelState, rec.View(role, h.now())); err != nil {
		return err
	}
	if rec.Status == StatusActive {
		h.scheduleTimer(rec)
		return h.sendQuestion(rec, role)
	}
	if rec.Status == StatusCompleted {
		return h.send(userID, ws.TypeDuelComplete, completePayload(rec))
	}
	return nil
}

func (h *Handler) handleSubmitAnswer(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.SubmitAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid submit_answer payload")
	}
	duelID, err := uuid.Parse(req.DuelID)
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidDuelID, "Invalid duel ID")
	}

	rec, res, err := h.service.SubmitAnswer(ctx, duelID, userID, req.QuestionIndex, req.Answer)
	if err != nil {
		return h.sendServiceError(userID, err)
	}

	ack := ws.AnswerAckPayload{
		DuelID:           req.DuelID,
		QuestionIndex:    res.Index,
		Accepted:         true,
		Correct:          res.Correct,
		Late:             res.Late,
		Points:           res.Points,
		ServerReceivedAt: res.Received.Format(time.RFC3339Nano),
	}
	if err := h.send(userID, ws.TypeAnswerAck, ack); err != nil {
		h.logger.Debug().Err(err).Msg("answer ack not delivered")
	}

	if res.Advanced {
		h.progressed(rec)
	} else {
		h.broadcastState(rec)
	}
	return nil
}

func (h *Handler) handleEliminate(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.EliminateOptionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid eliminate_option payload")
	}
	duelID, err := uuid.Parse(req.DuelID)
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidDuelID, "Invalid duel ID")
	}

	rec, err := h.service.EliminateOption(ctx, duelID, userID, req.Option)
	if err != nil {
		return h.sendServiceError(userID, err)
	}
	h.broadcastState(rec)
	return nil
}

func (h *Handler) handleSabotage(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.TriggerSabotagePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid trigger_sabotage payload")
	}
	duelID, err := uuid.Parse(req.DuelID)
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidDuelID, "Invalid duel ID")
	}

	rec, err := h.service.TriggerSabotage(ctx, duelID, userID, req.Kind)
	if err != nil {
		return h.sendServiceError(userID, err)
	}

	sab := rec.Participant(rec.RoleOf(userID).Other()).Sabotage
	msg, err := ws.NewMessage(ws.TypeSabotage, ws.SabotagePayload{
		DuelID:    rec.ID.String(),
		Target:    string(sab.Target),
		Kind:      sab.Kind,
		ExpiresAt: sab.ExpiresAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	if err := h.hub.BroadcastToDuel(rec.ID, msg); err != nil {
		h.logger.Debug().Err(err).Msg("sabotage broadcast incomplete")
	}
	h.broadcastState(rec)
	return nil
}

func (h *Handler) handleRequestQuestion(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	duelID, ok := h.parseDuelRef(userID, payload)
	if !ok {
		return nil
	}
	view, err := h.service.Question(ctx, duelID, userID)
	if err != nil {
		return h.sendServiceError(userID, err)
	}
	return h.send(userID, ws.TypeQuestion, view)
}

// withDuel handles the payload-free hint messages.
func (h *Handler) withDuel(ctx context.Context, userID uuid.UUID, payload json.RawMessage, op func(context.Context, uuid.UUID, uuid.UUID) (*Record, error)) error {
	duelID, ok := h.parseDuelRef(userID, payload)
	if !ok {
		return nil
	}
	rec, err := op(ctx, duelID, userID)
	if err != nil {
		return h.sendServiceError(userID, err)
	}
	h.broadcastState(rec)
	return nil
}

// Announce joins both players to a new duel, sends each their role, state and
// first question, and starts the question timer.
func (h *Handler) Announce(rec *Record) {
	for _, role := range []hint.Role{hint.RoleChallenger, hint.RoleOpponent} {
		userID := rec.Participant(role).UserID
		h.hub.JoinDuel(rec.ID, userID)
		if err := h.send(userID, ws.TypeDuelFound, foundPayload(rec, role)); err != nil {
			h.logger.Debug().Err(err).Str("user_id", userID.String()).Msg("duel_found not delivered")
		}
	}
	h.broadcastState(rec)
	h.sendQuestions(rec)
	h.scheduleTimer(rec)
}

// progressed publishes a record that moved past a question.
func (h *Handler) progressed(rec *Record) {
	h.broadcastState(rec)
	if rec.Status != StatusActive {
		h.stopTimer(rec.ID)
		if rec.Status == StatusCompleted {
			msg, err := ws.NewMessage(ws.TypeDuelComplete, completePayload(rec))
			if err == nil {
				if err := h.hub.BroadcastToDuel(rec.ID, msg); err != nil {
					h.logger.Debug().Err(err).Msg("duel_complete broadcast incomplete")
				}
			}
		}
		h.hub.CloseDuel(rec.ID)
		return
	}
	h.sendQuestions(rec)
	h.scheduleTimer(rec)
}

func (h *Handler) scheduleTimer(rec *Record) {
	if rec.Status != StatusActive {
		h.stopTimer(rec.ID)
		return
	}
	delay := rec.Deadline().Sub(h.now()) + timerGrace
	if delay < 0 {
		delay = 0
	}
	id := rec.ID

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if t, ok := h.timers[id]; ok {
		t.Stop()
	}
	h.timers[id] = time.AfterFunc(delay, func() { h.onTimeout(id) })
}

func (h *Handler) stopTimer(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.timers[id]; ok {
		t.Stop()
		delete(h.timers, id)
	}
}

func (h *Handler) onTimeout(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	rec, moved, err := h.service.Advance(ctx, id)
	switch {
	case errors.Is(err, ErrDuelNotActive), errors.Is(err, ErrDuelNotFound):
		h.stopTimer(id)
		return
	case err != nil:
		h.logger.Warn().Err(err).Str("duel_id", id.String()).Msg("question timeout failed")
		h.scheduleRetry(id)
		return
	}
	if !moved {
		h.scheduleTimer(rec)
		return
	}
	h.progressed(rec)
}

func (h *Handler) scheduleRetry(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.timers[id] = time.AfterFunc(time.Second, func() { h.onTimeout(id) })
}

func (h *Handler) broadcastState(rec *Record) {
	now := h.now()
	for _, role := range []hint.Role{hint.RoleChallenger, hint.RoleOpponent} {
		userID := rec.Participant(role).UserID
		if err := h.send(userID, ws.TypeDuelState, rec.View(role, now)); err != nil {
			h.logger.Debug().Err(err).Str("user_id", userID.String()).Msg("duel_state not delivered")
		}
	}
}

func (h *Handler) sendQuestions(rec *Record) {
	for _, role := range []hint.Role{hint.RoleChallenger, hint.RoleOpponent} {
		if err := h.sendQuestion(rec, role); err != nil {
			h.logger.Debug().Err(err).Str("role", string(role)).Msg("question not delivered")
		}
	}
}

func (h *Handler) sendQuestion(rec *Record, role hint.Role) error {
	view := h.service.questionView(rec, role, h.now())
	return h.send(rec.Participant(role).UserID, ws.TypeQuestion, view)
}

func (h *Handler) parseDuelRef(userID uuid.UUID, payload json.RawMessage) (uuid.UUID, bool) {
	var req ws.DuelRefPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		_ = h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid payload")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.DuelID)
	if err != nil {
		_ = h.sendError(userID, httperrors.ErrCodeInvalidDuelID, "Invalid duel ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) now() time.Time {
	return h.service.opts.Now()
}

func (h *Handler) send(userID uuid.UUID, msgType string, payload interface{}) error {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return h.hub.SendToUser(userID, msg)
}

func (h *Handler) sendServiceError(userID uuid.UUID, err error) error {
	status, code := errorCode(err)
	if status >= 500 {
		h.logger.Error().Err(err).Str("user_id", userID.String()).Msg("duel operation failed")
		return h.sendError(userID, code, "Internal error")
	}
	return h.sendError(userID, code, err.Error())
}

func (h *Handler) sendError(userID uuid.UUID, code, message string) error {
	return h.send(userID, ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
}
