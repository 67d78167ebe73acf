package duel

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gokatarajesh/word-duel/internal/auth"
	"github.com/gokatarajesh/word-duel/internal/auth/jwt"
	httperrors "github.com/gokatarajesh/word-duel/pkg/http/errors"
)

// CreateDuelRequest is the body of POST /v1/duels. The caller is the challenger.
type CreateDuelRequest struct {
	OpponentID          string `json:"opponent_id"`
	OpponentDisplayName string `json:"opponent_display_name"`
	Mode                string `json:"mode,omitempty"`
	Preset              string `json:"preset,omitempty"`
	WordListID          string `json:"word_list_id,omitempty"`
	QuestionCount       int    `json:"question_count,omitempty"`
}

// Routes mounts the REST endpoints. Callers must already be authenticated.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.CreateDuel)
	r.Route("/{duelID}", func(r chi.Router) {
		r.Get("/", h.GetDuel)
		r.Get("/question", h.GetQuestion)
		r.Post("/cancel", h.CancelDuel)
	})
}

// CreateDuel handles POST /v1/duels.
func (h *Handler) CreateDuel(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req CreateDuelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	opponentID, err := uuid.Parse(req.OpponentID)
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "opponent_id must be a UUID", "opponent_id")
		return
	}
	if req.QuestionCount < 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "question_count must not be negative", "question_count")
		return
	}

	rec, err := h.service.CreateDuel(r.Context(), CreateRequest{
		ChallengerID:          claims.UserID,
		ChallengerDisplayName: claims.DisplayName,
		OpponentID:            opponentID,
		OpponentDisplayName:   req.OpponentDisplayName,
		Mode:                  Mode(req.Mode),
		Preset:                req.Preset,
		WordListID:            req.WordListID,
		QuestionCount:         req.QuestionCount,
	})
	if err != nil {
		h.respondServiceError(w, err, claims.UserID)
		return
	}

	h.Announce(rec)
	httperrors.RespondJSON(w, http.StatusCreated, rec.View(rec.RoleOf(claims.UserID), h.now()))
}

// GetDuel handles GET /v1/duels/{duelID}.
func (h *Handler) GetDuel(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	duelID, ok := duelIDParam(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Get(r.Context(), duelID)
	if err != nil {
		h.respondServiceError(w, err, claims.UserID)
		return
	}
	role := rec.RoleOf(claims.UserID)
	if role == "" {
		h.respondServiceError(w, ErrNotParticipant, claims.UserID)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, rec.View(role, h.now()))
}

// GetQuestion handles GET /v1/duels/{duelID}/question.
func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	duelID, ok := duelIDParam(w, r)
	if !ok {
		return
	}

	view, err := h.service.Question(r.Context(), duelID, claims.UserID)
	if err != nil {
		h.respondServiceError(w, err, claims.UserID)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, view)
}

// CancelDuel handles POST /v1/duels/{duelID}/cancel.
func (h *Handler) CancelDuel(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	duelID, ok := duelIDParam(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Cancel(r.Context(), duelID, claims.UserID)
	if err != nil {
		h.respondServiceError(w, err, claims.UserID)
		return
	}
	h.progressed(rec)
	httperrors.RespondJSON(w, http.StatusOK, rec.View(rec.RoleOf(claims.UserID), h.now()))
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, userID uuid.UUID) {
	status, code := errorCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("user_id", userID.String()).Msg("duel request failed")
		httperrors.RespondInternalError(w, "Internal error")
		return
	}
	httperrors.RespondError(w, status, code, err.Error())
}

func requireClaims(w http.ResponseWriter, r *http.Request) (*jwt.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
	}
	return claims, ok
}

func duelIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "duelID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidDuelID, "Invalid duel ID")
		return uuid.Nil, false
	}
	return id, true
}
