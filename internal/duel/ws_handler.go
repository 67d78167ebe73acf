package duel

import (
	"net/http"

	"github.com/gokatarajesh/word-duel/internal/auth"
	httperrors "github.com/gokatarajesh/word-duel/pkg/http/errors"
)

// HandleWebSocket authenticates the caller and upgrades the connection.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		token, found := auth.TokenFromRequest(r)
		if !found {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
			return
		}

		var err error
		claims, err = h.tokens.ValidateAccessToken(token)
		if err != nil {
			h.logger.Warn().Err(err).Msg("WebSocket token validation failed")
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.HandleConnection(conn, claims.UserID, claims.DisplayName)
}
