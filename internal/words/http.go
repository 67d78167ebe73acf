package words

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/word-duel/pkg/http/errors"
)

// HTTPHandler serves the word list endpoints.
type HTTPHandler struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandler creates word list handlers.
func NewHTTPHandler(service *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		logger:  logger.With().Str("component", "words_http").Logger(),
	}
}

// Routes mounts GET and PUT /{listID}. Writes should sit behind
// auth.RequireRegistered.
func (h *HTTPHandler) Routes(r chi.Router, write func(http.Handler) http.Handler) {
	r.Get("/{listID}", h.HandleGet)
	r.With(write).Put("/{listID}", h.HandlePut)
}

// HandleGet handles GET /v1/wordlists/{listID}.
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), chi.URLParam(r, "listID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, list)
}

// HandlePut handles PUT /v1/wordlists/{listID}.
func (h *HTTPHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var list List
	if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	list.ID = chi.URLParam(r, "listID")

	saved, err := h.service.Save(r.Context(), list)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, saved)
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrListNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeWordListNotFound, err.Error())
	case errors.Is(err, ErrEmptyList):
		httperrors.RespondError(w, http.StatusUnprocessableEntity, httperrors.ErrCodeWordListInvalid, err.Error())
	case errors.Is(err, ErrReadOnlyList):
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, err.Error())
	default:
		h.logger.Error().Err(err).Msg("word list request failed")
		httperrors.RespondInternalError(w, "Internal error")
	}
}
